package models

// Phase represents the current phase of a room's round state machine
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseAnswering Phase = "answering"
	PhaseReviewing Phase = "reviewing"
	PhaseVoting    Phase = "voting"
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}
