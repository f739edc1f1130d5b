package models

import (
	"sync"
	"time"
)

// Sender delivers one named event to a single connected client. The websocket
// layer implements it; game logic never touches a socket directly. Send must
// not block (implementations buffer and drop if the client is lagging).
type Sender interface {
	Send(event string, payload any)
}

// RoundData is scoped to the current round only and replaced each round.
type RoundData struct {
	Prompt string
	// Participants is the snapshot of player records taken at round start.
	// Answers and votes only ever reference these ids (the reconnection
	// remap rewrites them in place).
	Participants map[string]*Player
	Answers      map[string]Answer
	Votes        map[string]string // voter id -> voted-for id
	StartedAt    time.Time
}

// Room is one game instance, keyed by a human-shareable code.
type Room struct {
	Code    string
	Players map[string]*Player

	Phase           Phase
	IsGameStarted   bool
	CurrentRound    int
	TotalRounds     int
	RoundsCompleted int
	Round           *RoundData

	AIPlayerID string
	AIActive   bool

	// Style instructions are write-once per player and merged lazily into
	// one combined instruction set at round start.
	PlayerStyleInstructions   map[string]string
	CombinedStyleInstructions string
	TopicSuggestions          []string

	UsedPrompts         map[string]bool
	PregeneratedPrompts []string

	// Cumulative counters, durable for the life of the room.
	VotesReceivedByPlayer     map[string]int
	CorrectDetectionsByPlayer map[string]int
	VoteHistoryByRound        []map[string]string
	AnswerHistoryByRound      []map[string]Answer

	// PhaseSeq increments on every phase entry. A deadline timer or a
	// returning generation call compares the sequence it captured against
	// the current one; a mismatch means a competing advance already won.
	PhaseSeq   int
	phaseTimer *time.Timer

	mu      sync.Mutex
	clients map[string]Sender // player id -> connection
}

// NewRoom creates an empty room in the Idle phase
func NewRoom(code string) *Room {
	return &Room{
		Code:                      code,
		Players:                   make(map[string]*Player),
		Phase:                     PhaseIdle,
		TotalRounds:               3,
		PlayerStyleInstructions:   make(map[string]string),
		UsedPrompts:               make(map[string]bool),
		VotesReceivedByPlayer:     make(map[string]int),
		CorrectDetectionsByPlayer: make(map[string]int),
		clients:                   make(map[string]Sender),
	}
}

// Lock acquires the room's lock. Every event against a room (message, timer
// fire, disconnect) holds it for the whole read-decide-mutate-broadcast
// sequence; partial application of an event is never observable.
func (r *Room) Lock() {
	r.mu.Lock()
}

// Unlock releases the room's lock
func (r *Room) Unlock() {
	r.mu.Unlock()
}

// AttachClient binds a connection to a player id (must be called with lock held)
func (r *Room) AttachClient(playerID string, s Sender) {
	r.clients[playerID] = s
}

// DetachClient removes a player's connection (must be called with lock held)
func (r *Room) DetachClient(playerID string) {
	delete(r.clients, playerID)
}

// Clients returns a copy of the attached connections (must be called with lock held)
func (r *Room) Clients() map[string]Sender {
	clients := make(map[string]Sender, len(r.clients))
	for id, s := range r.clients {
		clients[id] = s
	}
	return clients
}

// ClientFor returns the connection for a player, if any (must be called with lock held)
func (r *Room) ClientFor(playerID string) (Sender, bool) {
	s, ok := r.clients[playerID]
	return s, ok
}

// SetPhaseTimer replaces the pending deadline timer, stopping any previous
// one. Exactly one timer exists per phase (must be called with lock held).
func (r *Room) SetPhaseTimer(t *time.Timer) {
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
	}
	r.phaseTimer = t
}

// StopPhaseTimer cancels the pending deadline timer so a stale fire cannot
// trigger a duplicate advance (must be called with lock held).
func (r *Room) StopPhaseTimer() {
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
		r.phaseTimer = nil
	}
}

// ActiveHumanCount counts connected non-AI players. The AI never counts
// toward room occupancy.
func (r *Room) ActiveHumanCount() int {
	count := 0
	for _, p := range r.Players {
		if !p.IsAI && p.IsActive {
			count++
		}
	}
	return count
}

// HumanParticipants returns the non-AI players in the current round snapshot
func (rd *RoundData) HumanParticipants(aiPlayerID string) []*Player {
	humans := make([]*Player, 0, len(rd.Participants))
	for id, p := range rd.Participants {
		if id != aiPlayerID && !p.IsAI {
			humans = append(humans, p)
		}
	}
	return humans
}
