package models

// Player represents one participant in a room, human or AI.
type Player struct {
	ID                   string `json:"id"`
	DisplayName          string `json:"displayName"`
	IsAI                 bool   `json:"-"`
	Score                int    `json:"score"`
	IsReady              bool   `json:"isReady"`
	HasAnsweredThisRound bool   `json:"hasAnswered"`
	HasVotedThisRound    bool   `json:"hasVoted"`
	// IsActive is false between a disconnect and either a reconnect or the
	// room being destroyed. Inactive players keep their record so a rejoin
	// under the same display name can resurrect them.
	IsActive bool `json:"isActive"`
}

// ResetForNewRound clears the per-round flags
func (p *Player) ResetForNewRound() {
	p.HasAnsweredThisRound = false
	p.HasVotedThisRound = false
}

// Answer is one player's submission for a round
type Answer struct {
	Text        string `json:"text"`
	TimeSpentMs int64  `json:"timeSpentMs"`
}
