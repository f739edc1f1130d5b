package game

import (
	"github.com/kstonekuan/among-humans/internal/models"
)

// Server→client event names (§ event contract)
const (
	EventRoomCreated      = "room_created"
	EventRoomJoined       = "room_joined"
	EventRoomError        = "room_error"
	EventPlayersUpdated   = "players_updated"
	EventPhaseEntered     = "phase_entered"
	EventVoteResults      = "vote_results"
	EventRoundsConfigured = "rounds_configured"
	EventGameComplete     = "game_complete"
)

// PlayerView is the client-safe projection of a player. The AI appears like
// any other player; IsAI is never serialized before the reveal.
type PlayerView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	IsReady     bool   `json:"isReady"`
	HasAnswered bool   `json:"hasAnswered"`
	HasVoted    bool   `json:"hasVoted"`
	IsActive    bool   `json:"isActive"`
}

// ReviewAnswer is one entry of the order-randomized answer reveal
type ReviewAnswer struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Text        string `json:"text"`
}

// PhasePayload carries everything a client needs to render the phase it just
// entered. Fields are populated per Kind.
type PhasePayload struct {
	Kind        models.Phase   `json:"kind"`
	Round       int            `json:"round,omitempty"`
	TotalRounds int            `json:"totalRounds,omitempty"`
	Prompt      string         `json:"prompt,omitempty"`
	Seconds     int            `json:"seconds,omitempty"`
	Answers     []ReviewAnswer `json:"answers,omitempty"`
	Players     []PlayerView   `json:"participants,omitempty"`
	AIName      string         `json:"aiDisplayName,omitempty"`

	// Personal fields, only set on replays to a reconnecting client.
	YourAnswer string `json:"yourAnswer,omitempty"`
	YourVote   string `json:"yourVote,omitempty"`
}

// VoteResultsPayload is broadcast once per round when voting ends
type VoteResultsPayload struct {
	Round       int               `json:"round"`
	Outcome     RoundOutcome      `json:"outcome"`
	Tally       map[string]int    `json:"tally"`
	Votes       map[string]string `json:"votes"`
	CaughtID    string            `json:"caughtPlayerId,omitempty"`
	AIPlayerID  string            `json:"aiPlayerId"`
	ScoreDeltas map[string]int    `json:"scoreDeltas"`
	Players     []PlayerView      `json:"players"`
}

// GameCompletePayload ends the game with cumulative statistics
type GameCompletePayload struct {
	Players           []PlayerView   `json:"players"`
	AIPlayerID        string         `json:"aiPlayerId"`
	VotesReceived     map[string]int `json:"votesReceived"`
	CorrectDetections map[string]int `json:"correctDetections"`
	DeceptionBonus    map[string]int `json:"deceptionBonus"`
	RoundsPlayed      int            `json:"roundsPlayed"`
}

// playerViewsLocked projects the room's player list for broadcast.
// Must be called with the room lock held.
func playerViewsLocked(room *models.Room) []PlayerView {
	views := make([]PlayerView, 0, len(room.Players))
	for _, p := range room.Players {
		views = append(views, PlayerView{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
			IsReady:     p.IsReady,
			HasAnswered: p.HasAnsweredThisRound,
			HasVoted:    p.HasVotedThisRound,
			IsActive:    p.IsActive,
		})
	}
	return views
}

// broadcastLocked fans one event out to every attached connection.
// Senders never block, so holding the lock across the fan-out keeps each
// event's mutate-then-broadcast sequence atomic without risking a stall.
func broadcastLocked(room *models.Room, event string, payload any) {
	for _, c := range room.Clients() {
		c.Send(event, payload)
	}
}

func broadcastPlayersLocked(room *models.Room) {
	broadcastLocked(room, EventPlayersUpdated, playerViewsLocked(room))
}
