package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/kstonekuan/among-humans/internal/models"
)

// reconnectLocked resurrects an inactive player record under a brand-new
// connection id. The remap of every old-id reference — players, cumulative
// counters, round histories, and the in-flight round's participants, answer
// keys, and vote keys and values — happens in one critical section, so no
// other event on the room can ever observe a partial remap.
// Must be called with the room lock held.
func (s *Service) reconnectLocked(room *models.Room, old *models.Player, sender models.Sender) *models.Player {
	fresh := &models.Player{
		ID:                   uuid.NewString(),
		DisplayName:          old.DisplayName,
		Score:                old.Score,
		IsReady:              old.IsReady,
		HasAnsweredThisRound: old.HasAnsweredThisRound,
		HasVotedThisRound:    old.HasVotedThisRound,
		IsActive:             true,
	}

	delete(room.Players, old.ID)
	room.Players[fresh.ID] = fresh
	room.DetachClient(old.ID)

	remapKey(room.PlayerStyleInstructions, old.ID, fresh.ID)
	remapKey(room.VotesReceivedByPlayer, old.ID, fresh.ID)
	remapKey(room.CorrectDetectionsByPlayer, old.ID, fresh.ID)
	for _, roundVotes := range room.VoteHistoryByRound {
		remapVotes(roundVotes, old.ID, fresh.ID)
	}
	for _, roundAnswers := range room.AnswerHistoryByRound {
		remapKey(roundAnswers, old.ID, fresh.ID)
	}

	if room.Round != nil {
		if _, ok := room.Round.Participants[old.ID]; ok {
			delete(room.Round.Participants, old.ID)
			room.Round.Participants[fresh.ID] = fresh
		}
		remapKey(room.Round.Answers, old.ID, fresh.ID)
		remapVotes(room.Round.Votes, old.ID, fresh.ID)
	}

	room.AttachClient(fresh.ID, sender)

	sender.Send(EventRoomJoined, joinedPayload(room, fresh, true))
	broadcastPlayersLocked(room)
	s.replayStateLocked(room, fresh, sender)
	return fresh
}

// remapKey moves m[oldID] to m[newID] if present
func remapKey[V any](m map[string]V, oldID, newID string) {
	if v, ok := m[oldID]; ok {
		delete(m, oldID)
		m[newID] = v
	}
}

// remapVotes rewrites oldID both as a voter key and as a vote target value
func remapVotes(votes map[string]string, oldID, newID string) {
	remapKey(votes, oldID, newID)
	for voter, target := range votes {
		if target == oldID {
			votes[voter] = newID
		}
	}
}

// replayStateLocked sends the reconnecting client enough phase-specific
// state to rebuild its screen: prompt and deadline budget mid-answering,
// participants and its own prior vote mid-voting, round progress when idle.
// Must be called with the room lock held.
func (s *Service) replayStateLocked(room *models.Room, player *models.Player, sender models.Sender) {
	switch room.Phase {
	case models.PhaseAnswering:
		payload := PhasePayload{
			Kind:        models.PhaseAnswering,
			Round:       room.CurrentRound,
			TotalRounds: room.TotalRounds,
			Prompt:      room.Round.Prompt,
			Seconds:     remainingSeconds(room.Round.StartedAt, s.answerTime),
		}
		if a, ok := room.Round.Answers[player.ID]; ok {
			payload.YourAnswer = a.Text
		}
		sender.Send(EventPhaseEntered, payload)

	case models.PhaseVoting:
		aiName := ""
		if aiPlayer, ok := room.Players[room.AIPlayerID]; ok {
			aiName = aiPlayer.DisplayName
		}
		participants := make([]PlayerView, 0, len(room.Round.Participants))
		for _, p := range room.Round.Participants {
			participants = append(participants, PlayerView{ID: p.ID, DisplayName: p.DisplayName, Score: p.Score, IsActive: p.IsActive})
		}
		payload := PhasePayload{
			Kind:    models.PhaseVoting,
			Round:   room.CurrentRound,
			Players: participants,
			AIName:  aiName,
		}
		// Restore the client's "your selection" marker.
		if target, ok := room.Round.Votes[player.ID]; ok {
			payload.YourVote = target
		}
		sender.Send(EventPhaseEntered, payload)

	default:
		sender.Send(EventRoundsConfigured, map[string]any{"totalRounds": room.TotalRounds})
		sender.Send(EventPhaseEntered, PhasePayload{
			Kind:        models.PhaseIdle,
			Round:       room.RoundsCompleted,
			TotalRounds: room.TotalRounds,
		})
	}
}

func remainingSeconds(startedAt time.Time, budget time.Duration) int {
	remaining := budget - time.Since(startedAt)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}
