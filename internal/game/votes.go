package game

import (
	"github.com/rs/zerolog/log"

	"github.com/kstonekuan/among-humans/internal/models"
)

// CastVote records one vote. Silent no-ops: wrong phase, non-participant
// voter or target, self-votes, the AI (it votes automatically), and second
// votes from the same player.
func (s *Service) CastVote(room *models.Room, voterID, targetID string) {
	room.Lock()
	defer room.Unlock()

	if room.Phase != models.PhaseVoting || room.Round == nil {
		return
	}
	voter, ok := room.Round.Participants[voterID]
	if !ok || voter.IsAI {
		return
	}
	if _, ok := room.Round.Participants[targetID]; !ok {
		return
	}
	if voterID == targetID {
		return
	}
	if _, already := room.Round.Votes[voterID]; already {
		return
	}

	room.Round.Votes[voterID] = targetID
	voter.HasVotedThisRound = true
	broadcastPlayersLocked(room)

	if votesComplete(room) {
		s.concludeVotingLocked(room)
	}
}

// votesComplete reports whether every non-AI participant has voted.
// Must be called with the room lock held.
func votesComplete(room *models.Room) bool {
	for id, p := range room.Round.Participants {
		if p.IsAI {
			continue
		}
		if _, ok := room.Round.Votes[id]; !ok {
			return false
		}
	}
	return true
}

// concludeVotingLocked is the single advance path out of Voting: it stops
// the deadline timer, applies scoring exactly once, publishes results, and
// either loops back to Idle or finishes the game.
// Must be called with the room lock held.
func (s *Service) concludeVotingLocked(room *models.Room) {
	room.StopPhaseTimer()

	result := scoreRound(room)

	votes := make(map[string]string, len(room.Round.Votes))
	for voter, target := range room.Round.Votes {
		votes[voter] = target
	}
	room.VoteHistoryByRound = append(room.VoteHistoryByRound, votes)
	room.RoundsCompleted++

	room.Phase = models.PhaseIdle
	room.PhaseSeq++

	broadcastLocked(room, EventVoteResults, VoteResultsPayload{
		Round:       room.CurrentRound,
		Outcome:     result.Outcome,
		Tally:       result.Tally,
		Votes:       votes,
		CaughtID:    result.CaughtPlayerID,
		AIPlayerID:  room.AIPlayerID,
		ScoreDeltas: result.ScoreDeltas,
		Players:     playerViewsLocked(room),
	})
	log.Info().Str("room", room.Code).Int("round", room.CurrentRound).
		Str("outcome", string(result.Outcome)).Msg("round scored")

	if room.RoundsCompleted >= room.TotalRounds {
		s.completeGameLocked(room)
	}
}

// completeGameLocked applies the one-time deception bonus and ends the game.
// The room stays alive in Idle; a later start request begins a fresh game.
// Must be called with the room lock held.
func (s *Service) completeGameLocked(room *models.Room) {
	bonus := make(map[string]int)
	for id, p := range room.Players {
		if p.IsAI {
			continue
		}
		if received := room.VotesReceivedByPlayer[id]; received > 0 {
			b := received * PointsPerVoteReceived
			p.Score += b
			bonus[id] = b
		}
	}

	room.IsGameStarted = false

	broadcastLocked(room, EventGameComplete, GameCompletePayload{
		Players:           playerViewsLocked(room),
		AIPlayerID:        room.AIPlayerID,
		VotesReceived:     copyCounts(room.VotesReceivedByPlayer),
		CorrectDetections: copyCounts(room.CorrectDetectionsByPlayer),
		DeceptionBonus:    bonus,
		RoundsPlayed:      room.RoundsCompleted,
	})
	log.Info().Str("room", room.Code).Int("rounds", room.RoundsCompleted).Msg("game complete")
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
