package game

import (
	"github.com/kstonekuan/among-humans/internal/models"
)

// RoundOutcome classifies how a round's vote settled
type RoundOutcome string

const (
	// OutcomeAICaught means the AI was the unique plurality target
	OutcomeAICaught RoundOutcome = "ai_caught"
	// OutcomeHumanCaught means the room converged on a single human
	OutcomeHumanCaught RoundOutcome = "human_caught"
	// OutcomeNoConsensus covers every tie, with or without the AI in it
	OutcomeNoConsensus RoundOutcome = "no_consensus"
)

// VoteResult is the outcome of counting one round's votes
type VoteResult struct {
	Outcome          RoundOutcome
	Tally            map[string]int
	PluralityTargets []string
	CaughtPlayerID   string
	ScoreDeltas      map[string]int
	DetectedBy       []string
}

// tallyVotes counts votes per target. The AI's own vote is excluded so it
// can never swing an outcome.
func tallyVotes(votes map[string]string, aiPlayerID string) map[string]int {
	tally := make(map[string]int)
	for voter, target := range votes {
		if voter == aiPlayerID {
			continue
		}
		tally[target]++
	}
	return tally
}

// pluralityTargets returns the targets with the maximum vote count
func pluralityTargets(tally map[string]int) []string {
	maxVotes := 0
	var targets []string
	for id, count := range tally {
		if count > maxVotes {
			maxVotes = count
			targets = []string{id}
		} else if count == maxVotes {
			targets = append(targets, id)
		}
	}
	return targets
}

// resolveOutcome applies the tie-break rule: the AI is caught only when it
// is the unique plurality leader; a unique human leader means the room was
// deceived; everything else (any tie, or no votes at all) is no consensus.
func resolveOutcome(targets []string, aiPlayerID string) (RoundOutcome, string) {
	if len(targets) != 1 {
		return OutcomeNoConsensus, ""
	}
	if targets[0] == aiPlayerID {
		return OutcomeAICaught, aiPlayerID
	}
	return OutcomeHumanCaught, targets[0]
}

// scoreRound tallies the current round's votes and applies the payouts to
// the room's players and cumulative counters. Called exactly once per round.
// Must be called with the room lock held.
func scoreRound(room *models.Room) *VoteResult {
	result := &VoteResult{
		Tally:       tallyVotes(room.Round.Votes, room.AIPlayerID),
		ScoreDeltas: make(map[string]int),
	}
	result.PluralityTargets = pluralityTargets(result.Tally)
	result.Outcome, result.CaughtPlayerID = resolveOutcome(result.PluralityTargets, room.AIPlayerID)

	// Cumulative votes received feed the end-of-game deception bonus.
	for target, count := range result.Tally {
		room.VotesReceivedByPlayer[target] += count
	}

	switch result.Outcome {
	case OutcomeAICaught:
		for voter, target := range room.Round.Votes {
			if voter == room.AIPlayerID || target != room.AIPlayerID {
				continue
			}
			result.ScoreDeltas[voter] += PointsDetection
			room.CorrectDetectionsByPlayer[voter]++
			result.DetectedBy = append(result.DetectedBy, voter)
		}
	case OutcomeHumanCaught:
		result.ScoreDeltas[result.CaughtPlayerID] += PointsDeception
		result.ScoreDeltas[room.AIPlayerID] += PointsAISurvived
	case OutcomeNoConsensus:
		result.ScoreDeltas[room.AIPlayerID] += PointsAISurvived
	}

	for id, delta := range result.ScoreDeltas {
		if p, ok := room.Players[id]; ok {
			p.Score += delta
		} else if p, ok := room.Round.Participants[id]; ok {
			// Participant who left mid-round; the snapshot still holds them.
			p.Score += delta
		}
	}

	return result
}
