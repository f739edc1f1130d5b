package game

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kstonekuan/among-humans/internal/models"
)

// RequestStartRound starts the next round. Accepted from any active human
// while the room is idle; the first start of a game resets all cumulative
// state from any previous game in the same room.
func (s *Service) RequestStartRound(room *models.Room, playerID string) {
	room.Lock()
	defer room.Unlock()

	if room.Phase != models.PhaseIdle {
		return
	}
	player, exists := room.Players[playerID]
	if !exists || player.IsAI || !player.IsActive {
		return
	}

	if !room.IsGameStarted {
		s.startGameLocked(room)
	}
	if room.CurrentRound >= room.TotalRounds {
		return
	}
	s.startRoundLocked(room)
}

// startGameLocked begins a fresh game, wiping anything left from the last one.
// Must be called with the room lock held.
func (s *Service) startGameLocked(room *models.Room) {
	room.IsGameStarted = true
	room.CurrentRound = 0
	room.RoundsCompleted = 0
	room.UsedPrompts = make(map[string]bool)
	room.VotesReceivedByPlayer = make(map[string]int)
	room.CorrectDetectionsByPlayer = make(map[string]int)
	room.VoteHistoryByRound = nil
	room.AnswerHistoryByRound = nil
	for _, p := range room.Players {
		p.Score = 0
	}
	log.Info().Str("room", room.Code).Int("rounds", room.TotalRounds).Msg("game started")
}

// startRoundLocked enters the Answering phase: bumps the round counter,
// snapshots participants, selects the prompt, and schedules the one deadline
// timer for the phase. Must be called with the room lock held.
func (s *Service) startRoundLocked(room *models.Room) {
	room.CurrentRound++

	participants := make(map[string]*models.Player, len(room.Players))
	for id, p := range room.Players {
		participants[id] = p
		p.ResetForNewRound()
	}
	room.Round = &models.RoundData{
		Participants: participants,
		Answers:      make(map[string]models.Answer),
		Votes:        make(map[string]string),
		StartedAt:    time.Now(),
	}

	if room.CombinedStyleInstructions == "" && len(room.PlayerStyleInstructions) > 0 {
		room.CombinedStyleInstructions = mergeStyleInstructions(room.PlayerStyleInstructions)
	}

	room.Round.Prompt = selectPromptLocked(room)
	if len(room.PregeneratedPrompts) == 0 {
		go s.backfillPrompts(room, append([]string(nil), room.TopicSuggestions...))
	}

	room.Phase = models.PhaseAnswering
	room.PhaseSeq++
	seq := room.PhaseSeq
	room.SetPhaseTimer(time.AfterFunc(s.answerTime, func() {
		s.onAnswerDeadline(room, seq)
	}))

	broadcastLocked(room, EventPhaseEntered, PhasePayload{
		Kind:        models.PhaseAnswering,
		Round:       room.CurrentRound,
		TotalRounds: room.TotalRounds,
		Prompt:      room.Round.Prompt,
		Seconds:     int(s.answerTime.Seconds()),
	})
	broadcastPlayersLocked(room)
	log.Info().Str("room", room.Code).Int("round", room.CurrentRound).Msg("round started")
}

// mergeStyleInstructions flattens the per-player hints into one instruction
// set, in a stable order so the merged text doesn't churn between rounds.
func mergeStyleInstructions(byPlayer map[string]string) string {
	ids := make([]string, 0, len(byPlayer))
	for id := range byPlayer {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, byPlayer[id])
	}
	return strings.Join(parts, "; ")
}

// backfillPrompts asynchronously refills the pregenerated reservoir. Runs
// outside any lock; a failure just means the built-in list keeps serving.
func (s *Service) backfillPrompts(room *models.Room, topics []string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.genTimeout)
	defer cancel()

	questions, err := s.gen.GenerateQuestions(ctx, topics, PromptBackfillCount)
	if err != nil {
		log.Warn().Err(err).Str("room", room.Code).Msg("prompt backfill failed, staying on built-ins")
		return
	}

	room.Lock()
	for _, q := range questions {
		if !room.UsedPrompts[q] {
			room.PregeneratedPrompts = append(room.PregeneratedPrompts, q)
		}
	}
	room.Unlock()
}

// SubmitAnswer records one human answer. Rejections are silent no-ops: wrong
// phase, unknown participant, the AI, or a second answer from the same
// player all leave the round untouched.
func (s *Service) SubmitAnswer(room *models.Room, playerID, text string) {
	room.Lock()
	defer room.Unlock()

	if room.Phase != models.PhaseAnswering || room.Round == nil {
		return
	}
	player, participant := room.Round.Participants[playerID]
	if !participant || player.IsAI {
		return
	}
	if _, already := room.Round.Answers[playerID]; already {
		return
	}

	room.Round.Answers[playerID] = models.Answer{
		Text:        strings.TrimSpace(text),
		TimeSpentMs: time.Since(room.Round.StartedAt).Milliseconds(),
	}
	player.HasAnsweredThisRound = true
	broadcastPlayersLocked(room)

	// Quorum: every non-AI participant has answered. The AI's answer is only
	// generated now, with the full human set as style context.
	if answersComplete(room) {
		s.concludeAnswering(room, room.PhaseSeq)
	}
}

// answersComplete reports whether every non-AI participant has an answer.
// Must be called with the room lock held.
func answersComplete(room *models.Room) bool {
	for id, p := range room.Round.Participants {
		if p.IsAI {
			continue
		}
		if _, ok := room.Round.Answers[id]; !ok {
			return false
		}
	}
	return true
}

// onAnswerDeadline is the answering phase's single timer callback. A stale
// fire (phase already advanced by quorum) is a guaranteed no-op via the
// sequence check.
func (s *Service) onAnswerDeadline(room *models.Room, seq int) {
	room.Lock()
	defer room.Unlock()
	if room.Phase != models.PhaseAnswering || room.PhaseSeq != seq {
		return
	}
	log.Debug().Str("room", room.Code).Msg("answer deadline reached")
	s.concludeAnswering(room, seq)
}

// concludeAnswering is the single advance path out of Answering, shared by
// the quorum and deadline triggers. It fills straggler answers, requests the
// AI's answer with the room lock released, then re-validates phase and
// sequence before committing: if a competing trigger advanced the phase
// while the generation call was outstanding, this invocation backs off.
//
// Called and returns with the room lock held.
func (s *Service) concludeAnswering(room *models.Room, seq int) {
	if room.Phase != models.PhaseAnswering || room.PhaseSeq != seq {
		return
	}
	room.StopPhaseTimer()

	for id, p := range room.Round.Participants {
		if p.IsAI {
			continue
		}
		if _, ok := room.Round.Answers[id]; !ok {
			room.Round.Answers[id] = models.Answer{Text: NoAnswerText, TimeSpentMs: s.answerTime.Milliseconds()}
			p.HasAnsweredThisRound = true
		}
	}

	prompt := room.Round.Prompt
	style := room.CombinedStyleInstructions
	humanAnswers := make([]string, 0, len(room.Round.Answers))
	for id, a := range room.Round.Answers {
		if id != room.AIPlayerID && a.Text != NoAnswerText {
			humanAnswers = append(humanAnswers, a.Text)
		}
	}

	room.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), s.genTimeout)
	text, err := s.gen.GenerateAnswer(ctx, prompt, humanAnswers, style)
	cancel()
	room.Lock()

	if room.Phase != models.PhaseAnswering || room.PhaseSeq != seq {
		// A competing advance won the race while we were generating.
		return
	}
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			log.Warn().Err(err).Str("room", room.Code).Msg("AI answer generation failed, using filler")
		}
		text = FillerAnswer(prompt)
	}
	room.Round.Answers[room.AIPlayerID] = models.Answer{
		Text:        strings.TrimSpace(text),
		TimeSpentMs: time.Since(room.Round.StartedAt).Milliseconds(),
	}
	if aiPlayer, ok := room.Players[room.AIPlayerID]; ok {
		aiPlayer.HasAnsweredThisRound = true
	}

	answers := make(map[string]models.Answer, len(room.Round.Answers))
	for id, a := range room.Round.Answers {
		answers[id] = a
	}
	room.AnswerHistoryByRound = append(room.AnswerHistoryByRound, answers)

	s.enterReviewingLocked(room)
}

// enterReviewingLocked publishes the order-randomized answer list and moves
// straight on to Voting; the Reviewing phase never rests.
// Must be called with the room lock held.
func (s *Service) enterReviewingLocked(room *models.Room) {
	room.Phase = models.PhaseReviewing
	room.PhaseSeq++

	reviews := make([]ReviewAnswer, 0, len(room.Round.Answers))
	for id, a := range room.Round.Answers {
		name := id
		if p, ok := room.Round.Participants[id]; ok {
			name = p.DisplayName
		}
		reviews = append(reviews, ReviewAnswer{PlayerID: id, DisplayName: name, Text: a.Text})
	}
	// Shuffle so the AI's slot carries no positional information.
	rand.Shuffle(len(reviews), func(i, j int) {
		reviews[i], reviews[j] = reviews[j], reviews[i]
	})

	broadcastLocked(room, EventPhaseEntered, PhasePayload{
		Kind:    models.PhaseReviewing,
		Round:   room.CurrentRound,
		Answers: reviews,
	})

	s.enterVotingLocked(room)
}

// enterVotingLocked opens the voting window and schedules its deadline.
// Must be called with the room lock held.
func (s *Service) enterVotingLocked(room *models.Room) {
	room.Phase = models.PhaseVoting
	room.PhaseSeq++
	seq := room.PhaseSeq

	room.Round.Votes = make(map[string]string)
	for _, p := range room.Round.Participants {
		p.HasVotedThisRound = false
	}

	// The AI casts a flavor vote for a random human. It shows up in the
	// published votes but is excluded from the plurality tally and never
	// counts toward the vote quorum.
	humans := room.Round.HumanParticipants(room.AIPlayerID)
	if len(humans) > 0 {
		target := humans[rand.Intn(len(humans))]
		room.Round.Votes[room.AIPlayerID] = target.ID
		if aiPlayer, ok := room.Players[room.AIPlayerID]; ok {
			aiPlayer.HasVotedThisRound = true
		}
	}

	room.SetPhaseTimer(time.AfterFunc(s.voteTime, func() {
		s.onVoteDeadline(room, seq)
	}))

	aiName := ""
	if aiPlayer, ok := room.Players[room.AIPlayerID]; ok {
		aiName = aiPlayer.DisplayName
	}
	participants := make([]PlayerView, 0, len(room.Round.Participants))
	for _, p := range room.Round.Participants {
		participants = append(participants, PlayerView{ID: p.ID, DisplayName: p.DisplayName, Score: p.Score, IsActive: p.IsActive})
	}

	broadcastLocked(room, EventPhaseEntered, PhasePayload{
		Kind:    models.PhaseVoting,
		Round:   room.CurrentRound,
		Players: participants,
		AIName:  aiName,
		Seconds: int(s.voteTime.Seconds()),
	})
}

// onVoteDeadline closes voting when the timer wins. Voters who never acted
// are simply excluded from the tally.
func (s *Service) onVoteDeadline(room *models.Room, seq int) {
	room.Lock()
	defer room.Unlock()
	if room.Phase != models.PhaseVoting || room.PhaseSeq != seq {
		return
	}
	log.Debug().Str("room", room.Code).Msg("vote deadline reached")
	s.concludeVotingLocked(room)
}
