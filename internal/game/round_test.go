package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstonekuan/among-humans/internal/models"
	"github.com/kstonekuan/among-humans/internal/store"
)

func TestCreateRoomSpawnsAIPlayer(t *testing.T) {
	svc := newTestService(newStubGenerator("sounds fun"))
	room, host := setupRoomPlayers(t, svc, 1)

	room.Lock()
	defer room.Unlock()

	require.NotEmpty(t, room.AIPlayerID)
	ai := room.Players[room.AIPlayerID]
	require.NotNil(t, ai)
	assert.True(t, ai.IsAI)
	assert.NotEqual(t, host.ID, room.AIPlayerID)
	assert.NotEqual(t, host.DisplayName, ai.DisplayName)
	assert.Equal(t, models.PhaseIdle, room.Phase)
	assert.True(t, svc.Rooms().Exists(room.Code))
}

// setupRoomPlayers is setupRoom without the senders, for tests that only
// drive the state machine.
func setupRoomPlayers(t *testing.T, svc *Service, humans int) (*models.Room, *models.Player) {
	t.Helper()
	room, players, _ := setupRoom(t, svc, humans)
	return room, players[0]
}

func TestQuorumAdvancesBeforeDeadline(t *testing.T) {
	gen := newStubGenerator("probably pizza, you can't go wrong")
	svc := newTestService(gen)
	room, players, senders := setupRoom(t, svc, 3)

	svc.RequestStartRound(room, players[0].ID)
	require.Equal(t, models.PhaseAnswering, currentPhase(room))

	// Two of three answered: still waiting.
	svc.SubmitAnswer(room, players[0].ID, "definitely tacos")
	svc.SubmitAnswer(room, players[1].ID, "sushi for me")
	require.Equal(t, models.PhaseAnswering, currentPhase(room))

	// Third answer completes the quorum; the hour-long timer never matters.
	svc.SubmitAnswer(room, players[2].ID, "ramen obviously")
	require.Equal(t, models.PhaseVoting, currentPhase(room))

	room.Lock()
	aiAnswer := room.Round.Answers[room.AIPlayerID]
	total := len(room.Round.Answers)
	room.Unlock()
	assert.Equal(t, "probably pizza, you can't go wrong", aiAnswer.Text)
	assert.Equal(t, 4, total)
	assert.Equal(t, 1, gen.calls())

	// Every client saw the reviewing reveal with all four answers.
	payload, ok := senders[players[0].ID].last(EventPhaseEntered)
	require.True(t, ok)
	phase := payload.(PhasePayload)
	assert.Equal(t, models.PhaseVoting, phase.Kind)
}

func TestSubmitAnswerIsWriteOnce(t *testing.T) {
	svc := newTestService(newStubGenerator("ok"))
	room, players, _ := setupRoom(t, svc, 2)

	svc.RequestStartRound(room, players[0].ID)
	svc.SubmitAnswer(room, players[0].ID, "first thoughts")
	svc.SubmitAnswer(room, players[0].ID, "actually wait")

	room.Lock()
	defer room.Unlock()
	assert.Equal(t, "first thoughts", room.Round.Answers[players[0].ID].Text)
}

func TestSubmitAnswerRejectsOutsiders(t *testing.T) {
	svc := newTestService(newStubGenerator("ok"))
	room, players, _ := setupRoom(t, svc, 2)

	svc.RequestStartRound(room, players[0].ID)
	svc.SubmitAnswer(room, "not-a-participant", "hello")
	svc.SubmitAnswer(room, room.AIPlayerID, "definitely human")

	room.Lock()
	defer room.Unlock()
	assert.Empty(t, room.Round.Answers)
}

func TestAnswerDeadlineFillsStragglers(t *testing.T) {
	gen := newStubGenerator("fashionably late")
	svc := NewService(store.NewRoomStore(), gen, Options{
		AnswerTime: 30 * time.Millisecond,
		VoteTime:   time.Hour,
		GenTimeout: time.Second,
	})
	room, players, _ := setupRoom(t, svc, 2)

	svc.RequestStartRound(room, players[0].ID)
	svc.SubmitAnswer(room, players[0].ID, "i made it in time")

	require.Eventually(t, func() bool {
		return currentPhase(room) == models.PhaseVoting
	}, time.Second, 5*time.Millisecond)

	room.Lock()
	defer room.Unlock()
	assert.Equal(t, "i made it in time", room.Round.Answers[players[0].ID].Text)
	assert.Equal(t, NoAnswerText, room.Round.Answers[players[1].ID].Text)
	assert.Equal(t, "fashionably late", room.Round.Answers[room.AIPlayerID].Text)
}

func TestStaleAnswerDeadlineIsNoOp(t *testing.T) {
	svc := newTestService(newStubGenerator("ok"))
	room, players, _ := setupRoom(t, svc, 2)

	svc.RequestStartRound(room, players[0].ID)
	room.Lock()
	answeringSeq := room.PhaseSeq
	room.Unlock()

	answerAll(t, svc, room, players)

	room.Lock()
	votingSeq := room.PhaseSeq
	room.Unlock()

	// A timer holding the answering-phase sequence fires after quorum already
	// advanced the room. Nothing may change.
	svc.onAnswerDeadline(room, answeringSeq)

	room.Lock()
	defer room.Unlock()
	assert.Equal(t, models.PhaseVoting, room.Phase)
	assert.Equal(t, votingSeq, room.PhaseSeq)
}

func TestGeneratorFailureFallsBackToFiller(t *testing.T) {
	gen := newStubGenerator("")
	gen.answerErr = errors.New("api down")
	svc := newTestService(gen)
	room, players, _ := setupRoom(t, svc, 2)

	svc.RequestStartRound(room, players[0].ID)
	room.Lock()
	prompt := room.Round.Prompt
	room.Unlock()

	answerAll(t, svc, room, players)

	room.Lock()
	defer room.Unlock()
	assert.Equal(t, FillerAnswer(prompt), room.Round.Answers[room.AIPlayerID].Text)
}

func TestSetRoundsClampsAndFreezesDuringGame(t *testing.T) {
	svc := newTestService(newStubGenerator("ok"))
	room, players, _ := setupRoom(t, svc, 2)
	host := players[0].ID

	svc.SetRounds(room, host, 0)
	assert.Equal(t, MinRounds, roomTotalRounds(room))

	svc.SetRounds(room, host, 99)
	assert.Equal(t, MaxRounds, roomTotalRounds(room))

	svc.SetRounds(room, host, 5)
	assert.Equal(t, 5, roomTotalRounds(room))

	svc.RequestStartRound(room, host)
	svc.SetRounds(room, host, 2)
	assert.Equal(t, 5, roomTotalRounds(room))
}

func roomTotalRounds(room *models.Room) int {
	room.Lock()
	defer room.Unlock()
	return room.TotalRounds
}

func TestStartRequiresIdleAndActiveHuman(t *testing.T) {
	svc := newTestService(newStubGenerator("ok"))
	room, players, _ := setupRoom(t, svc, 2)

	// The AI can't start a round.
	svc.RequestStartRound(room, room.AIPlayerID)
	assert.Equal(t, models.PhaseIdle, currentPhase(room))

	// Neither can a disconnected player.
	svc.Disconnect(room, players[1].ID)
	svc.RequestStartRound(room, players[1].ID)
	assert.Equal(t, models.PhaseIdle, currentPhase(room))

	svc.RequestStartRound(room, players[0].ID)
	assert.Equal(t, models.PhaseAnswering, currentPhase(room))

	// A second start request mid-round changes nothing.
	svc.RequestStartRound(room, players[0].ID)
	room.Lock()
	defer room.Unlock()
	assert.Equal(t, models.PhaseAnswering, room.Phase)
	assert.Equal(t, 1, room.CurrentRound)
}

func TestVoteValidation(t *testing.T) {
	svc := newTestService(newStubGenerator("ok"))
	room, players, _ := setupRoom(t, svc, 3)
	a, b := players[0], players[1]

	// Votes before voting opens are dropped.
	svc.RequestStartRound(room, a.ID)
	svc.CastVote(room, a.ID, b.ID)
	room.Lock()
	assert.Empty(t, room.Round.Votes)
	room.Unlock()

	answerAll(t, svc, room, players)

	svc.CastVote(room, a.ID, a.ID) // self-vote
	svc.CastVote(room, "stranger", b.ID)
	svc.CastVote(room, a.ID, "stranger")
	room.Lock()
	_, voted := room.Round.Votes[a.ID]
	room.Unlock()
	assert.False(t, voted)

	svc.CastVote(room, a.ID, b.ID)
	svc.CastVote(room, a.ID, room.AIPlayerID) // change of heart, too late
	room.Lock()
	defer room.Unlock()
	assert.Equal(t, b.ID, room.Round.Votes[a.ID])
}

func TestFullGameCompletesWithDeceptionBonus(t *testing.T) {
	svc := newTestService(newStubGenerator("ok"))
	room, players, senders := setupRoom(t, svc, 3)
	a, b, c := players[0], players[1], players[2]

	svc.SetRounds(room, a.ID, 1)
	svc.RequestStartRound(room, a.ID)
	answerAll(t, svc, room, players)

	// a and b pile on c; c votes a. Unique leader c gets caught.
	svc.CastVote(room, a.ID, c.ID)
	svc.CastVote(room, b.ID, c.ID)
	svc.CastVote(room, c.ID, a.ID)

	require.Equal(t, models.PhaseIdle, currentPhase(room))

	room.Lock()
	defer room.Unlock()
	assert.False(t, room.IsGameStarted)
	assert.Equal(t, 1, room.RoundsCompleted)

	// Deception +3, then end-of-game bonus +1 per vote received.
	assert.Equal(t, PointsDeception+2*PointsPerVoteReceived, c.Score)
	assert.Equal(t, PointsPerVoteReceived, a.Score)
	assert.Equal(t, 0, b.Score)
	assert.Equal(t, PointsAISurvived, room.Players[room.AIPlayerID].Score)

	payload, ok := senders[a.ID].last(EventGameComplete)
	require.True(t, ok)
	complete := payload.(GameCompletePayload)
	assert.Equal(t, room.AIPlayerID, complete.AIPlayerID)
	assert.Equal(t, 1, complete.RoundsPlayed)
	assert.Equal(t, 2*PointsPerVoteReceived, complete.DeceptionBonus[c.ID])

	// Exactly one result and one completion were broadcast.
	assert.Equal(t, 1, senders[a.ID].count(EventVoteResults))
	assert.Equal(t, 1, senders[a.ID].count(EventGameComplete))
}

func TestNewGameResetsPreviousGameState(t *testing.T) {
	svc := newTestService(newStubGenerator("ok"))
	room, players, _ := setupRoom(t, svc, 2)
	a, b := players[0], players[1]

	svc.SetRounds(room, a.ID, 1)
	svc.RequestStartRound(room, a.ID)
	answerAll(t, svc, room, players)
	svc.CastVote(room, a.ID, b.ID)
	svc.CastVote(room, b.ID, a.ID)
	require.Equal(t, models.PhaseIdle, currentPhase(room))

	// Second game in the same room starts from zero.
	svc.RequestStartRound(room, a.ID)

	room.Lock()
	defer room.Unlock()
	assert.True(t, room.IsGameStarted)
	assert.Equal(t, 1, room.CurrentRound)
	assert.Equal(t, 0, room.RoundsCompleted)
	assert.Equal(t, 0, a.Score)
	assert.Equal(t, 0, b.Score)
	assert.Empty(t, room.VotesReceivedByPlayer)
	assert.Empty(t, room.VoteHistoryByRound)
}

func TestVoteDeadlineScoresWithPartialBallots(t *testing.T) {
	svc := NewService(store.NewRoomStore(), newStubGenerator("ok"), Options{
		AnswerTime: time.Hour,
		VoteTime:   30 * time.Millisecond,
		GenTimeout: time.Second,
	})
	room, players, _ := setupRoom(t, svc, 3)

	svc.RequestStartRound(room, players[0].ID)
	answerAll(t, svc, room, players)

	// Only one ballot arrives before the deadline.
	svc.CastVote(room, players[0].ID, room.AIPlayerID)

	require.Eventually(t, func() bool {
		return currentPhase(room) == models.PhaseIdle
	}, time.Second, 5*time.Millisecond)

	room.Lock()
	defer room.Unlock()
	assert.Equal(t, 1, room.RoundsCompleted)
	// The lone vote made the AI the unique leader.
	assert.Equal(t, PointsDetection, players[0].Score)
}

func TestPromptReservoirServedBeforeBuiltins(t *testing.T) {
	room := models.NewRoom("ABCD23")
	room.PregeneratedPrompts = []string{"What's your dream road trip?"}

	first := selectPromptLocked(room)
	assert.Equal(t, "What's your dream road trip?", first)
	assert.True(t, room.UsedPrompts[first])

	// Reservoir exhausted: built-ins take over, skipping used prompts.
	second := selectPromptLocked(room)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
	assert.True(t, room.UsedPrompts[second])
}

func TestPromptsNotRepeatedWithinGame(t *testing.T) {
	room := models.NewRoom("ABCD23")
	seen := make(map[string]bool)
	for i := 0; i < len(builtinPrompts); i++ {
		p := selectPromptLocked(room)
		assert.False(t, seen[p], "prompt %q repeated", p)
		seen[p] = true
	}
	// The pool is exhausted; repeats are allowed rather than stalling.
	assert.NotEmpty(t, selectPromptLocked(room))
}

func TestStyleInstructionsWriteOnceAndMerged(t *testing.T) {
	svc := newTestService(newStubGenerator("ok"))
	room, players, _ := setupRoom(t, svc, 2)
	a, b := players[0], players[1]

	svc.SubmitStyleInstruction(room, a.ID, "use lowercase")
	svc.SubmitStyleInstruction(room, a.ID, "USE CAPS") // ignored
	svc.SubmitStyleInstruction(room, b.ID, "short answers")

	svc.RequestStartRound(room, a.ID)

	room.Lock()
	defer room.Unlock()
	merged := room.CombinedStyleInstructions
	assert.Contains(t, merged, "use lowercase")
	assert.Contains(t, merged, "short answers")
	assert.NotContains(t, merged, "USE CAPS")
}
