package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kstonekuan/among-humans/internal/models"
	"github.com/kstonekuan/among-humans/internal/store"
)

type sentEvent struct {
	name    string
	payload any
}

// fakeSender records every event it receives. Safe for concurrent use since
// deadline timers deliver from their own goroutine.
type fakeSender struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeSender) Send(event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{name: event, payload: payload})
}

func (f *fakeSender) last(event string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].name == event {
			return f.events[i].payload, true
		}
	}
	return nil, false
}

func (f *fakeSender) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.name == event {
			n++
		}
	}
	return n
}

// stubGenerator is a canned Generator. By default question generation fails,
// which keeps the prompt reservoir empty and the built-in list in play.
type stubGenerator struct {
	mu           sync.Mutex
	answer       string
	answerErr    error
	questions    []string
	questionsErr error
	answerCalls  int
}

func newStubGenerator(answer string) *stubGenerator {
	return &stubGenerator{
		answer:       answer,
		questionsErr: errors.New("generation unavailable"),
	}
}

func (g *stubGenerator) GenerateAnswer(_ context.Context, _ string, _ []string, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answerCalls++
	return g.answer, g.answerErr
}

func (g *stubGenerator) GenerateQuestions(_ context.Context, _ []string, _ int) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.questionsErr != nil {
		return nil, g.questionsErr
	}
	return g.questions, nil
}

func (g *stubGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.answerCalls
}

// newTestService builds a Service with timers long enough to never fire
// unless a test shortens them.
func newTestService(gen *stubGenerator) *Service {
	return NewService(store.NewRoomStore(), gen, Options{
		AnswerTime: time.Hour,
		VoteTime:   time.Hour,
		GenTimeout: time.Second,
	})
}

// setupRoom creates a room with the requested number of humans (plus the AI)
// and returns the players in join order alongside their senders.
func setupRoom(t *testing.T, svc *Service, humans int) (*models.Room, []*models.Player, map[string]*fakeSender) {
	t.Helper()

	host := &fakeSender{}
	room, hostPlayer := svc.CreateRoom(host)

	players := []*models.Player{hostPlayer}
	senders := map[string]*fakeSender{hostPlayer.ID: host}

	for i := 1; i < humans; i++ {
		sender := &fakeSender{}
		_, p, err := svc.JoinRoom(sender, room.Code, "")
		require.NoError(t, err)
		players = append(players, p)
		senders[p.ID] = sender
	}
	return room, players, senders
}

// answerAll submits one answer per human, advancing the room to Voting.
func answerAll(t *testing.T, svc *Service, room *models.Room, players []*models.Player) {
	t.Helper()
	for _, p := range players {
		svc.SubmitAnswer(room, p.ID, "answer from "+p.DisplayName)
	}
	room.Lock()
	defer room.Unlock()
	require.Equal(t, models.PhaseVoting, room.Phase)
}

func currentPhase(room *models.Room) models.Phase {
	room.Lock()
	defer room.Unlock()
	return room.Phase
}
