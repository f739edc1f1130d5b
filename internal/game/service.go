package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kstonekuan/among-humans/internal/ai"
	"github.com/kstonekuan/among-humans/internal/models"
	"github.com/kstonekuan/among-humans/internal/store"
)

// Options tune the service's timers
type Options struct {
	AnswerTime time.Duration
	VoteTime   time.Duration
	GenTimeout time.Duration
}

// Service owns every room's state machine. Each public method is one event:
// it takes the room lock, applies the whole read-decide-mutate-broadcast
// sequence, and releases. The only suspension is the Generation Service
// call, made with the lock dropped and re-validated on return.
type Service struct {
	rooms      *store.RoomStore
	gen        ai.Generator
	answerTime time.Duration
	voteTime   time.Duration
	genTimeout time.Duration
}

// NewService creates the orchestrator
func NewService(rooms *store.RoomStore, gen ai.Generator, opts Options) *Service {
	if opts.AnswerTime <= 0 {
		opts.AnswerTime = 60 * time.Second
	}
	if opts.VoteTime <= 0 {
		opts.VoteTime = 30 * time.Second
	}
	if opts.GenTimeout <= 0 {
		opts.GenTimeout = 15 * time.Second
	}
	return &Service{
		rooms:      rooms,
		gen:        gen,
		answerTime: opts.AnswerTime,
		voteTime:   opts.VoteTime,
		genTimeout: opts.GenTimeout,
	}
}

// Rooms exposes the registry (used by the transport for lookups)
func (s *Service) Rooms() *store.RoomStore {
	return s.rooms
}

// CreateRoom creates a room, joins the creator, and spawns the AI player.
func (s *Service) CreateRoom(sender models.Sender) (*models.Room, *models.Player) {
	code := GetUniqueRoomCode(s.rooms)
	room := models.NewRoom(code)

	room.Lock()
	player := s.addHumanLocked(room, sender)
	// The AI participant exists from the moment the room has a human.
	aiPlayer := &models.Player{
		ID:          uuid.NewString(),
		DisplayName: AllocateDisplayName(room),
		IsAI:        true,
		IsActive:    true,
		IsReady:     true,
	}
	room.Players[aiPlayer.ID] = aiPlayer
	room.AIPlayerID = aiPlayer.ID
	room.AIActive = true

	s.rooms.Set(code, room)

	sender.Send(EventRoomCreated, joinedPayload(room, player, false))
	broadcastPlayersLocked(room)
	room.Unlock()

	log.Info().Str("room", code).Str("player", player.ID).Msg("room created")
	return room, player
}

// JoinRoom adds a player to an existing room. priorName is a reconnection
// claim: if it names an inactive player record, that identity is resurrected
// (see reconnect.go); if it names an active player, the joiner simply gets a
// freshly allocated name instead.
func (s *Service) JoinRoom(sender models.Sender, code, priorName string) (*models.Room, *models.Player, error) {
	room, exists := s.rooms.Get(strings.ToUpper(strings.TrimSpace(code)))
	if !exists {
		return nil, nil, ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()

	// The room may have emptied (and been destroyed) between lookup and lock.
	if !s.rooms.Exists(room.Code) {
		return nil, nil, ErrRoomClosed
	}

	if priorName = strings.TrimSpace(priorName); priorName != "" {
		for _, p := range room.Players {
			if p.DisplayName == priorName && !p.IsAI && !p.IsActive {
				player := s.reconnectLocked(room, p, sender)
				log.Info().Str("room", room.Code).Str("player", player.ID).Msg("player reconnected")
				return room, player, nil
			}
		}
	}

	// New identities can only enter between games.
	if room.IsGameStarted {
		return nil, nil, ErrGameInProgress
	}

	player := s.addHumanLocked(room, sender)
	sender.Send(EventRoomJoined, joinedPayload(room, player, false))
	broadcastPlayersLocked(room)
	log.Info().Str("room", room.Code).Str("player", player.ID).Msg("player joined")
	return room, player, nil
}

// addHumanLocked creates and registers a fresh human player.
// Must be called with the room lock held.
func (s *Service) addHumanLocked(room *models.Room, sender models.Sender) *models.Player {
	player := &models.Player{
		ID:          uuid.NewString(),
		DisplayName: AllocateDisplayName(room),
		IsActive:    true,
	}
	room.Players[player.ID] = player
	room.AttachClient(player.ID, sender)
	return player
}

func joinedPayload(room *models.Room, player *models.Player, reconnection bool) map[string]any {
	return map[string]any{
		"code":           room.Code,
		"player":         PlayerView{ID: player.ID, DisplayName: player.DisplayName, Score: player.Score, IsActive: true},
		"isReconnection": reconnection,
		"totalRounds":    room.TotalRounds,
	}
}

// LeaveRoom removes a player for good. Round-scoped references to them stay
// in the participants snapshot so the round can still settle.
func (s *Service) LeaveRoom(room *models.Room, playerID string) {
	room.Lock()
	defer room.Unlock()

	player, exists := room.Players[playerID]
	if !exists || player.IsAI {
		return
	}
	delete(room.Players, playerID)
	room.DetachClient(playerID)
	log.Info().Str("room", room.Code).Str("player", playerID).Msg("player left")

	if s.destroyIfEmptyLocked(room) {
		return
	}
	broadcastPlayersLocked(room)
}

// Disconnect marks a player inactive without deleting them, leaving the
// record available for a reconnect under the same display name.
func (s *Service) Disconnect(room *models.Room, playerID string) {
	room.Lock()
	defer room.Unlock()

	player, exists := room.Players[playerID]
	if !exists || player.IsAI {
		return
	}
	player.IsActive = false
	player.IsReady = false
	room.DetachClient(playerID)
	log.Info().Str("room", room.Code).Str("player", playerID).Msg("player disconnected")

	if s.destroyIfEmptyLocked(room) {
		return
	}
	broadcastPlayersLocked(room)
}

// DestroyIfEmpty tears the room down if no active human remains.
func (s *Service) DestroyIfEmpty(room *models.Room) bool {
	room.Lock()
	defer room.Unlock()
	return s.destroyIfEmptyLocked(room)
}

// destroyIfEmptyLocked destroys the room the instant every human entry is
// inactive (the AI never counts). Must be called with the room lock held.
func (s *Service) destroyIfEmptyLocked(room *models.Room) bool {
	if room.ActiveHumanCount() > 0 {
		return false
	}
	room.StopPhaseTimer()
	s.rooms.Delete(room.Code)
	log.Info().Str("room", room.Code).Msg("room destroyed")
	return true
}

// SetRounds configures the game length. The value is clamped to
// [MinRounds, MaxRounds] regardless of what was requested. Ignored once a
// game is underway.
func (s *Service) SetRounds(room *models.Room, playerID string, rounds int) {
	room.Lock()
	defer room.Unlock()

	if room.Phase != models.PhaseIdle || room.IsGameStarted {
		return
	}
	if _, exists := room.Players[playerID]; !exists {
		return
	}
	if rounds < MinRounds {
		rounds = MinRounds
	}
	if rounds > MaxRounds {
		rounds = MaxRounds
	}
	room.TotalRounds = rounds
	broadcastLocked(room, EventRoundsConfigured, map[string]any{"totalRounds": rounds})
}

// SetReady toggles a player's lobby readiness flag
func (s *Service) SetReady(room *models.Room, playerID string, ready bool) {
	room.Lock()
	defer room.Unlock()

	player, exists := room.Players[playerID]
	if !exists || player.IsAI || !player.IsActive {
		return
	}
	player.IsReady = ready
	broadcastPlayersLocked(room)
}

// SubmitStyleInstruction records a player's hint about how the AI should
// write. Write-once per player; merged lazily at round start.
func (s *Service) SubmitStyleInstruction(room *models.Room, playerID, text string) {
	room.Lock()
	defer room.Unlock()

	player, exists := room.Players[playerID]
	if !exists || player.IsAI {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if len(text) > MaxStyleInstructionLen {
		text = text[:MaxStyleInstructionLen]
	}
	if _, already := room.PlayerStyleInstructions[playerID]; already {
		return
	}
	room.PlayerStyleInstructions[playerID] = text
	// Invalidate the merged set; round start rebuilds it.
	room.CombinedStyleInstructions = ""
}

// SubmitTopicSuggestion records a theme for future generated questions
func (s *Service) SubmitTopicSuggestion(room *models.Room, playerID, text string) {
	room.Lock()
	defer room.Unlock()

	if _, exists := room.Players[playerID]; !exists {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if len(text) > MaxTopicLen {
		text = text[:MaxTopicLen]
	}
	room.TopicSuggestions = append(room.TopicSuggestions, text)
}
