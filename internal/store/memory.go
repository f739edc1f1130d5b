package store

import (
	"sync"

	"github.com/kstonekuan/among-humans/internal/models"
)

// RoomStore manages room storage. Its lock only guards the map itself;
// per-room state is guarded by each room's own lock, so events in different
// rooms never contend here beyond the lookup.
type RoomStore struct {
	rooms map[string]*models.Room
	mu    sync.RWMutex
}

// NewRoomStore creates a new room store
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*models.Room),
	}
}

// Get retrieves a room by code
func (s *RoomStore) Get(code string) (*models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, exists := s.rooms[code]
	return room, exists
}

// Set stores a room
func (s *RoomStore) Set(code string, room *models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[code] = room
}

// Delete removes a room
func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

// Exists checks if a room code exists
func (s *RoomStore) Exists(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.rooms[code]
	return exists
}

// Count returns the number of rooms
func (s *RoomStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// FindByPlayer returns the room containing the given player id, if any.
// Rooms are snapshotted first so no room lock is ever taken while holding
// the registry lock.
func (s *RoomStore) FindByPlayer(playerID string) (*models.Room, bool) {
	s.mu.RLock()
	rooms := make([]*models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()

	for _, room := range rooms {
		room.Lock()
		_, member := room.Players[playerID]
		room.Unlock()
		if member {
			return room, true
		}
	}
	return nil, false
}
