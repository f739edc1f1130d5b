package game

import "errors"

// Validation errors surfaced to the requesting client as a room_error event.
// Protocol violations (wrong-phase messages, double answers, self-votes) are
// not errors at all: they are silently ignored.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrGameInProgress = errors.New("game in progress")
	ErrRoomClosed     = errors.New("room closed")
)
