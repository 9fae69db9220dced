package room

import (
	"errors"
	"fmt"
)

// Error kinds. Callers classify failures with errors.Is against these.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrConflict          = errors.New("conflict")
	ErrCapacity          = errors.New("capacity")
	ErrInvalidInput      = errors.New("invalid input")
)

// Error is a failure whose message can be shown to players as is.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

var (
	ErrRoomNotFound       = newError(ErrNotFound, "room not found")
	ErrPlayerNotFound     = newError(ErrNotFound, "player not found in this room")
	ErrGameAlreadyStarted = newError(ErrConflict, "game already started")
	ErrNameTaken          = newError(ErrConflict, "name already taken")
	ErrAlreadySeated      = newError(ErrConflict, "connection already holds a seat in this room")
	ErrAlreadyVoted       = newError(ErrConflict, "player already voted")
	ErrDuplicateCode      = newError(ErrConflict, "room code already in use")
	ErrNotAdmin           = newError(ErrUnauthorized, "only the admin can do this")
	ErrNotEnoughPlayers   = newError(ErrCapacity, fmt.Sprintf("at least %d players are needed", MinPlayers))
	ErrTooManyImpostors   = newError(ErrCapacity, "impostor count must be lower than the number of players")
	ErrInvalidName        = newError(ErrInvalidInput, fmt.Sprintf("player name must be 1 to %d characters", MaxNameLength))
)

// Public reports whether err carries a message that is safe to show a player.
func Public(err error) bool {
	for _, kind := range []error{ErrNotFound, ErrInvalidTransition, ErrUnauthorized, ErrConflict, ErrCapacity, ErrInvalidInput} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
