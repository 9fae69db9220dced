package room

import (
	"fmt"

	"github.com/mcdev12/impostor/go/internal/models"
)

// NextTurn moves the player at the head of the turn order to its tail.
// It reports false when there is no turn order to rotate.
func NextTurn(r *models.Room) (bool, error) {
	if err := requireState(r, models.GameStateStarted); err != nil {
		return false, err
	}
	if len(r.TurnOrder) == 0 {
		return false, nil
	}
	r.TurnOrder = append(r.TurnOrder[1:], r.TurnOrder[0])
	r.CurrentTurnIndex = 0
	return true, nil
}

// CurrentPlayer returns the player whose turn it is, if any.
func CurrentPlayer(r *models.Room) *models.Player {
	if len(r.TurnOrder) == 0 {
		return nil
	}
	idx := r.CurrentTurnIndex
	if idx < 0 || idx >= len(r.TurnOrder) {
		idx = 0
	}
	return r.PlayerByID(r.TurnOrder[idx])
}

// TickResult is the countdown state after one tick.
type TickResult struct {
	Remaining int
	Expired   bool
}

// Tick decrements the round countdown. When it reaches zero the room is
// forced into voting.
func Tick(r *models.Room) (TickResult, error) {
	if err := requireState(r, models.GameStateStarted); err != nil {
		return TickResult{}, err
	}
	if r.IsPaused {
		return TickResult{}, fmt.Errorf("%w: round is paused", ErrInvalidTransition)
	}
	if r.TimeRemaining == nil {
		return TickResult{}, fmt.Errorf("%w: round has no countdown", ErrInvalidTransition)
	}

	remaining := max(0, *r.TimeRemaining-1)
	r.TimeRemaining = &remaining
	if remaining > 0 {
		return TickResult{Remaining: remaining}, nil
	}

	if err := ForceVoting(r); err != nil {
		return TickResult{}, err
	}
	return TickResult{Expired: true}, nil
}

// TogglePause flips the paused flag of a running round and returns it.
func TogglePause(r *models.Room, requesterID string) (bool, error) {
	if err := requireAdmin(r, requesterID); err != nil {
		return false, err
	}
	if err := requireState(r, models.GameStateStarted); err != nil {
		return false, err
	}
	r.IsPaused = !r.IsPaused
	return r.IsPaused, nil
}

// StartVoting opens a voting round on behalf of the admin.
func StartVoting(r *models.Room, requesterID string) error {
	if err := requireAdmin(r, requesterID); err != nil {
		return err
	}
	return ForceVoting(r)
}

// ForceVoting opens a voting round without an admin check. The round
// countdown is discarded.
func ForceVoting(r *models.Room) error {
	if err := requireState(r, models.GameStateStarted); err != nil {
		return err
	}
	if err := moveTo(r, models.GameStateVoting); err != nil {
		return err
	}
	stopClock(r)
	resetVotes(r)
	return nil
}
