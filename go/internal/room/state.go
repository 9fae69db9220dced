package room

import (
	"fmt"

	"github.com/mcdev12/impostor/go/internal/models"
)

const (
	MinPlayers    = 3
	MaxNameLength = 24
	// MaxRoundDurationSeconds bounds the countdown an admin can configure.
	MaxRoundDurationSeconds = 3600
)

// transitions lists, for every state, the states a room may move to.
// voting -> voting is the tie re-vote; every edge back to waiting is a restart.
var transitions = map[models.GameState][]models.GameState{
	models.GameStateWaiting: {models.GameStateStarted, models.GameStateWaiting},
	models.GameStateStarted: {models.GameStateVoting, models.GameStateWaiting},
	models.GameStateVoting:  {models.GameStateVoting, models.GameStateEnded, models.GameStateWaiting},
	models.GameStateEnded:   {models.GameStateWaiting},
}

// CanTransition reports whether a room in from may move to to.
func CanTransition(from, to models.GameState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func moveTo(r *models.Room, to models.GameState) error {
	if !CanTransition(r.GameState, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.GameState, to)
	}
	r.GameState = to
	return nil
}

func requireState(r *models.Room, want models.GameState) error {
	if r.GameState != want {
		return fmt.Errorf("%w: room is %s, want %s", ErrInvalidTransition, r.GameState, want)
	}
	return nil
}

func requireAdmin(r *models.Room, requesterID string) error {
	if requesterID == "" || r.AdminID != requesterID {
		return ErrNotAdmin
	}
	return nil
}

func resetVotes(r *models.Room) {
	for _, p := range r.Players {
		p.HasVoted = false
		p.VotedFor = ""
	}
}

func stopClock(r *models.Room) {
	r.TimeRemaining = nil
	r.IsPaused = false
}

// Sanitize repairs the admin invariant on a loaded document: when the admin id
// no longer matches a seat, the first player becomes admin.
func Sanitize(r *models.Room) {
	if len(r.Players) == 0 {
		r.AdminID = ""
		return
	}
	var admin *models.Player
	for _, p := range r.Players {
		p.IsAdmin = p.ID == r.AdminID && admin == nil
		if p.IsAdmin {
			admin = p
		}
	}
	if admin == nil {
		r.Players[0].IsAdmin = true
		r.AdminID = r.Players[0].ID
	}
}
