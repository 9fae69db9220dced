package room

import "github.com/mcdev12/impostor/go/internal/models"

// LeaveResult describes a departure.
type LeaveResult struct {
	Player *models.Player
	// Empty is set when the last player left and the room must be deleted.
	Empty bool
	// NewAdmin is set when the admin left and the seat passed on.
	NewAdmin *models.Player
	// Outcome is set when the departure completed a voting round.
	Outcome *VoteOutcome
}

// Leave removes the player bound to playerID immediately.
func Leave(r *models.Room, playerID string) (LeaveResult, error) {
	idx := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return LeaveResult{}, ErrPlayerNotFound
	}

	res := LeaveResult{Player: r.Players[idx]}
	r.Players = append(r.Players[:idx:idx], r.Players[idx+1:]...)
	r.TurnOrder = without(r.TurnOrder, playerID)
	if r.CurrentTurnIndex >= len(r.TurnOrder) {
		r.CurrentTurnIndex = 0
	}

	if len(r.Players) == 0 {
		r.AdminID = ""
		res.Empty = true
		return res, nil
	}

	if r.AdminID == playerID {
		r.Players[0].IsAdmin = true
		r.AdminID = r.Players[0].ID
		res.NewAdmin = r.Players[0]
	}

	if r.GameState == models.GameStateVoting {
		outcome := Resolve(r)
		if outcome.Kind != OutcomePending {
			res.Outcome = &outcome
		}
	}
	return res, nil
}

// Rebind moves the seat named name onto a new connection identity, rewriting
// every reference to the old one. Game flags and turn position are kept.
func Rebind(r *models.Room, name, newID string) (*models.Player, string, error) {
	p := r.PlayerByName(name)
	if p == nil {
		return nil, "", ErrPlayerNotFound
	}
	oldID := p.ID
	if oldID == newID {
		return p, oldID, nil
	}
	if r.PlayerByID(newID) != nil {
		return nil, "", ErrAlreadySeated
	}

	p.ID = newID
	if r.AdminID == oldID {
		r.AdminID = newID
	}
	for i, id := range r.TurnOrder {
		if id == oldID {
			r.TurnOrder[i] = newID
		}
	}
	for _, other := range r.Players {
		if other.VotedFor == oldID {
			other.VotedFor = newID
		}
	}
	return p, oldID, nil
}

func without(ids []string, id string) []string {
	if len(ids) == 0 {
		return ids
	}
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
