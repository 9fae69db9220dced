package events

import (
	"github.com/mcdev12/impostor/go/internal/models"
)

// Players projects the seats onto their public view.
func Players(r *models.Room) []PlayerView {
	out := make([]PlayerView, len(r.Players))
	for i, p := range r.Players {
		out[i] = PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			IsAdmin:  p.IsAdmin,
			HasVoted: p.HasVoted,
			IsAlive:  p.IsAlive,
		}
	}
	return out
}

// Snapshot builds the sanitized room broadcast.
func Snapshot(r *models.Room) RoomSnapshot {
	return RoomSnapshot{
		RoomCode:         r.Code,
		Players:          Players(r),
		AdminID:          r.AdminID,
		Settings:         r.Settings,
		GameState:        r.GameState,
		TurnOrder:        append([]string{}, r.TurnOrder...),
		CurrentTurnIndex: r.CurrentTurnIndex,
		TimeRemaining:    copyInt(r.TimeRemaining),
		IsPaused:         r.IsPaused,
		CreatedAt:        r.CreatedAt,
	}
}

// GameStarted is the room-wide start notice.
func GameStarted(r *models.Room) GameStartedPayload {
	return GameStartedPayload{
		Players:          Players(r),
		TurnOrder:        append([]string{}, r.TurnOrder...),
		CurrentTurnIndex: r.CurrentTurnIndex,
		TimeRemaining:    copyInt(r.TimeRemaining),
	}
}

// RoleFor returns the private role reveal for p, or nil outside a round.
func RoleFor(r *models.Room, p *models.Player) *RoleAssignedPayload {
	if p == nil || r.CurrentWord == "" {
		return nil
	}
	if r.GameState != models.GameStateStarted && r.GameState != models.GameStateVoting {
		return nil
	}

	role := &RoleAssignedPayload{IsImpostor: p.IsImpostor}
	if !p.IsImpostor {
		word := r.CurrentWord
		role.Word = &word
		return role
	}
	if r.Settings.ImpostorCanSeeHint && r.CurrentHint != "" {
		hint := r.CurrentHint
		role.Hint = &hint
	}
	return role
}

// Candidates resolves ids to names; unseated ids keep an empty name.
func Candidates(r *models.Room, ids []string) []Candidate {
	out := make([]Candidate, len(ids))
	for i, id := range ids {
		out[i] = Candidate{ID: id}
		if p := r.PlayerByID(id); p != nil {
			out[i].Name = p.Name
		}
	}
	return out
}

// ImpostorNames lists the impostors in seat order.
func ImpostorNames(r *models.Room) []string {
	names := []string{}
	for _, p := range r.Impostors() {
		names = append(names, p.Name)
	}
	return names
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
