package models

import "time"

// GameState defines the lifecycle state of a room.
type GameState string

const (
	GameStateWaiting GameState = "waiting"
	GameStateStarted GameState = "started"
	GameStateVoting  GameState = "voting"
	GameStateEnded   GameState = "ended"
)

// CategoryAll selects words from every category.
const CategoryAll = "all"

// Settings holds the admin-configurable options of a room.
type Settings struct {
	ImpostorCount        int    `json:"impostorCount"`
	Category             string `json:"category"`
	ImpostorCanSeeHint   bool   `json:"impostorCanSeeHint"`
	RoundDurationSeconds int    `json:"roundDurationSeconds"`
}

// DefaultSettings returns the settings a freshly created room starts with.
func DefaultSettings() Settings {
	return Settings{
		ImpostorCount: 1,
		Category:      CategoryAll,
	}
}

// Player is a seat in a room. Name is the durable identity within the room;
// ID is the current connection identity and is rebound on reconnect.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsAdmin    bool   `json:"isAdmin"`
	IsImpostor bool   `json:"isImpostor"`
	HasVoted   bool   `json:"hasVoted"`
	VotedFor   string `json:"votedFor,omitempty"`
	IsAlive    bool   `json:"isAlive"`
}

// Room is one game instance, persisted as a single document keyed by Code.
type Room struct {
	Code             string    `json:"roomCode"`
	Players          []*Player `json:"players"`
	AdminID          string    `json:"adminId"`
	Settings         Settings  `json:"settings"`
	GameState        GameState `json:"gameState"`
	CurrentWord      string    `json:"currentWord,omitempty"`
	CurrentHint      string    `json:"currentHint,omitempty"`
	TurnOrder        []string  `json:"turnOrder,omitempty"`
	CurrentTurnIndex int       `json:"currentTurnIndex"`
	TimeRemaining    *int      `json:"timeRemaining,omitempty"`
	IsPaused         bool      `json:"isPaused"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// PlayerByID returns the player currently bound to the connection id.
func (r *Room) PlayerByID(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByName returns the player with the exact (case-sensitive) display name.
func (r *Room) PlayerByName(name string) *Player {
	for _, p := range r.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Impostors returns the players flagged as impostor, in seat order.
func (r *Room) Impostors() []*Player {
	var out []*Player
	for _, p := range r.Players {
		if p.IsImpostor {
			out = append(out, p)
		}
	}
	return out
}

// VotedCount is the number of players that cast a vote this round.
func (r *Room) VotedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.HasVoted {
			n++
		}
	}
	return n
}
