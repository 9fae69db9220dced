package events

import (
	"time"

	"github.com/mcdev12/impostor/go/internal/models"
)

// PlayerView is a player as the whole room may see it.
type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin"`
	HasVoted bool   `json:"hasVoted"`
	IsAlive  bool   `json:"isAlive"`
}

// RoomSnapshot is the room document without impostor flags, votes or the word.
type RoomSnapshot struct {
	RoomCode         string           `json:"roomCode"`
	Players          []PlayerView     `json:"players"`
	AdminID          string           `json:"adminId"`
	Settings         models.Settings  `json:"settings"`
	GameState        models.GameState `json:"gameState"`
	TurnOrder        []string         `json:"turnOrder"`
	CurrentTurnIndex int              `json:"currentTurnIndex"`
	TimeRemaining    *int             `json:"timeRemaining"`
	IsPaused         bool             `json:"isPaused"`
	CreatedAt        time.Time        `json:"createdAt"`
}

type GameStartedPayload struct {
	Players          []PlayerView `json:"players"`
	TurnOrder        []string     `json:"turnOrder"`
	CurrentTurnIndex int          `json:"currentTurnIndex"`
	TimeRemaining    *int         `json:"timeRemaining"`
}

// RoleAssignedPayload is delivered privately. Impostors get no word and see the
// hint only when the room allows it.
type RoleAssignedPayload struct {
	IsImpostor bool    `json:"isImpostor"`
	Word       *string `json:"word"`
	Hint       *string `json:"hint"`
}

type TurnUpdatedPayload struct {
	TurnOrder         []string `json:"turnOrder"`
	CurrentPlayerName string   `json:"currentPlayerName"`
}

type TimeUpdatePayload struct {
	TimeRemaining int `json:"timeRemaining"`
}

type VoteUpdatePayload struct {
	VotedCount   int `json:"votedCount"`
	TotalPlayers int `json:"totalPlayers"`
}

type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type VotingTiePayload struct {
	TiedPlayers []Candidate    `json:"tiedPlayers"`
	VoteCounts  map[string]int `json:"voteCounts"`
}

type VotedOutPlayer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsImpostor bool   `json:"isImpostor"`
}

type GameEndedPayload struct {
	ImpostorFound  bool            `json:"impostorFound"`
	VotedOutPlayer *VotedOutPlayer `json:"votedOutPlayer"`
	Impostors      []string        `json:"impostors"`
	Word           string          `json:"word"`
	VoteCounts     map[string]int  `json:"voteCounts"`
}

type PlayerLeftPayload struct {
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId"`
}

type PlayerDisconnectedPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type GamePausedPayload struct {
	IsPaused bool `json:"isPaused"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Ack answers create-room, join-room and reconnect-to-room.
type Ack struct {
	Success          bool                 `json:"success"`
	Error            string               `json:"error,omitempty"`
	RoomCode         string               `json:"roomCode,omitempty"`
	IsAdmin          *bool                `json:"isAdmin,omitempty"`
	GameState        models.GameState     `json:"gameState,omitempty"`
	Role             *RoleAssignedPayload `json:"role,omitempty"`
	TurnOrder        []string             `json:"turnOrder,omitempty"`
	CurrentTurnIndex *int                 `json:"currentTurnIndex,omitempty"`
	TimeRemaining    *int                 `json:"timeRemaining,omitempty"`
	IsPaused         *bool                `json:"isPaused,omitempty"`
}

// Failure builds a negative ack.
func Failure(err error) Ack {
	return Ack{Success: false, Error: err.Error()}
}
