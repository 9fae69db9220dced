package gateway

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/impostor/go/internal/room"
	"github.com/mcdev12/impostor/go/internal/room/events"
)

// Inbound action names as clients send them.
const (
	ActionCreateRoom     = "create-room"
	ActionJoinRoom       = "join-room"
	ActionReconnect      = "reconnect-to-room"
	ActionUpdateSettings = "update-settings"
	ActionStartGame      = "start-game"
	ActionNextTurn       = "next-turn"
	ActionTogglePause    = "toggle-pause"
	ActionStartVoting    = "start-voting"
	ActionVote           = "vote"
	ActionLeaveGame      = "leave-game"
	ActionRestartGame    = "restart-game"
)

// EventAck is the event name of acknowledgement replies.
const EventAck = "ack"

// ClientMessage is one inbound frame. AckID is echoed back on actions that
// answer with an acknowledgement.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	AckID *int64          `json:"ackId,omitempty"`
}

// ServerMessage is one outbound frame.
type ServerMessage struct {
	ID        string           `json:"id"`
	RoomCode  string           `json:"roomCode,omitempty"`
	Event     events.EventType `json:"event"`
	Timestamp time.Time        `json:"timestamp"`
	Data      any              `json:"data"`
}

// AckMessage answers a ClientMessage carrying an AckID.
type AckMessage struct {
	Event string     `json:"event"`
	AckID int64      `json:"ackId"`
	Data  events.Ack `json:"data"`
}

type createRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type roomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type settingsRequest struct {
	RoomCode string              `json:"roomCode"`
	Settings room.SettingsUpdate `json:"settings"`
}

type voteRequest struct {
	RoomCode      string  `json:"roomCode"`
	VotedPlayerID *string `json:"votedPlayerId"`
}
