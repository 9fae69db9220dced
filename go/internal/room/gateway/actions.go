package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/impostor/go/internal/room"
	"github.com/mcdev12/impostor/go/internal/room/events"
)

// Actions is what the gateway forwards player actions to.
type Actions interface {
	CreateRoom(ctx context.Context, connID, playerName string) events.Ack
	JoinRoom(ctx context.Context, connID, code, playerName string) events.Ack
	Reconnect(ctx context.Context, connID, code, playerName string) events.Ack
	UpdateSettings(ctx context.Context, connID, code string, u room.SettingsUpdate)
	StartGame(ctx context.Context, connID, code string)
	NextTurn(ctx context.Context, connID, code string)
	TogglePause(ctx context.Context, connID, code string)
	StartVoting(ctx context.Context, connID, code string)
	Vote(ctx context.Context, connID, code, targetID string)
	LeaveGame(ctx context.Context, connID, code string)
	RestartGame(ctx context.Context, connID, code string)
	Disconnect(ctx context.Context, connID string)
}

var errBadRequest = errors.New("invalid request")

// route hands msg to the matching action. It reports true when the action
// produced an acknowledgement.
func route(ctx context.Context, a Actions, connID string, msg ClientMessage) (events.Ack, bool) {
	switch msg.Event {
	case ActionCreateRoom:
		var req createRoomRequest
		if err := decode(msg.Data, &req); err != nil {
			return events.Failure(err), true
		}
		return a.CreateRoom(ctx, connID, req.PlayerName), true

	case ActionJoinRoom, ActionReconnect:
		var req roomRequest
		if err := decode(msg.Data, &req); err != nil {
			return events.Failure(err), true
		}
		if msg.Event == ActionJoinRoom {
			return a.JoinRoom(ctx, connID, req.RoomCode, req.PlayerName), true
		}
		return a.Reconnect(ctx, connID, req.RoomCode, req.PlayerName), true

	case ActionUpdateSettings:
		var req settingsRequest
		if decode(msg.Data, &req) == nil {
			a.UpdateSettings(ctx, connID, req.RoomCode, req.Settings)
		}

	case ActionVote:
		var req voteRequest
		if decode(msg.Data, &req) == nil {
			target := ""
			if req.VotedPlayerID != nil {
				target = *req.VotedPlayerID
			}
			a.Vote(ctx, connID, req.RoomCode, target)
		}

	case ActionStartGame, ActionNextTurn, ActionTogglePause, ActionStartVoting, ActionLeaveGame, ActionRestartGame:
		var req roomRequest
		if decode(msg.Data, &req) != nil {
			break
		}
		switch msg.Event {
		case ActionStartGame:
			a.StartGame(ctx, connID, req.RoomCode)
		case ActionNextTurn:
			a.NextTurn(ctx, connID, req.RoomCode)
		case ActionTogglePause:
			a.TogglePause(ctx, connID, req.RoomCode)
		case ActionStartVoting:
			a.StartVoting(ctx, connID, req.RoomCode)
		case ActionLeaveGame:
			a.LeaveGame(ctx, connID, req.RoomCode)
		case ActionRestartGame:
			a.RestartGame(ctx, connID, req.RoomCode)
		}

	default:
		log.Debug().Str("conn_id", connID).Str("event", msg.Event).Msg("unknown client event")
	}
	return events.Ack{}, false
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errBadRequest
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Debug().Err(err).Msg("failed to decode client payload")
		return errBadRequest
	}
	return nil
}
