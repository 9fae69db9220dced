package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/impostor/go/internal/room/events"
)

// Event is one room broadcast mirrored onto the event stream.
type Event struct {
	ID        uuid.UUID
	RoomCode  string
	Type      events.EventType
	Payload   []byte
	CreatedAt time.Time
}

// NewEvent encodes payload into an Event with a fresh id.
func NewEvent(roomCode string, eventType events.EventType, payload any, now time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		RoomCode:  roomCode,
		Type:      eventType,
		Payload:   data,
		CreatedAt: now,
	}, nil
}

// Publisher delivers events to an external stream.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards events. It is used when no stream is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
