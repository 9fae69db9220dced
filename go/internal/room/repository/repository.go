package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/impostor/go/internal/models"
	"github.com/mcdev12/impostor/go/internal/room"
)

// DefaultTTL is how long an untouched room document survives.
const DefaultTTL = 24 * time.Hour

// Store persists one document per room code. Put is last-writer-wins and
// every write refreshes the inactivity TTL.
type Store interface {
	// Get returns room.ErrRoomNotFound for unknown or expired codes.
	Get(ctx context.Context, code string) (*models.Room, error)
	// Create returns room.ErrDuplicateCode when the code is taken.
	Create(ctx context.Context, r *models.Room) error
	Put(ctx context.Context, r *models.Room) error
	Delete(ctx context.Context, code string) error
}

// Sweeper is implemented by stores that expire documents themselves.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

func encode(r *models.Room) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room %s: %w", r.Code, err)
	}
	return data, nil
}

func decode(data []byte) (*models.Room, error) {
	var r models.Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	room.Sanitize(&r)
	return &r, nil
}
