package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/impostor/go/internal/models"
	"github.com/mcdev12/impostor/go/internal/room"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	code       TEXT PRIMARY KEY,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS rooms_updated_at_idx ON rooms (updated_at);
`

// PostgresStore keeps room documents in a JSONB column. Rows idle for longer
// than the TTL are invisible to Get and removed by Sweep.
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostgresStore{pool: pool, ttl: ttl}
}

// EnsureSchema creates the rooms table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create rooms schema: %w", err)
	}
	return nil
}

// ttlSeconds feeds make_interval. Expiry is measured with the database clock,
// which also stamps updated_at.
func (s *PostgresStore) ttlSeconds() float64 {
	return s.ttl.Seconds()
}

func (s *PostgresStore) Get(ctx context.Context, code string) (*models.Room, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM rooms WHERE code = $1 AND updated_at > now() - make_interval(secs => $2)`,
		code, s.ttlSeconds(),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, room.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", code, err)
	}
	return decode(data)
}

func (s *PostgresStore) Create(ctx context.Context, r *models.Room) error {
	data, err := encode(r)
	if err != nil {
		return err
	}

	// an expired row with the same code is taken over
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (code, doc, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (code) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at
		WHERE rooms.updated_at <= now() - make_interval(secs => $3)`,
		r.Code, data, s.ttlSeconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to create room %s: %w", r.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return room.ErrDuplicateCode
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, r *models.Room) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rooms (code, doc, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (code) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		r.Code, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save room %s: %w", r.Code, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, code string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE code = $1`, code); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", code, err)
	}
	return nil
}

// Sweep deletes rows idle for longer than the TTL.
func (s *PostgresStore) Sweep(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE updated_at <= now() - make_interval(secs => $1)`, s.ttlSeconds())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep rooms: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		log.Info().Int64("removed", n).Msg("swept expired rooms")
	}
	return int(tag.RowsAffected()), nil
}
