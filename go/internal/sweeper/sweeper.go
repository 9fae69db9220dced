// Package sweeper periodically evicts expired sessions and idle rooms.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/impostor/go/internal/room/repository"
)

// DefaultSchedule runs a sweep once a minute.
const DefaultSchedule = "@every 1m"

// Sessions is the part of the session registry the sweeper needs.
type Sessions interface {
	Sweep() int
}

type Sweeper struct {
	cron     *cron.Cron
	sessions Sessions
	store    repository.Sweeper
	timeout  time.Duration
}

// New schedules a sweep of sessions and, when store is non-nil, of the room
// store. Stores that expire keys on their own (Redis) pass nil.
func New(schedule string, sessions Sessions, store repository.Sweeper, timeout time.Duration) (*Sweeper, error) {
	s := &Sweeper{
		cron:     cron.New(),
		sessions: sessions,
		store:    store,
		timeout:  timeout,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	log.Info().Msg("sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to
// be done.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, _ = s.RunOnce(ctx)
}

// RunOnce performs a single sweep and reports what it removed.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	if s.sessions != nil {
		res.Sessions = s.sessions.Sweep()
	}
	if s.store != nil {
		n, err := s.store.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("room store sweep failed")
			return res, fmt.Errorf("sweep room store: %w", err)
		}
		res.Rooms = n
	}

	if res.Sessions > 0 || res.Rooms > 0 {
		log.Info().
			Int("sessions_removed", res.Sessions).
			Int("rooms_removed", res.Rooms).
			Msg("sweep completed")
	}
	return res, nil
}

type Result struct {
	Sessions int
	Rooms    int
}
