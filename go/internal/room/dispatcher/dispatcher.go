package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/impostor/go/internal/content"
	"github.com/mcdev12/impostor/go/internal/models"
	"github.com/mcdev12/impostor/go/internal/room"
	"github.com/mcdev12/impostor/go/internal/room/eventbus"
	"github.com/mcdev12/impostor/go/internal/room/events"
	"github.com/mcdev12/impostor/go/internal/room/repository"
	"github.com/mcdev12/impostor/go/internal/room/scheduler"
	"github.com/mcdev12/impostor/go/internal/session"
)

// Transport delivers events to connections and groups them into room channels.
type Transport interface {
	Join(connID, roomCode string)
	Leave(connID, roomCode string)
	Broadcast(roomCode string, event events.EventType, payload any)
	SendTo(connID string, event events.EventType, payload any)
}

type Config struct {
	// GraceWindow is how long a disconnected player keeps their seat.
	GraceWindow time.Duration
	// StoreTimeout bounds every store call of an action.
	StoreTimeout time.Duration
	// TickInterval is the period of the round countdown.
	TickInterval time.Duration
	// CreateAttempts bounds retries on room code collisions.
	CreateAttempts int
}

func DefaultConfig() Config {
	return Config{
		GraceWindow:    30 * time.Second,
		StoreTimeout:   5 * time.Second,
		TickInterval:   time.Second,
		CreateAttempts: 5,
	}
}

// Deps are the collaborators of a Dispatcher. Publisher, Clock and Rand are optional.
// Deck supplies round words and knows which categories it can serve.
type Deck interface {
	room.Deck
	Has(category string) bool
}

type Deps struct {
	Store     repository.Store
	Sessions  *session.Registry
	Timers    *scheduler.Scheduler
	Transport Transport
	Deck      Deck
	Publisher eventbus.Publisher
	Clock     clockwork.Clock
	Rand      content.Rand
}

// Dispatcher applies player actions and timer fires to rooms, one at a time
// per room code.
type Dispatcher struct {
	store     repository.Store
	sessions  *session.Registry
	timers    *scheduler.Scheduler
	transport Transport
	deck      Deck
	publisher eventbus.Publisher
	clock     clockwork.Clock
	rng       content.Rand
	cfg       Config

	locks   *keyedMutex
	newCode func() string
}

func New(deps Deps, cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.GraceWindow <= 0 {
		cfg.GraceWindow = def.GraceWindow
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.CreateAttempts <= 0 {
		cfg.CreateAttempts = def.CreateAttempts
	}

	d := &Dispatcher{
		store:     deps.Store,
		sessions:  deps.Sessions,
		timers:    deps.Timers,
		transport: deps.Transport,
		deck:      deps.Deck,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		rng:       deps.Rand,
		cfg:       cfg,
		locks:     newKeyedMutex(),
	}
	if d.publisher == nil {
		d.publisher = eventbus.Noop{}
	}
	if d.clock == nil {
		d.clock = clockwork.NewRealClock()
	}
	if d.rng == nil {
		d.rng = content.NewLockedRand(nil)
	}
	d.newCode = func() string { return content.GenerateRoomCode(d.rng) }
	return d
}

// change tells withRoom what to do with the room after a successful action.
type change int

const (
	keep change = iota
	save
	remove
)

// errStale marks timer fires and disconnects that no longer apply.
var errStale = errors.New("stale action")

// withRoom runs fn against the freshly loaded room under the room's lock,
// persists the result and only then runs the batched side effects. Effects
// run before the lock is released so broadcasts keep action order.
func (d *Dispatcher) withRoom(ctx context.Context, code string, fn func(*models.Room, *batch) (change, error)) error {
	unlock := d.locks.Lock(code)
	defer unlock()

	sctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	r, err := d.store.Get(sctx, code)
	if err != nil {
		return err
	}

	b := &batch{}
	what, err := fn(r, b)
	if err != nil {
		return err
	}

	switch what {
	case save:
		r.UpdatedAt = d.clock.Now()
		if err := d.store.Put(sctx, r); err != nil {
			return fmt.Errorf("save room: %w", err)
		}
	case remove:
		if err := d.store.Delete(sctx, code); err != nil {
			return fmt.Errorf("delete room: %w", err)
		}
		b.after(func() { d.cancelRoomTimers(code) })
		log.Info().Str("room_code", code).Msg("room deleted, no players left")
	}

	d.apply(code, b)
	return nil
}

func (d *Dispatcher) apply(code string, b *batch) {
	for _, fn := range b.hooks {
		fn()
	}
	for _, m := range b.messages {
		if m.to != "" {
			d.transport.SendTo(m.to, m.event, m.payload)
			continue
		}
		if m.event.Private() {
			log.Error().Str("room_code", code).Str("event_type", string(m.event)).Msg("private event addressed to a room, dropped")
			continue
		}
		d.transport.Broadcast(code, m.event, m.payload)
		d.publish(code, m.event, m.payload)
	}
}

func (d *Dispatcher) publish(code string, event events.EventType, payload any) {
	ev, err := eventbus.NewEvent(code, event, payload, d.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("room_code", code).Msg("failed to encode room event")
		return
	}
	if err := d.publisher.Publish(context.Background(), ev); err != nil {
		log.Error().Err(err).Str("room_code", code).Str("event_type", string(event)).Msg("failed to publish room event")
	}
}

func (d *Dispatcher) cancelRoomTimers(code string) {
	d.timers.Cancel(scheduler.RoundKey(code))
	d.timers.CancelPrefix(scheduler.GracePrefix(code))
}

// drop logs an action that was not applied. Expected rejections are debug
// noise; anything else is an infrastructure failure.
func drop(action, code, connID string, err error) {
	if err == nil || errors.Is(err, errStale) {
		return
	}
	if room.Public(err) {
		log.Debug().
			Str("action", action).
			Str("room_code", code).
			Str("conn_id", connID).
			Err(err).
			Msg("action dropped")
		return
	}
	log.Error().
		Str("action", action).
		Str("room_code", code).
		Str("conn_id", connID).
		Err(err).
		Msg("action failed")
}

// failure turns an error into a negative ack without leaking internals.
func failure(err error) events.Ack {
	if room.Public(err) {
		return events.Failure(err)
	}
	return events.Failure(errors.New("something went wrong, please try again"))
}

func seated(r *models.Room, connID string) (*models.Player, error) {
	p := r.PlayerByID(connID)
	if p == nil {
		return nil, room.ErrPlayerNotFound
	}
	return p, nil
}
