package dispatcher

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/impostor/go/internal/models"
	"github.com/mcdev12/impostor/go/internal/room"
	"github.com/mcdev12/impostor/go/internal/room/events"
	"github.com/mcdev12/impostor/go/internal/room/scheduler"
)

// armRound starts (or restarts) the countdown of a room.
func (d *Dispatcher) armRound(code string) {
	d.timers.Every(scheduler.RoundKey(code), d.cfg.TickInterval, func(f scheduler.Fire) {
		d.tick(code, f)
	})
}

// tick advances the countdown. Fires that were cancelled, replaced or that
// find the round paused or over are discarded against the fresh room.
func (d *Dispatcher) tick(code string, fire scheduler.Fire) {
	err := d.withRoom(context.Background(), code, func(r *models.Room, b *batch) (change, error) {
		if !d.timers.Valid(fire) {
			return keep, errStale
		}

		res, err := room.Tick(r)
		if err != nil {
			// the round moved on without us; stop ticking
			b.after(func() { d.timers.Cancel(fire.Key) })
			return keep, nil
		}

		if res.Expired {
			b.after(func() { d.timers.Cancel(fire.Key) })
			b.broadcast(events.EventTypeVotingStarted, events.Snapshot(r))
			log.Info().Str("room_code", code).Msg("round time is up, voting started")
			return save, nil
		}
		b.broadcast(events.EventTypeTimeUpdate, events.TimeUpdatePayload{TimeRemaining: res.Remaining})
		return save, nil
	})

	if errors.Is(err, errStale) {
		return
	}
	if errors.Is(err, room.ErrRoomNotFound) {
		d.timers.Cancel(fire.Key)
		return
	}
	drop("tick", code, "", err)
}

// graceExpired removes a player who did not come back in time, unless the
// seat has been rebound to another connection meanwhile.
func (d *Dispatcher) graceExpired(code, connID string, fire scheduler.Fire) {
	err := d.withRoom(context.Background(), code, func(r *models.Room, b *batch) (change, error) {
		if !d.timers.Valid(fire) {
			return keep, errStale
		}
		if r.PlayerByID(connID) == nil {
			return keep, errStale
		}

		what, err := d.leave(r, connID, b)
		if err == nil {
			log.Info().Str("room_code", code).Str("conn_id", connID).Msg("grace window elapsed, player removed")
		}
		return what, err
	})
	d.transport.Leave(connID, code)
	drop("grace-expired", code, connID, err)
}
