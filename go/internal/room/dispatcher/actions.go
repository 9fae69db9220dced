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

// CreateRoom opens a new room with connID as its admin.
func (d *Dispatcher) CreateRoom(ctx context.Context, connID, playerName string) events.Ack {
	d.releaseOtherSeat(ctx, connID, "")
	for attempt := 1; attempt <= d.cfg.CreateAttempts; attempt++ {
		r, err := room.NewRoom(d.newCode(), connID, playerName, d.clock.Now())
		if err != nil {
			return failure(err)
		}

		err = d.create(ctx, r)
		if errors.Is(err, room.ErrDuplicateCode) {
			log.Debug().Str("room_code", r.Code).Int("attempt", attempt).Msg("room code collision, retrying")
			continue
		}
		if err != nil {
			drop("create-room", r.Code, connID, err)
			return failure(err)
		}

		log.Info().Str("room_code", r.Code).Str("conn_id", connID).Msg("room created")
		admin := true
		return events.Ack{Success: true, RoomCode: r.Code, IsAdmin: &admin}
	}

	log.Error().Str("conn_id", connID).Int("attempts", d.cfg.CreateAttempts).Msg("could not find a free room code")
	return failure(errors.New("could not allocate a room code"))
}

func (d *Dispatcher) create(ctx context.Context, r *models.Room) error {
	unlock := d.locks.Lock(r.Code)
	defer unlock()

	sctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()
	if err := d.store.Create(sctx, r); err != nil {
		return err
	}

	admin := r.Players[0]
	b := &batch{}
	b.after(func() {
		d.sessions.Put(admin.ID, r.Code, admin.Name)
		d.transport.Join(admin.ID, r.Code)
	})
	b.broadcast(events.EventTypeRoomUpdate, events.Snapshot(r))
	d.apply(r.Code, b)
	return nil
}

// JoinRoom seats connID in a waiting room.
func (d *Dispatcher) JoinRoom(ctx context.Context, connID, code, playerName string) events.Ack {
	code = room.NormalizeCode(code)
	d.releaseOtherSeat(ctx, connID, code)
	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		p, err := room.Join(r, connID, playerName)
		if err != nil {
			return keep, err
		}
		b.after(func() {
			d.sessions.Put(connID, code, p.Name)
			d.transport.Join(connID, code)
		})
		b.broadcast(events.EventTypeRoomUpdate, events.Snapshot(r))
		return save, nil
	})
	if err != nil {
		drop("join-room", code, connID, err)
		return failure(err)
	}

	admin := false
	return events.Ack{Success: true, RoomCode: code, IsAdmin: &admin}
}

// Reconnect moves the seat named playerName onto connID and returns the
// private resync payload.
func (d *Dispatcher) Reconnect(ctx context.Context, connID, code, playerName string) events.Ack {
	code = room.NormalizeCode(code)
	d.releaseOtherSeat(ctx, connID, code)
	var ack events.Ack
	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		p, oldID, err := room.Rebind(r, playerName, connID)
		if err != nil {
			return keep, err
		}

		b.after(func() {
			d.timers.Cancel(scheduler.GraceKey(code, p.Name))
			d.sessions.Rebind(oldID, connID, code, p.Name)
			d.transport.Join(connID, code)
			if oldID != connID {
				d.transport.Leave(oldID, code)
			}
		})
		b.broadcast(events.EventTypeRoomUpdate, events.Snapshot(r))

		isAdmin := p.IsAdmin
		index := r.CurrentTurnIndex
		paused := r.IsPaused
		snap := events.Snapshot(r)
		ack = events.Ack{
			Success:          true,
			RoomCode:         code,
			IsAdmin:          &isAdmin,
			GameState:        r.GameState,
			Role:             events.RoleFor(r, p),
			TurnOrder:        snap.TurnOrder,
			CurrentTurnIndex: &index,
			TimeRemaining:    snap.TimeRemaining,
			IsPaused:         &paused,
		}
		log.Info().Str("room_code", code).Str("player", p.Name).Str("old_conn_id", oldID).Str("conn_id", connID).Msg("player reconnected")
		return save, nil
	})
	if err != nil {
		drop("reconnect-to-room", code, connID, err)
		return failure(err)
	}
	return ack
}

// UpdateSettings changes room settings on behalf of the admin.
func (d *Dispatcher) UpdateSettings(ctx context.Context, connID, code string, u room.SettingsUpdate) {
	code = room.NormalizeCode(code)
	if u.Category != nil && !d.deck.Has(*u.Category) {
		all := models.CategoryAll
		u.Category = &all
	}
	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		if err := room.UpdateSettings(r, connID, u); err != nil {
			return keep, err
		}
		b.broadcast(events.EventTypeRoomUpdate, events.Snapshot(r))
		return save, nil
	})
	drop("update-settings", code, connID, err)
}

// StartGame deals roles. Too few players is reported to the requester only.
func (d *Dispatcher) StartGame(ctx context.Context, connID, code string) {
	code = room.NormalizeCode(code)
	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		if err := room.Start(r, connID, d.deck, d.rng); err != nil {
			return keep, err
		}

		if r.TimeRemaining != nil {
			b.after(func() { d.armRound(code) })
		}
		for _, p := range r.Players {
			b.send(p.ID, events.EventTypeRoleAssigned, events.RoleFor(r, p))
		}
		b.broadcast(events.EventTypeGameStarted, events.GameStarted(r))
		b.broadcast(events.EventTypeRoomUpdate, events.Snapshot(r))

		log.Info().
			Str("room_code", code).
			Int("players", len(r.Players)).
			Int("impostors", r.Settings.ImpostorCount).
			Str("category", r.Settings.Category).
			Msg("game started")
		return save, nil
	})
	if errors.Is(err, room.ErrCapacity) {
		d.transport.SendTo(connID, events.EventTypeError, events.ErrorPayload{Message: err.Error()})
	}
	drop("start-game", code, connID, err)
}

// NextTurn passes the turn to the next player in the order.
func (d *Dispatcher) NextTurn(ctx context.Context, connID, code string) {
	code = room.NormalizeCode(code)
	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		if _, err := seated(r, connID); err != nil {
			return keep, err
		}
		rotated, err := room.NextTurn(r)
		if err != nil || !rotated {
			return keep, err
		}

		payload := events.TurnUpdatedPayload{TurnOrder: append([]string{}, r.TurnOrder...)}
		if p := room.CurrentPlayer(r); p != nil {
			payload.CurrentPlayerName = p.Name
		}
		b.broadcast(events.EventTypeTurnUpdated, payload)
		return save, nil
	})
	drop("next-turn", code, connID, err)
}

// TogglePause pauses or resumes the round countdown.
func (d *Dispatcher) TogglePause(ctx context.Context, connID, code string) {
	code = room.NormalizeCode(code)
	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		paused, err := room.TogglePause(r, connID)
		if err != nil {
			return keep, err
		}

		countdown := r.TimeRemaining != nil
		b.after(func() {
			if paused || !countdown {
				d.timers.Cancel(scheduler.RoundKey(code))
				return
			}
			d.armRound(code)
		})
		b.broadcast(events.EventTypeGamePaused, events.GamePausedPayload{IsPaused: paused})
		return save, nil
	})
	drop("toggle-pause", code, connID, err)
}

// StartVoting opens a voting round on behalf of the admin.
func (d *Dispatcher) StartVoting(ctx context.Context, connID, code string) {
	code = room.NormalizeCode(code)
	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		if err := room.StartVoting(r, connID); err != nil {
			return keep, err
		}
		b.after(func() { d.timers.Cancel(scheduler.RoundKey(code)) })
		b.broadcast(events.EventTypeVotingStarted, events.Snapshot(r))
		return save, nil
	})
	drop("start-voting", code, connID, err)
}

// Vote records connID's vote. An empty target abstains.
func (d *Dispatcher) Vote(ctx context.Context, connID, code, targetID string) {
	code = room.NormalizeCode(code)
	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		outcome, err := room.CastVote(r, connID, targetID)
		if err != nil {
			return keep, err
		}

		// tie and end announcements carry their own room update
		if outcome.Kind == room.OutcomePending {
			b.broadcast(events.EventTypeRoomUpdate, events.Snapshot(r))
		}
		d.announceOutcome(r, outcome, b)
		return save, nil
	})
	drop("vote", code, connID, err)
}

// LeaveGame removes connID from the room without a grace period.
func (d *Dispatcher) LeaveGame(ctx context.Context, connID, code string) {
	d.leaveRoom(ctx, "leave-game", connID, room.NormalizeCode(code))
}

// releaseOtherSeat gives up the seat connID holds in a room other than code.
// A connection sits in at most one room.
func (d *Dispatcher) releaseOtherSeat(ctx context.Context, connID, code string) {
	sess, ok := d.sessions.Get(connID)
	if !ok || sess.RoomCode == code {
		return
	}
	log.Info().Str("room_code", sess.RoomCode).Str("conn_id", connID).Msg("connection moving to another room, leaving")
	d.leaveRoom(ctx, "switch-room", connID, sess.RoomCode)
}

// leaveRoom removes connID from code. Its session goes only once the seat is
// actually released.
func (d *Dispatcher) leaveRoom(ctx context.Context, action, connID, code string) {
	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		what, err := d.leave(r, connID, b)
		if err == nil {
			b.after(func() { d.sessions.Delete(connID) })
		}
		return what, err
	})
	d.transport.Leave(connID, code)
	drop(action, code, connID, err)
}

// RestartGame returns the room to the lobby.
func (d *Dispatcher) RestartGame(ctx context.Context, connID, code string) {
	code = room.NormalizeCode(code)
	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		if err := room.Restart(r, connID); err != nil {
			return keep, err
		}
		b.after(func() { d.timers.Cancel(scheduler.RoundKey(code)) })
		b.broadcast(events.EventTypeRoomUpdate, events.Snapshot(r))
		return save, nil
	})
	drop("restart-game", code, connID, err)
}

// Disconnect holds connID's seat for the grace window instead of removing it.
func (d *Dispatcher) Disconnect(ctx context.Context, connID string) {
	sess, ok := d.sessions.MarkDisconnected(connID)
	if !ok {
		return
	}
	code := sess.RoomCode

	err := d.withRoom(ctx, code, func(r *models.Room, b *batch) (change, error) {
		p := r.PlayerByID(connID)
		if p == nil {
			return keep, errStale
		}

		name := p.Name
		b.after(func() {
			d.timers.After(scheduler.GraceKey(code, name), d.cfg.GraceWindow, func(f scheduler.Fire) {
				d.graceExpired(code, connID, f)
			})
		})
		b.broadcast(events.EventTypePlayerDisconnected, events.PlayerDisconnectedPayload{PlayerID: connID, PlayerName: name})
		log.Info().Str("room_code", code).Str("player", name).Dur("grace", d.cfg.GraceWindow).Msg("player disconnected, holding seat")
		return keep, nil
	})
	drop("disconnect", code, connID, err)
}

// leave removes connID and queues the departure announcements.
func (d *Dispatcher) leave(r *models.Room, connID string, b *batch) (change, error) {
	res, err := room.Leave(r, connID)
	if err != nil {
		return keep, err
	}

	code := r.Code
	name := res.Player.Name
	b.after(func() { d.timers.Cancel(scheduler.GraceKey(code, name)) })
	if res.Empty {
		return remove, nil
	}

	b.broadcast(events.EventTypePlayerLeft, events.PlayerLeftPayload{PlayerName: name, PlayerID: connID})
	b.broadcast(events.EventTypeRoomUpdate, events.Snapshot(r))
	if res.Outcome != nil {
		d.announceOutcome(r, *res.Outcome, b)
	}
	if res.NewAdmin != nil {
		log.Info().Str("room_code", code).Str("admin", res.NewAdmin.Name).Msg("admin reassigned")
	}
	return save, nil
}

// announceOutcome queues the events that follow a change to a voting round.
func (d *Dispatcher) announceOutcome(r *models.Room, outcome room.VoteOutcome, b *batch) {
	switch outcome.Kind {
	case room.OutcomePending:
		b.broadcast(events.EventTypeVoteUpdate, events.VoteUpdatePayload{
			VotedCount:   outcome.VotedCount,
			TotalPlayers: outcome.TotalPlayers,
		})

	case room.OutcomeTie:
		b.broadcast(events.EventTypeVotingTie, events.VotingTiePayload{
			TiedPlayers: events.Candidates(r, outcome.TiedIDs),
			VoteCounts:  outcome.Tally,
		})
		b.broadcast(events.EventTypeRoomUpdate, events.Snapshot(r))
		log.Info().Str("room_code", r.Code).Strs("tied", outcome.TiedIDs).Msg("voting tie, new round")

	case room.OutcomeEnded:
		payload := events.GameEndedPayload{
			ImpostorFound: outcome.ImpostorFound,
			Impostors:     events.ImpostorNames(r),
			Word:          r.CurrentWord,
			VoteCounts:    outcome.Tally,
		}
		if p := outcome.VotedOut; p != nil {
			payload.VotedOutPlayer = &events.VotedOutPlayer{ID: p.ID, Name: p.Name, IsImpostor: p.IsImpostor}
		}
		b.broadcast(events.EventTypeGameEnded, payload)
		b.broadcast(events.EventTypeRoomUpdate, events.Snapshot(r))
		log.Info().Str("room_code", r.Code).Bool("impostor_found", outcome.ImpostorFound).Msg("game ended")
	}
}
