package dispatcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/impostor/go/internal/content"
	"github.com/mcdev12/impostor/go/internal/models"
	"github.com/mcdev12/impostor/go/internal/room"
	"github.com/mcdev12/impostor/go/internal/room/eventbus"
	"github.com/mcdev12/impostor/go/internal/room/events"
	"github.com/mcdev12/impostor/go/internal/room/repository"
	"github.com/mcdev12/impostor/go/internal/room/scheduler"
	"github.com/mcdev12/impostor/go/internal/session"
)

const waitFor = 2 * time.Second

type sent struct {
	to      string
	room    string
	event   events.EventType
	payload any
}

type fakeTransport struct {
	mu      sync.Mutex
	sent    []sent
	members map[string]map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{members: make(map[string]map[string]bool)}
}

func (f *fakeTransport) Join(connID, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[code] == nil {
		f.members[code] = make(map[string]bool)
	}
	f.members[code][connID] = true
}

func (f *fakeTransport) Leave(connID, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[code], connID)
}

func (f *fakeTransport) Broadcast(code string, event events.EventType, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{room: code, event: event, payload: payload})
}

func (f *fakeTransport) SendTo(connID string, event events.EventType, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{to: connID, event: event, payload: payload})
}

func (f *fakeTransport) isMember(connID, code string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[code][connID]
}

// all returns every message of the given type, in order.
func (f *fakeTransport) all(event events.EventType) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, s := range f.sent {
		if s.event == event {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeTransport) count(event events.EventType) int {
	return len(f.all(event))
}

func (f *fakeTransport) last(t *testing.T, event events.EventType) sent {
	t.Helper()
	msgs := f.all(event)
	require.NotEmpty(t, msgs, "no %s sent", event)
	return msgs[len(msgs)-1]
}

func (f *fakeTransport) types() []events.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.EventType, len(f.sent))
	for i, s := range f.sent {
		out[i] = s.event
	}
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fixedDeck struct{}

func (fixedDeck) Pick(string, content.Rand) content.Entry {
	return content.Entry{Word: "Lighthouse", Hint: "Coast"}
}

func (fixedDeck) Has(category string) bool {
	switch strings.ToLower(category) {
	case models.CategoryAll, "places", "food":
		return true
	}
	return false
}

type harness struct {
	d         *Dispatcher
	store     *repository.MemoryStore
	clock     *clockwork.FakeClock
	transport *fakeTransport
	timers    *scheduler.Scheduler
	sessions  *session.Registry
	publisher *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fc := clockwork.NewFakeClock()
	h := &harness{
		store:     repository.NewMemoryStore(fc, repository.DefaultTTL),
		clock:     fc,
		transport: newFakeTransport(),
		timers:    scheduler.New(fc),
		sessions:  session.NewRegistry(fc, session.DefaultTTL),
		publisher: &recordingPublisher{},
	}
	h.d = New(Deps{
		Store:     h.store,
		Sessions:  h.sessions,
		Timers:    h.timers,
		Transport: h.transport,
		Deck:      fixedDeck{},
		Publisher: h.publisher,
		Clock:     fc,
	}, DefaultConfig())
	t.Cleanup(h.timers.Stop)
	return h
}

var ctx = context.Background()

// lobby creates room ABCD with A (admin) and joins B and C.
func (h *harness) lobby(t *testing.T) string {
	t.Helper()
	h.d.newCode = func() string { return "ABCD" }

	ack := h.d.CreateRoom(ctx, "a", "A")
	require.True(t, ack.Success, ack.Error)
	require.Equal(t, "ABCD", ack.RoomCode)

	for _, p := range []struct{ id, name string }{{"b", "B"}, {"c", "C"}} {
		ack = h.d.JoinRoom(ctx, p.id, "abcd", p.name)
		require.True(t, ack.Success, ack.Error)
	}
	return "ABCD"
}

func (h *harness) started(t *testing.T) string {
	t.Helper()
	code := h.lobby(t)
	h.d.StartGame(ctx, "a", code)
	require.Equal(t, models.GameStateStarted, h.room(t, code).GameState)
	return code
}

func (h *harness) voting(t *testing.T) string {
	t.Helper()
	code := h.started(t)
	h.d.StartVoting(ctx, "a", code)
	require.Equal(t, models.GameStateVoting, h.room(t, code).GameState)
	return code
}

func (h *harness) room(t *testing.T, code string) *models.Room {
	t.Helper()
	r, err := h.store.Get(ctx, code)
	require.NoError(t, err)
	return r
}

func (h *harness) gone(t *testing.T, code string) bool {
	t.Helper()
	_, err := h.store.Get(ctx, code)
	return errors.Is(err, room.ErrRoomNotFound)
}

func (h *harness) blockUntil(t *testing.T, n int) {
	t.Helper()
	c, cancel := context.WithTimeout(ctx, waitFor)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(c, n))
}
