package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/impostor/go/internal/room/events"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func TestNewEvent(t *testing.T) {
	now := time.Unix(1700000000, 0)
	ev, err := NewEvent("ABCD23", events.EventTypeVoteUpdate, events.VoteUpdatePayload{VotedCount: 1, TotalPlayers: 3}, now)
	require.NoError(t, err)

	assert.Equal(t, "ABCD23", ev.RoomCode)
	assert.JSONEq(t, `{"votedCount":1,"totalPlayers":3}`, string(ev.Payload))
	assert.Equal(t, "rooms.events.ABCD23.vote-update", Subject("rooms.events", ev))
	assert.NotEqual(t, ev.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestAsyncPublisher_DeliversAndFlushesOnClose(t *testing.T) {
	next := &mockPublisher{}
	var mu sync.Mutex
	var got []string
	next.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		got = append(got, string(args.Get(1).(Event).Type))
		mu.Unlock()
	}).Return(nil)
	next.On("Close").Return(nil)

	p := NewAsyncPublisher(next, 16, 1)
	for _, et := range []events.EventType{events.EventTypeRoomUpdate, events.EventTypeGameStarted} {
		ev, err := NewEvent("ABCD23", et, struct{}{}, time.Now())
		require.NoError(t, err)
		assert.True(t, p.Enqueue(ev))
	}

	require.NoError(t, p.Close())
	assert.Equal(t, []string{"room-update", "game-started"}, got)
	next.AssertExpectations(t)

	// closed publishers refuse new events
	assert.False(t, p.Enqueue(Event{RoomCode: "ABCD23"}))
	assert.NoError(t, p.Close())
}

func TestAsyncPublisher_DropsWhenFull(t *testing.T) {
	next := &mockPublisher{}
	release := make(chan struct{})
	next.On("Publish", mock.Anything, mock.Anything).Run(func(mock.Arguments) { <-release }).Return(nil)
	next.On("Close").Return(nil)

	p := NewAsyncPublisher(next, 1, 1)

	// the worker takes the first event and blocks; the second fills the queue
	require.True(t, p.Enqueue(Event{RoomCode: "A"}))
	require.Eventually(t, func() bool { return len(p.queue) == 0 }, time.Second, time.Millisecond)
	require.True(t, p.Enqueue(Event{RoomCode: "B"}))
	assert.False(t, p.Enqueue(Event{RoomCode: "C"}))

	close(release)
	require.NoError(t, p.Close())
	next.AssertNumberOfCalls(t, "Publish", 2)
}

func TestAsyncPublisher_LogsFailures(t *testing.T) {
	next := &mockPublisher{}
	next.On("Publish", mock.Anything, mock.Anything).Return(errors.New("stream down"))
	next.On("Close").Return(nil)

	p := NewAsyncPublisher(next, 4, 2)
	assert.NoError(t, p.Publish(context.Background(), Event{RoomCode: "A"}))
	require.NoError(t, p.Close())
	next.AssertNumberOfCalls(t, "Publish", 1)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
