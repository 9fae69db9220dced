package session

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LiveSessionNeverExpires(t *testing.T) {
	fc := clockwork.NewFakeClock()
	r := NewRegistry(fc, time.Minute)

	r.Put("c1", "ABCD", "Ann")
	fc.Advance(time.Hour)

	s, ok := r.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "ABCD", s.RoomCode)
	assert.Equal(t, "Ann", s.PlayerName)
	assert.True(t, s.Connected)
	assert.Equal(t, 0, r.Sweep())
}

func TestRegistry_ExpiresAfterDisconnect(t *testing.T) {
	fc := clockwork.NewFakeClock()
	r := NewRegistry(fc, 5*time.Minute)

	r.Put("c1", "ABCD", "Ann")
	s, ok := r.MarkDisconnected("c1")
	require.True(t, ok)
	assert.False(t, s.Connected)
	assert.Equal(t, fc.Now().Add(5*time.Minute), s.ExpiresAt)

	fc.Advance(4 * time.Minute)
	_, ok = r.Get("c1")
	assert.True(t, ok)

	fc.Advance(time.Minute)
	_, ok = r.Get("c1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Sweep(t *testing.T) {
	fc := clockwork.NewFakeClock()
	r := NewRegistry(fc, time.Minute)

	r.Put("c1", "ABCD", "Ann")
	r.Put("c2", "ABCD", "Bob")
	r.Put("c3", "WXYZ", "Cid")

	_, _ = r.MarkDisconnected("c2")
	fc.Advance(30 * time.Second)
	_, _ = r.MarkDisconnected("c1")
	fc.Advance(40 * time.Second)

	assert.Equal(t, 1, r.Sweep())
	_, ok := r.Get("c2")
	assert.False(t, ok)
	_, ok = r.Get("c1")
	assert.True(t, ok)

	fc.Advance(time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Rebind(t *testing.T) {
	fc := clockwork.NewFakeClock()
	r := NewRegistry(fc, time.Minute)

	r.Put("old", "ABCD", "Ann")
	_, _ = r.MarkDisconnected("old")
	r.Rebind("old", "new", "ABCD", "Ann")

	_, ok := r.Get("old")
	assert.False(t, ok)
	s, ok := r.Get("new")
	require.True(t, ok)
	assert.True(t, s.Connected)

	// the rebound session is live again and is not swept
	fc.Advance(time.Hour)
	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DeleteRemovesQueuedEntry(t *testing.T) {
	fc := clockwork.NewFakeClock()
	r := NewRegistry(fc, time.Minute)

	r.Put("c1", "ABCD", "Ann")
	_, _ = r.MarkDisconnected("c1")
	r.Delete("c1")

	fc.Advance(time.Hour)
	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, 0, r.Len())

	_, ok := r.MarkDisconnected("missing")
	assert.False(t, ok)
}
