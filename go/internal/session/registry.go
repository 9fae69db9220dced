package session

import (
	"container/heap"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long a session outlives its connection.
const DefaultTTL = 5 * time.Minute

// Session binds a connection identity to a seat in a room.
type Session struct {
	ConnID     string
	RoomCode   string
	PlayerName string
	Connected  bool
	// ExpiresAt is zero while the connection is live.
	ExpiresAt time.Time
}

type entry struct {
	Session
	index int // position in the expiry heap, -1 when not queued
}

// Registry is an expiring connID -> (room, name) map. Sessions are only queued
// for expiry once their connection drops.
type Registry struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
	expiry   expiryQueue
}

func NewRegistry(clock clockwork.Clock, ttl time.Duration) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[string]*entry),
	}
}

// Put records a live session for connID, replacing any previous one.
func (r *Registry) Put(connID, roomCode, playerName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(connID)
	r.sessions[connID] = &entry{
		Session: Session{ConnID: connID, RoomCode: roomCode, PlayerName: playerName, Connected: true},
		index:   -1,
	}
}

// Get returns the session for connID unless it has expired.
func (r *Registry) Get(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	if r.expiredLocked(e, r.clock.Now()) {
		r.removeLocked(connID)
		return Session{}, false
	}
	return e.Session, true
}

// Delete forgets connID.
func (r *Registry) Delete(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(connID)
}

// Rebind moves a seat from oldID to a live newID.
func (r *Registry) Rebind(oldID, newID, roomCode, playerName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(oldID)
	r.removeLocked(newID)
	r.sessions[newID] = &entry{
		Session: Session{ConnID: newID, RoomCode: roomCode, PlayerName: playerName, Connected: true},
		index:   -1,
	}
}

// MarkDisconnected starts the TTL of connID's session and returns it.
func (r *Registry) MarkDisconnected(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	e.Connected = false
	e.ExpiresAt = r.clock.Now().Add(r.ttl)
	if e.index >= 0 {
		heap.Fix(&r.expiry, e.index)
	} else {
		heap.Push(&r.expiry, e)
	}
	return e.Session, true
}

// Sweep drops every expired session and returns how many it removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	removed := 0
	for r.expiry.Len() > 0 {
		next := r.expiry[0]
		if !r.expiredLocked(next, now) {
			break
		}
		r.removeLocked(next.ConnID)
		removed++
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(r.sessions)).Msg("swept expired sessions")
	}
	return removed
}

// Len is the number of stored sessions, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expiredLocked(e *entry, now time.Time) bool {
	return !e.Connected && !now.Before(e.ExpiresAt)
}

func (r *Registry) removeLocked(connID string) {
	e, ok := r.sessions[connID]
	if !ok {
		return
	}
	if e.index >= 0 {
		heap.Remove(&r.expiry, e.index)
	}
	delete(r.sessions, connID)
}
