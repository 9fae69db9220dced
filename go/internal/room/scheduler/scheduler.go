package scheduler

import (
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Fire identifies one firing of a keyed timer. Callers hand it back to Valid
// once they hold the room lock, to drop fires that were cancelled or replaced
// in the meantime.
type Fire struct {
	Key string
	Gen uint64
}

// Func is run on the scheduler's goroutine for each fire. The scheduler holds
// no lock while it runs.
type Func func(Fire)

type handle struct {
	gen  uint64
	stop chan struct{}
}

// Scheduler owns at most one live timer per key.
type Scheduler struct {
	clock clockwork.Clock

	mu      sync.Mutex
	timers  map[string]*handle
	nextGen uint64
	stopped bool

	wg sync.WaitGroup
}

func New(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:  clock,
		timers: make(map[string]*handle),
	}
}

// RoundKey is the key of a room's countdown.
func RoundKey(code string) string { return "round:" + code }

// GraceKey is the key of a disconnected player's grace window.
func GraceKey(code, name string) string { return GracePrefix(code) + name }

// GracePrefix matches every grace window of a room.
func GracePrefix(code string) string { return "grace:" + code + ":" }

// Every runs fn every d until the key is cancelled or replaced.
func (s *Scheduler) Every(key string, d time.Duration, fn Func) {
	h, ok := s.replace(key)
	if !ok {
		return
	}
	ticker := s.clock.NewTicker(d)
	fire := Fire{Key: key, Gen: h.gen}

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				fn(fire)
			case <-h.stop:
				return
			}
		}
	}()

	log.Debug().Str("timer_key", key).Dur("interval", d).Msg("scheduled repeating timer")
}

// After runs fn once after d unless the key is cancelled or replaced first.
func (s *Scheduler) After(key string, d time.Duration, fn Func) {
	h, ok := s.replace(key)
	if !ok {
		return
	}
	timer := s.clock.NewTimer(d)
	fire := Fire{Key: key, Gen: h.gen}

	go func() {
		defer s.wg.Done()
		select {
		case <-timer.Chan():
			fn(fire)
			s.release(fire)
		case <-h.stop:
			stopAndDrainTimer(timer)
		}
	}()

	log.Debug().Str("timer_key", key).Dur("duration", d).Msg("scheduled one-shot timer")
}

// Valid reports whether f belongs to the live timer of its key.
func (s *Scheduler) Valid(f Fire) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.timers[f.Key]
	return ok && h.gen == f.Gen
}

// Active reports whether a timer is live for key.
func (s *Scheduler) Active(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}

// Len is the number of live timers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Cancel stops the timer for key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(key)
}

// CancelPrefix stops every timer whose key starts with prefix.
func (s *Scheduler) CancelPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.timers {
		if strings.HasPrefix(key, prefix) {
			s.cancelLocked(key)
		}
	}
}

// Stop cancels every timer, refuses new ones and waits for running callbacks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for key := range s.timers {
		s.cancelLocked(key)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// replace cancels any existing timer for key and registers a new handle.
func (s *Scheduler) replace(key string) (*handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, false
	}
	if _, exists := s.timers[key]; exists {
		s.cancelLocked(key)
		log.Debug().Str("timer_key", key).Msg("replaced existing timer")
	}

	s.nextGen++
	h := &handle{gen: s.nextGen, stop: make(chan struct{})}
	s.timers[key] = h
	s.wg.Add(1)
	return h, true
}

// release forgets a one-shot timer after it ran, unless it was replaced.
func (s *Scheduler) release(f Fire) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.timers[f.Key]; ok && h.gen == f.Gen {
		delete(s.timers, f.Key)
	}
}

func (s *Scheduler) cancelLocked(key string) {
	h, ok := s.timers[key]
	if !ok {
		return
	}
	close(h.stop)
	delete(s.timers, key)
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
