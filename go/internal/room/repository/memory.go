package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/impostor/go/internal/models"
	"github.com/mcdev12/impostor/go/internal/room"
)

type memoryDoc struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps encoded copies so callers never share a *models.Room.
type MemoryStore struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu   sync.RWMutex
	docs map[string]memoryDoc
}

func NewMemoryStore(clock clockwork.Clock, ttl time.Duration) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		clock: clock,
		ttl:   ttl,
		docs:  make(map[string]memoryDoc),
	}
}

func (s *MemoryStore) Get(ctx context.Context, code string) (*models.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	doc, ok := s.docs[code]
	s.mu.RUnlock()

	if !ok || !s.clock.Now().Before(doc.expiresAt) {
		return nil, room.ErrRoomNotFound
	}
	return decode(doc.data)
}

func (s *MemoryStore) Create(ctx context.Context, r *models.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if doc, ok := s.docs[r.Code]; ok && now.Before(doc.expiresAt) {
		return room.ErrDuplicateCode
	}
	s.docs[r.Code] = memoryDoc{data: data, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, r *models.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.docs[r.Code] = memoryDoc{data: data, expiresAt: s.clock.Now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.docs, code)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired documents.
func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for code, doc := range s.docs {
		if !now.Before(doc.expiresAt) {
			delete(s.docs, code)
			removed++
		}
	}
	return removed, nil
}

// Len counts stored documents, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
