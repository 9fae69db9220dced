package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultQueueSize      = 1024
	defaultPublishTimeout = 5 * time.Second
)

// AsyncPublisher decouples room actions from the stream. Events are queued
// without blocking and dropped when the queue is full.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration

	queue chan Event
	wg    sync.WaitGroup

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewAsyncPublisher(next Publisher, queueSize, workers int) *AsyncPublisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if workers <= 0 {
		workers = 1
	}
	p := &AsyncPublisher{
		next:    next,
		timeout: defaultPublishTimeout,
		queue:   make(chan Event, queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// Enqueue reports whether the event was accepted.
func (p *AsyncPublisher) Enqueue(event Event) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.queue <- event:
		return true
	default:
		log.Warn().
			Str("room_code", event.RoomCode).
			Str("event_type", string(event.Type)).
			Msg("event queue full, dropping event")
		return false
	}
}

// Publish queues the event; it never blocks on the stream.
func (p *AsyncPublisher) Publish(_ context.Context, event Event) error {
	p.Enqueue(event)
	return nil
}

// Close stops accepting events, flushes the queue and closes the next publisher.
func (p *AsyncPublisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()

		p.wg.Wait()
		err = p.next.Close()
	})
	return err
}

func (p *AsyncPublisher) worker(workerID int) {
	defer p.wg.Done()

	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.next.Publish(ctx, event); err != nil {
			log.Error().
				Err(err).
				Int("worker_id", workerID).
				Str("room_code", event.RoomCode).
				Str("event_type", string(event.Type)).
				Msg("failed to publish room event")
		}
		cancel()
	}
}
