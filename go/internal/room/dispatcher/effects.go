package dispatcher

import (
	"github.com/mcdev12/impostor/go/internal/room/events"
)

type message struct {
	to      string // connection id; empty for the room channel
	event   events.EventType
	payload any
}

// batch collects the side effects of one room action. Nothing in it runs
// unless the action validated and its write was persisted.
type batch struct {
	hooks    []func()
	messages []message
}

// after queues a side effect on timers, sessions or channel membership.
func (b *batch) after(fn func()) {
	b.hooks = append(b.hooks, fn)
}

func (b *batch) broadcast(event events.EventType, payload any) {
	b.messages = append(b.messages, message{event: event, payload: payload})
}

func (b *batch) send(connID string, event events.EventType, payload any) {
	b.messages = append(b.messages, message{to: connID, event: event, payload: payload})
}
