package events

// EventType names an outbound event as clients receive it.
type EventType string

const (
	EventTypeRoomUpdate         EventType = "room-update"
	EventTypeGameStarted        EventType = "game-started"
	EventTypeRoleAssigned       EventType = "role-assigned"
	EventTypeTurnUpdated        EventType = "turn-updated"
	EventTypeTimeUpdate         EventType = "time-update"
	EventTypeVotingStarted      EventType = "voting-started"
	EventTypeVoteUpdate         EventType = "vote-update"
	EventTypeVotingTie          EventType = "voting-tie"
	EventTypeGameEnded          EventType = "game-ended"
	EventTypePlayerLeft         EventType = "player-left"
	EventTypePlayerDisconnected EventType = "player-disconnected"
	EventTypeGamePaused         EventType = "game-paused"
	EventTypeError              EventType = "error"
)

// Private reports whether events of this type are only ever sent to one connection.
func (t EventType) Private() bool {
	return t == EventTypeRoleAssigned || t == EventTypeError
}
