package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mcdev12/impostor/go/internal/room/events"
)

// ConnectionManager owns the websocket connections and the room channels
// they are grouped into.
type ConnectionManager struct {
	connections map[string]*Connection
	rooms       map[string]map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	actions  Actions

	broadcastCh chan outbound
}

// Connection is one websocket client.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	limiter *rate.Limiter
	rooms   map[string]bool // guarded by Manager.mu

	ConnectedAt time.Time
	closeOnce   sync.Once
}

type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	// MessagesPerSecond and Burst bound inbound actions per connection.
	MessagesPerSecond float64
	Burst             int
	CheckOrigin       func(r *http.Request) bool
}

// outbound is queued for the broadcast loop. ConnID targets one connection,
// otherwise the message goes to every member of RoomCode.
type outbound struct {
	RoomCode string
	ConnID   string
	Event    events.EventType
	Data     any
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:      10 * time.Second,
		ReadTimeout:       60 * time.Second,
		PingInterval:      30 * time.Second,
		MaxMessageSize:    4096,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		SendBufferSize:    256,
		MessagesPerSecond: 5,
		Burst:             10,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

func newLimiter(config ConnectionConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(config.MessagesPerSecond), config.Burst)
}

func NewConnectionManager(config ConnectionConfig, actions Actions) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		rooms:       make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		actions:     actions,
		broadcastCh: make(chan outbound, 1000),
	}
}

// SetActions wires the handler of inbound actions. It must be called before
// the first connection is accepted.
func (cm *ConnectionManager) SetActions(actions Actions) {
	cm.actions = actions
}

// Start delivers queued messages until ctx is done.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request and starts the connection pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		limiter:     newLimiter(cm.config),
		rooms:       make(map[string]bool),
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("conn_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")
	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn.ID] = conn
}

// unregisterConnection forgets conn and reports whether it was still registered.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn.ID]; !exists {
		return false
	}
	delete(cm.connections, conn.ID)
	for code := range conn.rooms {
		cm.leaveLocked(conn, code)
	}
	close(conn.Send)

	log.Info().Str("conn_id", conn.ID).Msg("connection unregistered")
	return true
}

// Join adds a connection to a room channel.
func (cm *ConnectionManager) Join(connID, roomCode string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn, ok := cm.connections[connID]
	if !ok {
		return
	}
	if cm.rooms[roomCode] == nil {
		cm.rooms[roomCode] = make(map[*Connection]bool)
	}
	cm.rooms[roomCode][conn] = true
	conn.rooms[roomCode] = true
}

// Leave removes a connection from a room channel.
func (cm *ConnectionManager) Leave(connID, roomCode string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, ok := cm.connections[connID]; ok {
		cm.leaveLocked(conn, roomCode)
	}
}

func (cm *ConnectionManager) leaveLocked(conn *Connection, roomCode string) {
	delete(conn.rooms, roomCode)
	if members, ok := cm.rooms[roomCode]; ok {
		delete(members, conn)
		if len(members) == 0 {
			delete(cm.rooms, roomCode)
		}
	}
}

// Broadcast queues an event for every member of a room.
func (cm *ConnectionManager) Broadcast(roomCode string, event events.EventType, payload any) {
	cm.enqueue(outbound{RoomCode: roomCode, Event: event, Data: payload})
}

// SendTo queues an event for a single connection.
func (cm *ConnectionManager) SendTo(connID string, event events.EventType, payload any) {
	cm.enqueue(outbound{ConnID: connID, Event: event, Data: payload})
}

func (cm *ConnectionManager) enqueue(message outbound) {
	select {
	case cm.broadcastCh <- message:
	default:
		log.Warn().
			Str("room_code", message.RoomCode).
			Str("conn_id", message.ConnID).
			Str("event_type", string(message.Event)).
			Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message outbound) {
	cm.mu.RLock()
	var targets []*Connection
	if message.ConnID != "" {
		if conn, ok := cm.connections[message.ConnID]; ok {
			targets = append(targets, conn)
		}
	} else {
		for conn := range cm.rooms[message.RoomCode] {
			targets = append(targets, conn)
		}
	}
	cm.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(ServerMessage{
		ID:        uuid.New().String(),
		RoomCode:  message.RoomCode,
		Event:     message.Event,
		Timestamp: time.Now().UTC(),
		Data:      message.Data,
	})
	if err != nil {
		log.Error().Err(err).Str("event_type", string(message.Event)).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		conn.deliver(data)
	}

	log.Debug().
		Str("event_type", string(message.Event)).
		Str("room_code", message.RoomCode).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// Stats summarizes active connections.
type Stats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveRooms      int            `json:"active_rooms"`
	RoomConnections  map[string]int `json:"room_connections"`
}

func (cm *ConnectionManager) GetConnectionStats() Stats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := Stats{
		TotalConnections: len(cm.connections),
		ActiveRooms:      len(cm.rooms),
		RoomConnections:  make(map[string]int, len(cm.rooms)),
	}
	for code, members := range cm.rooms {
		stats.RoomConnections[code] = len(members)
	}
	return stats
}

// Close drops every connection. Their read pumps report the disconnects.
func (cm *ConnectionManager) Close() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for _, conn := range cm.connections {
		conns = append(conns, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Conn.Close()
	}
}
