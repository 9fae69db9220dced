package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// deliver queues data on the connection. A connection that cannot keep up
// is closed.
func (c *Connection) deliver(data []byte) {
	cm := c.Manager
	cm.mu.RLock()
	if cm.connections[c.ID] != c {
		cm.mu.RUnlock()
		return
	}
	select {
	case c.Send <- data:
		cm.mu.RUnlock()
	default:
		cm.mu.RUnlock()
		log.Warn().Str("conn_id", c.ID).Msg("connection send buffer full, closing connection")
		c.close()
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.Manager.unregisterConnection(c)
		_ = c.Conn.Close()
	})
}

// writePump sends queued messages and keeps the connection alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("conn_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("conn_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump reads client frames until the connection drops, then reports the
// disconnect exactly once.
func (c *Connection) readPump() {
	defer func() {
		c.close()
		if c.Manager.actions != nil {
			c.Manager.actions.Disconnect(context.Background(), c.ID)
		}
		log.Info().Str("conn_id", c.ID).Msg("WebSocket connection closed")
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn_id", c.ID).Msg("unexpected WebSocket close error")
			}
			return
		}

		c.handleClientMessage(message)
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

func (c *Connection) handleClientMessage(message []byte) {
	if !c.limiter.Allow() {
		log.Debug().Str("conn_id", c.ID).Msg("rate limit exceeded, dropping message")
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().Err(err).Str("conn_id", c.ID).Msg("malformed client message")
		return
	}
	if c.Manager.actions == nil {
		return
	}

	ack, answered := route(context.Background(), c.Manager.actions, c.ID, msg)
	if !answered || msg.AckID == nil {
		return
	}

	data, err := json.Marshal(AckMessage{Event: EventAck, AckID: *msg.AckID, Data: ack})
	if err != nil {
		log.Error().Err(err).Str("conn_id", c.ID).Msg("failed to marshal ack")
		return
	}
	c.deliver(data)
}
