// Package chat is the WebSocket adapter: handshake admission, the
// per-connection read/write pumps, frame decoding and the handlers behind
// each frame type.
package chat

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/teamflow/realtime/internal/core"
	"github.com/teamflow/realtime/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// wsConn pairs one socket with its outbound queue. The queue is drained by
// a single writePump goroutine, so concurrent publishes can never interleave
// partial writes on the wire.
type wsConn struct {
	ws        *websocket.Conn
	principal domain.Principal
	send      chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(ws *websocket.Conn, principal domain.Principal, buffer int) *wsConn {
	return &wsConn{
		ws:        ws,
		principal: principal,
		send:      make(chan core.Frame, buffer),
	}
}

func (c *wsConn) PrincipalID() domain.UserID { return c.principal.ID }

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
	c.mu.Unlock()
}
