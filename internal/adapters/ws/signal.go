// Package ws is the bidirectional transport: one gorilla/websocket
// connection per client tab, a buffered send channel with backpressure,
// and an inbound handler table keyed by message kind.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/medilink/signaling/internal/core"
	"github.com/medilink/signaling/internal/domain"
)

type Controller struct {
	Registry *core.Registry
	Rooms    *core.RoomSet
	Router   *core.Router
	Limiter  *RateLimiter

	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool

	// user is set once the register frame arrives; empty while anonymous.
	user domain.UserID
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
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
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (c *wsConn) setUser(id domain.UserID) {
	c.mu.Lock()
	c.user = id
	c.mu.Unlock()
}

func (c *wsConn) userID() domain.UserID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and starts the pumps. The connection
// stays anonymous until the client sends a register frame; until then it
// only receives the connected welcome.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	buf := ctl.SendBuffer
	if buf <= 0 {
		buf = 32
	}
	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, buf),
	}
	log.Info().Str("module", "ws").Str("remote", ws.RemoteAddr().String()).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)

	welcome := domain.NewMessage(domain.KindConnected, "")
	ctl.sendMessage(conn, welcome)
}
