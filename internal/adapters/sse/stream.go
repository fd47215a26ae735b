// Package sse is the unidirectional push transport: a long-lived
// receive-only event stream per client, with a separate stateless send
// endpoint that hands messages straight to the router. Both transports
// serialize domain.Message identically, so a client can swap between
// them without changing message semantics.
package sse

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/medilink/signaling/internal/core"
	"github.com/medilink/signaling/internal/domain"
)

type Controller struct {
	Registry *core.Registry
	Rooms    *core.RoomSet
	Router   *core.Router

	SendBuffer int
}

type sseConn struct {
	send chan core.Frame

	mu     sync.Mutex
	closed bool
}

func (c *sseConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
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

func (c *sseConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

// Stream opens the push channel. Unlike the WS adapter there is no
// register handshake: the userId query parameter registers the
// connection immediately.
func (ctl *Controller) Stream(c *gin.Context) {
	user := domain.UserID(c.Query("userId"))
	if err := domain.ValidateUserID(user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing userId"})
		return
	}

	buf := ctl.SendBuffer
	if buf <= 0 {
		buf = 32
	}
	conn := &sseConn{send: make(chan core.Frame, buf)}
	ctl.Registry.Register(user, conn)
	log.Info().Str("module", "sse").Str("user", string(user)).Msg("stream opened")

	online := domain.NewMessage(domain.KindUserOnline, user)
	online.Data = map[string]any{"userId": string(user)}
	ctl.Router.Route(online)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	welcome := domain.NewMessage(domain.KindConnected, "")
	welcome.To = user
	if b, err := json.Marshal(welcome); err == nil {
		_ = conn.TrySend(core.Frame(b))
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case frame, ok := <-conn.send:
			if !ok {
				return false
			}
			// Wire shape is a bare `data: <json>` frame, no event name.
			_ = sse.Encode(w, sse.Event{Data: string(frame)})
			return true
		}
	})

	ctl.onStreamClosed(conn)
}

// onStreamClosed runs when the client cancels the stream. Removal goes
// through the handle so a superseded stream's late exit cannot evict the
// stream that replaced it.
func (ctl *Controller) onStreamClosed(conn *sseConn) {
	conn.Close()
	user, removed := ctl.Registry.UnregisterHandle(conn)
	if !removed {
		return
	}
	ctl.Rooms.LeaveAll(user)
	log.Info().Str("module", "sse").Str("user", string(user)).Msg("stream closed")
	offline := domain.NewMessage(domain.KindUserOffline, user)
	offline.Data = map[string]any{"userId": string(user)}
	ctl.Router.Route(offline)
}

// Send is the stateless request channel paired with the stream: one
// SignalingMessage JSON body, handed to the router.
func (ctl *Controller) Send(c *gin.Context) {
	var msg domain.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message body"})
		return
	}
	if !msg.Kind.Known() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown kind"})
		return
	}
	if err := domain.ValidateUserID(msg.From); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing from"})
		return
	}

	delivered := ctl.Router.Route(msg.Stamp())
	c.JSON(http.StatusOK, gin.H{"status": "ok", "delivered": delivered})
}
