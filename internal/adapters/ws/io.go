package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/medilink/signaling/internal/core"
	"github.com/medilink/signaling/internal/domain"
)

const writeDeadline = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	var ping <-chan time.Time
	if ctl.PingPeriod > 0 {
		t := time.NewTicker(ctl.PingPeriod)
		defer t.Stop()
		ping = t.C
	}
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Msg("writePump ctx done")
			return
		case <-ping:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "ws").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, c *wsConn) {
	defer func() {
		ctl.onDisconnect(c)
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "ws").Str("user", string(c.userID())).Msg("readPump read error")
				return
			}
			ctl.handleFrame(c, data)
		}
	}
}

// onDisconnect drops the registry mapping by handle so a superseded tab
// cannot evict the one that replaced it, and broadcasts presence-off.
func (ctl *Controller) onDisconnect(c *wsConn) {
	user, removed := ctl.Registry.UnregisterHandle(c)
	if !removed {
		return
	}
	ctl.Rooms.LeaveAll(user)
	offline := domain.NewMessage(domain.KindUserOffline, user)
	offline.Data = map[string]any{"userId": string(user)}
	ctl.Router.Route(offline)
}

func (ctl *Controller) sendMessage(c *wsConn, msg domain.Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendMessage marshal")
		return
	}
	_ = c.TrySend(core.Frame(b))
}

func (ctl *Controller) sendError(c *wsConn, reason string) {
	msg := domain.NewMessage(domain.KindError, "")
	msg.Data = map[string]any{"error": reason}
	ctl.sendMessage(c, msg)
}
