package core

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/medilink/signaling/internal/domain"
)

// Router resolves a message's recipients via the registry and writes the
// serialized frame to them. Delivery precedence: direct `to`, then
// `roomId`, then global broadcast. Delivery is best-effort: a write to a
// dead or slow handle is swallowed, the handle is unregistered and closed,
// and routing never errors for an unreachable recipient.
type Router struct {
	reg   *Registry
	rooms *RoomSet
}

func NewRouter(reg *Registry, rooms *RoomSet) *Router {
	return &Router{reg: reg, rooms: rooms}
}

// Route delivers msg and returns how many handles it was written to.
func (rt *Router) Route(msg domain.Message) int {
	frame, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "core.router").Str("kind", string(msg.Kind)).Msg("marshal message")
		return 0
	}

	if msg.To != "" {
		if conn, ok := rt.reg.Lookup(msg.To); ok {
			return rt.deliver(msg.To, conn, frame)
		}
		log.Debug().Str("module", "core.router").Str("to", string(msg.To)).Str("kind", string(msg.Kind)).Msg("recipient not connected")
		return 0
	}

	if msg.RoomID != "" {
		sent := 0
		for _, user := range rt.rooms.Members(msg.RoomID) {
			if user == msg.From {
				continue
			}
			if conn, ok := rt.reg.Lookup(user); ok {
				sent += rt.deliver(user, conn, frame)
			}
		}
		return sent
	}

	sent := 0
	for _, snap := range rt.reg.snapshot() {
		if snap.User == msg.From {
			continue
		}
		sent += rt.deliver(snap.User, snap.Conn, frame)
	}
	return sent
}

func (rt *Router) deliver(user domain.UserID, conn SignalConn, frame Frame) int {
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "core.router").Str("user", string(user)).Msg("dropping dead handle")
		rt.reg.UnregisterHandle(conn)
		rt.rooms.LeaveAll(user)
		conn.Close()
		return 0
	}
	return 1
}
