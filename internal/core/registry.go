package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/medilink/signaling/internal/domain"
)

// Registry maps a logical user id to its live outbound transport handle.
// At most one handle per user id: a new Register silently supersedes any
// prior one (last-register-wins). The registry never closes handles; the
// owning adapter does that on its own read-loop exit.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]SignalConn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.UserID]SignalConn)}
}

func (r *Registry) Register(id domain.UserID, conn SignalConn) {
	r.mu.Lock()
	_, superseded := r.conns[id]
	r.conns[id] = conn
	r.mu.Unlock()
	log.Info().Str("module", "core.registry").Str("user", string(id)).Bool("superseded", superseded).Msg("registered connection")
}

func (r *Registry) Unregister(id domain.UserID) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
	log.Info().Str("module", "core.registry").Str("user", string(id)).Msg("unregistered connection")
}

// UnregisterHandle removes the mapping that currently points at conn.
// A superseded handle's late disconnect is a no-op: it must not evict the
// handle that replaced it. Returns the user id it was registered under.
func (r *Registry) UnregisterHandle(conn SignalConn) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.conns {
		if c == conn {
			delete(r.conns, id)
			log.Info().Str("module", "core.registry").Str("user", string(id)).Msg("unregistered connection by handle")
			return id, true
		}
	}
	return "", false
}

func (r *Registry) Lookup(id domain.UserID) (SignalConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

type connSnap struct {
	User domain.UserID
	Conn SignalConn
}

func (r *Registry) snapshot() []connSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]connSnap, 0, len(r.conns))
	for id, c := range r.conns {
		out = append(out, connSnap{User: id, Conn: c})
	}
	return out
}
