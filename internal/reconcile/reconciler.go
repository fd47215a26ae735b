// Package reconcile is the polling backstop for missed push delivery: an
// interested client re-reads the authoritative call state on an interval
// and surfaces sessions it has not seen in their current state. It is
// idempotent on observed state, so running it alongside push delivery of
// the same transition is safe.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medilink/signaling/internal/domain"
)

// Source is the authoritative call-state view. In process it is the call
// store itself; a remote client would satisfy it over the query API.
type Source interface {
	SessionsFor(participant string) []domain.CallSession
	PendingFor(participant string) []domain.CallSession
}

// Hooks receive state changes the reconciler noticed. Each fires at most
// once per session per status.
type Hooks struct {
	// OnIncoming: a pending session addressed to the participant,
	// typically driving incoming-call UI.
	OnIncoming func(domain.CallSession)
	// OnConnected: a session entered connected, typically driving
	// auto-join of the conferencing room.
	OnConnected func(domain.CallSession)
}

type Reconciler struct {
	src         Source
	participant string
	interval    time.Duration
	hooks       Hooks

	mu   sync.Mutex
	seen map[string]domain.CallStatus
}

func New(src Source, participant string, interval time.Duration, hooks Hooks) *Reconciler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Reconciler{
		src:         src,
		participant: participant,
		interval:    interval,
		hooks:       hooks,
		seen:        make(map[string]domain.CallStatus),
	}
}

// Run polls until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	log.Debug().Str("module", "reconcile").Str("participant", r.participant).Dur("interval", r.interval).Msg("reconciler started")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "reconcile").Str("participant", r.participant).Msg("reconciler stopped")
			return
		case <-t.C:
			r.Poll()
		}
	}
}

// Poll runs one reconciliation pass. Exported so tests and embedders can
// force a pass without waiting on the ticker.
func (r *Reconciler) Poll() {
	sessions := r.src.SessionsFor(r.participant)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sess := range sessions {
		prev, known := r.seen[sess.ID]
		if known && prev == sess.Status {
			continue
		}
		r.seen[sess.ID] = sess.Status

		switch {
		case sess.Status.Pending() && sess.Callee() == r.participant:
			if r.hooks.OnIncoming != nil && (!known || !prev.Pending()) {
				r.hooks.OnIncoming(sess)
			}
		case sess.Status == domain.CallConnected:
			if r.hooks.OnConnected != nil {
				r.hooks.OnConnected(sess)
			}
		}
	}
}
