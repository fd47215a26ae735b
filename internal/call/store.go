// Package call owns the call-session lifecycle: initiated → ringing →
// connected → ended, with the terminal failure missed for calls nobody
// answered within the ring timeout.
package call

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medilink/signaling/internal/domain"
)

var (
	ErrSessionNotFound    = errors.New("call session not found")
	ErrMissingParticipant = errors.New("missing participant name")
	ErrUnknownDoctor      = errors.New("doctor not in directory")
	ErrUnknownPatient     = errors.New("patient not in directory")
	ErrCallPending        = errors.New("a call between these participants is already pending")
)

// Directory is the lookup-by-name view the store needs to validate
// participants; the real records live in an external store.
type Directory interface {
	Doctor(name string) (domain.Doctor, bool)
	Patient(name string) (domain.Patient, bool)
}

// Publisher pushes a signaling message to whoever is connected. The store
// only cares that the message goes out; delivery is best-effort and the
// polling reconciler covers missed pushes.
type Publisher interface {
	Route(msg domain.Message) int
}

// DuplicatePolicy decides what Initiate does when the same pair already
// has a pending call in the same direction.
type DuplicatePolicy int

const (
	// RejectPending fails the new Initiate with ErrCallPending.
	RejectPending DuplicatePolicy = iota
	// SupersedePending ends the old pending session and creates the new one.
	SupersedePending
)

type entry struct {
	session domain.CallSession
	timer   *time.Timer
}

// Store is the in-memory call-session table. Sessions are never deleted
// while the process runs; terminal sessions stay for history and are
// logically inert.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	order    []string

	dir    Directory
	pub    Publisher
	policy DuplicatePolicy

	ringTimeout time.Duration
	joinBaseURL string
	now         func() time.Time
}

type Option func(*Store)

func WithRingTimeout(d time.Duration) Option { return func(s *Store) { s.ringTimeout = d } }
func WithJoinBaseURL(u string) Option        { return func(s *Store) { s.joinBaseURL = u } }
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(s *Store) { s.policy = p }
}
func NewStore(dir Directory, pub Publisher, opts ...Option) *Store {
	s := &Store{
		sessions:    make(map[string]*entry),
		dir:         dir,
		pub:         pub,
		ringTimeout: 30 * time.Second,
		joinBaseURL: "https://meet.jit.si",
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Initiate creates a new session in the initiated state, arms the ring
// timer and notifies the callee with a call_notification.
func (s *Store) Initiate(initiator, counterpart string, by domain.InitiatorRole) (domain.CallSession, error) {
	if initiator == "" || counterpart == "" {
		return domain.CallSession{}, ErrMissingParticipant
	}

	doctor, patient := initiator, counterpart
	if by == domain.InitiatedByPatient {
		doctor, patient = counterpart, initiator
	}
	if _, ok := s.dir.Doctor(doctor); !ok {
		return domain.CallSession{}, ErrUnknownDoctor
	}
	if _, ok := s.dir.Patient(patient); !ok {
		return domain.CallSession{}, ErrUnknownPatient
	}

	var notify []domain.Message

	s.mu.Lock()
	for _, id := range s.order {
		e := s.sessions[id]
		sess := e.session
		if !sess.Status.Pending() || sess.Doctor != doctor || sess.Patient != patient || sess.InitiatedBy != by {
			continue
		}
		if s.policy == RejectPending {
			s.mu.Unlock()
			return domain.CallSession{}, ErrCallPending
		}
		// SupersedePending: close out the stale attempt first.
		if msgs := s.transitionLocked(e, domain.CallEnded, domain.CallStatus.Pending); msgs != nil {
			notify = append(notify, msgs...)
		}
	}

	id := uuid.NewString()
	now := s.now()
	sess := domain.CallSession{
		ID:               id,
		Doctor:           doctor,
		Patient:          patient,
		InitiatedBy:      by,
		RoomName:         roomName(doctor, patient, id),
		Status:           domain.CallInitiated,
		CreatedAt:        now,
		LastTransitionAt: now,
	}
	sess.JoinURL = s.joinBaseURL + "/" + sess.RoomName

	e := &entry{session: sess}
	e.timer = time.AfterFunc(s.ringTimeout, func() { s.expire(id) })
	s.sessions[id] = e
	s.order = append(s.order, id)
	s.mu.Unlock()

	log.Info().Str("module", "call.store").Str("session", id).
		Str("doctor", doctor).Str("patient", patient).Str("initiated_by", string(by)).
		Msg("call initiated")

	notify = append(notify, s.callNotification(sess))
	s.publish(notify)
	return sess, nil
}

// MarkRinging is UI-facing: the callee's client saw the call and is ringing.
func (s *Store) MarkRinging(id string) (domain.CallSession, error) {
	return s.transition(id, domain.CallRinging, func(from domain.CallStatus) bool {
		return from == domain.CallInitiated
	})
}

// Accept moves a pending call to connected and tells the initiator, who
// can then join the room.
func (s *Store) Accept(id string) (domain.CallSession, error) {
	return s.transition(id, domain.CallConnected, domain.CallStatus.Pending)
}

// Decline ends a pending call and tells the initiator. Declining a call
// that is already connected or terminal is a no-op.
func (s *Store) Decline(id string) (domain.CallSession, error) {
	return s.transition(id, domain.CallEnded, domain.CallStatus.Pending)
}

// End terminates any non-terminal session. Ending an already-terminal
// session is a no-op returning the session unchanged.
func (s *Store) End(id string) (domain.CallSession, error) {
	return s.transition(id, domain.CallEnded, func(from domain.CallStatus) bool {
		return !from.Terminal()
	})
}

func (s *Store) transition(id string, to domain.CallStatus, valid func(domain.CallStatus) bool) (domain.CallSession, error) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return domain.CallSession{}, ErrSessionNotFound
	}
	msgs := s.transitionLocked(e, to, valid)
	sess := e.session
	s.mu.Unlock()

	s.publish(msgs)
	return sess, nil
}

// transitionLocked applies the state machine. A transition whose guard
// rejects the current state is a no-op returning nil: duplicate or late
// client actions must be harmless. Caller holds s.mu and publishes the
// returned messages after unlocking.
func (s *Store) transitionLocked(e *entry, to domain.CallStatus, valid func(domain.CallStatus) bool) []domain.Message {
	from := e.session.Status
	if from.Terminal() || !valid(from) {
		log.Debug().Str("module", "call.store").Str("session", e.session.ID).
			Str("from", string(from)).Str("to", string(to)).Msg("ignoring invalid transition")
		return nil
	}

	e.session.Status = to
	e.session.LastTransitionAt = s.now()
	if !to.Pending() && e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	log.Info().Str("module", "call.store").Str("session", e.session.ID).
		Str("from", string(from)).Str("to", string(to)).Msg("call transition")

	return s.statusUpdates(e.session)
}

// expire fires from the ring timer: an unanswered call goes to missed.
// The status check under the lock makes a late fire after accept/decline
// a safe no-op, so the transition applies exactly once.
func (s *Store) expire(id string) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	msgs := s.transitionLocked(e, domain.CallMissed, domain.CallStatus.Pending)
	s.mu.Unlock()

	s.publish(msgs)
}

// SessionsFor returns every session where name is doctor or patient,
// oldest first.
func (s *Store) SessionsFor(name string) []domain.CallSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CallSession, 0)
	for _, id := range s.order {
		if sess := s.sessions[id].session; sess.Involves(name) {
			out = append(out, sess)
		}
	}
	return out
}

// PendingFor returns initiated/ringing sessions addressed to name, i.e.
// where name is the callee.
func (s *Store) PendingFor(name string) []domain.CallSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CallSession, 0)
	for _, id := range s.order {
		sess := s.sessions[id].session
		if sess.Status.Pending() && sess.Callee() == name {
			out = append(out, sess)
		}
	}
	return out
}

// Get returns a session by id.
func (s *Store) Get(id string) (domain.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return domain.CallSession{}, ErrSessionNotFound
	}
	return e.session, nil
}

func (s *Store) callNotification(sess domain.CallSession) domain.Message {
	msg := domain.NewMessage(domain.KindCallNotification, domain.UserID(sess.Initiator()))
	msg.To = domain.UserID(sess.Callee())
	msg.Data = sessionData(sess)
	return msg
}

// statusUpdates builds the call_status_update fan-out for a transition:
// one direct message per participant, so either side converges even when
// its polling pass is behind.
func (s *Store) statusUpdates(sess domain.CallSession) []domain.Message {
	out := make([]domain.Message, 0, 2)
	for _, name := range []string{sess.Doctor, sess.Patient} {
		msg := domain.NewMessage(domain.KindCallStatusUpdate, "")
		msg.To = domain.UserID(name)
		msg.Data = sessionData(sess)
		out = append(out, msg)
	}
	return out
}

func sessionData(sess domain.CallSession) map[string]any {
	return map[string]any{
		"sessionId":   sess.ID,
		"doctor":      sess.Doctor,
		"patient":     sess.Patient,
		"initiatedBy": string(sess.InitiatedBy),
		"roomName":    sess.RoomName,
		"joinUrl":     sess.JoinURL,
		"status":      string(sess.Status),
	}
}

func (s *Store) publish(msgs []domain.Message) {
	if s.pub == nil {
		return
	}
	for _, m := range msgs {
		s.pub.Route(m)
	}
}
