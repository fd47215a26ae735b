// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	MaxUserIDLen = 64
	MaxRoomIDLen = 128
)

var (
	ErrEmptyUserID   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
	ErrUnknownKind   = errors.New("unknown message kind")
)

type (
	UserID string
	RoomID string
)

// Kind is the closed set of signaling message types both transports speak.
type Kind string

const (
	KindRegister            Kind = "register"
	KindRegistered          Kind = "registered"
	KindConnected           Kind = "connected"
	KindHeartbeat           Kind = "heartbeat"
	KindHeartbeatResponse   Kind = "heartbeat_response"
	KindChatMessage         Kind = "chat_message"
	KindCallNotification    Kind = "call_notification"
	KindAppointmentReminder Kind = "appointment_reminder"
	KindEmergencyAlert      Kind = "emergency_alert"
	KindUserOnline          Kind = "user_online"
	KindUserOffline         Kind = "user_offline"
	KindTypingStart         Kind = "typing_start"
	KindTypingStop          Kind = "typing_stop"
	KindMessageRead         Kind = "message_read"
	KindCallStatusUpdate    Kind = "call_status_update"
	KindError               Kind = "error"
)

var knownKinds = map[Kind]struct{}{
	KindRegister:            {},
	KindRegistered:          {},
	KindConnected:           {},
	KindHeartbeat:           {},
	KindHeartbeatResponse:   {},
	KindChatMessage:         {},
	KindCallNotification:    {},
	KindAppointmentReminder: {},
	KindEmergencyAlert:      {},
	KindUserOnline:          {},
	KindUserOffline:         {},
	KindTypingStart:         {},
	KindTypingStop:          {},
	KindMessageRead:         {},
	KindCallStatusUpdate:    {},
	KindError:               {},
}

func (k Kind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// Message is the signaling envelope. Treated as immutable once built;
// the router only reads it. Data is opaque to everything but the two
// endpoints that care about the kind.
type Message struct {
	Kind      Kind           `json:"kind"`
	From      UserID         `json:"from,omitempty"`
	To        UserID         `json:"to,omitempty"`
	RoomID    RoomID         `json:"roomId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
	ID        string         `json:"id"`
}

// NewMessage stamps id and wall-clock timestamp. The id is process-unique
// and used for diagnostics, not ordering.
func NewMessage(kind Kind, from UserID) Message {
	return Message{
		Kind:      kind,
		From:      from,
		Timestamp: time.Now().UnixMilli(),
		ID:        uuid.NewString(),
	}
}

// Stamp fills id and timestamp on an inbound message that arrived without
// them, leaving already-set values alone.
func (m Message) Stamp() Message {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}
	return m
}

func ValidateUserID(id UserID) error {
	if len(id) == 0 {
		return ErrEmptyUserID
	}
	if len(id) > MaxUserIDLen {
		return ErrUserIDTooLong
	}
	return nil
}
