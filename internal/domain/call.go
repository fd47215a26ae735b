package domain

import "time"

type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallRinging   CallStatus = "ringing"
	CallConnected CallStatus = "connected"
	CallEnded     CallStatus = "ended"
	CallMissed    CallStatus = "missed"
)

// Terminal reports whether the status admits no further transitions.
func (s CallStatus) Terminal() bool {
	return s == CallEnded || s == CallMissed
}

// Pending reports whether the call is still waiting for the callee.
func (s CallStatus) Pending() bool {
	return s == CallInitiated || s == CallRinging
}

type InitiatorRole string

const (
	InitiatedByDoctor  InitiatorRole = "doctor"
	InitiatedByPatient InitiatorRole = "patient"
)

// CallSession is one logical call attempt between a doctor and a patient.
// Participants are keyed by display name at the query edge; the session id
// itself is an opaque uuid and never reused.
type CallSession struct {
	ID          string        `json:"id"`
	Doctor      string        `json:"doctor"`
	Patient     string        `json:"patient"`
	InitiatedBy InitiatorRole `json:"initiatedBy"`
	RoomName    string        `json:"roomName"`
	JoinURL     string        `json:"joinUrl"`
	Status      CallStatus    `json:"status"`

	CreatedAt        time.Time `json:"createdAt"`
	LastTransitionAt time.Time `json:"lastTransitionAt"`
}

// Initiator returns the display name of the side that started the call.
func (s CallSession) Initiator() string {
	if s.InitiatedBy == InitiatedByPatient {
		return s.Patient
	}
	return s.Doctor
}

// Callee returns the display name of the side being called.
func (s CallSession) Callee() string {
	if s.InitiatedBy == InitiatedByPatient {
		return s.Doctor
	}
	return s.Patient
}

// Involves reports whether name is either participant.
func (s CallSession) Involves(name string) bool {
	return s.Doctor == name || s.Patient == name
}
