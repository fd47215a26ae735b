package core

import "errors"

// Frame is one serialized signaling message as it goes onto the wire.
type Frame []byte

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalConn abstracts a writable handle to exactly one client tab.
// Owned by the adapter that created it; the adapter must Close() it.
type SignalConn interface {
	TrySend(Frame) error
	Close()
}
