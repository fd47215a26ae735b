package core

import (
	"testing"

	"github.com/medilink/signaling/internal/domain"
)

func newTestRouter() (*Router, *Registry, *RoomSet) {
	reg := NewRegistry()
	rooms := NewRoomSet()
	return NewRouter(reg, rooms), reg, rooms
}

func TestRouter_DirectDeliversToExactlyOne(t *testing.T) {
	rt, reg, _ := newTestRouter()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	reg.Register("a", a)
	reg.Register("b", b)
	reg.Register("c", c)

	msg := domain.NewMessage(domain.KindChatMessage, "a")
	msg.To = "b"
	if sent := rt.Route(msg); sent != 1 {
		t.Fatalf("expected 1 delivery, got %d", sent)
	}
	if b.received() != 1 {
		t.Fatalf("expected b to receive 1 frame, got %d", b.received())
	}
	if a.received() != 0 || c.received() != 0 {
		t.Fatalf("expected no deliveries to a or c")
	}
}

func TestRouter_DirectToDisconnectedIsSilent(t *testing.T) {
	rt, _, _ := newTestRouter()
	msg := domain.NewMessage(domain.KindChatMessage, "a")
	msg.To = "nobody"
	if sent := rt.Route(msg); sent != 0 {
		t.Fatalf("expected 0 deliveries, got %d", sent)
	}
}

func TestRouter_RoomDeliversToMembersOnly(t *testing.T) {
	rt, reg, rooms := newTestRouter()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	reg.Register("a", a)
	reg.Register("b", b)
	reg.Register("c", c)
	rooms.Join("consult-1", "a")
	rooms.Join("consult-1", "b")

	msg := domain.NewMessage(domain.KindTypingStart, "a")
	msg.RoomID = "consult-1"
	if sent := rt.Route(msg); sent != 1 {
		t.Fatalf("expected 1 delivery, got %d", sent)
	}
	if b.received() != 1 {
		t.Fatalf("expected room member b to receive the frame")
	}
	if c.received() != 0 {
		t.Fatalf("unrelated connection must not receive room traffic")
	}
	if a.received() != 0 {
		t.Fatalf("sender must not receive its own room message")
	}
}

func TestRouter_BroadcastReachesEveryoneButSender(t *testing.T) {
	rt, reg, _ := newTestRouter()
	conns := map[domain.UserID]*fakeConn{"a": {}, "b": {}, "c": {}}
	for id, c := range conns {
		reg.Register(id, c)
	}

	msg := domain.NewMessage(domain.KindUserOnline, "a")
	if sent := rt.Route(msg); sent != 2 {
		t.Fatalf("expected 2 deliveries, got %d", sent)
	}
	if conns["a"].received() != 0 {
		t.Fatalf("sender must not receive its own broadcast")
	}
	if conns["b"].received() != 1 || conns["c"].received() != 1 {
		t.Fatalf("expected b and c to receive the broadcast")
	}
}

func TestRouter_DeadHandleIsUnregistered(t *testing.T) {
	rt, reg, _ := newTestRouter()
	dead := &fakeConn{fail: true}
	reg.Register("ghost", dead)

	msg := domain.NewMessage(domain.KindChatMessage, "a")
	msg.To = "ghost"
	if sent := rt.Route(msg); sent != 0 {
		t.Fatalf("expected 0 deliveries to dead handle, got %d", sent)
	}
	if _, ok := reg.Lookup("ghost"); ok {
		t.Fatalf("expected dead handle to be implicitly unregistered")
	}
	if !dead.closed {
		t.Fatalf("expected dead handle to be closed")
	}
}

func TestRoomSet_LeaveAll(t *testing.T) {
	rs := NewRoomSet()
	rs.Join("r1", "a")
	rs.Join("r2", "a")
	rs.Join("r1", "b")

	rs.LeaveAll("a")
	if got := rs.Members("r2"); len(got) != 0 {
		t.Fatalf("expected r2 empty, got %v", got)
	}
	got := rs.Members("r1")
	if len(got) != 1 || got[0] != domain.UserID("b") {
		t.Fatalf("expected only b in r1, got %v", got)
	}
}
