package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/medilink/signaling/internal/domain"
)

// RoomSet tracks explicit room membership so room-addressed messages fan
// out to members only, not to every connection.
type RoomSet struct {
	mu      sync.RWMutex
	members map[domain.RoomID]map[domain.UserID]struct{}
	byUser  map[domain.UserID]map[domain.RoomID]struct{}
}

func NewRoomSet() *RoomSet {
	return &RoomSet{
		members: make(map[domain.RoomID]map[domain.UserID]struct{}),
		byUser:  make(map[domain.UserID]map[domain.RoomID]struct{}),
	}
}

func (rs *RoomSet) Join(room domain.RoomID, user domain.UserID) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.members[room] == nil {
		rs.members[room] = make(map[domain.UserID]struct{})
	}
	rs.members[room][user] = struct{}{}
	if rs.byUser[user] == nil {
		rs.byUser[user] = make(map[domain.RoomID]struct{})
	}
	rs.byUser[user][room] = struct{}{}
	log.Debug().Str("module", "core.rooms").Str("room", string(room)).Str("user", string(user)).Msg("joined room")
}

func (rs *RoomSet) Leave(room domain.RoomID, user domain.UserID) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.drop(room, user)
}

// LeaveAll removes the user from every room, used when a connection goes away.
func (rs *RoomSet) LeaveAll(user domain.UserID) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for room := range rs.byUser[user] {
		rs.drop(room, user)
	}
}

func (rs *RoomSet) drop(room domain.RoomID, user domain.UserID) {
	if m := rs.members[room]; m != nil {
		delete(m, user)
		if len(m) == 0 {
			delete(rs.members, room)
		}
	}
	if m := rs.byUser[user]; m != nil {
		delete(m, room)
		if len(m) == 0 {
			delete(rs.byUser, user)
		}
	}
}

func (rs *RoomSet) Members(room domain.RoomID) []domain.UserID {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]domain.UserID, 0, len(rs.members[room]))
	for user := range rs.members[room] {
		out = append(out, user)
	}
	return out
}
