package ws

import (
	"sync"
)

type joined struct {
	event string
	req   JoinRequest
}

// roomKey tells user and chat rooms apart, their ids come from separate
// sequences and may collide.
type roomKey struct {
	event string
	room  string
}

// roomStore remembers joined rooms so they can be joined again after a
// reconnect. Rooms are kept in join order.
type roomStore struct {
	sync.RWMutex
	rooms map[roomKey]joined
	order []roomKey
}

func newRoomStore() *roomStore {
	return &roomStore{
		rooms: make(map[roomKey]joined),
	}
}

func (rs *roomStore) add(event string, req JoinRequest) {
	rs.Lock()
	defer rs.Unlock()
	k := roomKey{event: event, room: req.Room}
	if _, ok := rs.rooms[k]; !ok {
		rs.order = append(rs.order, k)
	}
	rs.rooms[k] = joined{event: event, req: req}
}

func (rs *roomStore) del(event, room string) bool {
	rs.Lock()
	defer rs.Unlock()
	k := roomKey{event: event, room: room}
	if _, ok := rs.rooms[k]; !ok {
		return false
	}
	delete(rs.rooms, k)
	for i, r := range rs.order {
		if r == k {
			rs.order = append(rs.order[:i], rs.order[i+1:]...)
			break
		}
	}
	return true
}

func (rs *roomStore) has(event, room string) bool {
	rs.RLock()
	defer rs.RUnlock()
	_, ok := rs.rooms[roomKey{event: event, room: room}]
	return ok
}

func (rs *roomStore) list() []joined {
	rs.RLock()
	defer rs.RUnlock()
	out := make([]joined, 0, len(rs.order))
	for _, r := range rs.order {
		out = append(out, rs.rooms[r])
	}
	return out
}
