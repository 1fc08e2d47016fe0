package service

import (
	"sync"

	"github.com/google/uuid"

	"jobboard/internal/auth"
	"jobboard/pkg/errors"
)

// sendBuffer is the per-session outbound queue depth. A receiver that falls
// this far behind is dropped rather than allowed to stall broadcasts.
const sendBuffer = 256

// Session is the live, in-memory representation of one authenticated
// connection. Its joined-room set is mutated only by the Registry, under the
// registry lock, together with the matching broadcast-group update.
type Session struct {
	ID       string
	Identity auth.Identity

	send      chan *ServerEvent
	done      chan struct{}
	closeOnce sync.Once

	joinedRooms map[uint]struct{}
}

// Done is closed when the session is deregistered or dropped.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// enqueue offers an event to the session without ever blocking the caller.
// It reports false when the session is gone or its queue is full.
func (s *Session) enqueue(ev *ServerEvent) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- ev:
		return true
	default:
		return false
	}
}

// Registry is the shared table of live sessions and per-room broadcast
// groups. One RWMutex guards both maps plus every session's joined set so a
// join or leave updates set and group atomically.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    map[uint]map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		rooms:    make(map[uint]map[string]*Session),
	}
}

// Register allocates a session for a verified identity. Callers must have
// authenticated the connection first; no session exists before that.
func (r *Registry) Register(identity auth.Identity) *Session {
	session := &Session{
		ID:          uuid.NewString(),
		Identity:    identity,
		send:        make(chan *ServerEvent, sendBuffer),
		done:        make(chan struct{}),
		joinedRooms: make(map[uint]struct{}),
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()
	return session
}

// Deregister removes the session and pulls it out of every room's broadcast
// group. Safe to call more than once; only the first call does anything.
func (r *Registry) Deregister(sessionID string) {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
		for roomID := range session.joinedRooms {
			r.removeFromRoom(roomID, sessionID)
		}
	}
	r.mu.Unlock()

	if ok {
		session.close()
	}
}

// Lookup returns the session or nil. Absence means "reject the request as
// unauthenticated", not a registry failure.
func (r *Registry) Lookup(sessionID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[sessionID]
}

// JoinRoom adds the session to the room's broadcast group and joined set in
// one step.
func (r *Registry) JoinRoom(sessionID string, roomID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return errors.Unauthenticated("not authenticated")
	}

	session.joinedRooms[roomID] = struct{}{}
	group, ok := r.rooms[roomID]
	if !ok {
		group = make(map[string]*Session)
		r.rooms[roomID] = group
	}
	group[sessionID] = session
	return nil
}

// LeaveRoom removes the session from the room. It reports false when the
// session was not joined, which callers surface as InvalidRoom.
func (r *Registry) LeaveRoom(sessionID string, roomID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	if _, joined := session.joinedRooms[roomID]; !joined {
		return false
	}

	delete(session.joinedRooms, roomID)
	r.removeFromRoom(roomID, sessionID)
	return true
}

// IsJoined reports whether the session currently belongs to the room.
func (r *Registry) IsJoined(sessionID string, roomID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	_, joined := session.joinedRooms[roomID]
	return joined
}

// Broadcast queues the event for every session in the room's group, minus
// excludeID when non-empty. Delivery is an independent enqueue per target;
// sessions whose queue is full are dropped from the registry entirely.
func (r *Registry) Broadcast(roomID uint, ev *ServerEvent, excludeID string) {
	r.mu.RLock()
	targets := make([]*Session, 0, len(r.rooms[roomID]))
	for id, session := range r.rooms[roomID] {
		if id == excludeID {
			continue
		}
		targets = append(targets, session)
	}
	r.mu.RUnlock()

	var dropped []string
	for _, session := range targets {
		if !session.enqueue(ev) {
			dropped = append(dropped, session.ID)
		}
	}
	for _, id := range dropped {
		r.Deregister(id)
	}
}

// RoomSize returns how many sessions are in the room's broadcast group.
func (r *Registry) RoomSize(roomID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// removeFromRoom must be called with the write lock held.
func (r *Registry) removeFromRoom(roomID uint, sessionID string) {
	group, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(group, sessionID)
	if len(group) == 0 {
		delete(r.rooms, roomID)
	}
}
