package service

import (
	"jobboard/pkg/errors"
)

// Presence fans typing signals out to a room, excluding the sender. Nothing
// here is persisted or acknowledged; a lost typing event is not an error.
type Presence struct {
	registry *Registry
}

func NewPresence(registry *Registry) *Presence {
	return &Presence{registry: registry}
}

func (p *Presence) StartTyping(sessionID string, roomID uint) error {
	return p.signal(sessionID, roomID, EventUserTyping)
}

func (p *Presence) StopTyping(sessionID string, roomID uint) error {
	return p.signal(sessionID, roomID, EventUserStoppedTyping)
}

func (p *Presence) signal(sessionID string, roomID uint, event string) error {
	session := p.registry.Lookup(sessionID)
	if session == nil {
		return errors.Unauthenticated("not authenticated")
	}
	if roomID == 0 || !p.registry.IsJoined(sessionID, roomID) {
		return errors.InvalidRoom("invalid room")
	}

	p.registry.Broadcast(roomID, &ServerEvent{
		Event: event,
		Data:  TypingPayload{UserID: session.Identity.UserID, RoomID: roomID},
	}, sessionID)
	return nil
}
