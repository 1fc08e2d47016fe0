package service

import (
	"jobboard/internal/models"
	"jobboard/internal/repository"
	"jobboard/pkg/errors"
)

// historyLimit bounds the history returned on join so joining a large room
// never turns into an unbounded read.
const historyLimit = 50

// Coordinator validates and executes room membership changes. It owns no
// state of its own: rooms live in the store, membership in the registry.
type Coordinator struct {
	registry *Registry
	rooms    repository.RoomRepository
	messages repository.MessageRepository
}

func NewCoordinator(registry *Registry, rooms repository.RoomRepository, messages repository.MessageRepository) *Coordinator {
	return &Coordinator{registry: registry, rooms: rooms, messages: messages}
}

// Join resolves the target room (by id, or create-or-fetch by job and
// counterpart), adds the session to its broadcast group, marks messages
// addressed to this identity as read and returns up to the last 50 messages
// in chronological order.
func (c *Coordinator) Join(sessionID string, req JoinRoomRequest) (*models.ChatRoom, []models.ChatMessage, error) {
	session := c.registry.Lookup(sessionID)
	if session == nil {
		return nil, nil, errors.Unauthenticated("not authenticated")
	}

	var room *models.ChatRoom
	var err error
	switch {
	case req.RoomID != 0:
		room, err = c.rooms.FindByID(req.RoomID)
		if err != nil {
			return nil, nil, errors.InvalidRoom("unknown room")
		}
	case req.JobID != 0:
		studentID, recruiterID, derr := deriveParticipants(session.Identity.UserID, session.Identity.Role, req)
		if derr != nil {
			return nil, nil, derr
		}
		room, err = c.rooms.FindOrCreate(req.JobID, studentID, recruiterID)
		if err != nil {
			return nil, nil, errors.Failed("failed to resolve room", err)
		}
	default:
		return nil, nil, errors.InvalidRequest("room_id or job_id required")
	}

	if err := c.registry.JoinRoom(sessionID, room.ID); err != nil {
		return nil, nil, err
	}

	if _, err := c.messages.MarkRead(room.ID, session.Identity.UserID); err != nil {
		return nil, nil, errors.Failed("failed to join room", err)
	}

	history, err := c.messages.FindRecent(room.ID, historyLimit, nil)
	if err != nil {
		return nil, nil, errors.Failed("failed to load history", err)
	}
	return room, history, nil
}

// Leave removes the session from the room. "Unknown room" and "not currently
// joined" are the same InvalidRoom to callers, so repeating a leave fails the
// same way every time instead of flapping between errors.
func (c *Coordinator) Leave(sessionID string, roomID uint) error {
	if c.registry.Lookup(sessionID) == nil {
		return errors.Unauthenticated("not authenticated")
	}
	if roomID == 0 || !c.registry.LeaveRoom(sessionID, roomID) {
		return errors.InvalidRoom("invalid room")
	}
	return nil
}

// MarkRead flips every unread message addressed to the session's identity in
// the room. No broadcast: read counts are pulled by the room list view.
func (c *Coordinator) MarkRead(sessionID string, roomID uint) error {
	session := c.registry.Lookup(sessionID)
	if session == nil {
		return errors.Unauthenticated("not authenticated")
	}
	if roomID == 0 || !c.registry.IsJoined(sessionID, roomID) {
		return errors.InvalidRoom("invalid room")
	}
	if _, err := c.messages.MarkRead(roomID, session.Identity.UserID); err != nil {
		return errors.Failed("failed to mark as read", err)
	}
	return nil
}

// deriveParticipants fills the (student, recruiter) pair role-directed: the
// session's own id always takes its own role's slot, so a student cannot
// join as a fabricated recruiter or vice versa.
func deriveParticipants(userID uint, role models.UserRole, req JoinRoomRequest) (uint, uint, error) {
	switch role {
	case models.RoleStudent:
		if req.RecruiterID == 0 {
			return 0, 0, errors.InvalidRequest("recruiter_id required")
		}
		return userID, req.RecruiterID, nil
	case models.RoleRecruiter:
		if req.StudentID == 0 {
			return 0, 0, errors.InvalidRequest("student_id required")
		}
		return req.StudentID, userID, nil
	default:
		return 0, 0, errors.InvalidRequest("unknown role")
	}
}
