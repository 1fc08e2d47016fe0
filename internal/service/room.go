package service

import (
	"time"

	"jobboard/internal/repository"
	"jobboard/pkg/errors"
)

// RoomSummary is one row of a user's room list: the room plus its unread
// count and last-message preview.
type RoomSummary struct {
	ID            uint            `json:"id"`
	JobID         uint            `json:"job_id"`
	StudentID     uint            `json:"student_id"`
	RecruiterID   uint            `json:"recruiter_id"`
	CreatedAt     time.Time       `json:"created_at"`
	LastMessageAt time.Time       `json:"last_message_at"`
	IsActive      bool            `json:"is_active"`
	UnreadCount   int64           `json:"unread_count"`
	LastMessage   *MessagePayload `json:"last_message,omitempty"`
}

// RoomService backs the REST surface: room lists and paginated history.
type RoomService struct {
	rooms    repository.RoomRepository
	messages repository.MessageRepository
}

func NewRoomService(rooms repository.RoomRepository, messages repository.MessageRepository) *RoomService {
	return &RoomService{rooms: rooms, messages: messages}
}

// ListUserRooms returns every active room the user participates in, newest
// activity first.
func (s *RoomService) ListUserRooms(userID uint) ([]RoomSummary, error) {
	rooms, err := s.rooms.FindByParticipant(userID)
	if err != nil {
		return nil, errors.Failed("failed to list rooms", err)
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		summary := RoomSummary{
			ID:            room.ID,
			JobID:         room.JobID,
			StudentID:     room.StudentID,
			RecruiterID:   room.RecruiterID,
			CreatedAt:     room.CreatedAt,
			LastMessageAt: room.LastMessageAt,
			IsActive:      room.IsActive,
		}

		if summary.UnreadCount, err = s.messages.CountUnread(room.ID, userID); err != nil {
			return nil, errors.Failed("failed to count unread messages", err)
		}
		last, err := s.messages.FindLast(room.ID)
		if err != nil {
			return nil, errors.Failed("failed to load last message", err)
		}
		if last != nil {
			payload := NewMessagePayload(last)
			summary.LastMessage = &payload
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// History returns a chronological page of a room's messages for one of its
// participants. limit is clamped to 1..100 and defaults to 50; before is an
// optional exclusive cursor for paging backwards.
func (s *RoomService) History(userID, roomID uint, limit int, before *time.Time) ([]MessagePayload, error) {
	room, err := s.rooms.FindByID(roomID)
	if err != nil {
		return nil, errors.InvalidRoom("unknown room")
	}
	if !room.HasParticipant(userID) {
		return nil, errors.InvalidRoom("not a participant of this room")
	}

	if limit <= 0 {
		limit = historyLimit
	}
	if limit > 100 {
		limit = 100
	}

	msgs, err := s.messages.FindRecent(roomID, limit, before)
	if err != nil {
		return nil, errors.Failed("failed to load history", err)
	}
	return NewMessagePayloads(msgs), nil
}

// Deactivate closes a room for one of its participants. The row stays;
// rooms are never deleted.
func (s *RoomService) Deactivate(userID, roomID uint) error {
	room, err := s.rooms.FindByID(roomID)
	if err != nil {
		return errors.InvalidRoom("unknown room")
	}
	if !room.HasParticipant(userID) {
		return errors.InvalidRoom("not a participant of this room")
	}
	if err := s.rooms.Deactivate(roomID); err != nil {
		return errors.Failed("failed to deactivate room", err)
	}
	return nil
}
