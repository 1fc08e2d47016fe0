package service

import (
	"encoding/json"
	"time"

	"jobboard/internal/models"
	"jobboard/pkg/errors"
)

// Inbound event names.
const (
	EventJoinRoom    = "join_room"
	EventSendMessage = "send_message"
	EventStartTyping = "start_typing"
	EventStopTyping  = "stop_typing"
	EventMarkAsRead  = "mark_as_read"
	EventLeaveRoom   = "leave_room"
)

// Outbound event names.
const (
	EventChatHistory       = "chat_history"
	EventNewMessage        = "new_message"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventRoomLeft          = "room_left"
	EventError             = "error"
)

// Envelope is the tagged frame every client request arrives in. Data is
// decoded into the typed payload for the named event before dispatch.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is one frame queued for delivery to a session.
type ServerEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// JoinRoomRequest carries either a known room id or the (job, counterpart)
// pair used to create-or-fetch one. A student supplies recruiter_id and a
// recruiter supplies student_id; the session's own id fills the other role.
type JoinRoomRequest struct {
	RoomID      uint `json:"room_id,omitempty"`
	JobID       uint `json:"job_id,omitempty"`
	StudentID   uint `json:"student_id,omitempty"`
	RecruiterID uint `json:"recruiter_id,omitempty"`
}

type SendMessageRequest struct {
	RoomID     uint   `json:"room_id"`
	Content    string `json:"content"`
	ReceiverID *uint  `json:"receiver_id,omitempty"`
}

// RoomRequest covers the events that only name a room: typing, mark_as_read
// and leave_room.
type RoomRequest struct {
	RoomID uint `json:"room_id"`
}

// MessagePayload is the wire shape of a persisted message, broadcast as
// new_message and listed in chat_history.
type MessagePayload struct {
	ID          uint               `json:"id"`
	RoomID      uint               `json:"room_id"`
	SenderID    uint               `json:"sender_id"`
	ReceiverID  *uint              `json:"receiver_id,omitempty"`
	Content     string             `json:"content"`
	MessageType models.MessageType `json:"message_type"`
	Timestamp   time.Time          `json:"timestamp"`
	Read        bool               `json:"read"`
}

func NewMessagePayload(m *models.ChatMessage) MessagePayload {
	return MessagePayload{
		ID:          m.ID,
		RoomID:      m.RoomID,
		SenderID:    m.SenderID,
		ReceiverID:  m.ReceiverID,
		Content:     m.Content,
		MessageType: m.MessageType,
		Timestamp:   m.Timestamp,
		Read:        m.Read,
	}
}

func NewMessagePayloads(msgs []models.ChatMessage) []MessagePayload {
	payloads := make([]MessagePayload, 0, len(msgs))
	for i := range msgs {
		payloads = append(payloads, NewMessagePayload(&msgs[i]))
	}
	return payloads
}

type ChatHistoryPayload struct {
	RoomID   uint             `json:"room_id"`
	Messages []MessagePayload `json:"messages"`
}

type TypingPayload struct {
	UserID uint `json:"user_id"`
	RoomID uint `json:"room_id"`
}

type RoomLeftPayload struct {
	RoomID uint `json:"room_id"`
}

type ErrorPayload struct {
	Code errors.Code `json:"code"`
	Msg  string      `json:"msg"`
}

// errorEvent maps an error onto the non-fatal error frame sent back to the
// offending session only.
func errorEvent(err error) *ServerEvent {
	return &ServerEvent{
		Event: EventError,
		Data:  ErrorPayload{Code: errors.CodeOf(err), Msg: err.Error()},
	}
}
