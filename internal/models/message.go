package models

import (
	"time"

	"gorm.io/gorm"
)

// MessageType classifies a chat message.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// ChatMessage is one append-only entry in a room's log. The timestamp is
// server-assigned at persistence time; content is immutable and the only
// permitted mutation afterwards is the read flag flipping false to true.
type ChatMessage struct {
	gorm.Model
	RoomID      uint        `gorm:"index:idx_room_ts" json:"room_id"`
	SenderID    uint        `json:"sender_id"`
	ReceiverID  *uint       `json:"receiver_id,omitempty"` // nil means room-wide
	Content     string      `gorm:"type:text;not null" json:"content"`
	MessageType MessageType `gorm:"type:varchar(20);default:text" json:"message_type"`
	Timestamp   time.Time   `gorm:"index:idx_room_ts" json:"timestamp"`
	Read        bool        `gorm:"default:false" json:"read"`
}

// NewSystemMessage builds a room-wide notice such as a join announcement.
func NewSystemMessage(roomID uint, content string) *ChatMessage {
	return &ChatMessage{
		RoomID:      roomID,
		Content:     content,
		MessageType: MessageSystem,
	}
}
