package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatRoom is the durable channel between one student and one recruiter for
// one job. Rooms are never deleted, only deactivated; the partial unique
// index keeps at most one active room per (job, student, recruiter) triple
// and is what makes FindOrCreate race-safe across concurrent joiners.
type ChatRoom struct {
	gorm.Model
	JobID         uint      `gorm:"uniqueIndex:idx_active_room,where:is_active" json:"job_id"`
	StudentID     uint      `gorm:"uniqueIndex:idx_active_room" json:"student_id"`
	RecruiterID   uint      `gorm:"uniqueIndex:idx_active_room" json:"recruiter_id"`
	LastMessageAt time.Time `json:"last_message_at"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
}

// HasParticipant reports whether the user is one of the room's two parties.
func (r *ChatRoom) HasParticipant(userID uint) bool {
	return r.StudentID == userID || r.RecruiterID == userID
}
