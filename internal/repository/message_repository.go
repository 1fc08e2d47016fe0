package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"jobboard/internal/models"
	"jobboard/internal/storage"
)

type MessageRepository interface {
	Create(message *models.ChatMessage) error
	// FindRecent returns up to limit messages in chronological order, the
	// newest ones when before is nil, otherwise the window ending just
	// before the cursor.
	FindRecent(roomID uint, limit int, before *time.Time) ([]models.ChatMessage, error)
	// MarkRead flips every unread message addressed to the receiver in the
	// room, returning how many rows changed.
	MarkRead(roomID, receiverID uint) (int64, error)
	CountUnread(roomID, receiverID uint) (int64, error)
	FindLast(roomID uint) (*models.ChatMessage, error)
}

type messageRepository struct {
	db *storage.PostgresDB
}

func NewMessageRepository(db *storage.PostgresDB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *messageRepository) FindRecent(roomID uint, limit int, before *time.Time) ([]models.ChatMessage, error) {
	query := r.db.Where("room_id = ?", roomID)
	if before != nil {
		query = query.Where("timestamp < ?", *before)
	}

	var messages []models.ChatMessage
	err := query.Order("timestamp DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Fetched newest-first; reverse for chronological display order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *messageRepository) MarkRead(roomID, receiverID uint) (int64, error) {
	result := r.db.Model(&models.ChatMessage{}).
		Where("room_id = ? AND receiver_id = ? AND read = ?", roomID, receiverID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

func (r *messageRepository) CountUnread(roomID, receiverID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ChatMessage{}).
		Where("room_id = ? AND receiver_id = ? AND read = ?", roomID, receiverID, false).
		Count(&count).Error
	return count, err
}

func (r *messageRepository) FindLast(roomID uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := r.db.Where("room_id = ?", roomID).Order("timestamp DESC").First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}
