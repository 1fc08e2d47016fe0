package repository

import (
	"time"

	"gorm.io/gorm/clause"

	"jobboard/internal/models"
	"jobboard/internal/storage"
)

type RoomRepository interface {
	// FindOrCreate resolves the single active room for the triple, creating
	// it when absent. Concurrent callers with the same triple all receive the
	// same room; the database's partial unique index is the arbiter.
	FindOrCreate(jobID, studentID, recruiterID uint) (*models.ChatRoom, error)
	FindByID(id uint) (*models.ChatRoom, error)
	FindByParticipant(userID uint) ([]models.ChatRoom, error)
	TouchLastMessage(roomID uint, at time.Time) error
	Deactivate(roomID uint) error
}

type roomRepository struct {
	db *storage.PostgresDB
}

func NewRoomRepository(db *storage.PostgresDB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) FindOrCreate(jobID, studentID, recruiterID uint) (*models.ChatRoom, error) {
	room := models.ChatRoom{
		JobID:         jobID,
		StudentID:     studentID,
		RecruiterID:   recruiterID,
		LastMessageAt: time.Now(),
		IsActive:      true,
	}

	// INSERT ... ON CONFLICT DO NOTHING against the partial unique index.
	// Never check-then-insert: two racing creators must converge on one row.
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "job_id"}, {Name: "student_id"}, {Name: "recruiter_id"},
		},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "is_active"}}},
		DoNothing:   true,
	}).Create(&room).Error
	if err != nil {
		return nil, err
	}
	if room.ID != 0 {
		return &room, nil
	}

	// Lost the race (or the room already existed); read the winner.
	var existing models.ChatRoom
	err = r.db.
		Where("job_id = ? AND student_id = ? AND recruiter_id = ? AND is_active", jobID, studentID, recruiterID).
		First(&existing).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *roomRepository) FindByID(id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindByParticipant(userID uint) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := r.db.
		Where("(student_id = ? OR recruiter_id = ?) AND is_active", userID, userID).
		Order("last_message_at DESC").
		Find(&rooms).Error
	return rooms, err
}

func (r *roomRepository) TouchLastMessage(roomID uint, at time.Time) error {
	return r.db.Model(&models.ChatRoom{}).
		Where("id = ?", roomID).
		Update("last_message_at", at).Error
}

func (r *roomRepository) Deactivate(roomID uint) error {
	return r.db.Model(&models.ChatRoom{}).
		Where("id = ?", roomID).
		Update("is_active", false).Error
}
