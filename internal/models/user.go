package models

import (
	"gorm.io/gorm"
)

// User is a registered platform account. Passwords are stored bcrypt-hashed
// and never serialized.
type User struct {
	gorm.Model
	Username    string   `gorm:"uniqueIndex;not null" json:"username"`
	Password    string   `gorm:"not null" json:"-"`
	DisplayName string   `gorm:"type:varchar(100)" json:"display_name"`
	Role        UserRole `gorm:"type:varchar(20);not null" json:"role"`
}

// UserRole defines which side of a job application the account sits on.
type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleRecruiter UserRole = "recruiter"
)
