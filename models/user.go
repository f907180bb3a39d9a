package models

import (
	"time"

	"gorm.io/gorm"
)

type UserType string

const (
	UserTypeUser       UserType = "user"
	UserTypeConsultant UserType = "consultant"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	FullName     *string   `json:"full_name" gorm:"size:120"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	UserType     UserType  `json:"user_type" gorm:"type:varchar(20);index;not null;default:user"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserType == "" {
		u.UserType = UserTypeUser
	}
	return nil
}

func (u *User) IsConsultant() bool {
	return u.UserType == UserTypeConsultant
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uint
	UserType UserType
}

func (p Principal) IsConsultant() bool {
	return p.UserType == UserTypeConsultant
}
