package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// RoomStatus is the only write gate for chat and notes.
type RoomStatus string

const (
	RoomNotStarted RoomStatus = "not_started"
	RoomActive     RoomStatus = "active"
	RoomEnded      RoomStatus = "ended"
)

type SessionRoom struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	AppointmentID   uint       `json:"appointment_id" gorm:"uniqueIndex;not null"`
	Status          RoomStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	StartedByUserID *uint      `json:"started_by_user_id"`
	EndedByUserID   *uint      `json:"ended_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (r *SessionRoom) BeforeCreate(tx *gorm.DB) error {
	if r.Status == "" {
		r.Status = RoomNotStarted
	}
	return nil
}

// CanTransitionRoom enforces not_started -> active -> ended.
func CanTransitionRoom(from, to RoomStatus) error {
	switch from {
	case RoomNotStarted:
		if to != RoomActive {
			return fmt.Errorf("%w: from not_started to %s", ErrInvalidTransition, to)
		}
	case RoomActive:
		if to != RoomEnded {
			return fmt.Errorf("%w: from active to %s", ErrInvalidTransition, to)
		}
	case RoomEnded:
		return fmt.Errorf("%w: session has ended", ErrInvalidTransition)
	default:
		return fmt.Errorf("%w: unknown room status %q", ErrInvalidTransition, from)
	}
	return nil
}

type ChatMessage struct {
	ID           uint      `json:"id" gorm:"primaryKey;index:idx_chat_room_seq,priority:2"`
	RoomID       uint      `json:"room_id" gorm:"index:idx_chat_room_seq,priority:1;not null"`
	SenderUserID uint      `json:"sender_user_id" gorm:"index;not null"`
	Message      string    `json:"message" gorm:"type:text;not null"`
	SentAt       time.Time `json:"sent_at" gorm:"not null"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.SentAt.IsZero() {
		m.SentAt = time.Now().UTC()
	}
	return nil
}

type SessionNote struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	AppointmentID   uint      `json:"appointment_id" gorm:"uniqueIndex;not null"`
	CreatedByUserID uint      `json:"created_by_user_id" gorm:"index;not null"`
	Note            string    `json:"note" gorm:"type:text;not null"`
	IsVisibleToUser bool      `json:"is_visible_to_user" gorm:"index;not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// VisibleTo reports whether the reader may see the note.
func (n *SessionNote) VisibleTo(appt *Appointment, readerID uint) bool {
	if readerID == appt.ConsultantUserID {
		return true
	}
	return readerID == appt.UserID && n.IsVisibleToUser
}
