package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidTransition is returned when a status change is not allowed from the current state.
var ErrInvalidTransition = errors.New("invalid status transition")

type ApplicationStatus string

const (
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCancelled ApplicationStatus = "cancelled"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

type AppointmentApplication struct {
	ID               uint              `json:"id" gorm:"primaryKey"`
	UserID           uint              `json:"user_id" gorm:"index;not null"`
	ConsultantUserID uint              `json:"consultant_user_id" gorm:"index;not null"`
	NoteFromUser     *string           `json:"note_from_user"`
	Status           ApplicationStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (a *AppointmentApplication) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = ApplicationSubmitted
	}
	return nil
}

// CanTransition reports whether the application may move to newStatus.
func (a *AppointmentApplication) CanTransition(newStatus ApplicationStatus) error {
	switch a.Status {
	case ApplicationSubmitted:
		if newStatus != ApplicationAccepted && newStatus != ApplicationRejected && newStatus != ApplicationCancelled {
			return fmt.Errorf("%w: from submitted to %s", ErrInvalidTransition, newStatus)
		}
	case ApplicationAccepted, ApplicationRejected, ApplicationCancelled:
		return fmt.Errorf("%w: no transitions allowed from %s", ErrInvalidTransition, a.Status)
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, a.Status)
	}
	return nil
}

type Appointment struct {
	ID               uint              `json:"id" gorm:"primaryKey"`
	ApplicationID    *uint             `json:"application_id" gorm:"uniqueIndex"`
	UserID           uint              `json:"user_id" gorm:"index;not null"`
	ConsultantUserID uint              `json:"consultant_user_id" gorm:"index;not null"`
	ScheduledStartAt time.Time         `json:"scheduled_start_at" gorm:"index;not null"`
	ScheduledEndAt   time.Time         `json:"scheduled_end_at" gorm:"not null"`
	Status           AppointmentStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	return nil
}

// CanTransition reports whether the appointment may move to newStatus.
func (a *Appointment) CanTransition(newStatus AppointmentStatus) error {
	switch a.Status {
	case StatusScheduled:
		if newStatus != StatusCompleted && newStatus != StatusCancelled && newStatus != StatusNoShow {
			return fmt.Errorf("%w: from scheduled to %s", ErrInvalidTransition, newStatus)
		}
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return fmt.Errorf("%w: no transitions allowed from %s", ErrInvalidTransition, a.Status)
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, a.Status)
	}
	return nil
}

func (a *Appointment) IsParticipant(userID uint) bool {
	return userID != 0 && (a.UserID == userID || a.ConsultantUserID == userID)
}

// SessionLabel is the advisory, clock-derived state of an appointment.
type SessionLabel string

const (
	LabelTerminal     SessionLabel = "terminal"
	LabelUpcoming     SessionLabel = "upcoming"
	LabelActiveWindow SessionLabel = "active_window"
	LabelEnded        SessionLabel = "ended"
)

// DeriveSessionLabel computes the display label of an appointment at now.
// It never gates writes; the room status does.
func DeriveSessionLabel(status AppointmentStatus, start, end, now time.Time) SessionLabel {
	switch status {
	case StatusCancelled, StatusNoShow, StatusCompleted:
		return LabelTerminal
	}
	switch {
	case now.Before(start):
		return LabelUpcoming
	case !now.After(end):
		return LabelActiveWindow
	default:
		return LabelEnded
	}
}

func (l SessionLabel) CanJoin() bool {
	return l == LabelUpcoming || l == LabelActiveWindow
}
