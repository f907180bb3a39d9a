package models

import (
	"errors"
	"time"
)

type GoalType string

const (
	GoalLose     GoalType = "lose"
	GoalGain     GoalType = "gain"
	GoalMaintain GoalType = "maintain"
)

type Goal struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	GoalType      GoalType  `json:"goal_type" gorm:"type:varchar(20);not null"`
	TargetDeltaKg *float64  `json:"target_delta_kg"`
	DurationDays  *int      `json:"duration_days"`
	StartDate     *Date     `json:"start_date"`
	EndDate       *Date     `json:"end_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Goal) TableName() string { return "user_goals" }

// GoalUpsert replaces every goal field.
type GoalUpsert struct {
	GoalType      GoalType `json:"goal_type"`
	TargetDeltaKg *float64 `json:"target_delta_kg"`
	DurationDays  *int     `json:"duration_days"`
	StartDate     *Date    `json:"start_date"`
	EndDate       *Date    `json:"end_date"`
}

func (g GoalUpsert) Validate() error {
	switch g.GoalType {
	case GoalMaintain:
		if g.TargetDeltaKg != nil {
			return errors.New("target_delta_kg must be null for maintain goal")
		}
	case GoalLose, GoalGain:
		if g.TargetDeltaKg == nil || *g.TargetDeltaKg <= 0 {
			return errors.New("target_delta_kg must be > 0 for lose/gain goals")
		}
	default:
		return errors.New("goal_type must be one of [lose gain maintain]")
	}

	if g.DurationDays == nil && (g.StartDate == nil || g.EndDate == nil) {
		return errors.New("provide either duration_days OR both start_date and end_date")
	}
	if g.DurationDays != nil && *g.DurationDays <= 0 {
		return errors.New("duration_days must be > 0")
	}
	if g.StartDate != nil && g.EndDate != nil && g.EndDate.Before(g.StartDate.Time) {
		return errors.New("end_date must be >= start_date")
	}
	return nil
}

func (g GoalUpsert) Apply(goal *Goal) {
	goal.GoalType = g.GoalType
	goal.TargetDeltaKg = g.TargetDeltaKg
	goal.DurationDays = g.DurationDays
	goal.StartDate = g.StartDate
	goal.EndDate = g.EndDate
}
