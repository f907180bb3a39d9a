package models

import (
	"errors"
	"time"
)

type NutritionTarget struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	CaloriesKcal int       `json:"calories_kcal" gorm:"not null"`
	ProteinG     float64   `json:"protein_g" gorm:"not null"`
	CarbsG       float64   `json:"carbs_g" gorm:"not null"`
	FatG         float64   `json:"fat_g" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NutritionTargetUpdate is partial; nil fields are left untouched.
type NutritionTargetUpdate struct {
	CaloriesKcal *int     `json:"calories_kcal"`
	ProteinG     *float64 `json:"protein_g"`
	CarbsG       *float64 `json:"carbs_g"`
	FatG         *float64 `json:"fat_g"`
}

func (u NutritionTargetUpdate) Validate() error {
	if u.CaloriesKcal != nil && (*u.CaloriesKcal < 800 || *u.CaloriesKcal > 10000) {
		return errors.New("calories_kcal must be between 800 and 10000")
	}
	if u.ProteinG != nil && (*u.ProteinG < 0 || *u.ProteinG > 400) {
		return errors.New("protein_g must be between 0 and 400")
	}
	if u.CarbsG != nil && (*u.CarbsG < 0 || *u.CarbsG > 1200) {
		return errors.New("carbs_g must be between 0 and 1200")
	}
	if u.FatG != nil && (*u.FatG < 0 || *u.FatG > 300) {
		return errors.New("fat_g must be between 0 and 300")
	}
	return nil
}

// Complete reports whether every field is set, as required on first create.
func (u NutritionTargetUpdate) Complete() bool {
	return u.CaloriesKcal != nil && u.ProteinG != nil && u.CarbsG != nil && u.FatG != nil
}

func (u NutritionTargetUpdate) Apply(t *NutritionTarget) {
	if u.CaloriesKcal != nil {
		t.CaloriesKcal = *u.CaloriesKcal
	}
	if u.ProteinG != nil {
		t.ProteinG = *u.ProteinG
	}
	if u.CarbsG != nil {
		t.CarbsG = *u.CarbsG
	}
	if u.FatG != nil {
		t.FatG = *u.FatG
	}
}
