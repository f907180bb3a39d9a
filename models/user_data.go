package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

var activityFactors = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// UserData holds the biometrics of a user.
type UserData struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	Age           *int           `json:"age"`
	Gender        *Gender        `json:"gender" gorm:"type:varchar(10)"`
	HeightCm      *float64       `json:"height_cm"`
	WeightKg      *float64       `json:"weight_kg"`
	ActivityLevel *ActivityLevel `json:"activity_level" gorm:"type:varchar(20)"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (UserData) TableName() string { return "user_data" }

type UserDataUpdate struct {
	Age           *int           `json:"age"`
	Gender        *Gender        `json:"gender"`
	HeightCm      *float64       `json:"height_cm"`
	WeightKg      *float64       `json:"weight_kg"`
	ActivityLevel *ActivityLevel `json:"activity_level"`
}

func (u UserDataUpdate) Validate() error {
	if u.Age != nil && (*u.Age < 10 || *u.Age > 120) {
		return errors.New("age must be between 10 and 120")
	}
	if u.Gender != nil && *u.Gender != GenderMale && *u.Gender != GenderFemale {
		return fmt.Errorf("gender must be one of [male female]")
	}
	if u.HeightCm != nil && (*u.HeightCm < 50 || *u.HeightCm > 260) {
		return errors.New("height_cm must be between 50 and 260")
	}
	if u.WeightKg != nil && (*u.WeightKg < 20 || *u.WeightKg > 400) {
		return errors.New("weight_kg must be between 20 and 400")
	}
	if u.ActivityLevel != nil {
		if _, ok := activityFactors[*u.ActivityLevel]; !ok {
			return errors.New("activity_level must be one of [sedentary light moderate active very_active]")
		}
	}
	return nil
}

// Apply copies the non-nil fields onto d.
func (u UserDataUpdate) Apply(d *UserData) {
	if u.Age != nil {
		d.Age = u.Age
	}
	if u.Gender != nil {
		d.Gender = u.Gender
	}
	if u.HeightCm != nil {
		d.HeightCm = u.HeightCm
	}
	if u.WeightKg != nil {
		d.WeightKg = u.WeightKg
	}
	if u.ActivityLevel != nil {
		d.ActivityLevel = u.ActivityLevel
	}
}

// HealthMetrics are derived from UserData. BMR and TDEE are only set when
// every input they need is present.
type HealthMetrics struct {
	BMI  *float64 `json:"bmi,omitempty"`
	BMR  *float64 `json:"bmr,omitempty"`
	TDEE *int     `json:"tdee,omitempty"`
}

// Metrics computes BMI (kg/m^2) and, with Mifflin-St Jeor, BMR and TDEE.
func (d *UserData) Metrics() HealthMetrics {
	var m HealthMetrics
	if d.WeightKg == nil || d.HeightCm == nil || *d.WeightKg <= 0 || *d.HeightCm <= 0 {
		return m
	}
	h := *d.HeightCm / 100
	bmi := math.Round(*d.WeightKg/(h*h)*100) / 100
	m.BMI = &bmi

	if d.Age == nil || d.Gender == nil {
		return m
	}
	bmr := 10*(*d.WeightKg) + 6.25*(*d.HeightCm) - 5*float64(*d.Age)
	if *d.Gender == GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	m.BMR = &bmr

	if d.ActivityLevel == nil {
		return m
	}
	if f, ok := activityFactors[*d.ActivityLevel]; ok {
		tdee := int(math.Round(bmr * f))
		m.TDEE = &tdee
	}
	return m
}
