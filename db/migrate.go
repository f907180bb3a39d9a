package db

import (
	"fmt"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserData{},
		&models.Goal{},
		&models.NutritionTarget{},
		&models.ConsultantProfile{},
		&models.ConsultantDocument{},
		&models.AppointmentApplication{},
		&models.Appointment{},
		&models.SessionRoom{},
		&models.ChatMessage{},
		&models.SessionNote{},
		&models.Permission{},
		&models.UserHealthChangeAudit{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Log.Info("✅ Migrations applied successfully!")
	return nil
}
