package repositories

import (
	"context"
	"time"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *models.AppointmentApplication) error {
	return conn(ctx, r.db).Create(app).Error
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id uint) (*models.AppointmentApplication, error) {
	var app models.AppointmentApplication
	if err := conn(ctx, r.db).First(&app, id).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r *ApplicationRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.AppointmentApplication, error) {
	var app models.AppointmentApplication
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&app, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r *ApplicationRepository) ListByUser(ctx context.Context, userID uint) ([]models.AppointmentApplication, error) {
	var apps []models.AppointmentApplication
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&apps).Error
	return apps, err
}

func (r *ApplicationRepository) ListByConsultant(ctx context.Context, consultantUserID uint) ([]models.AppointmentApplication, error) {
	var apps []models.AppointmentApplication
	err := conn(ctx, r.db).
		Where("consultant_user_id = ?", consultantUserID).
		Order("created_at desc, id desc").
		Find(&apps).Error
	return apps, err
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id uint, status models.ApplicationStatus) error {
	res := conn(ctx, r.db).Model(&models.AppointmentApplication{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	return conn(ctx, r.db).Create(appt).Error
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	if err := conn(ctx, r.db).First(&appt, id).Error; err != nil {
		return nil, translate(err)
	}
	return &appt, nil
}

func (r *AppointmentRepository) ListByUser(ctx context.Context, userID uint) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("scheduled_start_at desc").
		Find(&appts).Error
	return appts, err
}

func (r *AppointmentRepository) ListByConsultant(ctx context.Context, consultantUserID uint) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := conn(ctx, r.db).
		Where("consultant_user_id = ?", consultantUserID).
		Order("scheduled_start_at desc").
		Find(&appts).Error
	return appts, err
}

func (r *AppointmentRepository) HasOverlap(ctx context.Context, consultantUserID uint, start, end time.Time) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Appointment{}).
		Where("consultant_user_id = ? AND status = ?", consultantUserID, models.StatusScheduled).
		Where("scheduled_start_at < ? AND scheduled_end_at > ?", end, start).
		Count(&count).Error
	if err != nil {
		logger.Log.Error("AppointmentRepository.HasOverlap: DB error",
			zap.Uint("consultant_user_id", consultantUserID), zap.Error(err))
		return false, err
	}
	return count > 0, nil
}

func (r *AppointmentRepository) CompareAndSwapStatus(ctx context.Context, id uint, from, to models.AppointmentStatus) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *AppointmentRepository) ListScheduledStartingBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := conn(ctx, r.db).
		Where("status = ? AND scheduled_start_at BETWEEN ? AND ?", models.StatusScheduled, from, to).
		Order("scheduled_start_at asc").
		Find(&appts).Error
	return appts, err
}

func (r *AppointmentRepository) ListScheduledWithRoomStatus(ctx context.Context, status models.RoomStatus, endedBefore time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	q := conn(ctx, r.db).
		Joins("JOIN session_rooms ON session_rooms.appointment_id = appointments.id").
		Where("appointments.status = ? AND session_rooms.status = ?", models.StatusScheduled, status)
	if !endedBefore.IsZero() {
		q = q.Where("appointments.scheduled_end_at < ?", endedBefore)
	}
	err := q.Find(&appts).Error
	return appts, err
}
