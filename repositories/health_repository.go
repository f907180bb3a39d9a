package repositories

import (
	"context"

	"github.com/meinhoongagan/healthcoach-api/models"
	"gorm.io/gorm"
)

// HealthRepository stores the per-user biometrics, goal and nutrition target.
type HealthRepository struct {
	db *gorm.DB
}

func NewHealthRepository(db *gorm.DB) *HealthRepository {
	return &HealthRepository{db: db}
}

func (r *HealthRepository) FindUserData(ctx context.Context, userID uint) (*models.UserData, error) {
	var d models.UserData
	if err := conn(ctx, r.db).Where("user_id = ?", userID).First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *HealthRepository) SaveUserData(ctx context.Context, d *models.UserData) error {
	return conn(ctx, r.db).Save(d).Error
}

func (r *HealthRepository) FindGoal(ctx context.Context, userID uint) (*models.Goal, error) {
	var g models.Goal
	if err := conn(ctx, r.db).Where("user_id = ?", userID).First(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *HealthRepository) SaveGoal(ctx context.Context, g *models.Goal) error {
	return conn(ctx, r.db).Save(g).Error
}

func (r *HealthRepository) DeleteGoal(ctx context.Context, userID uint) error {
	return conn(ctx, r.db).Where("user_id = ?", userID).Delete(&models.Goal{}).Error
}

func (r *HealthRepository) FindNutritionTarget(ctx context.Context, userID uint) (*models.NutritionTarget, error) {
	var t models.NutritionTarget
	if err := conn(ctx, r.db).Where("user_id = ?", userID).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *HealthRepository) SaveNutritionTarget(ctx context.Context, t *models.NutritionTarget) error {
	return conn(ctx, r.db).Save(t).Error
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *models.UserHealthChangeAudit) error {
	return conn(ctx, r.db).Create(entry).Error
}

func (r *AuditRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.UserHealthChangeAudit, error) {
	var entries []models.UserHealthChangeAudit
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
