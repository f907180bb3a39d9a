package repositories

import (
	"context"

	"github.com/meinhoongagan/healthcoach-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Create(ctx context.Context, p *models.Permission) error {
	return conn(ctx, r.db).Create(p).Error
}

func (r *PermissionRepository) Save(ctx context.Context, p *models.Permission) error {
	return conn(ctx, r.db).Save(p).Error
}

func (r *PermissionRepository) ListByPair(ctx context.Context, userID, consultantUserID uint, forUpdate bool) ([]models.Permission, error) {
	var perms []models.Permission
	q := conn(ctx, r.db).
		Where("user_id = ? AND consultant_user_id = ?", userID, consultantUserID).
		Order("id asc")
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) ListActiveByPair(ctx context.Context, userID, consultantUserID uint) ([]models.Permission, error) {
	var perms []models.Permission
	err := conn(ctx, r.db).
		Where("user_id = ? AND consultant_user_id = ? AND status = ?", userID, consultantUserID, models.PermissionActive).
		Order("id asc").
		Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Permission, error) {
	var perms []models.Permission
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("granted_at desc, id desc").
		Find(&perms).Error
	return perms, err
}
