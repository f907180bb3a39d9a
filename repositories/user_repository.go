package repositories

import (
	"context"
	"strings"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return conn(ctx, r.db).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	var user models.User
	err := conn(ctx, r.db).
		Where("username = ? OR LOWER(email) = LOWER(?)", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID uint) (bool, error) {
	var count int64
	q := conn(ctx, r.db).Model(&models.User{}).
		Where("username = ? OR LOWER(email) = LOWER(?)", username, email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		logger.Log.Error("UserRepository.ExistsByUsernameOrEmail: DB error", zap.Error(err))
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return conn(ctx, r.db).Save(user).Error
}
