package repositories

import (
	"context"
	"strings"

	"github.com/meinhoongagan/healthcoach-api/models"
	"gorm.io/gorm"
)

type ConsultantRepository struct {
	db *gorm.DB
}

func NewConsultantRepository(db *gorm.DB) *ConsultantRepository {
	return &ConsultantRepository{db: db}
}

func (r *ConsultantRepository) FindProfileByID(ctx context.Context, id uint) (*models.ConsultantProfile, error) {
	var p models.ConsultantProfile
	if err := conn(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ConsultantRepository) FindProfileByUserID(ctx context.Context, userID uint) (*models.ConsultantProfile, error) {
	var p models.ConsultantProfile
	if err := conn(ctx, r.db).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ConsultantRepository) SaveProfile(ctx context.Context, p *models.ConsultantProfile) error {
	return conn(ctx, r.db).Save(p).Error
}

func (r *ConsultantRepository) Search(ctx context.Context, params ConsultantSearch) ([]models.ConsultantProfile, error) {
	var profiles []models.ConsultantProfile
	q := conn(ctx, r.db).Model(&models.ConsultantProfile{})
	if s := strings.TrimSpace(params.Query); s != "" {
		q = q.Where("display_name ILIKE ?", "%"+s+"%")
	}
	if params.VerifiedOnly {
		q = q.Where("is_verified = ?", true)
	}
	err := q.Order("display_name asc, id asc").
		Offset(params.Offset).
		Limit(params.Limit).
		Find(&profiles).Error
	return profiles, err
}

func (r *ConsultantRepository) ListDocuments(ctx context.Context, profileID uint) ([]models.ConsultantDocument, error) {
	var docs []models.ConsultantDocument
	err := conn(ctx, r.db).
		Where("consultant_profile_id = ?", profileID).
		Order("created_at desc, id desc").
		Find(&docs).Error
	return docs, err
}

func (r *ConsultantRepository) FindDocument(ctx context.Context, id uint) (*models.ConsultantDocument, error) {
	var doc models.ConsultantDocument
	if err := conn(ctx, r.db).First(&doc, id).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (r *ConsultantRepository) CreateDocument(ctx context.Context, doc *models.ConsultantDocument) error {
	return conn(ctx, r.db).Create(doc).Error
}

func (r *ConsultantRepository) DeleteDocument(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.ConsultantDocument{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
