package services

import (
	"context"
	"errors"

	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// HealthService is the owner's view of their own health data.
type HealthService struct {
	health repositories.IHealthRepository
	audits repositories.IAuditRepository
}

func NewHealthService(health repositories.IHealthRepository, audits repositories.IAuditRepository) *HealthService {
	return &HealthService{health: health, audits: audits}
}

type UserDataView struct {
	*models.UserData
	Metrics models.HealthMetrics `json:"metrics"`
}

func (s *HealthService) GetUserData(ctx context.Context, p models.Principal) (*UserDataView, error) {
	d, err := s.health.FindUserData(ctx, p.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("User data not found")
	}
	if err != nil {
		return nil, err
	}
	return &UserDataView{UserData: d, Metrics: d.Metrics()}, nil
}

func (s *HealthService) UpsertUserData(ctx context.Context, p models.Principal, in models.UserDataUpdate) (*UserDataView, error) {
	if err := in.Validate(); err != nil {
		return nil, validation("%s", err.Error())
	}
	d, err := s.health.FindUserData(ctx, p.UserID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		d = &models.UserData{UserID: p.UserID}
	case err != nil:
		return nil, err
	}
	in.Apply(d)
	if err := s.health.SaveUserData(ctx, d); err != nil {
		return nil, err
	}
	return &UserDataView{UserData: d, Metrics: d.Metrics()}, nil
}

func (s *HealthService) GetGoal(ctx context.Context, p models.Principal) (*models.Goal, error) {
	return findGoal(ctx, s.health, p.UserID)
}

func (s *HealthService) UpsertGoal(ctx context.Context, p models.Principal, in models.GoalUpsert) (*models.Goal, error) {
	if err := in.Validate(); err != nil {
		return nil, validation("%s", err.Error())
	}
	_, after, err := upsertGoal(ctx, s.health, p.UserID, in)
	return after, err
}

func (s *HealthService) DeleteGoal(ctx context.Context, p models.Principal) error {
	if _, err := findGoal(ctx, s.health, p.UserID); err != nil {
		return err
	}
	return s.health.DeleteGoal(ctx, p.UserID)
}

func (s *HealthService) GetNutritionTarget(ctx context.Context, p models.Principal) (*models.NutritionTarget, error) {
	return findTarget(ctx, s.health, p.UserID)
}

func (s *HealthService) UpsertNutritionTarget(ctx context.Context, p models.Principal, in models.NutritionTargetUpdate) (*models.NutritionTarget, error) {
	if err := in.Validate(); err != nil {
		return nil, validation("%s", err.Error())
	}
	_, after, err := upsertTarget(ctx, s.health, p.UserID, in)
	return after, err
}

// ChangeHistory lists consultant writes to the caller's data, newest first.
func (s *HealthService) ChangeHistory(ctx context.Context, p models.Principal, limit int) ([]models.UserHealthChangeAudit, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	return s.audits.ListByUser(ctx, p.UserID, limit)
}

func findGoal(ctx context.Context, health repositories.IHealthRepository, userID uint) (*models.Goal, error) {
	g, err := health.FindGoal(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("Goal not found")
	}
	return g, err
}

func findTarget(ctx context.Context, health repositories.IHealthRepository, userID uint) (*models.NutritionTarget, error) {
	t, err := health.FindNutritionTarget(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("Nutrition target not found")
	}
	return t, err
}

// upsertGoal replaces the goal and returns the prior copy, nil on create.
func upsertGoal(ctx context.Context, health repositories.IHealthRepository, userID uint, in models.GoalUpsert) (*models.Goal, *models.Goal, error) {
	var before *models.Goal
	g, err := health.FindGoal(ctx, userID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		g = &models.Goal{UserID: userID}
	case err != nil:
		return nil, nil, err
	default:
		prev := *g
		before = &prev
	}
	in.Apply(g)
	if err := health.SaveGoal(ctx, g); err != nil {
		return nil, nil, err
	}
	return before, g, nil
}

// upsertTarget applies a partial update. A first write must set every field.
func upsertTarget(ctx context.Context, health repositories.IHealthRepository, userID uint, in models.NutritionTargetUpdate) (*models.NutritionTarget, *models.NutritionTarget, error) {
	var before *models.NutritionTarget
	t, err := health.FindNutritionTarget(ctx, userID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		if !in.Complete() {
			return nil, nil, validation("Nutrition target not found. Provide all fields (calories_kcal, protein_g, carbs_g, fat_g) to create.")
		}
		t = &models.NutritionTarget{UserID: userID}
	case err != nil:
		return nil, nil, err
	default:
		prev := *t
		before = &prev
	}
	in.Apply(t)
	if err := health.SaveNutritionTarget(ctx, t); err != nil {
		return nil, nil, err
	}
	return before, t, nil
}
