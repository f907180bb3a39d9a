package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"go.uber.org/zap"
)

// ClientDataService is the consultant's gated view of a client's health data.
// Every call authorizes against the grant table before touching data.
type ClientDataService struct {
	tx     repositories.Transactor
	health repositories.IHealthRepository
	audits repositories.IAuditRepository
	appts  repositories.IAppointmentRepository
	perms  *PermissionService
}

func NewClientDataService(
	tx repositories.Transactor,
	health repositories.IHealthRepository,
	audits repositories.IAuditRepository,
	appts repositories.IAppointmentRepository,
	perms *PermissionService,
) *ClientDataService {
	return &ClientDataService{tx: tx, health: health, audits: audits, appts: appts, perms: perms}
}

func (s *ClientDataService) gate(ctx context.Context, p models.Principal, userID uint, resource models.Resource, write bool) error {
	if err := requireConsultant(p); err != nil {
		return err
	}
	return s.perms.Authorize(ctx, p.UserID, userID, resource, write)
}

func (s *ClientDataService) GetGoal(ctx context.Context, p models.Principal, userID uint) (*models.Goal, error) {
	if err := s.gate(ctx, p, userID, models.ResourceUserGoals, false); err != nil {
		return nil, err
	}
	return findGoal(ctx, s.health, userID)
}

func (s *ClientDataService) PutGoal(ctx context.Context, p models.Principal, userID uint, in models.GoalUpsert, appointmentID *uint) (*models.Goal, error) {
	if err := s.gate(ctx, p, userID, models.ResourceUserGoals, true); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, validation("%s", err.Error())
	}
	if err := s.checkAppointment(ctx, p.UserID, userID, appointmentID); err != nil {
		return nil, err
	}

	var after *models.Goal
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		before, saved, err := upsertGoal(ctx, s.health, userID, in)
		if err != nil {
			return err
		}
		after = saved
		return s.audit(ctx, p.UserID, userID, models.ResourceUserGoals, before == nil, before, saved, appointmentID)
	})
	if err != nil {
		return nil, err
	}
	return after, nil
}

func (s *ClientDataService) GetNutritionTarget(ctx context.Context, p models.Principal, userID uint) (*models.NutritionTarget, error) {
	if err := s.gate(ctx, p, userID, models.ResourceNutritionTargets, false); err != nil {
		return nil, err
	}
	return findTarget(ctx, s.health, userID)
}

func (s *ClientDataService) PutNutritionTarget(ctx context.Context, p models.Principal, userID uint, in models.NutritionTargetUpdate, appointmentID *uint) (*models.NutritionTarget, error) {
	if err := s.gate(ctx, p, userID, models.ResourceNutritionTargets, true); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, validation("%s", err.Error())
	}
	if err := s.checkAppointment(ctx, p.UserID, userID, appointmentID); err != nil {
		return nil, err
	}

	var after *models.NutritionTarget
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		before, saved, err := upsertTarget(ctx, s.health, userID, in)
		if err != nil {
			return err
		}
		after = saved
		return s.audit(ctx, p.UserID, userID, models.ResourceNutritionTargets, before == nil, before, saved, appointmentID)
	})
	if err != nil {
		return nil, err
	}
	return after, nil
}

// checkAppointment requires an audit-linked appointment to be between the pair.
func (s *ClientDataService) checkAppointment(ctx context.Context, consultantID, userID uint, appointmentID *uint) error {
	if appointmentID == nil {
		return nil
	}
	appt, err := s.appts.FindByID(ctx, *appointmentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return validation("appointment_id does not belong to this client")
	}
	if err != nil {
		return err
	}
	if appt.ConsultantUserID != consultantID || appt.UserID != userID {
		return validation("appointment_id does not belong to this client")
	}
	return nil
}

func (s *ClientDataService) audit(ctx context.Context, consultantID, userID uint, resource models.Resource, created bool, before, after interface{}, appointmentID *uint) error {
	entry := &models.UserHealthChangeAudit{
		UserID:          userID,
		ChangedByUserID: consultantID,
		Resource:        resource,
		Action:          models.AuditUpdate,
		AppointmentID:   appointmentID,
	}
	if created {
		entry.Action = models.AuditCreate
	} else {
		snap, err := snapshot(before)
		if err != nil {
			return err
		}
		entry.BeforeJSON = snap
	}
	snap, err := snapshot(after)
	if err != nil {
		return err
	}
	entry.AfterJSON = snap

	if err := s.audits.Create(ctx, entry); err != nil {
		logger.Log.Error("ClientDataService.audit: insert failed",
			zap.Uint("user_id", userID), zap.String("resource", string(resource)), zap.Error(err))
		return err
	}
	return nil
}

func snapshot(v interface{}) (*string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// ClientHealth bundles what the consultant may read about the client.
type ClientHealth struct {
	UserID          uint                    `json:"user_id"`
	UserData        *models.UserData        `json:"user_data,omitempty"`
	Goal            *models.Goal            `json:"goal,omitempty"`
	NutritionTarget *models.NutritionTarget `json:"nutrition_target,omitempty"`
	Metrics         *models.HealthMetrics   `json:"metrics,omitempty"`
	Denied          []models.Resource       `json:"denied"`
}

// SessionClientHealth returns every section the consultant holds read on.
func (s *ClientDataService) SessionClientHealth(ctx context.Context, p models.Principal, appointmentID uint) (*ClientHealth, error) {
	appt, err := loadAppointment(ctx, s.appts, appointmentID, p, "Not a participant of this session")
	if err != nil {
		return nil, err
	}
	if appt.ConsultantUserID != p.UserID {
		return nil, forbidden("Only consultant can view client health")
	}

	out := &ClientHealth{UserID: appt.UserID, Denied: []models.Resource{}}
	allowed := func(r models.Resource) (bool, error) {
		err := s.perms.Authorize(ctx, p.UserID, appt.UserID, r, false)
		if errors.Is(err, ErrForbidden) {
			out.Denied = append(out.Denied, r)
			return false, nil
		}
		return err == nil, err
	}

	if ok, err := allowed(models.ResourceUserData); err != nil {
		return nil, err
	} else if ok {
		d, err := s.health.FindUserData(ctx, appt.UserID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		if d != nil {
			m := d.Metrics()
			out.UserData, out.Metrics = d, &m
		}
	}

	if ok, err := allowed(models.ResourceUserGoals); err != nil {
		return nil, err
	} else if ok {
		g, err := s.health.FindGoal(ctx, appt.UserID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		out.Goal = g
	}

	if ok, err := allowed(models.ResourceNutritionTargets); err != nil {
		return nil, err
	} else if ok {
		t, err := s.health.FindNutritionTarget(ctx, appt.UserID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		out.NutritionTarget = t
	}
	return out, nil
}
