package services

import (
	"context"
	"errors"
	"time"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"go.uber.org/zap"
)

type PermissionService struct {
	tx    repositories.Transactor
	users repositories.IUserRepository
	perms repositories.IPermissionRepository
	appts repositories.IAppointmentRepository
	now   func() time.Time
}

func NewPermissionService(
	tx repositories.Transactor,
	users repositories.IUserRepository,
	perms repositories.IPermissionRepository,
	appts repositories.IAppointmentRepository,
) *PermissionService {
	return &PermissionService{tx: tx, users: users, perms: perms, appts: appts, now: time.Now}
}

type GrantInput struct {
	ConsultantUserID uint     `json:"consultant_user_id"`
	Scope            string   `json:"scope"`
	Resources        []string `json:"resources"`
	AppointmentID    *uint    `json:"granted_in_appointment_id"`
}

// Grant leaves exactly one active record for the (user, consultant) pair,
// reusing the oldest one when any exist.
func (s *PermissionService) Grant(ctx context.Context, p models.Principal, in GrantInput) (*models.Permission, error) {
	if in.ConsultantUserID == p.UserID {
		return nil, validation("You cannot grant permissions to yourself")
	}
	if _, err := ensureConsultant(ctx, s.users, in.ConsultantUserID); err != nil {
		return nil, err
	}
	resources, err := models.ParseResources(in.Resources)
	if err != nil {
		return nil, validation("%s", err.Error())
	}
	scope, err := models.ParseScope(in.Scope)
	if err != nil {
		return nil, validation("%s", err.Error())
	}

	var granted *models.Permission
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockGrantor(ctx, p.UserID); err != nil {
			return err
		}
		records, err := s.perms.ListByPair(ctx, p.UserID, in.ConsultantUserID, true)
		if err != nil {
			return err
		}
		now := s.now().UTC()

		if len(records) == 0 {
			granted = &models.Permission{
				UserID:                 p.UserID,
				ConsultantUserID:       in.ConsultantUserID,
				Scope:                  scope,
				Resources:              resources,
				Status:                 models.PermissionActive,
				GrantedInAppointmentID: in.AppointmentID,
				GrantedAt:              now,
			}
			return s.perms.Create(ctx, granted)
		}

		first := records[0]
		first.Scope = scope
		first.Resources = resources
		first.Status = models.PermissionActive
		first.GrantedAt = now
		first.RevokedAt = nil
		first.GrantedInAppointmentID = in.AppointmentID
		if err := s.perms.Save(ctx, &first); err != nil {
			return err
		}
		granted = &first

		for i := range records[1:] {
			dup := records[i+1]
			if dup.Status != models.PermissionActive {
				continue
			}
			dup.Status = models.PermissionRevoked
			dup.RevokedAt = &now
			if err := s.perms.Save(ctx, &dup); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error("PermissionService.Grant: failed",
			zap.Uint("user_id", p.UserID), zap.Uint("consultant_user_id", in.ConsultantUserID), zap.Error(err))
		return nil, err
	}
	return granted, nil
}

// Revoke revokes every active record of the pair and returns how many changed.
func (s *PermissionService) Revoke(ctx context.Context, p models.Principal, consultantUserID uint) (int, error) {
	if consultantUserID == 0 {
		return 0, validation("consultant_user_id is required")
	}
	var revoked int
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockGrantor(ctx, p.UserID); err != nil {
			return err
		}
		records, err := s.perms.ListByPair(ctx, p.UserID, consultantUserID, true)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		for i := range records {
			rec := records[i]
			if rec.Status != models.PermissionActive {
				continue
			}
			rec.Status = models.PermissionRevoked
			rec.RevokedAt = &now
			if err := s.perms.Save(ctx, &rec); err != nil {
				return err
			}
			revoked++
		}
		return nil
	})
	return revoked, err
}

// lockGrantor serializes grant changes by one user. Locking the pair's
// permission rows is not enough: a first grant has no rows to lock.
func (s *PermissionService) lockGrantor(ctx context.Context, userID uint) error {
	_, err := s.users.FindByIDForUpdate(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("User not found")
	}
	return err
}

func (s *PermissionService) ListMine(ctx context.Context, p models.Principal) ([]models.Permission, error) {
	return s.perms.ListByUser(ctx, p.UserID)
}

// Authorize returns nil when the consultant holds an active grant on resource
// for userID. write additionally requires read_write scope. It always reads
// the primary store.
func (s *PermissionService) Authorize(ctx context.Context, consultantUserID, userID uint, resource models.Resource, write bool) error {
	records, err := s.perms.ListActiveByPair(ctx, userID, consultantUserID)
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].Allows(resource, write) {
			return nil
		}
	}
	return forbidden("Permission denied")
}

// SessionPermissions lists the grants between the two participants.
func (s *PermissionService) SessionPermissions(ctx context.Context, p models.Principal, appointmentID uint) ([]models.Permission, error) {
	appt, err := loadAppointment(ctx, s.appts, appointmentID, p, "Not a participant of this session")
	if err != nil {
		return nil, err
	}
	return s.perms.ListByPair(ctx, appt.UserID, appt.ConsultantUserID, false)
}

// GrantForSession lets the client grant the session's consultant access,
// linking the grant to the appointment.
func (s *PermissionService) GrantForSession(ctx context.Context, p models.Principal, appointmentID uint, scope string, resources []string) (*models.Permission, error) {
	appt, err := loadAppointment(ctx, s.appts, appointmentID, p, "Not a participant of this session")
	if err != nil {
		return nil, err
	}
	if appt.UserID != p.UserID {
		return nil, forbidden("Only the client can grant permissions for this session")
	}
	return s.Grant(ctx, p, GrantInput{
		ConsultantUserID: appt.ConsultantUserID,
		Scope:            scope,
		Resources:        resources,
		AppointmentID:    &appt.ID,
	})
}
