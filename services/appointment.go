package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"go.uber.org/zap"
)

// reminderWindow is the half-width of the window a reminder tick scans.
const reminderWindow = 5 * time.Minute

type AppointmentService struct {
	tx             repositories.Transactor
	users          repositories.IUserRepository
	apps           repositories.IApplicationRepository
	appts          repositories.IAppointmentRepository
	rooms          repositories.IRoomRepository
	notifier       *Notifier
	enforceOverlap bool
	noShowGrace    time.Duration
	now            func() time.Time
}

type AppointmentOptions struct {
	EnforceOverlap bool
	NoShowGrace    time.Duration
}

func NewAppointmentService(
	tx repositories.Transactor,
	users repositories.IUserRepository,
	apps repositories.IApplicationRepository,
	appts repositories.IAppointmentRepository,
	rooms repositories.IRoomRepository,
	notifier *Notifier,
	opts AppointmentOptions,
) *AppointmentService {
	return &AppointmentService{
		tx:             tx,
		users:          users,
		apps:           apps,
		appts:          appts,
		rooms:          rooms,
		notifier:       notifier,
		enforceOverlap: opts.EnforceOverlap,
		noShowGrace:    opts.NoShowGrace,
		now:            time.Now,
	}
}

// AppointmentView adds the clock-derived session label to an appointment.
type AppointmentView struct {
	models.Appointment
	SessionLabel models.SessionLabel `json:"session_label"`
	CanJoin      bool                `json:"can_join"`
}

func (s *AppointmentService) Submit(ctx context.Context, p models.Principal, consultantUserID uint, note *string) (*models.AppointmentApplication, error) {
	if consultantUserID == 0 {
		return nil, validation("consultant_user_id is required")
	}
	if consultantUserID == p.UserID {
		return nil, validation("You cannot apply to yourself")
	}
	if _, err := ensureConsultant(ctx, s.users, consultantUserID); err != nil {
		return nil, err
	}

	app := &models.AppointmentApplication{
		UserID:           p.UserID,
		ConsultantUserID: consultantUserID,
		Status:           models.ApplicationSubmitted,
	}
	if note != nil {
		if trimmed := strings.TrimSpace(*note); trimmed != "" {
			app.NoteFromUser = &trimmed
		}
	}
	if err := s.apps.Create(ctx, app); err != nil {
		logger.Log.Error("AppointmentService.Submit: create failed", zap.Uint("user_id", p.UserID), zap.Error(err))
		return nil, err
	}

	s.notifier.ApplicationSubmitted(ctx, app)
	return app, nil
}

func (s *AppointmentService) ListMyApplications(ctx context.Context, p models.Principal) ([]models.AppointmentApplication, error) {
	return s.apps.ListByUser(ctx, p.UserID)
}

func (s *AppointmentService) ListConsultantApplications(ctx context.Context, p models.Principal) ([]models.AppointmentApplication, error) {
	if err := requireConsultant(p); err != nil {
		return nil, err
	}
	return s.apps.ListByConsultant(ctx, p.UserID)
}

// Accept schedules the application. The application row stays locked for
// the whole transaction so a concurrent accept or reject sees the new state.
func (s *AppointmentService) Accept(ctx context.Context, p models.Principal, applicationID uint, start, end time.Time) (*models.Appointment, error) {
	var appt *models.Appointment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		app, err := s.lockOwned(ctx, p, applicationID, models.ApplicationAccepted)
		if err != nil {
			return err
		}
		if start.IsZero() || end.IsZero() {
			return validation("scheduled_start_at and scheduled_end_at are required")
		}
		if !end.After(start) {
			return validation("scheduled_end_at must be after scheduled_start_at")
		}
		if s.enforceOverlap {
			busy, err := s.appts.HasOverlap(ctx, p.UserID, start, end)
			if err != nil {
				return err
			}
			if busy {
				return conflict("Consultant already has an appointment in this time window")
			}
		}

		appt = &models.Appointment{
			ApplicationID:    &app.ID,
			UserID:           app.UserID,
			ConsultantUserID: app.ConsultantUserID,
			ScheduledStartAt: start.UTC(),
			ScheduledEndAt:   end.UTC(),
			Status:           models.StatusScheduled,
		}
		if err := s.appts.Create(ctx, appt); err != nil {
			return err
		}
		if err := s.rooms.Create(ctx, &models.SessionRoom{AppointmentID: appt.ID, Status: models.RoomNotStarted}); err != nil {
			return err
		}
		return s.apps.UpdateStatus(ctx, app.ID, models.ApplicationAccepted)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Application accepted",
		zap.Uint("application_id", applicationID), zap.Uint("appointment_id", appt.ID))
	s.notifier.ApplicationAccepted(ctx, appt)
	return appt, nil
}

func (s *AppointmentService) Reject(ctx context.Context, p models.Principal, applicationID uint) (*models.AppointmentApplication, error) {
	var app *models.AppointmentApplication
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		app, err = s.lockOwned(ctx, p, applicationID, models.ApplicationRejected)
		if err != nil {
			return err
		}
		if err := s.apps.UpdateStatus(ctx, app.ID, models.ApplicationRejected); err != nil {
			return err
		}
		app.Status = models.ApplicationRejected
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.ApplicationRejected(ctx, app)
	return app, nil
}

// Cancel withdraws a submitted application. Only its author may do so.
func (s *AppointmentService) Cancel(ctx context.Context, p models.Principal, applicationID uint) (*models.AppointmentApplication, error) {
	var app *models.AppointmentApplication
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		app, err = s.apps.FindByIDForUpdate(ctx, applicationID)
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Application not found")
		}
		if err != nil {
			return err
		}
		if app.UserID != p.UserID {
			return forbidden("Not your application")
		}
		if app.CanTransition(models.ApplicationCancelled) != nil {
			return conflict("Application is not in submitted state")
		}
		if err := s.apps.UpdateStatus(ctx, app.ID, models.ApplicationCancelled); err != nil {
			return err
		}
		app.Status = models.ApplicationCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// lockOwned locks the application and checks the consultant may move it to next.
func (s *AppointmentService) lockOwned(ctx context.Context, p models.Principal, applicationID uint, next models.ApplicationStatus) (*models.AppointmentApplication, error) {
	app, err := s.apps.FindByIDForUpdate(ctx, applicationID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("Application not found")
	}
	if err != nil {
		return nil, err
	}
	if app.ConsultantUserID != p.UserID {
		return nil, forbidden("Not your application")
	}
	if app.CanTransition(next) != nil {
		return nil, conflict("Application is not in submitted state")
	}
	return app, nil
}

func (s *AppointmentService) ListMyAppointments(ctx context.Context, p models.Principal) ([]AppointmentView, error) {
	appts, err := s.appts.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.views(appts), nil
}

func (s *AppointmentService) ListConsultantAppointments(ctx context.Context, p models.Principal) ([]AppointmentView, error) {
	if err := requireConsultant(p); err != nil {
		return nil, err
	}
	appts, err := s.appts.ListByConsultant(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.views(appts), nil
}

func (s *AppointmentService) views(appts []models.Appointment) []AppointmentView {
	now := s.now()
	out := make([]AppointmentView, 0, len(appts))
	for _, a := range appts {
		label := models.DeriveSessionLabel(a.Status, a.ScheduledStartAt, a.ScheduledEndAt, now)
		out = append(out, AppointmentView{Appointment: a, SessionLabel: label, CanJoin: label.CanJoin()})
	}
	return out
}

// Room returns the appointment's room. The client may only see it once the
// consultant has started the session.
func (s *AppointmentService) Room(ctx context.Context, p models.Principal, appointmentID uint) (*models.SessionRoom, error) {
	appt, err := loadAppointment(ctx, s.appts, appointmentID, p, "Not a participant of this session")
	if err != nil {
		return nil, err
	}
	room, err := ensureRoom(ctx, s.rooms, appt.ID)
	if err != nil {
		return nil, err
	}
	if p.UserID != appt.ConsultantUserID && room.Status == models.RoomNotStarted {
		return nil, forbidden("Session not started")
	}
	return room, nil
}

// DueForReminder lists scheduled appointments starting around now+lead.
func (s *AppointmentService) DueForReminder(ctx context.Context, now time.Time, lead time.Duration) ([]models.Appointment, error) {
	center := now.Add(lead)
	return s.appts.ListScheduledStartingBetween(ctx, center.Add(-reminderWindow), center.Add(reminderWindow))
}

type ReconcileResult struct {
	Completed int
	NoShow    int
}

// Reconcile closes out scheduled appointments whose room has ended, and
// marks as no_show those whose window passed without the room starting.
func (s *AppointmentService) Reconcile(ctx context.Context, now time.Time) (ReconcileResult, error) {
	var res ReconcileResult

	ended, err := s.appts.ListScheduledWithRoomStatus(ctx, models.RoomEnded, time.Time{})
	if err != nil {
		return res, err
	}
	for _, a := range ended {
		if a.CanTransition(models.StatusCompleted) != nil {
			continue
		}
		ok, err := s.appts.CompareAndSwapStatus(ctx, a.ID, models.StatusScheduled, models.StatusCompleted)
		if err != nil {
			return res, err
		}
		if ok {
			res.Completed++
		}
	}

	missed, err := s.appts.ListScheduledWithRoomStatus(ctx, models.RoomNotStarted, now.Add(-s.noShowGrace))
	if err != nil {
		return res, err
	}
	for _, a := range missed {
		if a.CanTransition(models.StatusNoShow) != nil {
			continue
		}
		ok, err := s.appts.CompareAndSwapStatus(ctx, a.ID, models.StatusScheduled, models.StatusNoShow)
		if err != nil {
			return res, err
		}
		if ok {
			res.NoShow++
		}
	}
	return res, nil
}
