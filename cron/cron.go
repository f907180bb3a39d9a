package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/services"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	everyMinute = "* * * * *"
	leaseTTL    = 55 * time.Second
	// reminded keys outlive the scan window so one appointment is mailed once.
	remindedTTL = 2 * time.Hour
)

type AppointmentJobs interface {
	DueForReminder(ctx context.Context, now time.Time, lead time.Duration) ([]models.Appointment, error)
	Reconcile(ctx context.Context, now time.Time) (services.ReconcileResult, error)
}

type Reminder interface {
	Reminder(ctx context.Context, appt *models.Appointment) error
}

// Locker grants short leases across replicas and remembers one-shot keys.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type Scheduler struct {
	c        *cron.Cron
	jobs     AppointmentJobs
	reminder Reminder
	locker   Locker
	lead     time.Duration
	now      func() time.Time
}

func NewScheduler(jobs AppointmentJobs, reminder Reminder, locker Locker, lead time.Duration) *Scheduler {
	return &Scheduler{
		c:        cron.New(cron.WithLocation(time.UTC)),
		jobs:     jobs,
		reminder: reminder,
		locker:   locker,
		lead:     lead,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	if _, err := s.c.AddFunc(everyMinute, func() { s.run("cron:reminders", s.SendReminders) }); err != nil {
		return fmt.Errorf("failed to add reminders job: %w", err)
	}
	if _, err := s.c.AddFunc(everyMinute, func() { s.run("cron:reconcile", s.Reconcile) }); err != nil {
		return fmt.Errorf("failed to add reconcile job: %w", err)
	}
	s.c.Start()
	logger.Log.Info("Cron job scheduler started", zap.Duration("reminder_lead", s.lead))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run(lease string, job func(ctx context.Context, now time.Time) error) {
	ctx, cancel := context.WithTimeout(context.Background(), leaseTTL)
	defer cancel()

	release, ok, err := s.locker.TryLock(ctx, lease, leaseTTL)
	if err != nil {
		logger.Log.Warn("cron: lease failed", zap.String("job", lease), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	defer release()

	if err := job(ctx, s.now().UTC()); err != nil {
		logger.Log.Error("cron: job failed", zap.String("job", lease), zap.Error(err))
	}
}

// SendReminders mails each due appointment once.
func (s *Scheduler) SendReminders(ctx context.Context, now time.Time) error {
	due, err := s.jobs.DueForReminder(ctx, now, s.lead)
	if err != nil {
		return err
	}
	for i := range due {
		appt := &due[i]
		first, err := s.locker.MarkOnce(ctx, fmt.Sprintf("reminded:%d", appt.ID), remindedTTL)
		if err != nil {
			return err
		}
		if !first {
			continue
		}
		if err := s.reminder.Reminder(ctx, appt); err != nil {
			logger.Log.Warn("cron: reminder failed", zap.Uint("appointment_id", appt.ID), zap.Error(err))
			continue
		}
		logger.Log.Info("Sent reminder", zap.Uint("appointment_id", appt.ID))
	}
	return nil
}

func (s *Scheduler) Reconcile(ctx context.Context, now time.Time) error {
	res, err := s.jobs.Reconcile(ctx, now)
	if err != nil {
		return err
	}
	if res.Completed > 0 || res.NoShow > 0 {
		logger.Log.Info("Reconciled appointments", zap.Int("completed", res.Completed), zap.Int("no_show", res.NoShow))
	}
	return nil
}
