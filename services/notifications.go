package services

import (
	"context"
	"fmt"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"github.com/meinhoongagan/healthcoach-api/utils"
	"go.uber.org/zap"
)

// Notifier emails appointment events to the people involved. Failures are
// logged, never returned to the request that triggered them.
type Notifier struct {
	mailer utils.Mailer
	users  repositories.IUserRepository
	zone   string
}

func NewNotifier(mailer utils.Mailer, users repositories.IUserRepository, zone string) *Notifier {
	return &Notifier{mailer: mailer, users: users, zone: zone}
}

func displayName(u *models.User) string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Username
}

func (n *Notifier) ApplicationSubmitted(ctx context.Context, app *models.AppointmentApplication) {
	user, consultant, ok := n.pair(ctx, app.UserID, app.ConsultantUserID)
	if !ok {
		return
	}
	note := "(no note)"
	if app.NoteFromUser != nil {
		note = *app.NoteFromUser
	}
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>%s has requested a consultation with you.</p>
		<p><strong>Their note:</strong> %s</p>
		<p>Open your dashboard to accept or reject the request.</p>
	`, displayName(consultant), displayName(user), note)
	n.send(consultant.Email, "New consultation request", body, zap.Uint("application_id", app.ID))
}

func (n *Notifier) ApplicationAccepted(ctx context.Context, appt *models.Appointment) {
	user, consultant, ok := n.pair(ctx, appt.UserID, appt.ConsultantUserID)
	if !ok {
		return
	}
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>%s accepted your consultation request.</p>
		<ul>
			<li><strong>Start:</strong> %s</li>
			<li><strong>End:</strong> %s</li>
		</ul>
	`, displayName(user), displayName(consultant),
		utils.FormatForMail(appt.ScheduledStartAt, n.zone),
		utils.FormatForMail(appt.ScheduledEndAt, n.zone))
	n.send(user.Email, "Your consultation is scheduled", body, zap.Uint("appointment_id", appt.ID))
}

func (n *Notifier) ApplicationRejected(ctx context.Context, app *models.AppointmentApplication) {
	user, consultant, ok := n.pair(ctx, app.UserID, app.ConsultantUserID)
	if !ok {
		return
	}
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>%s is unable to take your consultation request at this time.</p>
		<p>You can browse other consultants and apply again.</p>
	`, displayName(user), displayName(consultant))
	n.send(user.Email, "Update on your consultation request", body, zap.Uint("application_id", app.ID))
}

// Reminder mails both participants. It returns an error only when no mail went out.
func (n *Notifier) Reminder(ctx context.Context, appt *models.Appointment) error {
	user, consultant, ok := n.pair(ctx, appt.UserID, appt.ConsultantUserID)
	if !ok {
		return fmt.Errorf("participants of appointment %d not found", appt.ID)
	}
	start := utils.FormatForMail(appt.ScheduledStartAt, n.zone)
	end := utils.FormatForMail(appt.ScheduledEndAt, n.zone)

	var sent int
	for _, to := range []struct {
		recipient, other *models.User
	}{{user, consultant}, {consultant, user}} {
		body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder of your upcoming session with %s.</p>
		<ul>
			<li><strong>Start:</strong> %s</li>
			<li><strong>End:</strong> %s</li>
		</ul>
		<p>Join from the app a few minutes early.</p>
	`, displayName(to.recipient), displayName(to.other), start, end)
		if err := n.mailer.Send(to.recipient.Email, "Reminder: upcoming session", body); err != nil {
			logger.Log.Warn("Notifier.Reminder: send failed",
				zap.Uint("appointment_id", appt.ID), zap.String("to", to.recipient.Email), zap.Error(err))
			continue
		}
		sent++
	}
	if sent == 0 {
		return fmt.Errorf("no reminder delivered for appointment %d", appt.ID)
	}
	return nil
}

func (n *Notifier) pair(ctx context.Context, userID, consultantID uint) (*models.User, *models.User, bool) {
	user, err := n.users.FindByID(ctx, userID)
	if err != nil {
		logger.Log.Warn("Notifier: user lookup failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, nil, false
	}
	consultant, err := n.users.FindByID(ctx, consultantID)
	if err != nil {
		logger.Log.Warn("Notifier: consultant lookup failed", zap.Uint("user_id", consultantID), zap.Error(err))
		return nil, nil, false
	}
	return user, consultant, true
}

func (n *Notifier) send(to, subject, body string, field zap.Field) {
	if err := n.mailer.Send(to, subject, body); err != nil {
		logger.Log.Warn("Notifier: send failed", field, zap.String("to", to), zap.Error(err))
	}
}
