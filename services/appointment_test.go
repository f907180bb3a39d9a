package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	other := h.user(t, "bob", models.UserTypeUser)

	_, err := h.appointments.Submit(ctx, user, 999, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Consultant not found")

	_, err = h.appointments.Submit(ctx, user, other.UserID, nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "Target user is not a consultant")

	_, err = h.appointments.Submit(ctx, user, user.UserID, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmit_NotifiesConsultant(t *testing.T) {
	h := newHarness(t)
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	app, err := h.appointments.Submit(context.Background(), user, coach.UserID, ptr("  need help  "))
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationSubmitted, app.Status)
	require.NotNil(t, app.NoteFromUser)
	assert.Equal(t, "need help", *app.NoteFromUser)
	assert.Equal(t, []string{"coach@example.com|New consultation request"}, h.mailer.Sent())
}

func TestAccept_CreatesAppointmentAndRoom(t *testing.T) {
	h := newHarness(t)
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	appt := h.scheduled(t, user, coach)
	assert.Equal(t, models.StatusScheduled, appt.Status)
	assert.Equal(t, windowStart, appt.ScheduledStartAt)
	assert.Equal(t, windowEnd, appt.ScheduledEndAt)

	room, err := fakeRooms{h.store}.FindByAppointmentID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomNotStarted, room.Status)

	app, err := fakeApps{h.store}.FindByID(context.Background(), *appt.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, app.Status)
}

func TestAccept_AtMostOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	app, err := h.appointments.Submit(ctx, user, coach.UserID, nil)
	require.NoError(t, err)
	_, err = h.appointments.Accept(ctx, coach, app.ID, windowStart, windowEnd)
	require.NoError(t, err)

	_, err = h.appointments.Accept(ctx, coach, app.ID, windowStart.Add(time.Hour), windowEnd.Add(time.Hour))
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "Application is not in submitted state")

	_, err = h.appointments.Reject(ctx, coach, app.ID)
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, 1, h.store.createdAppts)
}

func TestAccept_ConcurrentSingleWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	app, err := h.appointments.Submit(ctx, user, coach.UserID, nil)
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			offset := time.Duration(i) * time.Hour
			_, errs[i] = h.appointments.Accept(ctx, coach, app.ID, windowStart.Add(offset), windowEnd.Add(offset))
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, h.store.createdAppts)
}

func TestAccept_OwnershipAndWindow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)
	rival := h.user(t, "rival", models.UserTypeConsultant)

	app, err := h.appointments.Submit(ctx, user, coach.UserID, nil)
	require.NoError(t, err)

	_, err = h.appointments.Accept(ctx, rival, app.ID, windowStart, windowEnd)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.EqualError(t, err, "Not your application")

	_, err = h.appointments.Accept(ctx, coach, app.ID, windowEnd, windowStart)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.appointments.Accept(ctx, coach, 4242, windowStart, windowEnd)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Application not found")

	assert.Equal(t, 0, h.store.createdAppts)
}

func TestAccept_RejectsOverlap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice", models.UserTypeUser)
	bob := h.user(t, "bob", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	h.scheduled(t, alice, coach)

	app, err := h.appointments.Submit(ctx, bob, coach.UserID, nil)
	require.NoError(t, err)
	_, err = h.appointments.Accept(ctx, coach, app.ID, windowStart.Add(15*time.Minute), windowEnd.Add(15*time.Minute))
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "Consultant already has an appointment in this time window")

	// Back-to-back is fine.
	_, err = h.appointments.Accept(ctx, coach, app.ID, windowEnd, windowEnd.Add(30*time.Minute))
	assert.NoError(t, err)
}

func TestRejectAndCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	app, err := h.appointments.Submit(ctx, user, coach.UserID, nil)
	require.NoError(t, err)
	rejected, err := h.appointments.Reject(ctx, coach, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, rejected.Status)

	_, err = h.appointments.Cancel(ctx, user, app.ID)
	assert.ErrorIs(t, err, ErrConflict)

	app2, err := h.appointments.Submit(ctx, user, coach.UserID, nil)
	require.NoError(t, err)
	_, err = h.appointments.Cancel(ctx, coach, app2.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	cancelled, err := h.appointments.Cancel(ctx, user, app2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationCancelled, cancelled.Status)

	mine, err := h.appointments.ListMyApplications(ctx, user)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, app2.ID, mine[0].ID, "newest first")
}

func TestListAppointments_SessionLabel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)
	h.scheduled(t, user, coach)

	h.appointments.now = func() time.Time { return windowStart.Add(10 * time.Minute) }
	views, err := h.appointments.ListMyAppointments(ctx, user)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, models.LabelActiveWindow, views[0].SessionLabel)
	assert.True(t, views[0].CanJoin)

	h.appointments.now = func() time.Time { return windowEnd.Add(time.Minute) }
	views, err = h.appointments.ListConsultantAppointments(ctx, coach)
	require.NoError(t, err)
	assert.Equal(t, models.LabelEnded, views[0].SessionLabel)
	assert.False(t, views[0].CanJoin)

	_, err = h.appointments.ListConsultantAppointments(ctx, user)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRoom_ClientWaitsForStart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)
	stranger := h.user(t, "eve", models.UserTypeUser)
	appt := h.scheduled(t, user, coach)

	_, err := h.appointments.Room(ctx, user, appt.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.EqualError(t, err, "Session not started")

	room, err := h.appointments.Room(ctx, coach, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomNotStarted, room.Status)

	_, err = h.appointments.Room(ctx, stranger, appt.ID)
	assert.EqualError(t, err, "Not a participant of this session")

	_, err = h.sessions.Start(ctx, coach, appt.ID)
	require.NoError(t, err)
	room, err = h.appointments.Room(ctx, user, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomActive, room.Status)
}

func TestReconcile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	done, _ := h.active(t, user, coach)
	_, err := h.sessions.End(ctx, coach, done.ID)
	require.NoError(t, err)

	// Second appointment a day later, never started.
	app, err := h.appointments.Submit(ctx, user, coach.UserID, nil)
	require.NoError(t, err)
	missed, err := h.appointments.Accept(ctx, coach, app.ID, windowStart.Add(24*time.Hour), windowEnd.Add(24*time.Hour))
	require.NoError(t, err)

	res, err := h.appointments.Reconcile(ctx, windowEnd.Add(24*time.Hour+10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Completed: 1, NoShow: 0}, res, "inside the grace period")

	res, err = h.appointments.Reconcile(ctx, windowEnd.Add(24*time.Hour+time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Completed: 0, NoShow: 1}, res)

	got, _ := fakeAppts{h.store}.FindByID(ctx, done.ID)
	assert.Equal(t, models.StatusCompleted, got.Status)
	got, _ = fakeAppts{h.store}.FindByID(ctx, missed.ID)
	assert.Equal(t, models.StatusNoShow, got.Status)
}

func TestDueForReminder(t *testing.T) {
	h := newHarness(t)
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)
	appt := h.scheduled(t, user, coach)

	due, err := h.appointments.DueForReminder(context.Background(), windowStart.Add(-62*time.Minute), time.Hour)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, appt.ID, due[0].ID)

	due, err = h.appointments.DueForReminder(context.Background(), windowStart.Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	assert.Empty(t, due)

	require.NoError(t, h.appointments.notifier.Reminder(context.Background(), appt))
	assert.Contains(t, h.mailer.Sent(), "alice@example.com|Reminder: upcoming session")
	assert.Contains(t, h.mailer.Sent(), "coach@example.com|Reminder: upcoming session")
}
