package services

import (
	"context"
	"testing"
	"time"

	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/utils"
	"github.com/stretchr/testify/require"
)

var (
	windowStart = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC)
)

type harness struct {
	store  *memStore
	mailer *recordingMailer
	events *recordingEvents
	docs   *memDocumentStore

	auth         *AuthService
	appointments *AppointmentService
	sessions     *SessionService
	permissions  *PermissionService
	health       *HealthService
	clientData   *ClientDataService
	consultants  *ConsultantService
	video        *VideoService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := newMemStore()
	h := &harness{
		store:  s,
		mailer: &recordingMailer{},
		events: &recordingEvents{},
		docs:   &memDocumentStore{},
	}
	tx := fakeTx{s}
	users := fakeUsers{s}
	appts := fakeAppts{s}
	rooms := fakeRooms{s}

	notifier := NewNotifier(h.mailer, users, "UTC")
	h.auth = NewAuthService(users, utils.NewTokenManager("test-secret", 10*time.Minute, 7*24*time.Hour))
	h.appointments = NewAppointmentService(tx, users, fakeApps{s}, appts, rooms, notifier,
		AppointmentOptions{EnforceOverlap: true, NoShowGrace: 30 * time.Minute})
	h.sessions = NewSessionService(appts, rooms, fakeMessages{s}, fakeNotes{s}, h.events)
	h.permissions = NewPermissionService(tx, users, fakePerms{s}, appts)
	h.health = NewHealthService(fakeHealth{s}, fakeAudits{s})
	h.clientData = NewClientDataService(tx, fakeHealth{s}, fakeAudits{s}, appts, h.permissions)
	h.consultants = NewConsultantService(fakeConsultants{s}, h.docs, "health-docs")
	h.video = NewVideoService(appts, rooms, utils.NewVideoTokenIssuer("app-1", "video-secret", 2400*time.Second))
	return h
}

func (h *harness) user(t *testing.T, name string, typ models.UserType) models.Principal {
	t.Helper()
	u, err := h.auth.Register(context.Background(), RegisterInput{
		Username: &name,
		Email:    name + "@example.com",
		Password: "password123",
		UserType: typ,
	})
	require.NoError(t, err)
	return models.Principal{UserID: u.ID, UserType: u.UserType}
}

// scheduled submits and accepts an application for the standard test window.
func (h *harness) scheduled(t *testing.T, user, consultant models.Principal) *models.Appointment {
	t.Helper()
	ctx := context.Background()
	app, err := h.appointments.Submit(ctx, user, consultant.UserID, nil)
	require.NoError(t, err)
	appt, err := h.appointments.Accept(ctx, consultant, app.ID, windowStart, windowEnd)
	require.NoError(t, err)
	return appt
}

// active returns an appointment whose room the consultant has started.
func (h *harness) active(t *testing.T, user, consultant models.Principal) (*models.Appointment, *models.SessionRoom) {
	t.Helper()
	appt := h.scheduled(t, user, consultant)
	room, err := h.sessions.Start(context.Background(), consultant, appt.ID)
	require.NoError(t, err)
	return appt, room
}

func ptr[T any](v T) *T { return &v }
