package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meinhoongagan/healthcoach-api/cache"
	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"go.uber.org/zap"
)

const (
	MaxMessageLength    = 4000
	DefaultMessageLimit = 200
	MaxMessageLimit     = 500
)

// RoomEventStream publishes chat events and lets participants follow them.
type RoomEventStream interface {
	PublishMessage(ctx context.Context, msg *models.ChatMessage) error
	Subscribe(ctx context.Context, roomID uint) (<-chan cache.RoomEvent, error)
}

type SessionService struct {
	appts    repositories.IAppointmentRepository
	rooms    repositories.IRoomRepository
	messages repositories.IMessageRepository
	notes    repositories.INoteRepository
	events   RoomEventStream
	now      func() time.Time
}

func NewSessionService(
	appts repositories.IAppointmentRepository,
	rooms repositories.IRoomRepository,
	messages repositories.IMessageRepository,
	notes repositories.INoteRepository,
	events RoomEventStream,
) *SessionService {
	return &SessionService{
		appts:    appts,
		rooms:    rooms,
		messages: messages,
		notes:    notes,
		events:   events,
		now:      time.Now,
	}
}

// Start moves the room from not_started to active.
func (s *SessionService) Start(ctx context.Context, p models.Principal, appointmentID uint) (*models.SessionRoom, error) {
	appt, room, err := s.consultantRoom(ctx, p, appointmentID, "Only consultant can start the session")
	if err != nil {
		return nil, err
	}
	// A room whose appointment can no longer complete must stay closed.
	if appt.CanTransition(models.StatusCompleted) != nil {
		return nil, conflict("Appointment is " + string(appt.Status))
	}
	if models.CanTransitionRoom(room.Status, models.RoomActive) != nil {
		return nil, startConflict(room.Status)
	}

	ok, err := s.rooms.CompareAndSwapStatus(ctx, room.ID, models.RoomNotStarted, models.RoomActive, p.UserID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	current, err := s.rooms.FindByID(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, startConflict(current.Status)
	}
	logger.Log.Info("Session started", zap.Uint("appointment_id", appt.ID), zap.Uint("room_id", room.ID))
	return current, nil
}

// End closes an active room. An ended room never reopens.
func (s *SessionService) End(ctx context.Context, p models.Principal, appointmentID uint) (*models.SessionRoom, error) {
	appt, room, err := s.consultantRoom(ctx, p, appointmentID, "Only consultant can end the session")
	if err != nil {
		return nil, err
	}
	if models.CanTransitionRoom(room.Status, models.RoomEnded) != nil {
		return nil, conflict("Session is not active")
	}
	ok, err := s.rooms.CompareAndSwapStatus(ctx, room.ID, models.RoomActive, models.RoomEnded, p.UserID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflict("Session is not active")
	}
	logger.Log.Info("Session ended", zap.Uint("appointment_id", appt.ID), zap.Uint("room_id", room.ID))
	return s.rooms.FindByID(ctx, room.ID)
}

func startConflict(status models.RoomStatus) error {
	if status == models.RoomEnded {
		return conflict("Session has ended")
	}
	return conflict("Session already started")
}

func (s *SessionService) consultantRoom(ctx context.Context, p models.Principal, appointmentID uint, denied string) (*models.Appointment, *models.SessionRoom, error) {
	appt, err := loadAppointment(ctx, s.appts, appointmentID, p, denied)
	if err != nil {
		return nil, nil, err
	}
	if appt.ConsultantUserID != p.UserID {
		return nil, nil, forbidden(denied)
	}
	room, err := ensureRoom(ctx, s.rooms, appt.ID)
	if err != nil {
		return nil, nil, err
	}
	return appt, room, nil
}

// participantRoom loads a room by id and checks p takes part in its appointment.
func (s *SessionService) participantRoom(ctx context.Context, p models.Principal, roomID uint) (*models.SessionRoom, *models.Appointment, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, notFound("Room not found")
	}
	if err != nil {
		return nil, nil, err
	}
	appt, err := loadAppointment(ctx, s.appts, room.AppointmentID, p, "Not a participant of this session")
	if err != nil {
		return nil, nil, err
	}
	return room, appt, nil
}

func (s *SessionService) PostMessage(ctx context.Context, p models.Principal, roomID uint, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validation("Message cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, validation("Message too long (max %d characters)", MaxMessageLength)
	}

	room, _, err := s.participantRoom(ctx, p, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomActive {
		return nil, conflict("Session is not active")
	}

	msg := &models.ChatMessage{
		RoomID:       room.ID,
		SenderUserID: p.UserID,
		Message:      text,
		SentAt:       s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		logger.Log.Error("SessionService.PostMessage: insert failed", zap.Uint("room_id", room.ID), zap.Error(err))
		return nil, err
	}

	if err := s.events.PublishMessage(ctx, msg); err != nil {
		logger.Log.Warn("SessionService.PostMessage: publish failed", zap.Uint("room_id", room.ID), zap.Error(err))
	}
	return msg, nil
}

// ListMessages returns up to limit messages in id order. With afterID set it
// returns only newer messages, for incremental polling.
func (s *SessionService) ListMessages(ctx context.Context, p models.Principal, roomID, afterID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	room, _, err := s.participantRoom(ctx, p, roomID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.List(ctx, room.ID, afterID, limit)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}

// Follow streams new room events to a participant until ctx ends.
func (s *SessionService) Follow(ctx context.Context, p models.Principal, roomID uint) (<-chan cache.RoomEvent, error) {
	room, _, err := s.participantRoom(ctx, p, roomID)
	if err != nil {
		return nil, err
	}
	ch, err := s.events.Subscribe(ctx, room.ID)
	if errors.Is(err, cache.ErrRealtimeDisabled) {
		return nil, unavailable("Realtime events are not enabled")
	}
	return ch, err
}

func (s *SessionService) UpsertNote(ctx context.Context, p models.Principal, appointmentID uint, text string, visible bool) (*models.SessionNote, error) {
	_, room, err := s.consultantRoom(ctx, p, appointmentID, "Only consultant can write session note")
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validation("Note cannot be empty")
	}
	if room.Status != models.RoomActive {
		return nil, conflict("Session is not active")
	}

	note := &models.SessionNote{
		AppointmentID:   appointmentID,
		CreatedByUserID: p.UserID,
		Note:            text,
		IsVisibleToUser: visible,
	}
	if err := s.notes.Upsert(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *SessionService) GetNote(ctx context.Context, p models.Principal, appointmentID uint) (*models.SessionNote, error) {
	appt, err := loadAppointment(ctx, s.appts, appointmentID, p, "Not a participant of this session")
	if err != nil {
		return nil, err
	}
	note, err := s.notes.FindByAppointmentID(ctx, appt.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("Note not found")
	}
	if err != nil {
		return nil, err
	}
	if !note.VisibleTo(appt, p.UserID) {
		return nil, forbidden("Note not visible to user")
	}
	return note, nil
}
