package services

import (
	"context"
	"errors"

	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
)

// loadAppointment fetches the appointment and requires p to take part in it.
func loadAppointment(ctx context.Context, appts repositories.IAppointmentRepository, id uint, p models.Principal, denied string) (*models.Appointment, error) {
	appt, err := appts.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("Appointment not found")
	}
	if err != nil {
		return nil, err
	}
	if !appt.IsParticipant(p.UserID) {
		return nil, forbidden(denied)
	}
	return appt, nil
}

// ensureRoom returns the appointment's room, creating it lazily in not_started.
func ensureRoom(ctx context.Context, rooms repositories.IRoomRepository, appointmentID uint) (*models.SessionRoom, error) {
	room, err := rooms.FindByAppointmentID(ctx, appointmentID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	room = &models.SessionRoom{AppointmentID: appointmentID, Status: models.RoomNotStarted}
	if err := rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func ensureConsultant(ctx context.Context, users repositories.IUserRepository, userID uint) (*models.User, error) {
	u, err := users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("Consultant not found")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsConsultant() {
		return nil, validation("Target user is not a consultant")
	}
	return u, nil
}

func requireConsultant(p models.Principal) error {
	if !p.IsConsultant() {
		return forbidden("Consultant access required")
	}
	return nil
}
