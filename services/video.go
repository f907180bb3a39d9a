package services

import (
	"context"
	"time"

	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"github.com/meinhoongagan/healthcoach-api/utils"
)

type VideoService struct {
	appts  repositories.IAppointmentRepository
	rooms  repositories.IRoomRepository
	issuer *utils.VideoTokenIssuer
	now    func() time.Time
}

// NewVideoService returns a service that refuses joins when issuer is nil.
func NewVideoService(appts repositories.IAppointmentRepository, rooms repositories.IRoomRepository, issuer *utils.VideoTokenIssuer) *VideoService {
	return &VideoService{appts: appts, rooms: rooms, issuer: issuer, now: time.Now}
}

// Join issues a video credential while the session room is active.
func (s *VideoService) Join(ctx context.Context, p models.Principal, appointmentID uint) (*utils.VideoGrant, error) {
	appt, err := loadAppointment(ctx, s.appts, appointmentID, p, "You are not allowed in this session")
	if err != nil {
		return nil, err
	}
	room, err := ensureRoom(ctx, s.rooms, appt.ID)
	if err != nil {
		return nil, err
	}
	switch room.Status {
	case models.RoomEnded:
		return nil, forbidden("Session has ended")
	case models.RoomNotStarted:
		return nil, forbidden("Session not started")
	}
	if s.issuer == nil {
		return nil, unavailable("Video is not configured")
	}
	grant, err := s.issuer.Issue(appt.ID, p.UserID, s.now())
	if err != nil {
		return nil, validation("%s", err.Error())
	}
	return grant, nil
}
