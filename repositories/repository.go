package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/meinhoongagan/healthcoach-api/models"
)

// ErrNotFound is returned by every repository when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Transactor runs fn inside a database transaction. Repository calls made with
// the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	// FindByIDForUpdate locks the user row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint) (*models.User, error)
	// FindByIdentifier matches either username or email.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID uint) (bool, error)
	Update(ctx context.Context, user *models.User) error
}

type IApplicationRepository interface {
	Create(ctx context.Context, app *models.AppointmentApplication) error
	FindByID(ctx context.Context, id uint) (*models.AppointmentApplication, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint) (*models.AppointmentApplication, error)
	ListByUser(ctx context.Context, userID uint) ([]models.AppointmentApplication, error)
	ListByConsultant(ctx context.Context, consultantUserID uint) ([]models.AppointmentApplication, error)
	UpdateStatus(ctx context.Context, id uint, status models.ApplicationStatus) error
}

type IAppointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	FindByID(ctx context.Context, id uint) (*models.Appointment, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Appointment, error)
	ListByConsultant(ctx context.Context, consultantUserID uint) ([]models.Appointment, error)
	// HasOverlap reports whether the consultant has a scheduled appointment intersecting [start, end).
	HasOverlap(ctx context.Context, consultantUserID uint, start, end time.Time) (bool, error)
	// CompareAndSwapStatus moves from -> to and reports whether a row changed.
	CompareAndSwapStatus(ctx context.Context, id uint, from, to models.AppointmentStatus) (bool, error)
	ListScheduledStartingBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	// ListScheduledWithRoomStatus joins rooms in the given status. A zero
	// endedBefore disables the window filter.
	ListScheduledWithRoomStatus(ctx context.Context, status models.RoomStatus, endedBefore time.Time) ([]models.Appointment, error)
}

type IRoomRepository interface {
	Create(ctx context.Context, room *models.SessionRoom) error
	FindByID(ctx context.Context, id uint) (*models.SessionRoom, error)
	FindByAppointmentID(ctx context.Context, appointmentID uint) (*models.SessionRoom, error)
	// CompareAndSwapStatus moves the room from -> to, stamping the actor, and
	// reports whether the swap won.
	CompareAndSwapStatus(ctx context.Context, id uint, from, to models.RoomStatus, actorID uint, at time.Time) (bool, error)
}

type IMessageRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	// List returns messages in ascending order. With afterID == 0 it returns the
	// latest limit messages; otherwise the first limit messages after afterID.
	List(ctx context.Context, roomID, afterID uint, limit int) ([]models.ChatMessage, error)
}

type INoteRepository interface {
	FindByAppointmentID(ctx context.Context, appointmentID uint) (*models.SessionNote, error)
	Upsert(ctx context.Context, note *models.SessionNote) error
}

type IPermissionRepository interface {
	Create(ctx context.Context, p *models.Permission) error
	Save(ctx context.Context, p *models.Permission) error
	// ListByPair returns every record for the pair ordered by id. forUpdate locks them.
	ListByPair(ctx context.Context, userID, consultantUserID uint, forUpdate bool) ([]models.Permission, error)
	ListActiveByPair(ctx context.Context, userID, consultantUserID uint) ([]models.Permission, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Permission, error)
}

type IHealthRepository interface {
	FindUserData(ctx context.Context, userID uint) (*models.UserData, error)
	SaveUserData(ctx context.Context, d *models.UserData) error
	FindGoal(ctx context.Context, userID uint) (*models.Goal, error)
	SaveGoal(ctx context.Context, g *models.Goal) error
	DeleteGoal(ctx context.Context, userID uint) error
	FindNutritionTarget(ctx context.Context, userID uint) (*models.NutritionTarget, error)
	SaveNutritionTarget(ctx context.Context, t *models.NutritionTarget) error
}

type IAuditRepository interface {
	Create(ctx context.Context, entry *models.UserHealthChangeAudit) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.UserHealthChangeAudit, error)
}

// ConsultantSearch filters the public directory.
type ConsultantSearch struct {
	Query        string
	VerifiedOnly bool
	Limit        int
	Offset       int
}

type IConsultantRepository interface {
	FindProfileByID(ctx context.Context, id uint) (*models.ConsultantProfile, error)
	FindProfileByUserID(ctx context.Context, userID uint) (*models.ConsultantProfile, error)
	SaveProfile(ctx context.Context, p *models.ConsultantProfile) error
	Search(ctx context.Context, params ConsultantSearch) ([]models.ConsultantProfile, error)
	ListDocuments(ctx context.Context, profileID uint) ([]models.ConsultantDocument, error)
	FindDocument(ctx context.Context, id uint) (*models.ConsultantDocument, error)
	CreateDocument(ctx context.Context, doc *models.ConsultantDocument) error
	DeleteDocument(ctx context.Context, id uint) error
}
