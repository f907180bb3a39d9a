package repositories

import (
	"context"
	"time"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts the room, or loads the existing one on a unique conflict.
func (r *RoomRepository) Create(ctx context.Context, room *models.SessionRoom) error {
	db := conn(ctx, r.db)
	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "appointment_id"}}, DoNothing: true}).Create(room)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(db.Where("appointment_id = ?", room.AppointmentID).First(room).Error)
	}
	return nil
}

func (r *RoomRepository) FindByID(ctx context.Context, id uint) (*models.SessionRoom, error) {
	var room models.SessionRoom
	if err := conn(ctx, r.db).First(&room, id).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (r *RoomRepository) FindByAppointmentID(ctx context.Context, appointmentID uint) (*models.SessionRoom, error) {
	var room models.SessionRoom
	if err := conn(ctx, r.db).Where("appointment_id = ?", appointmentID).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (r *RoomRepository) CompareAndSwapStatus(ctx context.Context, id uint, from, to models.RoomStatus, actorID uint, at time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to, "updated_at": at}
	switch to {
	case models.RoomActive:
		updates["started_at"] = at
		updates["started_by_user_id"] = actorID
	case models.RoomEnded:
		updates["ended_at"] = at
		updates["ended_by_user_id"] = actorID
	}

	res := conn(ctx, r.db).Model(&models.SessionRoom{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		logger.Log.Error("RoomRepository.CompareAndSwapStatus: DB error",
			zap.Uint("room_id", id), zap.String("to", string(to)), zap.Error(res.Error))
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	return conn(ctx, r.db).Create(msg).Error
}

// List orders by id, the room's server-assigned sequence. sent_at comes from
// the app clock and may disagree with id when senders race.
func (r *MessageRepository) List(ctx context.Context, roomID, afterID uint, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	q := conn(ctx, r.db).Where("room_id = ?", roomID)

	if afterID > 0 {
		err := q.Where("id > ?", afterID).
			Order("id asc").
			Limit(limit).
			Find(&msgs).Error
		return msgs, err
	}

	// Latest page, fetched newest first then reversed.
	if err := q.Order("id desc").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) FindByAppointmentID(ctx context.Context, appointmentID uint) (*models.SessionNote, error) {
	var note models.SessionNote
	if err := conn(ctx, r.db).Where("appointment_id = ?", appointmentID).First(&note).Error; err != nil {
		return nil, translate(err)
	}
	return &note, nil
}

// Upsert overwrites the single note of the appointment.
func (r *NoteRepository) Upsert(ctx context.Context, note *models.SessionNote) error {
	db := conn(ctx, r.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "appointment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"note", "is_visible_to_user", "created_by_user_id", "updated_at"}),
	}).Create(note).Error
	if err != nil {
		return err
	}
	return db.Where("appointment_id = ?", note.AppointmentID).First(note).Error
}
