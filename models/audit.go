package models

import "time"

type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// UserHealthChangeAudit records a consultant's write to a client's health data.
type UserHealthChangeAudit struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	UserID          uint        `json:"user_id" gorm:"index;not null"`
	ChangedByUserID uint        `json:"changed_by_user_id" gorm:"index;not null"`
	Resource        Resource    `json:"resource" gorm:"type:varchar(30);index;not null"`
	Action          AuditAction `json:"action" gorm:"type:varchar(10);index;not null"`
	BeforeJSON      *string     `json:"before_json" gorm:"type:text"`
	AfterJSON       *string     `json:"after_json" gorm:"type:text"`
	AppointmentID   *uint       `json:"appointment_id" gorm:"index"`
	CreatedAt       time.Time   `json:"created_at" gorm:"index"`
}

func (UserHealthChangeAudit) TableName() string { return "user_health_change_audit" }
