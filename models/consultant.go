package models

import (
	"errors"
	"strings"
	"time"
)

type ConsultantType string

const (
	ConsultantClinical    ConsultantType = "clinical"
	ConsultantNonClinical ConsultantType = "non_clinical"
	ConsultantWellness    ConsultantType = "wellness"
)

type DocumentType string

const (
	DocDegree      DocumentType = "degree"
	DocCertificate DocumentType = "certificate"
	DocLicense     DocumentType = "license"
	DocInternship  DocumentType = "internship"
	DocExperience  DocumentType = "experience"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocDegree, DocCertificate, DocLicense, DocInternship, DocExperience:
		return true
	}
	return false
}

type ConsultantProfile struct {
	ID                    uint           `json:"id" gorm:"primaryKey"`
	UserID                uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	DisplayName           string         `json:"display_name" gorm:"index;not null"`
	Bio                   *string        `json:"bio" gorm:"type:text"`
	Specialties           *string        `json:"specialties"`
	OtherInfo             *string        `json:"other_info" gorm:"type:text"`
	ConsultantType        ConsultantType `json:"consultant_type" gorm:"type:varchar(20);index;not null"`
	HighestQualification  string         `json:"highest_qualification"`
	GraduationInstitution *string        `json:"graduation_institution" gorm:"index"`
	RegistrationBody      *string        `json:"registration_body"`
	RegistrationNumber    *string        `json:"registration_number" gorm:"index"`
	SessionRate           *float64       `json:"session_rate"`
	SessionMinutes        *int           `json:"session_minutes"`
	IsVerified            bool           `json:"is_verified" gorm:"index;not null;default:false"`
	VerifiedAt            *time.Time     `json:"verified_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// ConsultantPublic is the directory view of a profile.
type ConsultantPublic struct {
	ID             uint           `json:"id"`
	UserID         uint           `json:"user_id"`
	DisplayName    string         `json:"display_name"`
	Bio            *string        `json:"bio"`
	Specialties    *string        `json:"specialties"`
	ConsultantType ConsultantType `json:"consultant_type"`
	SessionRate    *float64       `json:"session_rate"`
	SessionMinutes *int           `json:"session_minutes"`
	IsVerified     bool           `json:"is_verified"`
}

func (p *ConsultantProfile) Public() ConsultantPublic {
	return ConsultantPublic{
		ID:             p.ID,
		UserID:         p.UserID,
		DisplayName:    p.DisplayName,
		Bio:            p.Bio,
		Specialties:    p.Specialties,
		ConsultantType: p.ConsultantType,
		SessionRate:    p.SessionRate,
		SessionMinutes: p.SessionMinutes,
		IsVerified:     p.IsVerified,
	}
}

// ConsultantProfileInput is used for both full (PUT) and partial (PATCH) writes.
type ConsultantProfileInput struct {
	DisplayName           *string         `json:"display_name"`
	Bio                   *string         `json:"bio"`
	Specialties           *string         `json:"specialties"`
	OtherInfo             *string         `json:"other_info"`
	ConsultantType        *ConsultantType `json:"consultant_type"`
	HighestQualification  *string         `json:"highest_qualification"`
	GraduationInstitution *string         `json:"graduation_institution"`
	RegistrationBody      *string         `json:"registration_body"`
	RegistrationNumber    *string         `json:"registration_number"`
	SessionRate           *float64        `json:"session_rate"`
	SessionMinutes        *int            `json:"session_minutes"`
}

// Validate checks the input. full requires the fields a new profile needs.
func (in ConsultantProfileInput) Validate(full bool) error {
	if full {
		if in.DisplayName == nil || in.ConsultantType == nil || in.HighestQualification == nil {
			return errors.New("display_name, consultant_type and highest_qualification are required")
		}
	}
	if in.DisplayName != nil && strings.TrimSpace(*in.DisplayName) == "" {
		return errors.New("display_name must not be empty")
	}
	if in.ConsultantType != nil {
		switch *in.ConsultantType {
		case ConsultantClinical, ConsultantNonClinical, ConsultantWellness:
		default:
			return errors.New("consultant_type must be one of [clinical non_clinical wellness]")
		}
	}
	if in.SessionRate != nil && *in.SessionRate < 0 {
		return errors.New("session_rate must be >= 0")
	}
	if in.SessionMinutes != nil && *in.SessionMinutes <= 0 {
		return errors.New("session_minutes must be > 0")
	}
	return nil
}

func (in ConsultantProfileInput) Apply(p *ConsultantProfile) {
	if in.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.Bio != nil {
		p.Bio = in.Bio
	}
	if in.Specialties != nil {
		p.Specialties = in.Specialties
	}
	if in.OtherInfo != nil {
		p.OtherInfo = in.OtherInfo
	}
	if in.ConsultantType != nil {
		p.ConsultantType = *in.ConsultantType
	}
	if in.HighestQualification != nil {
		p.HighestQualification = *in.HighestQualification
	}
	if in.GraduationInstitution != nil {
		p.GraduationInstitution = in.GraduationInstitution
	}
	if in.RegistrationBody != nil {
		p.RegistrationBody = in.RegistrationBody
	}
	if in.RegistrationNumber != nil {
		p.RegistrationNumber = in.RegistrationNumber
	}
	if in.SessionRate != nil {
		p.SessionRate = in.SessionRate
	}
	if in.SessionMinutes != nil {
		p.SessionMinutes = in.SessionMinutes
	}
}

// ConsultantDocument is an uploaded credential. It is never mutated after upload.
type ConsultantDocument struct {
	ID                  uint         `json:"id" gorm:"primaryKey"`
	ConsultantProfileID uint         `json:"consultant_profile_id" gorm:"index;not null"`
	DocType             DocumentType `json:"doc_type" gorm:"type:varchar(20);index;not null"`
	Title               *string      `json:"title"`
	Issuer              *string      `json:"issuer"`
	IssueDate           *Date        `json:"issue_date"`
	ExpiresAt           *Date        `json:"expires_at"`
	Bucket              string       `json:"bucket" gorm:"not null"`
	FilePath            string       `json:"file_path" gorm:"not null"`
	FileURL             string       `json:"file_url"`
	FileHash            string       `json:"file_hash" gorm:"size:64;index"`
	FileSizeBytes       int64        `json:"file_size_bytes"`
	MimeType            string       `json:"mime_type"`
	IsVerified          bool         `json:"is_verified" gorm:"index;not null;default:false"`
	VerificationNote    *string      `json:"verification_note"`
	CreatedAt           time.Time    `json:"created_at"`
}
