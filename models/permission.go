package models

import (
	"fmt"
	"time"
)

type PermissionScope string

const (
	ScopeRead      PermissionScope = "read"
	ScopeReadWrite PermissionScope = "read_write"
)

type PermissionStatus string

const (
	PermissionActive  PermissionStatus = "active"
	PermissionRevoked PermissionStatus = "revoked"
)

// Resource names a class of client health data a consultant can be granted.
type Resource string

const (
	ResourceNutritionTargets Resource = "nutrition_targets"
	ResourceUserGoals        Resource = "user_goals"
	ResourceUserData         Resource = "user_data"
)

var knownResources = map[Resource]bool{
	ResourceNutritionTargets: true,
	ResourceUserGoals:        true,
	ResourceUserData:         true,
}

// ParseResources validates and de-duplicates resource names, keeping input order.
func ParseResources(names []string) (StringList, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("resources must not be empty")
	}
	seen := make(map[string]bool, len(names))
	out := make(StringList, 0, len(names))
	for _, n := range names {
		if !knownResources[Resource(n)] {
			return nil, fmt.Errorf("unknown resource %q", n)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

func ParseScope(s string) (PermissionScope, error) {
	switch PermissionScope(s) {
	case "":
		return ScopeRead, nil
	case ScopeRead, ScopeReadWrite:
		return PermissionScope(s), nil
	default:
		return "", fmt.Errorf("scope must be one of [read read_write]")
	}
}

// Permission is a grant from a user to a consultant. There is at most one
// active record per (user, consultant) pair.
type Permission struct {
	ID                     uint             `json:"id" gorm:"primaryKey"`
	UserID                 uint             `json:"user_id" gorm:"index:idx_permission_pair,priority:1;not null"`
	ConsultantUserID       uint             `json:"consultant_user_id" gorm:"index:idx_permission_pair,priority:2;not null"`
	Scope                  PermissionScope  `json:"scope" gorm:"type:varchar(20);not null"`
	Resources              StringList       `json:"resources" gorm:"not null"`
	Status                 PermissionStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	GrantedInAppointmentID *uint            `json:"granted_in_appointment_id" gorm:"index"`
	GrantedAt              time.Time        `json:"granted_at"`
	RevokedAt              *time.Time       `json:"revoked_at"`
	CreatedAt              time.Time        `json:"created_at"`
}

func (Permission) TableName() string { return "consultant_permissions" }

// Allows reports whether this record permits the action on resource.
func (p *Permission) Allows(resource Resource, write bool) bool {
	if p.Status != PermissionActive {
		return false
	}
	if !p.Resources.Contains(string(resource)) {
		return false
	}
	if write {
		return p.Scope == ScopeReadWrite
	}
	return p.Scope == ScopeRead || p.Scope == ScopeReadWrite
}
