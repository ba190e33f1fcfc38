package models

import "time"

// Role represents a role in the role-based access control (RBAC) system.
// Roles group permissions and are assigned to users through UserRole rows.
// Examples include "admin", "teacher" and "student".
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role (e.g., "admin", "teacher").
	Name string `gorm:"unique;size:100;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// IsActive excludes the role from permission resolution for all members when false.
	IsActive bool `gorm:"not null"`
	// IsSystem indicates if this is a system role that cannot be deleted.
	IsSystem bool `gorm:"not null"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
