package models

import "time"

// Permission represents a single entry of the permission catalog.
// Its identity is the key in resource.action format; the key never changes once created.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey"`
	// Key is the unique permission identifier in resource.action format (e.g., "question.create").
	Key string `gorm:"column:perm_key;uniqueIndex;size:150;not null"`
	// Resource is the resource this permission applies to (e.g., "question", "admin").
	Resource string `gorm:"size:100;not null"`
	// Action is the action allowed on the resource (e.g., "create", "read").
	Action string `gorm:"size:50;not null"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255"`
	// IsActive hides the permission from resolution and management screens when false.
	// Existing grant rows are kept untouched so they resolve again once re-activated.
	IsActive bool `gorm:"not null"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
