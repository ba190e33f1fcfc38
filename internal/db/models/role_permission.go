package models

import "time"

// RolePermission maps a permission onto a role.
// Rows are soft state: revoking sets Granted to false instead of deleting the row,
// so the history of a role's permission surface stays queryable.
type RolePermission struct {
	// RoleID is the ID of the role in this mapping.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// PermissionID is the ID of the permission in this mapping.
	PermissionID uint `gorm:"primaryKey;column:permission_id"`
	// Granted marks the mapping as in effect.
	Granted bool `gorm:"not null"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// Permission is the associated permission (loaded via foreign key).
	Permission Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
	// UpdatedAt is the timestamp of the last grant or revoke (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the RolePermission model.
func (RolePermission) TableName() string {
	return "role_permissions"
}
