package models

import "time"

// UserPermission is a direct permission override for a single user, evaluated
// independently of the user's roles. Like RolePermission it is soft state:
// a revoke flips Granted to false and the row is kept.
type UserPermission struct {
	// UserID is the ID of the user receiving the override.
	UserID uint64 `gorm:"primaryKey;column:user_id"`
	// PermissionID is the ID of the overridden permission.
	PermissionID uint `gorm:"primaryKey;column:permission_id"`
	// Granted marks the override as in effect.
	Granted bool `gorm:"not null"`
	// User is the associated user (loaded via foreign key).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Permission is the associated permission (loaded via foreign key).
	Permission Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
	// UpdatedAt is the timestamp of the last grant or revoke (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the UserPermission model.
func (UserPermission) TableName() string {
	return "user_permissions"
}
