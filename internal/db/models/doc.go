// Package models contains database model definitions.
package models

// All returns every model managed by AutoMigrate, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Permission{},
		&Role{},
		&RolePermission{},
		&UserRole{},
		&UserPermission{},
		&Plan{},
		&Subscription{},
	}
}
