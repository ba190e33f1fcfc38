// Package dbtest opens throw-away sqlite databases for package tests.
package dbtest

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

// Open creates an in-memory SQLite database with every model migrated.
// The pool is pinned to one connection, since each sqlite memory connection is its own database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(models.All()...), "failed to migrate test database")

	return conn
}

// User inserts an active, verified user.
func User(t testing.TB, conn *gorm.DB, username string) *models.User {
	t.Helper()

	u := &models.User{
		Username:      username,
		Email:         username + "@example.test",
		Status:        models.UserStatusActive,
		EmailVerified: true,
	}
	require.NoError(t, conn.Create(u).Error)

	return u
}

// Permission inserts an active permission for key ("resource.action").
func Permission(t testing.TB, conn *gorm.DB, key string) *models.Permission {
	t.Helper()

	resource, action, _ := strings.Cut(key, ".")

	p := &models.Permission{Key: key, Resource: resource, Action: action, IsActive: true}
	require.NoError(t, conn.Create(p).Error)

	return p
}

// Role inserts an active role.
func Role(t testing.TB, conn *gorm.DB, name string) *models.Role {
	t.Helper()

	r := &models.Role{Name: name, IsActive: true}
	require.NoError(t, conn.Create(r).Error)

	return r
}

// Grant inserts a granted role permission row.
func Grant(t testing.TB, conn *gorm.DB, role *models.Role, perm *models.Permission) {
	t.Helper()

	require.NoError(t, conn.Create(&models.RolePermission{
		RoleID: role.ID, PermissionID: perm.ID, Granted: true,
	}).Error)
}

// Assign inserts a role membership.
func Assign(t testing.TB, conn *gorm.DB, user *models.User, role *models.Role) {
	t.Helper()

	require.NoError(t, conn.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error)
}

// GrantDirect inserts a direct user permission override.
func GrantDirect(t testing.TB, conn *gorm.DB, user *models.User, perm *models.Permission, granted bool) {
	t.Helper()

	require.NoError(t, conn.Create(&models.UserPermission{
		UserID: user.ID, PermissionID: perm.ID, Granted: granted,
	}).Error)
}
