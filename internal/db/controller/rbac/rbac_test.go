package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/db/dbtest"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

// setupTestDB creates a database holding the whole permission catalog and the default roles.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := dbtest.Open(t)
	require.NoError(t, EnsureCatalog(context.Background(), db, auth.Catalog()))

	return db
}

func rolePermissionRows(t *testing.T, db *gorm.DB, roleID uint) map[string]bool {
	t.Helper()

	rows, err := RolePermissionRows(context.Background(), db, roleID)
	require.NoError(t, err)

	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[r.Permission.Key] = r.Granted
	}

	return out
}

func TestSetRolePermissionsSoftRevoke(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	role := dbtest.Role(t, db, "editor")
	user := dbtest.User(t, db, "u")
	dbtest.Assign(t, db, user, role)

	require.NoError(t, SetRolePermissions(ctx, db, role.ID,
		[]string{auth.PermQuestionRead, auth.PermQuestionCreate}, nil))

	svc := auth.NewService(db)
	ok, err := svc.HasPermission(ctx, user.ID, auth.PermQuestionCreate)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, SetRolePermissions(ctx, db, role.ID, nil, []string{auth.PermQuestionCreate}))

	ok, err = svc.HasPermission(ctx, user.ID, auth.PermQuestionCreate)
	require.NoError(t, err)
	assert.False(t, ok)

	// the revoked row is kept as history
	assert.Equal(t, map[string]bool{
		auth.PermQuestionRead:   true,
		auth.PermQuestionCreate: false,
	}, rolePermissionRows(t, db, role.ID))

	// regranting flips the same row
	require.NoError(t, SetRolePermissions(ctx, db, role.ID, []string{auth.PermQuestionCreate}, nil))

	var count int64
	require.NoError(t, db.Model(&models.RolePermission{}).Where("role_id = ?", role.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSetRolePermissionsIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	role := dbtest.Role(t, db, "editor")

	err := SetRolePermissions(ctx, db, role.ID, []string{auth.PermQuestionRead, "question.fly"}, nil)
	require.ErrorIs(t, err, ErrPermissionNotFound)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Empty(t, rolePermissionRows(t, db, role.ID))

	err = SetRolePermissions(ctx, db, role.ID, []string{auth.PermQuestionRead}, []string{auth.PermQuestionRead})
	require.ErrorIs(t, err, apperror.ErrValidation)

	err = SetRolePermissions(ctx, db, role.ID, []string{"nodot"}, nil)
	require.ErrorIs(t, err, ErrInvalidKey)

	require.ErrorIs(t, SetRolePermissions(ctx, db, 999, []string{auth.PermQuestionRead}, nil), ErrRoleNotFound)
	require.ErrorIs(t, SetRolePermissions(ctx, db, 0, nil, nil), ErrInvalidID)
	require.ErrorIs(t, SetRolePermissions(ctx, nil, 1, nil, nil), ErrDBNil)
}

func TestReplaceRolePermissions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	role := dbtest.Role(t, db, "editor")

	require.NoError(t, ReplaceRolePermissions(ctx, db, role.ID,
		[]string{auth.PermExamRead, auth.PermExamCreate, auth.PermExamRead}))
	require.NoError(t, ReplaceRolePermissions(ctx, db, role.ID, []string{auth.PermExamUpdate}))

	assert.Equal(t, map[string]bool{
		auth.PermExamRead:   false,
		auth.PermExamCreate: false,
		auth.PermExamUpdate: true,
	}, rolePermissionRows(t, db, role.ID))

	require.NoError(t, ReplaceRolePermissions(ctx, db, role.ID, nil))
	assert.Equal(t, map[string]bool{
		auth.PermExamRead:   false,
		auth.PermExamCreate: false,
		auth.PermExamUpdate: false,
	}, rolePermissionRows(t, db, role.ID))
}

func TestSetUserPermissions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "u")
	svc := auth.NewService(db)

	require.NoError(t, SetUserPermissions(ctx, db, user.ID, []string{auth.PermPDFExport, auth.PermExamRead}))

	access, err := svc.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.PermExamRead, auth.PermPDFExport}, access.Permissions())

	require.NoError(t, SetUserPermissions(ctx, db, user.ID, []string{auth.PermExamRead}))

	access, err = svc.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.PermExamRead}, access.Permissions())

	var rows []models.UserPermission
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&rows).Error)
	assert.Len(t, rows, 2, "revoked overrides are kept")

	require.NoError(t, SetUserPermissions(ctx, db, user.ID, nil))

	access, err = svc.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, access.Permissions())

	require.ErrorIs(t, SetUserPermissions(ctx, db, 999, nil), ErrUserNotFound)
}

func TestSetUserRoles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "u")
	dbtest.Role(t, db, auth.RoleTeacher)
	dbtest.Role(t, db, auth.RoleStudent)

	require.NoError(t, SetUserRoles(ctx, db, user.ID, []string{auth.RoleTeacher, auth.RoleStudent}))
	require.NoError(t, SetUserRoles(ctx, db, user.ID, []string{auth.RoleStudent}))

	access, err := auth.NewService(db).Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.RoleStudent}, access.Roles())

	err = SetUserRoles(ctx, db, user.ID, []string{auth.RoleStudent, "ghost"})
	require.ErrorIs(t, err, ErrRoleNotFound)

	require.NoError(t, SetUserRoles(ctx, db, user.ID, nil))

	var count int64
	require.NoError(t, db.Model(&models.UserRole{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSetActiveFlags(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	role := dbtest.Role(t, db, "editor")

	require.NoError(t, SetRoleActive(ctx, db, role.ID, false))
	require.NoError(t, SetRoleActive(ctx, db, role.ID, false))
	require.ErrorIs(t, SetRoleActive(ctx, db, 999, true), ErrRoleNotFound)

	var got models.Role
	require.NoError(t, db.First(&got, role.ID).Error)
	assert.False(t, got.IsActive)

	require.NoError(t, SetPermissionActive(ctx, db, auth.PermPDFExport, false))
	require.ErrorIs(t, SetPermissionActive(ctx, db, "pdf.print", false), ErrPermissionNotFound)
	require.ErrorIs(t, SetPermissionActive(ctx, db, "pdf", false), ErrInvalidKey)

	active, err := ListPermissions(ctx, db, false)
	require.NoError(t, err)
	assert.Len(t, active, len(auth.Catalog())-1)

	all, err := ListPermissions(ctx, db, true)
	require.NoError(t, err)
	assert.Len(t, all, len(auth.Catalog()))
}

func TestEnsureCatalogAndRoles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// deactivation survives reseeding
	require.NoError(t, SetPermissionActive(ctx, db, auth.PermPDFExport, false))
	require.NoError(t, EnsureCatalog(ctx, db, auth.Catalog()))

	var p models.Permission
	require.NoError(t, db.Where("perm_key = ?", auth.PermPDFExport).First(&p).Error)
	assert.False(t, p.IsActive)
	assert.Equal(t, "pdf", p.Resource)
	assert.Equal(t, "export", p.Action)

	for _, tmpl := range auth.DefaultRoles() {
		role, err := EnsureRole(ctx, db, tmpl)
		require.NoError(t, err)
		assert.Equal(t, tmpl.Name, role.Name)

		var stored models.Role
		require.NoError(t, db.Where("name = ?", tmpl.Name).First(&stored).Error)
		assert.Equal(t, role.ID, stored.ID)
	}

	roles, err := ListRoles(ctx, db)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, auth.RoleAdmin, roles[0].Name)
	assert.Len(t, roles[0].Permissions, len(auth.Catalog())-1, "inactive permission is hidden")
	assert.True(t, roles[0].IsSystem)

	// an administrator revoke survives reseeding
	teacher := roles[2]
	require.Equal(t, auth.RoleTeacher, teacher.Name)
	require.NoError(t, SetRolePermissions(ctx, db, teacher.ID, nil, []string{auth.PermExamDelete}))

	_, err = EnsureRole(ctx, db, auth.DefaultRoles()[1])
	require.NoError(t, err)
	assert.False(t, rolePermissionRows(t, db, teacher.ID)[auth.PermExamDelete])

	require.ErrorIs(t, EnsureCatalog(ctx, db, []auth.CatalogEntry{{Key: "broken"}}), ErrInvalidKey)
}
