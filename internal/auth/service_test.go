package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/db/dbtest"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

func TestResolveTeacherWithDirectOverride(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	user := dbtest.User(t, db, "u")
	teacher := dbtest.Role(t, db, RoleTeacher)
	read := dbtest.Permission(t, db, PermQuestionRead)
	create := dbtest.Permission(t, db, PermQuestionCreate)

	dbtest.Grant(t, db, teacher, read)
	dbtest.Assign(t, db, user, teacher)
	dbtest.GrantDirect(t, db, user, create, true)

	svc := NewService(db)

	access, err := svc.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{PermQuestionCreate, PermQuestionRead}, access.Permissions())
	assert.Equal(t, []string{RoleTeacher}, access.Roles())

	// deactivating the role drops its grants but keeps the direct one
	require.NoError(t, db.Model(teacher).Update("is_active", false).Error)

	access, err = svc.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{PermQuestionCreate}, access.Permissions())
	assert.Empty(t, access.Roles())
}

func TestResolveIgnoresInactiveAndRevoked(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	user := dbtest.User(t, db, "u")
	role := dbtest.Role(t, db, RoleStudent)
	dbtest.Assign(t, db, user, role)

	inactive := dbtest.Permission(t, db, PermExamRead)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)
	dbtest.Grant(t, db, role, inactive)

	revoked := dbtest.Permission(t, db, PermQuestionRead)
	require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: revoked.ID}).Error)

	directInactive := dbtest.Permission(t, db, PermPDFExport)
	require.NoError(t, db.Model(directInactive).Update("is_active", false).Error)
	dbtest.GrantDirect(t, db, user, directInactive, true)

	directRevoked := dbtest.Permission(t, db, PermExamCreate)
	dbtest.GrantDirect(t, db, user, directRevoked, false)

	svc := NewService(db)

	access, err := svc.Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, access.Permissions())
	assert.Equal(t, []string{RoleStudent}, access.Roles())

	// re-activating the permission restores the held grant
	require.NoError(t, db.Model(inactive).Update("is_active", true).Error)

	ok, err := svc.HasPermission(ctx, user.ID, PermExamRead)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolveUnknownAndInvalidUser(t *testing.T) {
	svc := NewService(dbtest.Open(t))

	access, err := svc.Resolve(context.Background(), 4242)
	require.NoError(t, err)
	assert.Empty(t, access.Permissions())
	assert.Empty(t, access.Roles())

	_, err = svc.Resolve(context.Background(), 0)
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAccessChecks(t *testing.T) {
	access := &Access{
		roles:       map[string]struct{}{RoleTeacher: {}},
		permissions: map[string]struct{}{PermQuestionRead: {}, PermExamRead: {}},
	}

	assert.True(t, access.HasPermission(PermQuestionCreate, PermQuestionRead))
	assert.False(t, access.HasPermission(PermQuestionCreate))
	assert.False(t, access.HasPermission())
	assert.True(t, access.HasAllPermissions(PermQuestionRead, PermExamRead))
	assert.False(t, access.HasAllPermissions(PermQuestionRead, PermPDFExport))
	assert.True(t, access.HasRole(RoleAdmin, RoleTeacher))
	assert.False(t, access.HasRole(RoleAdmin))
}

func setupAuthorize(t *testing.T) (*gorm.DB, *Service, *models.User) {
	t.Helper()

	db := dbtest.Open(t)
	user := dbtest.User(t, db, "u")
	role := dbtest.Role(t, db, RoleTeacher)
	dbtest.Assign(t, db, user, role)
	dbtest.Grant(t, db, role, dbtest.Permission(t, db, PermQuestionRead))

	return db, NewService(db), user
}

func TestAuthorize(t *testing.T) {
	_, svc, user := setupAuthorize(t)
	active := PrincipalFromUser(user)

	testCases := []struct {
		name      string
		principal *Principal
		req       Requirement
		reason    Reason
	}{
		{name: "anonymous", principal: nil, reason: ReasonUnauthenticated},
		{
			name:      "suspended",
			principal: &Principal{ID: user.ID, Status: models.UserStatusSuspended, EmailVerified: true},
			reason:    ReasonAccountSuspended,
		},
		{
			name:      "deleted",
			principal: &Principal{ID: user.ID, Status: models.UserStatusDeleted, EmailVerified: true},
			reason:    ReasonAccountDeleted,
		},
		{
			name:      "unverified",
			principal: &Principal{ID: user.ID, Status: models.UserStatusActive},
			req:       Requirement{RequireVerified: true},
			reason:    ReasonEmailUnverified,
		},
		{name: "missing role", principal: active, req: Requirement{Roles: []string{RoleAdmin}}, reason: ReasonMissingRole},
		{
			name:      "missing permission",
			principal: active,
			req:       Requirement{AnyPermissions: []string{PermAdminRoles}},
			reason:    ReasonMissingPermission,
		},
		{
			name:      "granted",
			principal: active,
			req: Requirement{
				Roles:           []string{RoleAdmin, RoleTeacher},
				AnyPermissions:  []string{PermQuestionCreate, PermQuestionRead},
				RequireVerified: true,
			},
		},
		{name: "no requirement", principal: active},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Authorize(context.Background(), tc.principal, tc.req)
			if tc.reason == "" {
				require.NoError(t, err)
				return
			}

			fe, ok := AsForbidden(err)
			require.True(t, ok, "expected ForbiddenError, got %v", err)
			assert.Equal(t, tc.reason, fe.Reason)
			require.ErrorIs(t, err, apperror.ErrForbidden)
		})
	}
}

func TestSplitKeyAndCatalog(t *testing.T) {
	resource, action, ok := SplitKey("question.create")
	assert.True(t, ok)
	assert.Equal(t, "question", resource)
	assert.Equal(t, "create", action)

	for _, bad := range []string{"", "question", ".create", "question."} {
		_, _, ok = SplitKey(bad)
		assert.False(t, ok, bad)
	}

	seen := map[string]bool{}
	for _, e := range Catalog() {
		_, _, ok := SplitKey(e.Key)
		assert.True(t, ok, e.Key)
		assert.False(t, seen[e.Key], "duplicate %s", e.Key)
		seen[e.Key] = true
	}

	for _, r := range DefaultRoles() {
		for _, k := range r.Permissions {
			assert.True(t, seen[k], "%s grants unknown %s", r.Name, k)
		}
	}
}
