package auth

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID            uint64
	Email         string
	Status        models.UserStatus
	EmailVerified bool
}

// PrincipalFromUser builds the principal of a loaded user row.
func PrincipalFromUser(u *models.User) *Principal {
	return &Principal{
		ID:            u.ID,
		Email:         u.Email,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
	}
}

// Access is the resolved effective role and permission set of a principal.
type Access struct {
	roles       map[string]struct{}
	permissions map[string]struct{}
}

// HasPermission reports whether any of keys is in the effective permission set.
func (a *Access) HasPermission(keys ...string) bool {
	for _, k := range keys {
		if _, ok := a.permissions[k]; ok {
			return true
		}
	}

	return false
}

// HasAllPermissions reports whether every key is in the effective permission set.
func (a *Access) HasAllPermissions(keys ...string) bool {
	for _, k := range keys {
		if _, ok := a.permissions[k]; !ok {
			return false
		}
	}

	return true
}

// HasRole reports whether any of names is an effective role.
func (a *Access) HasRole(names ...string) bool {
	for _, n := range names {
		if _, ok := a.roles[n]; ok {
			return true
		}
	}

	return false
}

// Roles returns the effective role names, sorted.
func (a *Access) Roles() []string {
	return sortedKeys(a.roles)
}

// Permissions returns the effective permission keys, sorted.
func (a *Access) Permissions() []string {
	return sortedKeys(a.permissions)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}

// Service resolves effective permissions from role memberships, role grants and direct overrides.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Resolve computes the effective roles and permissions of a user.
//
// Only active roles count. A permission is effective when it is active and either
// granted to one of those roles or granted directly to the user. An unknown user
// resolves to empty sets.
func (s *Service) Resolve(ctx context.Context, userID uint64) (*Access, error) {
	if userID == 0 {
		return nil, apperror.Validation("user id must not be zero")
	}

	db := s.db.WithContext(ctx)

	var roles []string

	err := db.Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.is_active = ?", userID, true).
		Pluck("roles.name", &roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load user roles: %w", err)
	}

	var rolePerms []string

	err = db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.is_active = ? AND role_permissions.granted = ? AND permissions.is_active = ?",
			userID, true, true, true).
		Pluck("permissions.perm_key", &rolePerms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}

	var directPerms []string

	err = db.Table("permissions").
		Joins("JOIN user_permissions ON user_permissions.permission_id = permissions.id").
		Where("user_permissions.user_id = ? AND user_permissions.granted = ? AND permissions.is_active = ?",
			userID, true, true).
		Pluck("permissions.perm_key", &directPerms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load direct permissions: %w", err)
	}

	access := &Access{
		roles:       make(map[string]struct{}, len(roles)),
		permissions: make(map[string]struct{}, len(rolePerms)+len(directPerms)),
	}

	for _, r := range roles {
		access.roles[r] = struct{}{}
	}

	for _, p := range rolePerms {
		access.permissions[p] = struct{}{}
	}

	for _, p := range directPerms {
		access.permissions[p] = struct{}{}
	}

	return access, nil
}

// HasPermission checks if a user holds at least one of the given permissions.
func (s *Service) HasPermission(ctx context.Context, userID uint64, keys ...string) (bool, error) {
	access, err := s.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}

	return access.HasPermission(keys...), nil
}

// HasRole checks if a user holds at least one of the given active roles.
func (s *Service) HasRole(ctx context.Context, userID uint64, names ...string) (bool, error) {
	access, err := s.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}

	return access.HasRole(names...), nil
}

// Requirement lists what a route needs from a principal.
// Roles and AnyPermissions are any-of lists; empty lists are not checked.
type Requirement struct {
	Roles           []string
	AnyPermissions  []string
	RequireVerified bool
}

// CheckAccount applies the account gates (presence, status and optionally email verification).
func CheckAccount(p *Principal, requireVerified bool) error {
	if p == nil || p.ID == 0 {
		return &ForbiddenError{Reason: ReasonUnauthenticated}
	}

	switch p.Status {
	case models.UserStatusActive:
	case models.UserStatusDeleted:
		return &ForbiddenError{Reason: ReasonAccountDeleted}
	default:
		return &ForbiddenError{Reason: ReasonAccountSuspended}
	}

	if requireVerified && !p.EmailVerified {
		return &ForbiddenError{Reason: ReasonEmailUnverified}
	}

	return nil
}

// Authorize checks the account gates and then the role and permission requirements.
// It returns nil, a *ForbiddenError naming the failed gate, or a lookup error.
func (s *Service) Authorize(ctx context.Context, p *Principal, req Requirement) error {
	if err := CheckAccount(p, req.RequireVerified); err != nil {
		return err
	}

	if len(req.Roles) == 0 && len(req.AnyPermissions) == 0 {
		return nil
	}

	access, err := s.Resolve(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(req.Roles) > 0 && !access.HasRole(req.Roles...) {
		return &ForbiddenError{Reason: ReasonMissingRole, Required: req.Roles}
	}

	if len(req.AnyPermissions) > 0 && !access.HasPermission(req.AnyPermissions...) {
		return &ForbiddenError{Reason: ReasonMissingPermission, Required: req.AnyPermissions}
	}

	return nil
}
