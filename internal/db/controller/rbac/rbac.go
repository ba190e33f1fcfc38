// Package rbac provides the management writes of roles, permissions and their mappings.
//
// Grant rows are soft state on both layers: revoking flips Granted to false and
// keeps the row. Every bulk write runs in a single transaction.
package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrRoleNotFound is returned for an unknown role id or name.
	ErrRoleNotFound = apperror.NotFound("role not found")
	// ErrUserNotFound is returned for an unknown user id.
	ErrUserNotFound = apperror.NotFound("user not found")
	// ErrPermissionNotFound is returned when a key is not in the catalog.
	ErrPermissionNotFound = apperror.NotFound("permission not found")
	// ErrInvalidID is returned for a zero id.
	ErrInvalidID = apperror.Validation("id must not be zero")
	// ErrInvalidKey is returned for a key not in resource.action format.
	ErrInvalidKey = apperror.Validation("permission key must be resource.action")
	// ErrGrantRevokeOverlap is returned when a key is both granted and revoked.
	ErrGrantRevokeOverlap = apperror.Validation("permission is both granted and revoked")
)

// RoleView is a role with the keys of its effective grants.
type RoleView struct {
	models.Role
	Permissions []string `json:"permissions"`
}

// grantColumns are updated when a grant row already exists.
var grantColumns = clause.AssignmentColumns([]string{"granted", "updated_at"})

// SetRolePermissions grants and revokes permissions of a role in one transaction.
// Keys missing from both lists keep their current row.
func SetRolePermissions(ctx context.Context, db *gorm.DB, roleID uint, grant, revoke []string) error {
	if db == nil {
		return ErrDBNil
	}

	if roleID == 0 {
		return ErrInvalidID
	}

	for _, k := range grant {
		if slices.Contains(revoke, k) {
			return fmt.Errorf("%w: %s", ErrGrantRevokeOverlap, k)
		}
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := roleExists(tx, roleID); err != nil {
			return err
		}

		return upsertRoleGrants(tx, roleID, grant, revoke)
	})
}

// ReplaceRolePermissions makes keys the granted set of a role: listed keys are
// granted, every other granted row of the role is revoked.
func ReplaceRolePermissions(ctx context.Context, db *gorm.DB, roleID uint, keys []string) error {
	if db == nil {
		return ErrDBNil
	}

	if roleID == 0 {
		return ErrInvalidID
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := roleExists(tx, roleID); err != nil {
			return err
		}

		var current []string

		err := tx.Table("permissions").
			Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
			Where("role_permissions.role_id = ? AND role_permissions.granted = ?", roleID, true).
			Pluck("permissions.perm_key", &current).Error
		if err != nil {
			return fmt.Errorf("failed to load role grants: %w", err)
		}

		return upsertRoleGrants(tx, roleID, keys, difference(current, keys))
	})
}

func upsertRoleGrants(tx *gorm.DB, roleID uint, grant, revoke []string) error {
	grant, revoke = unique(grant), unique(revoke)

	ids, err := permissionIDs(tx, append(slices.Clone(grant), revoke...))
	if err != nil {
		return err
	}

	rows := make([]models.RolePermission, 0, len(grant)+len(revoke))
	for _, k := range grant {
		rows = append(rows, models.RolePermission{RoleID: roleID, PermissionID: ids[k], Granted: true})
	}

	for _, k := range revoke {
		rows = append(rows, models.RolePermission{RoleID: roleID, PermissionID: ids[k], Granted: false})
	}

	if len(rows) == 0 {
		return nil
	}

	err = tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role_id"}, {Name: "permission_id"}},
		DoUpdates: grantColumns,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to write role grants: %w", err)
	}

	return nil
}

// SetUserPermissions makes keys the directly granted set of a user: listed keys
// are granted, every other existing override of the user is revoked.
func SetUserPermissions(ctx context.Context, db *gorm.DB, userID uint64, keys []string) error {
	if db == nil {
		return ErrDBNil
	}

	if userID == 0 {
		return ErrInvalidID
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userExists(tx, userID); err != nil {
			return err
		}

		keys = unique(keys)

		ids, err := permissionIDs(tx, keys)
		if err != nil {
			return err
		}

		keep := make([]uint, 0, len(ids))
		rows := make([]models.UserPermission, 0, len(ids))

		for _, k := range keys {
			keep = append(keep, ids[k])
			rows = append(rows, models.UserPermission{UserID: userID, PermissionID: ids[k], Granted: true})
		}

		revoke := tx.Model(&models.UserPermission{}).Where("user_id = ? AND granted = ?", userID, true)
		if len(keep) > 0 {
			revoke = revoke.Where("permission_id NOT IN ?", keep)
		}

		if err := revoke.Update("granted", false).Error; err != nil {
			return fmt.Errorf("failed to revoke user permissions: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}

		err = tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "permission_id"}},
			DoUpdates: grantColumns,
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to write user permissions: %w", err)
		}

		return nil
	})
}

// SetUserRoles replaces the role memberships of a user by the named roles.
func SetUserRoles(ctx context.Context, db *gorm.DB, userID uint64, roleNames []string) error {
	if db == nil {
		return ErrDBNil
	}

	if userID == 0 {
		return ErrInvalidID
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userExists(tx, userID); err != nil {
			return err
		}

		var roles []models.Role
		if len(roleNames) > 0 {
			if err := tx.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
				return fmt.Errorf("failed to load roles: %w", err)
			}
		}

		found := make(map[string]uint, len(roles))
		for _, r := range roles {
			found[r.Name] = r.ID
		}

		var missing []string

		for _, n := range roleNames {
			if _, ok := found[n]; !ok {
				missing = append(missing, n)
			}
		}

		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrRoleNotFound, strings.Join(missing, ", "))
		}

		ids := make([]uint, 0, len(found))
		for _, id := range found {
			ids = append(ids, id)
		}

		del := tx.Where("user_id = ?", userID)
		if len(ids) > 0 {
			del = del.Where("role_id NOT IN ?", ids)
		}

		if err := del.Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("failed to remove role memberships: %w", err)
		}

		if len(ids) == 0 {
			return nil
		}

		rows := make([]models.UserRole, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, models.UserRole{UserID: userID, RoleID: id})
		}

		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to add role memberships: %w", err)
		}

		return nil
	})
}

// SetRoleActive activates or deactivates a role. Grant rows are not touched.
func SetRoleActive(ctx context.Context, db *gorm.DB, roleID uint, active bool) error {
	if db == nil {
		return ErrDBNil
	}

	if roleID == 0 {
		return ErrInvalidID
	}

	db = db.WithContext(ctx)

	if err := roleExists(db, roleID); err != nil {
		return err
	}

	if err := db.Model(&models.Role{}).Where("id = ?", roleID).Update("is_active", active).Error; err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	return nil
}

// SetPermissionActive activates or deactivates a catalog entry. Grant rows are not touched.
func SetPermissionActive(ctx context.Context, db *gorm.DB, key string, active bool) error {
	if db == nil {
		return ErrDBNil
	}

	if _, _, ok := auth.SplitKey(key); !ok {
		return ErrInvalidKey
	}

	db = db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Permission{}).Where("perm_key = ?", key).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load permission: %w", err)
	}

	if count == 0 {
		return ErrPermissionNotFound
	}

	if err := db.Model(&models.Permission{}).Where("perm_key = ?", key).Update("is_active", active).Error; err != nil {
		return fmt.Errorf("failed to update permission: %w", err)
	}

	return nil
}

// ListRoles returns every role with the active permissions it grants.
func ListRoles(ctx context.Context, db *gorm.DB) ([]RoleView, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	db = db.WithContext(ctx)

	var roles []models.Role
	if err := db.Order("name").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	var grants []struct {
		RoleID  uint
		PermKey string
	}

	err := db.Table("role_permissions").
		Select("role_permissions.role_id AS role_id, permissions.perm_key AS perm_key").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.granted = ? AND permissions.is_active = ?", true, true).
		Order("permissions.perm_key").
		Scan(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list role grants: %w", err)
	}

	byRole := make(map[uint][]string, len(roles))
	for _, g := range grants {
		byRole[g.RoleID] = append(byRole[g.RoleID], g.PermKey)
	}

	out := make([]RoleView, 0, len(roles))
	for _, r := range roles {
		perms := byRole[r.ID]
		if perms == nil {
			perms = []string{}
		}

		out = append(out, RoleView{Role: r, Permissions: perms})
	}

	return out, nil
}

// RolePermissionRows returns every mapping row of a role, revoked ones included.
func RolePermissionRows(ctx context.Context, db *gorm.DB, roleID uint) ([]models.RolePermission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if roleID == 0 {
		return nil, ErrInvalidID
	}

	db = db.WithContext(ctx)

	if err := roleExists(db, roleID); err != nil {
		return nil, err
	}

	var rows []models.RolePermission

	err := db.Preload("Permission").Where("role_id = ?", roleID).Order("permission_id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load role permission rows: %w", err)
	}

	return rows, nil
}

// ListPermissions returns the catalog ordered by key. Inactive entries are
// included only when includeInactive is set.
func ListPermissions(ctx context.Context, db *gorm.DB, includeInactive bool) ([]models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.WithContext(ctx).Order("perm_key")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var perms []models.Permission
	if err := q.Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	return perms, nil
}

// EnsureCatalog inserts missing catalog entries and refreshes descriptions.
// The active flag of existing entries is left alone.
func EnsureCatalog(ctx context.Context, db *gorm.DB, entries []auth.CatalogEntry) error {
	if db == nil {
		return ErrDBNil
	}

	rows := make([]models.Permission, 0, len(entries))

	for _, e := range entries {
		resource, action, ok := auth.SplitKey(e.Key)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidKey, e.Key)
		}

		rows = append(rows, models.Permission{
			Key:         e.Key,
			Resource:    resource,
			Action:      action,
			Description: e.Description,
			IsActive:    true,
		})
	}

	if len(rows) == 0 {
		return nil
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "perm_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to seed permission catalog: %w", err)
	}

	return nil
}

// EnsureRole creates a system role if missing and grants the template's permissions
// where no mapping row exists yet, so revokes made by administrators survive reseeding.
func EnsureRole(ctx context.Context, db *gorm.DB, tmpl auth.RoleTemplate) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var role models.Role

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(models.Role{Name: tmpl.Name}).Attrs(models.Role{
			Description: tmpl.Description,
			IsActive:    true,
			IsSystem:    true,
		}).FirstOrCreate(&role).Error
		if err != nil {
			return fmt.Errorf("failed to create role %s: %w", tmpl.Name, err)
		}

		ids, err := permissionIDs(tx, tmpl.Permissions)
		if err != nil {
			return err
		}

		rows := make([]models.RolePermission, 0, len(ids))
		for _, k := range tmpl.Permissions {
			rows = append(rows, models.RolePermission{RoleID: role.ID, PermissionID: ids[k], Granted: true})
		}

		if len(rows) == 0 {
			return nil
		}

		err = tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to grant role %s: %w", tmpl.Name, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &role, nil
}

// permissionIDs maps keys onto permission ids. Inactive permissions resolve too.
func permissionIDs(tx *gorm.DB, keys []string) (map[string]uint, error) {
	out := make(map[string]uint, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	for _, k := range keys {
		if _, _, ok := auth.SplitKey(k); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, k)
		}
	}

	var perms []models.Permission
	if err := tx.Where("perm_key IN ?", keys).Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}

	for _, p := range perms {
		out[p.Key] = p.ID
	}

	var missing []string

	for _, k := range keys {
		if _, ok := out[k]; !ok && !slices.Contains(missing, k) {
			missing = append(missing, k)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrPermissionNotFound, strings.Join(missing, ", "))
	}

	return out, nil
}

func roleExists(tx *gorm.DB, roleID uint) error {
	var count int64
	if err := tx.Model(&models.Role{}).Where("id = ?", roleID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load role: %w", err)
	}

	if count == 0 {
		return ErrRoleNotFound
	}

	return nil
}

func userExists(tx *gorm.DB, userID uint64) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if count == 0 {
		return ErrUserNotFound
	}

	return nil
}

// difference returns the elements of a not in b.
func difference(a, b []string) []string {
	var out []string

	for _, x := range a {
		if !slices.Contains(b, x) {
			out = append(out, x)
		}
	}

	return out
}

// unique drops repeated keys, keeping the first occurrence.
func unique(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}

	return out
}
