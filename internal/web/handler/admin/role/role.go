// Package role serves role management of the back office.
package role

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/db/controller/rbac"
	"github.com/PrepDesk/PrepDesk/internal/web/handler"
)

// Path is the base path for role management.
const Path = handler.AdminPath + "/roles"

// View is the api representation of a role.
type View struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsActive    bool     `json:"isActive"`
	IsSystem    bool     `json:"isSystem"`
	Permissions []string `json:"permissions"`
}

// HistoryEntry is one mapping row of a role, revoked rows included.
type HistoryEntry struct {
	Permission string    `json:"permission"`
	Granted    bool      `json:"granted"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PermissionsRequest changes the grants of a role. A non-nil Permissions
// replaces the whole set; otherwise Grant and Revoke are applied.
type PermissionsRequest struct {
	Permissions *[]string `json:"permissions"`
	Grant       []string  `json:"grant"`
	Revoke      []string  `json:"revoke"`
}

// PatchRequest toggles a role.
type PatchRequest struct {
	IsActive *bool `json:"isActive"`
}

// Service provides role management.
type Service struct {
	deps *handler.Deps
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	router := app.Group(Path, auth.RequirePermission(deps.Auth, auth.PermAdminRoles))
	router.Get(handler.RouterRootPath, s.List)
	router.Patch("/:id", s.Patch)
	router.Put("/:id/permissions", s.SetPermissions)
	router.Get("/:id/permissions/history", s.History)

	return nil
}

// List returns every role with its effective permissions.
func (s *Service) List(c fiber.Ctx) error {
	roles, err := rbac.ListRoles(c.Context(), s.deps.DB)
	if err != nil {
		return err
	}

	out := make([]View, 0, len(roles))
	for _, r := range roles {
		out = append(out, View{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			IsActive:    r.IsActive,
			IsSystem:    r.IsSystem,
			Permissions: r.Permissions,
		})
	}

	return c.JSON(out)
}

// Patch activates or deactivates a role.
func (s *Service) Patch(c fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	in := new(PatchRequest)
	if err = handler.BindJSON(c, in); err != nil {
		return err
	}

	if in.IsActive == nil {
		return apperror.Validation("isActive is required")
	}

	if err = rbac.SetRoleActive(c.Context(), s.deps.DB, uint(id), *in.IsActive); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// SetPermissions replaces or edits the grants of a role in one transaction.
func (s *Service) SetPermissions(c fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	in := new(PermissionsRequest)
	if err = handler.BindJSON(c, in); err != nil {
		return err
	}

	if in.Permissions != nil {
		err = rbac.ReplaceRolePermissions(c.Context(), s.deps.DB, uint(id), *in.Permissions)
	} else {
		err = rbac.SetRolePermissions(c.Context(), s.deps.DB, uint(id), in.Grant, in.Revoke)
	}

	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// History returns every mapping row of a role.
func (s *Service) History(c fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	rows, err := rbac.RolePermissionRows(c.Context(), s.deps.DB, uint(id))
	if err != nil {
		return err
	}

	out := make([]HistoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, HistoryEntry{Permission: r.Permission.Key, Granted: r.Granted, UpdatedAt: r.UpdatedAt})
	}

	return c.JSON(out)
}
