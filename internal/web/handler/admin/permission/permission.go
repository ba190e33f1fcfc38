// Package permission serves the permission catalog of the back office.
package permission

import (
	"github.com/gofiber/fiber/v3"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/db/controller/rbac"
	"github.com/PrepDesk/PrepDesk/internal/web/handler"
)

// Path is the base path of the catalog.
const Path = handler.AdminPath + "/permissions"

// View is the api representation of a catalog entry.
type View struct {
	Key         string `json:"key"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// PatchRequest toggles a catalog entry.
type PatchRequest struct {
	IsActive *bool `json:"isActive"`
}

// Service serves the permission catalog.
type Service struct {
	deps *handler.Deps
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	router := app.Group(Path, auth.RequirePermission(deps.Auth, auth.PermAdminPermissions, auth.PermAdminRoles))
	router.Get(handler.RouterRootPath, s.List)
	router.Patch("/:key", auth.RequirePermission(deps.Auth, auth.PermAdminPermissions), s.Patch)

	return nil
}

// List returns the catalog. Inactive entries are included with ?all=true.
func (s *Service) List(c fiber.Ctx) error {
	perms, err := rbac.ListPermissions(c.Context(), s.deps.DB, fiber.Query[bool](c, "all"))
	if err != nil {
		return err
	}

	out := make([]View, 0, len(perms))
	for _, p := range perms {
		out = append(out, View{
			Key:         p.Key,
			Resource:    p.Resource,
			Action:      p.Action,
			Description: p.Description,
			IsActive:    p.IsActive,
		})
	}

	return c.JSON(out)
}

// Patch activates or deactivates a catalog entry.
func (s *Service) Patch(c fiber.Ctx) error {
	in := new(PatchRequest)
	if err := handler.BindJSON(c, in); err != nil {
		return err
	}

	if in.IsActive == nil {
		return apperror.Validation("isActive is required")
	}

	if err := rbac.SetPermissionActive(c.Context(), s.deps.DB, c.Params("key"), *in.IsActive); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
