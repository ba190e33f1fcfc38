// Package user provides user administration: listing, account status and access assignment.
package user

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/db/controller/rbac"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
	"github.com/PrepDesk/PrepDesk/internal/logger"
	"github.com/PrepDesk/PrepDesk/internal/web/handler"
)

const (
	// Path is the base path for user management.
	Path = handler.AdminPath + "/users"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25
	// MaxPageSize caps the requested page size.
	MaxPageSize = 100
)

// View is the api representation of a user.
type View struct {
	ID            uint64            `json:"id"`
	Username      string            `json:"username"`
	Email         string            `json:"email"`
	Status        models.UserStatus `json:"status"`
	EmailVerified bool              `json:"emailVerified"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// ListResponse is one page of users.
type ListResponse struct {
	Users      []View `json:"users"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalItems int64  `json:"totalItems"`
	TotalPages int    `json:"totalPages"`
}

// PatchRequest changes the account status.
type PatchRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=active suspended deleted"`
}

// PermissionsRequest is the complete set of direct grants of a user.
type PermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"dive,required,max=150"`
}

// RolesRequest is the complete set of role names of a user.
type RolesRequest struct {
	Roles []string `json:"roles" validate:"dive,required,max=100"`
}

// Service provides user administration.
type Service struct {
	deps      *handler.Deps
	validator *validator.Validate
	log       zerolog.Logger
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	if deps.Users == nil {
		return errors.New("users is nil")
	}

	s.deps = deps
	s.log = logger.For("web")
	s.validator = validator.New(validator.WithRequiredStructEnabled())

	router := app.Group(Path, auth.RequirePermission(deps.Auth, auth.PermAdminUsers))
	router.Get(handler.RouterRootPath, s.List)
	router.Patch("/:id", s.Patch)
	router.Put("/:id/permissions", s.SetPermissions)
	router.Put("/:id/roles", s.SetRoles)

	return nil
}

// List shows users with simple pagination and search.
func (s *Service) List(c fiber.Ctx) error {
	page := fiber.Query[int](c, "page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := fiber.Query[int](c, "pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	var (
		users      []models.User
		totalCount int64
		tx         = s.deps.DB.WithContext(c.Context()).Model(&models.User{})
	)

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	if err := tx.Count(&totalCount).Error; err != nil {
		s.log.Error().Err(err).Msg("count users failed")
		return err
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	offset := (page - 1) * pageSize
	if err := tx.Order("id DESC").Limit(pageSize).Offset(offset).Find(&users).Error; err != nil {
		s.log.Error().Err(err).Msg("query users failed")
		return err
	}

	out := make([]View, 0, len(users))
	for i := range users {
		out = append(out, View{
			ID:            users[i].ID,
			Username:      users[i].Username,
			Email:         users[i].Email,
			Status:        users[i].Status,
			EmailVerified: users[i].EmailVerified,
			CreatedAt:     users[i].CreatedAt,
		})
	}

	return c.JSON(ListResponse{
		Users:      out,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalCount,
		TotalPages: totalPages,
	})
}

// Patch changes the account status of a user.
func (s *Service) Patch(c fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	in := new(PatchRequest)
	if err = handler.BindJSON(c, in); err != nil {
		return err
	}

	if err = s.validator.Struct(in); err != nil {
		return apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid status")
	}

	if p := auth.PrincipalFrom(c); p.ID == id && in.Status != models.UserStatusActive {
		return apperror.Validation("cannot disable your own account")
	}

	err = s.deps.Users.SetStatus(c.Context(), id, in.Status)
	if errors.Is(err, auth.ErrUserNotFound) {
		return rbac.ErrUserNotFound
	}

	if err != nil {
		return err
	}

	s.log.Info().Uint64("user_id", id).Str("status", string(in.Status)).Msg("user status changed")

	return c.SendStatus(fiber.StatusNoContent)
}

// SetPermissions replaces the direct permission grants of a user.
func (s *Service) SetPermissions(c fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	in := new(PermissionsRequest)
	if err = handler.BindJSON(c, in); err != nil {
		return err
	}

	if err = s.validator.Struct(in); err != nil {
		return apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid permissions")
	}

	if err = rbac.SetUserPermissions(c.Context(), s.deps.DB, id, in.Permissions); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// SetRoles replaces the role assignments of a user.
func (s *Service) SetRoles(c fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	in := new(RolesRequest)
	if err = handler.BindJSON(c, in); err != nil {
		return err
	}

	if err = s.validator.Struct(in); err != nil {
		return apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid roles")
	}

	if err = rbac.SetUserRoles(c.Context(), s.deps.DB, id, in.Roles); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
