// Package me serves the access and entitlement view of the logged in user.
package me

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
	"github.com/PrepDesk/PrepDesk/internal/entitlement"
	"github.com/PrepDesk/PrepDesk/internal/web/handler"
)

// Path is the base path of the endpoints.
const Path = handler.APIPath + "/me"

// AccessResponse lists the effective access of the principal.
type AccessResponse struct {
	UserID        uint64            `json:"userId"`
	Email         string            `json:"email"`
	Status        models.UserStatus `json:"status"`
	EmailVerified bool              `json:"emailVerified"`
	Roles         []string          `json:"roles"`
	Permissions   []string          `json:"permissions"`
}

// EntitlementResponse is the subscription state of the principal.
type EntitlementResponse struct {
	Active       bool                      `json:"active"`
	Limits       entitlement.Limits        `json:"limits"`
	Subscription *handler.SubscriptionView `json:"subscription"`
}

// Service serves /api/me.
type Service struct {
	deps *handler.Deps
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	if deps.Entitlement == nil {
		return errors.New("entitlement service is nil")
	}

	s.deps = deps

	router := app.Group(Path, auth.RequireActiveAccount(false))
	router.Get("/access", s.Access)
	router.Get("/entitlement", s.Entitlement)

	return nil
}

// Access returns the roles and permissions of the principal.
func (s *Service) Access(c fiber.Ctx) error {
	p := auth.PrincipalFrom(c)

	access, err := s.deps.Auth.Resolve(c.Context(), p.ID)
	if err != nil {
		return err
	}

	return c.JSON(AccessResponse{
		UserID:        p.ID,
		Email:         p.Email,
		Status:        p.Status,
		EmailVerified: p.EmailVerified,
		Roles:         access.Roles(),
		Permissions:   access.Permissions(),
	})
}

// Entitlement returns whether the principal is entitled and its plan limits.
func (s *Service) Entitlement(c fiber.Ctx) error {
	st, err := s.deps.Entitlement.ForUser(c.Context(), auth.PrincipalFrom(c).ID)
	if err != nil {
		return err
	}

	return c.JSON(EntitlementResponse{
		Active:       st.Active,
		Limits:       st.Limits,
		Subscription: handler.NewSubscriptionView(st.Subscription, false),
	})
}
