// Package subscription lets administrators inspect and remove subscriptions.
package subscription

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/billing"
	"github.com/PrepDesk/PrepDesk/internal/entitlement"
	"github.com/PrepDesk/PrepDesk/internal/web/handler"
)

// Path is the base path of subscription administration.
const Path = handler.AdminPath + "/subscriptions"

// Response is the subscription of a user with its derived entitlement.
type Response struct {
	Active       bool                      `json:"active"`
	Limits       entitlement.Limits        `json:"limits"`
	Subscription *handler.SubscriptionView `json:"subscription"`
}

// Service serves subscription administration.
type Service struct {
	deps *handler.Deps
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	if deps.Entitlement == nil || deps.Billing == nil {
		return errors.New("entitlement or billing is nil")
	}

	s.deps = deps

	router := app.Group(Path, auth.RequirePermission(deps.Auth, auth.PermAdminSubscriptions))
	router.Get("/:userId", s.Get)
	router.Delete("/:userId", s.Delete)

	return nil
}

// Get returns the subscription of a user.
func (s *Service) Get(c fiber.Ctx) error {
	userID, err := handler.ParamID(c, "userId")
	if err != nil {
		return err
	}

	st, err := s.deps.Entitlement.ForUser(c.Context(), userID)
	if err != nil {
		return err
	}

	if st.Subscription == nil {
		return billing.ErrSubscriptionNotFound
	}

	return c.JSON(Response{
		Active:       st.Active,
		Limits:       st.Limits,
		Subscription: handler.NewSubscriptionView(st.Subscription, true),
	})
}

// Delete removes the subscription row of a user.
func (s *Service) Delete(c fiber.Ctx) error {
	userID, err := handler.ParamID(c, "userId")
	if err != nil {
		return err
	}

	if err = s.deps.Billing.DeleteSubscription(c.Context(), userID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
