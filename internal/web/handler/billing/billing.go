// Package billing exposes checkout initiation and the payment provider webhook.
package billing

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/billing"
	"github.com/PrepDesk/PrepDesk/internal/billing/provider"
	"github.com/PrepDesk/PrepDesk/internal/web/handler"
)

const (
	// Path is the base path of the billing endpoints.
	Path = handler.APIPath + "/billing"
	// WebhookPath receives provider events. It is not behind a session.
	WebhookPath = Path + "/webhook"
)

// CheckoutResponse carries the hosted checkout url.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// Service serves /api/billing.
type Service struct {
	sync *billing.Synchronizer
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	if deps.Billing == nil {
		return errors.New("billing synchronizer is nil")
	}

	s.sync = deps.Billing

	app.Post(WebhookPath, s.Webhook)
	app.Post(Path+"/checkout", auth.RequireActiveAccount(false), s.Checkout)

	return nil
}

// Checkout starts a hosted checkout for the logged in user.
func (s *Service) Checkout(c fiber.Ctx) error {
	in := new(billing.CheckoutInput)
	if err := handler.BindJSON(c, in); err != nil {
		return err
	}

	url, err := s.sync.Checkout(c.Context(), auth.PrincipalFrom(c), *in)
	if err != nil {
		return err
	}

	return c.JSON(CheckoutResponse{URL: url})
}

// Webhook verifies and applies one provider event delivery.
func (s *Service) Webhook(c fiber.Ctx) error {
	if err := s.sync.HandleWebhook(c.Context(), c.Body(), c.Get(provider.SignatureHeader)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"received": true})
}
