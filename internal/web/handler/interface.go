package handler

import (
	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/billing"
	"github.com/PrepDesk/PrepDesk/internal/config"
	"github.com/PrepDesk/PrepDesk/internal/entitlement"
	"github.com/PrepDesk/PrepDesk/internal/web/session"
)

// Deps are the services handed to every handler on Init.
type Deps struct {
	Cfg         *config.Config
	DB          *gorm.DB
	Auth        *auth.Service
	Users       *auth.LocalProvider
	Sessions    *session.Store
	Entitlement *entitlement.Service
	// Billing is nil when billing is disabled.
	Billing *billing.Synchronizer
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}

// Check returns ErrNilDeps when app or one of the base dependencies is missing.
func Check(app *fiber.App, deps *Deps) error {
	if app == nil || deps == nil || deps.Cfg == nil || deps.DB == nil || deps.Auth == nil {
		return ErrNilDeps
	}

	return nil
}
