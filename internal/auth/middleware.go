package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/PrepDesk/PrepDesk/internal/logger"
)

type localsKey int

const (
	principalKey localsKey = iota
	accessKey
)

// SetPrincipal attaches the authenticated principal to the request.
func SetPrincipal(c fiber.Ctx, p *Principal) {
	c.Locals(principalKey, p)
}

// PrincipalFrom returns the principal attached to the request, nil if anonymous.
func PrincipalFrom(c fiber.Ctx) *Principal {
	p, _ := c.Locals(principalKey).(*Principal)
	return p
}

// AccessFrom returns the access resolved by a previous guard of the same request, if any.
func AccessFrom(c fiber.Ctx) *Access {
	a, _ := c.Locals(accessKey).(*Access)
	return a
}

// Require creates Fiber middleware that rejects requests not meeting req.
// Rejections are returned as *ForbiddenError for the application error handler.
func Require(authService *Service, req Requirement) fiber.Handler {
	l := logger.For("auth")

	return func(c fiber.Ctx) error {
		p := PrincipalFrom(c)

		if err := CheckAccount(p, req.RequireVerified); err != nil {
			return err
		}

		if len(req.Roles) == 0 && len(req.AnyPermissions) == 0 {
			return c.Next()
		}

		access := AccessFrom(c)
		if access == nil {
			var err error

			access, err = authService.Resolve(c.Context(), p.ID)
			if err != nil {
				l.Error().Err(err).Uint64("user_id", p.ID).Msg("failed to resolve permissions")
				return err
			}

			c.Locals(accessKey, access)
		}

		if len(req.Roles) > 0 && !access.HasRole(req.Roles...) {
			l.Warn().Uint64("user_id", p.ID).Strs("roles", req.Roles).Msg("user lacks required role")
			return &ForbiddenError{Reason: ReasonMissingRole, Required: req.Roles}
		}

		if len(req.AnyPermissions) > 0 && !access.HasPermission(req.AnyPermissions...) {
			l.Warn().Uint64("user_id", p.ID).Strs("permissions", req.AnyPermissions).
				Msg("user lacks required permission")

			return &ForbiddenError{Reason: ReasonMissingPermission, Required: req.AnyPermissions}
		}

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires at least one of the given permissions.
func RequirePermission(authService *Service, keys ...string) fiber.Handler {
	return Require(authService, Requirement{AnyPermissions: keys})
}

// RequireRole creates Fiber middleware that requires at least one of the given roles.
func RequireRole(authService *Service, names ...string) fiber.Handler {
	return Require(authService, Requirement{Roles: names})
}

// RequireActiveAccount creates Fiber middleware that only applies the account gates.
func RequireActiveAccount(requireVerified bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := CheckAccount(PrincipalFrom(c), requireVerified); err != nil {
			return err
		}

		return c.Next()
	}
}
