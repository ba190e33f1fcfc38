package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/logger"
	"github.com/PrepDesk/PrepDesk/internal/web/session"
)

// SessionMiddleware attaches the principal of the session cookie to the request.
// Requests without a valid session continue anonymously; the route guards reject them.
func SessionMiddleware(store *session.Store, users *auth.LocalProvider) fiber.Handler {
	l := logger.For("web")

	return func(c fiber.Ctx) error {
		sessionID := c.Cookies(session.CookieName)
		if sessionID == "" {
			return c.Next()
		}

		data, err := store.Read(sessionID)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				l.Error().Err(err).Msg("failed to read session")
			}

			return c.Next()
		}

		user, err := users.GetUserByID(c.Context(), data.UserID)
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Next()
		}

		if err != nil {
			return err
		}

		auth.SetPrincipal(c, auth.PrincipalFromUser(user))

		return c.Next()
	}
}
