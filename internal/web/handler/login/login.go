// Package login provides the session login and logout endpoints.
package login

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/logger"
	"github.com/PrepDesk/PrepDesk/internal/web/handler"
	"github.com/PrepDesk/PrepDesk/internal/web/session"
)

const (
	// Path is the path of the login endpoint.
	Path = "/login"
	// LogoutPath is the path of the logout endpoint.
	LogoutPath = "/logout"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=1024"`
}

// Response is returned on a successful login.
type Response struct {
	UserID        uint64 `json:"userId"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// Service is the login handler service.
type Service struct {
	deps      *handler.Deps
	validator *validator.Validate
	log       zerolog.Logger
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	if deps.Users == nil || deps.Sessions == nil {
		return errors.New("users or sessions is nil")
	}

	s.deps = deps
	s.log = logger.For("web")
	s.validator = validator.New(validator.WithRequiredStructEnabled())

	app.Post(Path, s.Post)
	app.Post(LogoutPath, s.Logout)

	return nil
}

// Post checks the credentials and opens a session.
func (s *Service) Post(c fiber.Ctx) error {
	in := new(Credentials)
	if err := handler.BindJSON(c, in); err != nil {
		return err
	}

	if err := s.validator.Struct(in); err != nil {
		return apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid login request")
	}

	user, err := s.deps.Users.Authenticate(c.Context(), in.Username, in.Password)

	switch {
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword):
		s.log.Info().Str("username", in.Username).Msg("login failed")
		return ErrInvalidCredentials
	case errors.Is(err, auth.ErrUserAccountDisabled):
		s.log.Info().Str("username", in.Username).Msg("login of disabled account refused")
		return ErrAccountDisabled
	case err != nil:
		return err
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to generate session ID")
		return err
	}

	if err = s.deps.Sessions.Write(sessionID, &session.Data{UserID: user.ID, CreatedAt: time.Now().UTC()}); err != nil {
		s.log.Error().Err(err).Msg("failed to write session")
		return err
	}

	c.Cookie(s.cookie(sessionID, int(s.deps.Sessions.Expiry().Seconds())))

	return c.JSON(Response{
		UserID:        user.ID,
		Username:      user.Username,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
	})
}

// Logout deletes the session and clears the cookie.
func (s *Service) Logout(c fiber.Ctx) error {
	if sessionID := c.Cookies(session.CookieName); sessionID != "" {
		if err := s.deps.Sessions.Delete(sessionID); err != nil {
			s.log.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.Cookie(s.cookie("", -1))

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) cookie(value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     handler.RootPath,
		Domain:   s.deps.Cfg.Webserver.Domain,
		MaxAge:   maxAge,
		Secure:   s.deps.Cfg.Webserver.CookieSecure && !s.deps.Cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
