package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/logger"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Error    string   `json:"error"`
	Message  string   `json:"message"`
	Reason   string   `json:"reason,omitempty"`
	Required []string `json:"required,omitempty"`
}

// ErrorHandler renders errors as ErrorBody with the status of their kind.
// Causes of server side failures are logged, never returned.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorBody{Error: codeForStatus(fe.Code), Message: fe.Message})
	}

	status := apperror.HTTPStatus(err)
	body := ErrorBody{Error: apperror.Code(err), Message: "internal server error"}

	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		body.Message = appErr.Message
	}

	if forbidden, ok := auth.AsForbidden(err); ok {
		body.Reason = string(forbidden.Reason)
		body.Required = forbidden.Required
		body.Message = forbidden.Error()

		if forbidden.Reason == auth.ReasonUnauthenticated {
			status = fiber.StatusUnauthorized
			body.Error = apperror.CodeUnauthenticated
		}
	}

	if status >= fiber.StatusInternalServerError {
		l := logger.For("web")
		l.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		body.Message = "internal server error"
	}

	return c.Status(status).JSON(body)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return apperror.CodeValidation
	case fiber.StatusUnauthorized:
		return apperror.CodeUnauthenticated
	case fiber.StatusForbidden:
		return apperror.CodeForbidden
	case fiber.StatusNotFound:
		return apperror.CodeNotFound
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		if status >= fiber.StatusInternalServerError {
			return apperror.CodeInternal
		}

		return "REQUEST_FAILED"
	}
}
