package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
)

// ParamID parses a positive numeric route parameter.
func ParamID(c fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid " + name)
	}

	return id, nil
}

// BindJSON decodes the request body into out. Decode failures are validation errors.
func BindJSON(c fiber.Ctx, out any) error {
	if err := c.Bind().JSON(out); err != nil {
		return apperror.Wrap(apperror.ErrValidation, apperror.CodeValidation, err, "invalid request body")
	}

	return nil
}
