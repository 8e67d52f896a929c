package handlers

import (
	"errors"

	"github.com/fathima-sithara/contacts-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps service error kinds to HTTP statuses. Anything unmapped is
// an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrEmailAlreadyRegistered):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidPassword),
		errors.Is(err, services.ErrEmailNotConfirmed),
		errors.Is(err, services.ErrInvalidAccessToken),
		errors.Is(err, services.ErrInvalidRefreshToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrVerificationFailed),
		errors.Is(err, services.ErrUnsupportedImage):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrContactNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func jsonError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	detail := err.Error()
	if status == fiber.StatusInternalServerError {
		detail = services.ErrInternal.Error()
	}
	return c.Status(status).JSON(fiber.Map{"detail": detail})
}
