package handlers

import (
	"io"

	"github.com/fathima-sithara/contacts-api/internal/middleware"
	"github.com/fathima-sithara/contacts-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// maxAvatarBytes caps the accepted upload size before decoding.
const maxAvatarBytes = 5 << 20

// UserHandler exposes the current-user profile endpoints.
type UserHandler struct {
	svc    services.UserService
	logger *zap.Logger
}

func NewUserHandler(svc services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Me returns the authenticated user's snapshot. The response may lag a
// profile mutation by up to the cache TTL.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// UpdateAvatar accepts a multipart image, normalizes it, and stores it under
// the user's key.
func (h *UserHandler) UpdateAvatar(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "file missing"})
	}
	if fileHeader.Size > maxAvatarBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"detail": "file too large"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "cannot open file"})
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "cannot read file"})
	}

	updated, err := h.svc.UpdateAvatar(c.Context(), user, data)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(updated)
}
