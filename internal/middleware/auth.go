package middleware

import (
	"strings"

	"github.com/fathima-sithara/contacts-api/internal/models"
	"github.com/fathima-sithara/contacts-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

const userLocalsKey = "currentUser"

// RequireAuth resolves the bearer access token through the auth service and
// stores the user snapshot in locals for downstream handlers.
func RequireAuth(auth services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "missing authorization header"})
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "invalid authorization header"})
		}

		user, err := auth.Authenticate(c.Context(), parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": services.ErrInvalidAccessToken.Error()})
		}

		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the snapshot stored by RequireAuth, or nil on an
// unauthenticated route.
func CurrentUser(c *fiber.Ctx) *models.Snapshot {
	user, _ := c.Locals(userLocalsKey).(*models.Snapshot)
	return user
}
