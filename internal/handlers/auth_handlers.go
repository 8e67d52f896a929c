package handlers

import (
	"strings"

	"github.com/fathima-sithara/contacts-api/internal/services"
	"github.com/fathima-sithara/contacts-api/internal/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler exposes the signup, login, refresh and confirmation endpoints.
type AuthHandler struct {
	svc    services.AuthService
	logger *zap.Logger
}

func NewAuthHandler(svc services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type signupReq struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
	Email    string `json:"email" validate:"required,email,max=150"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid body"})
	}
	if ve := utils.ValidateStruct(req); ve != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": ve})
	}

	user, err := h.svc.Register(c.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid body"})
	}
	if ve := utils.ValidateStruct(req); ve != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": ve})
	}

	tokens, err := h.svc.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(tokens)
}

// Refresh reads the refresh token from the Authorization header and rotates
// the pair.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": services.ErrInvalidRefreshToken.Error()})
	}

	tokens, err := h.svc.Refresh(c.Context(), token)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(tokens)
}

func (h *AuthHandler) ConfirmEmail(c *fiber.Ctx) error {
	token := c.Params("token")
	msg, err := h.svc.ConfirmEmail(c.Context(), token)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"message": msg})
}

type requestEmailReq struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) RequestEmail(c *fiber.Ctx) error {
	var req requestEmailReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid body"})
	}
	if ve := utils.ValidateStruct(req); ve != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": ve})
	}

	msg, err := h.svc.ResendConfirmation(c.Context(), req.Email)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"message": msg})
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
