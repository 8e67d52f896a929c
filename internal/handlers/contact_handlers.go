package handlers

import (
	"time"

	"github.com/fathima-sithara/contacts-api/internal/middleware"
	"github.com/fathima-sithara/contacts-api/internal/repository"
	"github.com/fathima-sithara/contacts-api/internal/services"
	"github.com/fathima-sithara/contacts-api/internal/utils"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const birthdayLayout = "2006-01-02"

// ContactHandler exposes the per-user contacts CRUD plus search and the
// birthday window. Every handler runs behind RequireAuth.
type ContactHandler struct {
	svc    services.ContactService
	logger *zap.Logger
}

func NewContactHandler(svc services.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, logger: logger}
}

type contactReq struct {
	FirstName  string `json:"first_name" validate:"required,min=1,max=50"`
	SecondName string `json:"second_name" validate:"required,min=1,max=50"`
	Email      string `json:"email" validate:"required,email,max=50"`
	Birthday   string `json:"birthday" validate:"required"`
	AddInfo    string `json:"add_info" validate:"max=150"`
}

// toInput validates the raw body and converts the birthday, which must be a
// past date.
func (r contactReq) toInput() (services.ContactInput, string) {
	birthday, err := time.Parse(birthdayLayout, r.Birthday)
	if err != nil {
		return services.ContactInput{}, "birthday must be a date in YYYY-MM-DD format"
	}
	if !birthday.Before(time.Now()) {
		return services.ContactInput{}, "birthday must be a past date"
	}
	return services.ContactInput{
		FirstName:  r.FirstName,
		SecondName: r.SecondName,
		Email:      r.Email,
		Birthday:   birthday,
		AddInfo:    r.AddInfo,
	}, ""
}

func (h *ContactHandler) Create(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req contactReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid body"})
	}
	if ve := utils.ValidateStruct(req); ve != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": ve})
	}
	in, msg := req.toInput()
	if msg != "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": msg})
	}

	contact, err := h.svc.Create(c.Context(), user.ID, in)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(contact)
}

func (h *ContactHandler) Get(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid contact id"})
	}

	contact, err := h.svc.Get(c.Context(), user.ID, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(contact)
}

func (h *ContactHandler) List(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	limit := int64(c.QueryInt("limit", 10))
	if limit < 1 {
		limit = 10
	}
	if limit > 500 {
		limit = 500
	}
	offset := int64(c.QueryInt("offset", 0))
	if offset < 0 {
		offset = 0
	}

	contacts, err := h.svc.List(c.Context(), user.ID, limit, offset)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(contacts)
}

func (h *ContactHandler) Update(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid contact id"})
	}

	var req contactReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid body"})
	}
	if ve := utils.ValidateStruct(req); ve != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": ve})
	}
	in, msg := req.toInput()
	if msg != "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": msg})
	}

	contact, err := h.svc.Update(c.Context(), user.ID, id, in)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(contact)
}

func (h *ContactHandler) Delete(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid contact id"})
	}

	if err := h.svc.Delete(c.Context(), user.ID, id); err != nil {
		return jsonError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ContactHandler) Search(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	filter := repository.ContactFilter{
		FirstName:  c.Query("first_name"),
		SecondName: c.Query("second_name"),
		Email:      c.Query("email"),
	}

	contacts, err := h.svc.Search(c.Context(), user.ID, filter)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(contacts)
}

func (h *ContactHandler) UpcomingBirthdays(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	contacts, err := h.svc.UpcomingBirthdays(c.Context(), user.ID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"contacts": contacts})
}
