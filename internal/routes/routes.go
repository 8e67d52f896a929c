package routes

import (
	"github.com/fathima-sithara/contacts-api/internal/handlers"
	"github.com/gofiber/fiber/v2"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Auth     *handlers.AuthHandler
	Contacts *handlers.ContactHandler
	Users    *handlers.UserHandler

	RequireAuth   fiber.Handler
	MeLimiter     fiber.Handler
	AvatarLimiter fiber.Handler
}

// Setup registers the API under /api/v1. The fixed contact sub-paths
// (search, birthday) are registered before the :id wildcard.
func Setup(app *fiber.App, d Deps) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/signup", d.Auth.Signup)
	auth.Post("/login", d.Auth.Login)
	auth.Get("/refresh_token", d.Auth.Refresh)
	auth.Get("/confirmed_email/:token", d.Auth.ConfirmEmail)
	auth.Post("/request_email", d.Auth.RequestEmail)

	users := api.Group("/users", d.RequireAuth)
	users.Get("/me", d.MeLimiter, d.Users.Me)
	users.Patch("/avatar", d.AvatarLimiter, d.Users.UpdateAvatar)

	contacts := api.Group("/contacts", d.RequireAuth)
	contacts.Get("/", d.Contacts.List)
	contacts.Post("/", d.Contacts.Create)
	contacts.Get("/search/", d.Contacts.Search)
	contacts.Get("/birthday/", d.Contacts.UpcomingBirthdays)
	contacts.Get("/:id", d.Contacts.Get)
	contacts.Put("/:id", d.Contacts.Update)
	contacts.Delete("/:id", d.Contacts.Delete)
}
