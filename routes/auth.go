package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/controllers"
)

func SetupAuthRoutes(api fiber.Router, h *controllers.AuthController, protected fiber.Handler) {
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/token", h.Token)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/logout", h.Logout)
	auth.Get("/me", protected, h.Me)
	auth.Put("/users/me", protected, h.UpdateMe)
}
