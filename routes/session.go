package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/controllers"
)

func SetupSessionRoutes(api fiber.Router, h *controllers.SessionController, protected fiber.Handler) {
	sessions := api.Group("/sessions", protected)
	sessions.Post("/appointments/:id/start", h.Start)
	sessions.Post("/appointments/:id/end", h.End)
	sessions.Get("/appointments/:id/note", h.GetNote)
	sessions.Put("/appointments/:id/note", h.PutNote)
	sessions.Get("/appointments/:id/permissions", h.Permissions)
	sessions.Put("/appointments/:id/permissions", h.GrantPermissions)
	sessions.Get("/appointments/:id/client-health", h.ClientHealth)

	sessions.Get("/rooms/:id/messages", h.ListMessages)
	sessions.Post("/rooms/:id/messages", h.PostMessage)
	sessions.Get("/rooms/:id/events", h.Events)
}
