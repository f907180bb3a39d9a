package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/controllers"
	"github.com/meinhoongagan/healthcoach-api/middleware"
	"github.com/meinhoongagan/healthcoach-api/models"
)

// SetupConsultantRoutes mounts the public directory and the consultant's own profile.
// The /me routes are registered first so "me" is never parsed as a profile id.
func SetupConsultantRoutes(api fiber.Router, h *controllers.ConsultantController, protected fiber.Handler) {
	consultants := api.Group("/consultants")

	me := consultants.Group("/me", protected, middleware.RequireUserType(models.UserTypeConsultant))
	me.Get("/profile", h.MyProfile)
	me.Put("/profile", h.PutProfile)
	me.Patch("/profile", h.PatchProfile)
	me.Post("/documents", h.UploadDocument)
	me.Delete("/documents/:id", h.DeleteDocument)

	consultants.Get("/", h.Search)
	consultants.Get("/:id", h.PublicProfile)
	consultants.Get("/:id/documents", h.ListDocuments)
}

func SetupVideoRoutes(api fiber.Router, h *controllers.VideoController, protected fiber.Handler) {
	api.Post("/video/appointments/:id/join", protected, h.Join)
}
