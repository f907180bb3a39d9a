package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/controllers"
	"github.com/meinhoongagan/healthcoach-api/middleware"
	"github.com/meinhoongagan/healthcoach-api/models"
)

func SetupPermissionRoutes(api fiber.Router, h *controllers.PermissionController, protected fiber.Handler) {
	perms := api.Group("/permissions", protected)
	perms.Get("/me", h.ListMine)
	perms.Post("/me/grant", middleware.RequireUserType(models.UserTypeUser), h.Grant)
	perms.Post("/me/revoke", middleware.RequireUserType(models.UserTypeUser), h.Revoke)
}

// SetupClientDataRoutes mounts consultant access to a client's records.
// Group middleware matches by plain prefix, so the group path must not be a
// prefix of /consultants.
func SetupClientDataRoutes(api fiber.Router, h *controllers.ClientDataController, protected fiber.Handler) {
	clients := api.Group("/consultant/users", protected, middleware.RequireUserType(models.UserTypeConsultant))
	clients.Get("/:id/goal", h.GetGoal)
	clients.Put("/:id/goal", h.PutGoal)
	clients.Get("/:id/nutrition-target", h.GetNutritionTarget)
	clients.Put("/:id/nutrition-target", h.PutNutritionTarget)
}
