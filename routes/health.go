package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/controllers"
)

// SetupHealthRoutes mounts the caller's own health records.
func SetupHealthRoutes(api fiber.Router, h *controllers.HealthController, protected fiber.Handler) {
	api.Get("/user-data/me", protected, h.GetUserData)
	api.Put("/user-data/me", protected, h.PutUserData)
	api.Get("/user-data/me/history", protected, h.History)

	api.Get("/goal/me", protected, h.GetGoal)
	api.Put("/goal/me", protected, h.PutGoal)
	api.Delete("/goal/me", protected, h.DeleteGoal)

	api.Get("/nutrition-target/me", protected, h.GetNutritionTarget)
	api.Put("/nutrition-target/me", protected, h.PutNutritionTarget)
}
