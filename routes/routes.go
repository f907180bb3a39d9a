package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/controllers"
)

// Handlers holds every controller the API mounts.
type Handlers struct {
	Auth         *controllers.AuthController
	Appointments *controllers.AppointmentController
	Sessions     *controllers.SessionController
	Permissions  *controllers.PermissionController
	Health       *controllers.HealthController
	ClientData   *controllers.ClientDataController
	Consultants  *controllers.ConsultantController
	Video        *controllers.VideoController
	System       *controllers.SystemController
}

// Setup mounts every route under /api. protected must reject callers without
// a valid access token.
func Setup(app *fiber.App, h Handlers, protected fiber.Handler) {
	app.Get("/healthz", h.System.Healthz)

	api := app.Group("/api")
	SetupAuthRoutes(api, h.Auth, protected)
	SetupHealthRoutes(api, h.Health, protected)
	SetupAppointmentRoutes(api, h.Appointments, protected)
	SetupSessionRoutes(api, h.Sessions, protected)
	SetupPermissionRoutes(api, h.Permissions, protected)
	SetupClientDataRoutes(api, h.ClientData, protected)
	SetupConsultantRoutes(api, h.Consultants, protected)
	SetupVideoRoutes(api, h.Video, protected)
}
