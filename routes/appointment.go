package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/controllers"
	"github.com/meinhoongagan/healthcoach-api/middleware"
	"github.com/meinhoongagan/healthcoach-api/models"
)

// SetupAppointmentRoutes configures applications, appointments and room lookup.
func SetupAppointmentRoutes(api fiber.Router, h *controllers.AppointmentController, protected fiber.Handler) {
	consultantOnly := middleware.RequireUserType(models.UserTypeConsultant)

	appointments := api.Group("/appointments", protected)
	appointments.Post("/applications", h.Submit)
	appointments.Get("/applications/me", h.MyApplications)
	appointments.Get("/applications/consultant/me", consultantOnly, h.ConsultantApplications)
	appointments.Post("/applications/:id/accept", consultantOnly, h.Accept)
	appointments.Post("/applications/:id/reject", consultantOnly, h.Reject)
	appointments.Post("/applications/:id/cancel", h.Cancel)

	appointments.Get("/me", h.MyAppointments)
	appointments.Get("/consultant/me", consultantOnly, h.ConsultantAppointments)
	appointments.Get("/:id/room", h.Room)
}
