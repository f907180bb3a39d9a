package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/services"
)

type AppointmentController struct {
	appointments *services.AppointmentService
}

func NewAppointmentController(appointments *services.AppointmentService) *AppointmentController {
	return &AppointmentController{appointments: appointments}
}

type submitRequest struct {
	ConsultantUserID uint    `json:"consultant_user_id"`
	Note             *string `json:"note"`
}

type acceptRequest struct {
	ScheduledStartAt *models.Timestamp `json:"scheduled_start_at"`
	ScheduledEndAt   *models.Timestamp `json:"scheduled_end_at"`
}

// Submit godoc
// @Summary Apply for a consultation
// @Tags appointments
// @Accept json
// @Produce json
// @Param body body submitRequest true "Application"
// @Success 201 {object} models.AppointmentApplication
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/appointments/applications [post]
func (h *AppointmentController) Submit(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var req submitRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	app, err := h.appointments.Submit(c.UserContext(), p, req.ConsultantUserID, req.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

func (h *AppointmentController) MyApplications(c *fiber.Ctx) error {
	return h.listApplications(c, h.appointments.ListMyApplications)
}

func (h *AppointmentController) ConsultantApplications(c *fiber.Ctx) error {
	return h.listApplications(c, h.appointments.ListConsultantApplications)
}

func (h *AppointmentController) listApplications(c *fiber.Ctx, list func(ctx context.Context, p models.Principal) ([]models.AppointmentApplication, error)) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	apps, err := list(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(apps)
}

// Accept godoc
// @Summary Accept an application and schedule the appointment
// @Description Window times are ISO 8601 with second or minute precision, e.g. 2025-01-10T10:00Z.
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param body body acceptRequest true "Window"
// @Success 200 {object} models.Appointment
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/appointments/applications/{id}/accept [post]
func (h *AppointmentController) Accept(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req acceptRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.ScheduledStartAt == nil || req.ScheduledEndAt == nil {
		return respondError(c, fiber.NewError(fiber.StatusBadRequest, "scheduled_start_at and scheduled_end_at are required"))
	}
	appt, err := h.appointments.Accept(c.UserContext(), p, id, req.ScheduledStartAt.Time, req.ScheduledEndAt.Time)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appt)
}

func (h *AppointmentController) Reject(c *fiber.Ctx) error {
	return h.transition(c, h.appointments.Reject)
}

func (h *AppointmentController) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.appointments.Cancel)
}

func (h *AppointmentController) transition(c *fiber.Ctx, fn func(ctx context.Context, p models.Principal, id uint) (*models.AppointmentApplication, error)) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	app, err := fn(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(app)
}

func (h *AppointmentController) MyAppointments(c *fiber.Ctx) error {
	return h.listAppointments(c, h.appointments.ListMyAppointments)
}

func (h *AppointmentController) ConsultantAppointments(c *fiber.Ctx) error {
	return h.listAppointments(c, h.appointments.ListConsultantAppointments)
}

func (h *AppointmentController) listAppointments(c *fiber.Ctx, list func(ctx context.Context, p models.Principal) ([]services.AppointmentView, error)) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	views, err := list(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}

// Room returns the session room of an appointment, creating it on first use.
func (h *AppointmentController) Room(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	room, err := h.appointments.Room(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(room)
}
