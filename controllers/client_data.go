package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/services"
)

// ClientDataController serves consultant reads and writes of a client's records.
// Every call goes through the client's permission grant.
type ClientDataController struct {
	clientData *services.ClientDataService
}

func NewClientDataController(clientData *services.ClientDataService) *ClientDataController {
	return &ClientDataController{clientData: clientData}
}

func (h *ClientDataController) target(c *fiber.Ctx) (models.Principal, uint, error) {
	p, err := principal(c)
	if err != nil {
		return p, 0, err
	}
	userID, err := paramID(c, "id")
	return p, userID, err
}

// GetGoal godoc
// @Summary Read a client's goal
// @Tags consultant
// @Produce json
// @Param id path int true "Client user ID"
// @Success 200 {object} models.Goal
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/consultant/users/{id}/goal [get]
func (h *ClientDataController) GetGoal(c *fiber.Ctx) error {
	p, userID, err := h.target(c)
	if err != nil {
		return respondError(c, err)
	}
	goal, err := h.clientData.GetGoal(c.UserContext(), p, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(goal)
}

// PutGoal godoc
// @Summary Write a client's goal
// @Tags consultant
// @Accept json
// @Produce json
// @Param id path int true "Client user ID"
// @Param appointment_id query int false "Appointment the change was made in"
// @Success 200 {object} models.Goal
// @Failure 403 {object} map[string]string
// @Router /api/consultant/users/{id}/goal [put]
func (h *ClientDataController) PutGoal(c *fiber.Ctx) error {
	p, userID, err := h.target(c)
	if err != nil {
		return respondError(c, err)
	}
	apptID, err := queryID(c, "appointment_id")
	if err != nil {
		return respondError(c, err)
	}
	var in models.GoalUpsert
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	goal, err := h.clientData.PutGoal(c.UserContext(), p, userID, in, apptID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(goal)
}

func (h *ClientDataController) GetNutritionTarget(c *fiber.Ctx) error {
	p, userID, err := h.target(c)
	if err != nil {
		return respondError(c, err)
	}
	target, err := h.clientData.GetNutritionTarget(c.UserContext(), p, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(target)
}

func (h *ClientDataController) PutNutritionTarget(c *fiber.Ctx) error {
	p, userID, err := h.target(c)
	if err != nil {
		return respondError(c, err)
	}
	apptID, err := queryID(c, "appointment_id")
	if err != nil {
		return respondError(c, err)
	}
	var in models.NutritionTargetUpdate
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	target, err := h.clientData.PutNutritionTarget(c.UserContext(), p, userID, in, apptID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(target)
}
