package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/services"
)

// HealthController serves the caller's own health records.
type HealthController struct {
	health *services.HealthService
}

func NewHealthController(health *services.HealthService) *HealthController {
	return &HealthController{health: health}
}

func (h *HealthController) GetUserData(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	view, err := h.health.GetUserData(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (h *HealthController) PutUserData(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.UserDataUpdate
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	view, err := h.health.UpsertUserData(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (h *HealthController) GetGoal(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	goal, err := h.health.GetGoal(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(goal)
}

func (h *HealthController) PutGoal(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.GoalUpsert
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	goal, err := h.health.UpsertGoal(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(goal)
}

func (h *HealthController) DeleteGoal(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.health.DeleteGoal(c.UserContext(), p); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HealthController) GetNutritionTarget(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	target, err := h.health.GetNutritionTarget(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(target)
}

func (h *HealthController) PutNutritionTarget(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.NutritionTargetUpdate
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	target, err := h.health.UpsertNutritionTarget(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(target)
}

// History lists consultant edits to the caller's records, newest first.
func (h *HealthController) History(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, err)
	}
	entries, err := h.health.ChangeHistory(c.UserContext(), p, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}
