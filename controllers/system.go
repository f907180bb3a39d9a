package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency the health check probes.
type Pinger func(ctx context.Context) error

type SystemController struct {
	checks map[string]Pinger
}

// NewSystemController takes one named probe per dependency. A nil probe is reported as disabled.
func NewSystemController(checks map[string]Pinger) *SystemController {
	return &SystemController{checks: checks}
}

func (h *SystemController) Healthz(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := fiber.StatusOK
	result := fiber.Map{}
	for name, ping := range h.checks {
		switch {
		case ping == nil:
			result[name] = "disabled"
		case ping(ctx) != nil:
			result[name] = "down"
			status = fiber.StatusServiceUnavailable
		default:
			result[name] = "ok"
		}
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{"status": overall, "checks": result})
}
