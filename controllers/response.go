package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/middleware"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/services"
	"go.uber.org/zap"
)

// ErrorHandler is the fiber-level fallback for errors returned by handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return respondError(c, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes {"detail": ...}. Unknown errors are logged and hidden.
func respondError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"detail": fe.Message})
	}

	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.Log.Error("Unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"detail": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"detail": err.Error()})
}

func principal(c *fiber.Ctx) (models.Principal, error) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return p, fiber.NewError(fiber.StatusUnauthorized, "Could not validate credentials")
	}
	return p, nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

func queryID(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	v := uint(id)
	return &v, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}
