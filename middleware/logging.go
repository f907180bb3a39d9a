package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/healthcoach-api/logger"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request after the handler chain ran.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		}
		if p, ok := CurrentPrincipal(c); ok {
			fields = append(fields, zap.Uint("user_id", p.UserID))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Log.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Log.Warn("request", fields...)
		default:
			logger.Log.Info("request", fields...)
		}
		return err
	}
}
