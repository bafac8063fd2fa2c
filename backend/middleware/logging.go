package middleware

import (
	"time"

	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// LoggingMiddleware logs one line per request. Errors are still returned so
// the app's error handler writes the response; the status is derived here the
// same way.
func LoggingMiddleware(logger *utils.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = utils.StatusFor(err)
		}
		fields := []interface{}{
			"request_id", c.Locals(requestIDKey),
			"ip", c.IP(),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request failed", append(fields, "error", err)...)
		case err != nil:
			logger.Warn("request rejected", append(fields, "error", err)...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}
