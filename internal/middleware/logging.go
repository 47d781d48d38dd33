package middleware

import (
	"strconv"
	"time"

	"github.com/gatherup/backend/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

// RequestLogger emits one structured line per request after the handler ran.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		details := map[string]interface{}{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.IP(),
		}

		if user := GetCurrentUser(c); user != nil {
			logger.InfoWithUser(strconv.FormatUint(uint64(user.ID), 10), "http_request", details)
		} else {
			logger.Info("http_request", details)
		}

		return err
	}
}
