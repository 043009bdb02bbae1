package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/storeit/storeit/internal/auth"
)

// Audit emits structured logs for each request/response lifecycle event.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if err != nil {
			status = fiber.StatusInternalServerError
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		}
		if requestID, _ := c.Locals(RequestIDHeader).(string); requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if accountID, _ := c.Locals(auth.LocalAccountID).(string); accountID != "" {
			attrs = append(attrs, slog.String("account_id", accountID))
		}

		switch {
		case err == nil:
			logger.Info("request completed", attrs...)
		case fe != nil && fe.Code < fiber.StatusInternalServerError:
			attrs = append(attrs, slog.String("error", fe.Message))
			logger.Warn("request rejected", attrs...)
		default:
			attrs = append(attrs, slog.Any("error", err))
			logger.Error("request failed", attrs...)
		}
		return err
	}
}
