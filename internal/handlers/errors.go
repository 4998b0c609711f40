package handlers

import (
	"errors"

	"rental/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// handleServiceError answers with the status of err's kind. Internal errors
// are logged and hidden behind internalMsg.
func handleServiceError(c *fiber.Ctx, log *zap.Logger, err error, internalMsg string) error {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperrors.KindInternal {
		log.Error(internalMsg,
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": internalMsg})
	}

	body := fiber.Map{"error": appErr.Message}
	if len(appErr.Fields) > 0 {
		fields := make(map[string]string, len(appErr.Fields))
		for _, f := range appErr.Fields {
			fields[f.Field] = f.Message
		}
		body["errors"] = fields
	}
	log.Debug("request rejected", zap.String("kind", appErr.Kind.String()), zap.String("error", appErr.Message))
	return c.Status(appErr.StatusCode()).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
