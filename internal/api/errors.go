package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/katakuxiko/mini-ia-inventario/internal/logger"
	"github.com/katakuxiko/mini-ia-inventario/internal/model"
)

// NewConfig — конфигурация fiber с обработчиком ошибок, который не отдаёт детали клиенту.
func NewConfig(log logger.Logger) fiber.Config {
	return fiber.Config{
		AppName:               "mini-ia-inventario",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	}
}

func errorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			return c.Status(fe.Code).JSON(model.ErrorResponse{Error: fe.Message})
		}

		reqID, _ := c.Locals("requestid").(string)
		log.WithError(err).Error("unhandled error", map[string]interface{}{
			"requestId": reqID,
			"path":      c.Path(),
		})
		return c.Status(fiber.StatusInternalServerError).JSON(model.ErrorResponse{Error: msgProviderFailed})
	}
}
