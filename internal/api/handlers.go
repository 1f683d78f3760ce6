package api

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/katakuxiko/mini-ia-inventario/internal/logger"
	"github.com/katakuxiko/mini-ia-inventario/internal/metrics"
	"github.com/katakuxiko/mini-ia-inventario/internal/model"
	"github.com/katakuxiko/mini-ia-inventario/internal/service"
	"github.com/katakuxiko/mini-ia-inventario/internal/store"
	"github.com/katakuxiko/mini-ia-inventario/internal/util"
)

const (
	// сообщения клиенту фиксированы, детали ошибок остаются в логах
	msgProviderFailed = "Error al consultar la IA."
	msgBadRequest     = "Solicitud inválida."

	promptPreviewRunes = 200
)

// Handler хранит зависимости для обработчиков
type Handler struct {
	relay     *service.RelayService
	inventory *store.Inventory
	modelName string
	log       logger.Logger
}

// NewHandler конструктор
func NewHandler(relay *service.RelayService, inv *store.Inventory, modelName string, log logger.Logger) *Handler {
	return &Handler{relay: relay, inventory: inv, modelName: modelName, log: log}
}

// Health — простая проверка
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.SendString("ok")
}

// Status — состояние сервера и размер загруженного инвентаря
func (h *Handler) Status(c *fiber.Ctx) error {
	return c.JSON(model.StatusResponse{
		Status:           "running",
		InventoryEntries: h.inventory.Entries(),
		Model:            h.modelName,
	})
}

// Chat — вопрос пользователя + инвентарь -> провайдер -> {"respuesta": ...}
func (h *Handler) Chat(c *fiber.Ctx) error {
	reqID, _ := c.Locals("requestid").(string)
	log := h.log.With(map[string]interface{}{"requestId": reqID})

	var req model.ChatRequest
	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		if err := c.App().Config().JSONDecoder(body, &req); err != nil {
			metrics.ChatRequests.WithLabelValues(metrics.OutcomeBadRequest).Inc()
			log.Warn("invalid chat request", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{Error: msgBadRequest})
		}
	}

	answer, err := h.relay.Ask(c.UserContext(), req.Prompt)
	if err != nil {
		metrics.ChatRequests.WithLabelValues(metrics.OutcomeProviderError).Inc()
		log.WithError(err).Error("error al consultar la IA", nil)
		return c.Status(fiber.StatusInternalServerError).JSON(model.ErrorResponse{Error: msgProviderFailed})
	}

	metrics.ChatRequests.WithLabelValues(metrics.OutcomeOK).Inc()
	log.Info("respuesta generada", map[string]interface{}{
		"prompt":    util.TruncateRunes(req.Prompt, promptPreviewRunes),
		"respuesta": answer,
	})
	return c.JSON(model.ChatResponse{Respuesta: answer})
}
