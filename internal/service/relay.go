package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/katakuxiko/mini-ia-inventario/internal/store"
)

// Completer — абстракция чат-модели, скрывающая конкретного провайдера.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const (
	personaPreamble = "Eres un asistente de una clínica.\n" +
		"Tu tarea es responder de manera natural y clara preguntas sobre este inventario:\n\n"
	toleranceNote = "\n\nSi el usuario escribe con errores o de forma informal, igual debes entenderlo y responder correctamente.\n"
)

// RelayService пересылает вопрос пользователя провайдеру вместе с инвентарём.
type RelayService struct {
	llm          Completer
	systemPrompt string
}

func NewRelayService(inv *store.Inventory, llm Completer) *RelayService {
	return &RelayService{llm: llm, systemPrompt: BuildContext(inv)}
}

// BuildContext собирает системную инструкцию: персона, инвентарь, допуск опечаток.
func BuildContext(inv *store.Inventory) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(personaPreamble)
	b.WriteString(inv.Pretty())
	b.WriteString(toleranceNote)
	return b.String()
}

// SystemPrompt возвращает контекст, общий для всех запросов.
func (s *RelayService) SystemPrompt() string { return s.systemPrompt }

// Ask отправляет вопрос провайдеру вместе с контекстом инвентаря. Один вызов, без повторов.
func (s *RelayService) Ask(ctx context.Context, prompt string) (string, error) {
	answer, err := s.llm.Complete(ctx, s.systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("relay: %w", err)
	}
	return answer, nil
}
