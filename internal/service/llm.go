package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/katakuxiko/mini-ia-inventario/internal/config"
	"github.com/katakuxiko/mini-ia-inventario/internal/metrics"
	"github.com/katakuxiko/mini-ia-inventario/internal/util"
)

// FallbackAnswer возвращается, если провайдер не прислал ни content, ни text.
const FallbackAnswer = "No se pudo generar una respuesta."

// ErrProvider — единственный класс ошибок обращения к провайдеру.
var ErrProvider = errors.New("completion provider request failed")

const maxErrorBody = 2048

// ProviderClient — клиент chat completions для OpenRouter / OpenAI совместимых API.
type ProviderClient struct {
	httpDo      *http.Client
	baseURL     string
	apiKey      string
	chatName    string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	appTitle    string
	referer     string
}

// NewProviderClient создаёт клиент с настройками из config
func NewProviderClient(cfg *config.Config) *ProviderClient {
	return &ProviderClient{
		httpDo:      &http.Client{},
		baseURL:     strings.TrimRight(cfg.ProviderBaseURL, "/"),
		apiKey:      cfg.ProviderAPIKey,
		chatName:    cfg.ChatModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.ProviderTimeout,
		appTitle:    cfg.AppTitle,
		referer:     cfg.Referer,
	}
}

// Model возвращает идентификатор модели.
func (p *ProviderClient) Model() string { return p.chatName }

type completionMessage struct {
	Content *string `json:"content"`
}

type completionChoice struct {
	Message *completionMessage `json:"message"`
	Text    *string            `json:"text"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
	Error   *openai.APIError   `json:"error"`
}

// answer: message.content первого варианта, затем его text, затем FallbackAnswer.
// Пустая строка считается отсутствующим значением.
func (r *completionResponse) answer() (string, bool) {
	if len(r.Choices) == 0 {
		return FallbackAnswer, false
	}
	first := r.Choices[0]
	if first.Message != nil && first.Message.Content != nil && *first.Message.Content != "" {
		return *first.Message.Content, true
	}
	if first.Text != nil && *first.Text != "" {
		return *first.Text, true
	}
	return FallbackAnswer, false
}

// Complete отправляет диалог system+user и возвращает текст ответа.
func (p *ProviderClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	answer, err := p.complete(ctx, systemPrompt, userPrompt)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeProviderError
	}
	metrics.ProviderDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return answer, err
}

func (p *ProviderClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("%w: api key is not configured", ErrProvider)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	reqBody := openai.ChatCompletionRequest{
		Model: p.chatName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if p.referer != "" {
		req.Header.Set("HTTP-Referer", p.referer)
	}
	if p.appTitle != "" {
		req.Header.Set("X-Title", p.appTitle)
	}

	resp, err := p.httpDo.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrProvider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %w", ErrProvider, statusError(resp, body))
	}

	var out completionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrProvider, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%w: %w", ErrProvider, out.Error)
	}

	answer, ok := out.answer()
	if !ok {
		metrics.FallbackAnswers.Inc()
	}
	return answer, nil
}

func statusError(resp *http.Response, body []byte) *openai.APIError {
	var errResp openai.ErrorResponse
	apiErr := &openai.APIError{}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		apiErr = errResp.Error
	} else {
		apiErr.Message = util.TruncateRunes(strings.TrimSpace(string(body)), maxErrorBody)
	}
	apiErr.HTTPStatusCode = resp.StatusCode
	apiErr.HTTPStatus = resp.Status
	return apiErr
}
