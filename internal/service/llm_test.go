package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katakuxiko/mini-ia-inventario/internal/config"
)

func createTestConfig(baseURL string) *config.Config {
	return &config.Config{
		ProviderAPIKey:  "sk-test",
		ProviderBaseURL: baseURL,
		ChatModel:       config.DefaultChatModel,
		ProviderTimeout: 2 * time.Second,
	}
}

func providerReplying(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProviderClient_Complete_Extraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "message content",
			body: `{"choices":[{"message":{"role":"assistant","content":"Quedan 120 guantes."},"text":"ignored"}]}`,
			want: "Quedan 120 guantes.",
		},
		{
			name: "content keeps surrounding whitespace",
			body: `{"choices":[{"message":{"content":"  hola \n"}}]}`,
			want: "  hola \n",
		},
		{
			name: "text when content missing",
			body: `{"choices":[{"text":"Hay 40 jeringas."}]}`,
			want: "Hay 40 jeringas.",
		},
		{
			name: "text when content null",
			body: `{"choices":[{"message":{"content":null},"text":"Hay 40 jeringas."}]}`,
			want: "Hay 40 jeringas.",
		},
		{
			name: "text when content empty",
			body: `{"choices":[{"message":{"content":""},"text":"Hay gasas."}]}`,
			want: "Hay gasas.",
		},
		{
			name: "fallback when both missing",
			body: `{"choices":[{"message":{"role":"assistant"}}]}`,
			want: FallbackAnswer,
		},
		{
			name: "fallback on empty choices",
			body: `{"choices":[]}`,
			want: FallbackAnswer,
		},
		{
			name: "fallback without choices field",
			body: `{"id":"gen-1"}`,
			want: FallbackAnswer,
		},
		{
			name: "only first choice is considered",
			body: `{"choices":[{"message":{}},{"message":{"content":"second"}}]}`,
			want: FallbackAnswer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := providerReplying(t, http.StatusOK, tt.body)
			client := NewProviderClient(createTestConfig(srv.URL))

			got, err := client.Complete(context.Background(), "system", "user")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type capturedRequest struct {
	path   string
	header http.Header
	body   map[string]interface{}
}

// captureProvider отдаёт ответ с content "ok" и пересылает полученный запрос в канал.
func captureProvider(t *testing.T) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	reqs := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		reqs <- capturedRequest{path: r.URL.Path, header: r.Header.Clone(), body: body}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv, reqs
}

func TestProviderClient_Complete_RequestShape(t *testing.T) {
	srv, reqs := captureProvider(t)

	cfg := createTestConfig(srv.URL + "/")
	cfg.AppTitle = "Inventario Clinica"
	cfg.Referer = "http://localhost:3000"
	client := NewProviderClient(cfg)

	_, err := client.Complete(context.Background(), "contexto", "¿cuántos guantes hay?")
	require.NoError(t, err)
	got := <-reqs

	assert.Equal(t, "/chat/completions", got.path)
	assert.Equal(t, "Bearer sk-test", got.header.Get("Authorization"))
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "Inventario Clinica", got.header.Get("X-Title"))
	assert.Equal(t, "http://localhost:3000", got.header.Get("HTTP-Referer"))

	assert.Equal(t, config.DefaultChatModel, got.body["model"])
	assert.NotContains(t, got.body, "temperature")
	assert.NotContains(t, got.body, "max_tokens")

	messages, ok := got.body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]interface{}{"role": "system", "content": "contexto"}, messages[0])
	assert.Equal(t, map[string]interface{}{"role": "user", "content": "¿cuántos guantes hay?"}, messages[1])
}

func TestProviderClient_Complete_OptionalSampling(t *testing.T) {
	srv, reqs := captureProvider(t)

	cfg := createTestConfig(srv.URL)
	cfg.Temperature = 0.5
	cfg.MaxTokens = 1500

	_, err := NewProviderClient(cfg).Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	got := <-reqs
	assert.EqualValues(t, 0.5, got.body["temperature"])
	assert.EqualValues(t, 1500, got.body["max_tokens"])
}

func TestProviderClient_Complete_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "provider error status with error body",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"No auth credentials found","code":401}}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "No auth credentials found",
		},
		{
			name:       "provider error status with plain body",
			status:     http.StatusBadGateway,
			body:       `upstream unavailable`,
			wantStatus: http.StatusBadGateway,
			wantMsg:    "upstream unavailable",
		},
		{
			name:    "error object inside 200",
			status:  http.StatusOK,
			body:    `{"error":{"message":"Rate limit exceeded","code":429}}`,
			wantMsg: "Rate limit exceeded",
		},
		{
			name:   "non json body",
			status: http.StatusOK,
			body:   `<html>oops</html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := providerReplying(t, tt.status, tt.body)
			client := NewProviderClient(createTestConfig(srv.URL))

			got, err := client.Complete(context.Background(), "system", "user")
			require.Error(t, err)
			assert.Empty(t, got)
			assert.ErrorIs(t, err, ErrProvider)

			if tt.wantMsg != "" {
				var apiErr *openai.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Contains(t, apiErr.Message, tt.wantMsg)
				assert.Equal(t, tt.wantStatus, apiErr.HTTPStatusCode)
			}
		})
	}
}

func TestProviderClient_Complete_MissingAPIKey(t *testing.T) {
	srv, reqs := captureProvider(t)

	cfg := createTestConfig(srv.URL)
	cfg.ProviderAPIKey = ""

	_, err := NewProviderClient(cfg).Complete(context.Background(), "s", "u")
	require.ErrorIs(t, err, ErrProvider)
	assert.Empty(t, reqs)
}

func TestProviderClient_Complete_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewProviderClient(createTestConfig(url)).Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestProviderClient_Complete_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := createTestConfig(srv.URL)
	cfg.ProviderTimeout = 50 * time.Millisecond

	start := time.Now()
	_, err := NewProviderClient(cfg).Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 2*time.Second)
}
