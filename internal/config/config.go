package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPort           = "3000"
	DefaultProviderURL    = "https://openrouter.ai/api/v1"
	DefaultChatModel      = "deepseek/deepseek-r1:free"
	DefaultInventoryPath  = "inventario.json"
	DefaultInventoryQuery = "SELECT data FROM inventario_snapshot ORDER BY id DESC LIMIT 1"

	DefaultProviderTimeout = 30 * time.Second
	// значения меньше этого почти наверняка опечатка ("30" вместо "30s")
	minProviderTimeout = time.Second
)

type Config struct {
	Port string

	// провайдер (OpenRouter / OpenAI совместимый)
	ProviderAPIKey  string
	ProviderBaseURL string
	ChatModel       string
	Temperature     float32
	MaxTokens       int
	ProviderTimeout time.Duration
	AppTitle        string
	Referer         string

	// источник инвентаря: файл по умолчанию, Postgres если задан INVENTORY_PG_CONN
	InventoryPath   string
	InventoryPGConn string
	InventoryQuery  string

	StaticDir string
	LogLevel  string
	LogFormat string
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("OPENROUTER_API_KEY", "")
	v.SetDefault("OPENROUTER_BASE_URL", DefaultProviderURL)
	v.SetDefault("OPENROUTER_APP_TITLE", "")
	v.SetDefault("OPENROUTER_REFERER", "")
	v.SetDefault("LLM_MODEL", DefaultChatModel)
	v.SetDefault("LLM_TEMPERATURE", 0)
	v.SetDefault("LLM_MAX_TOKENS", 0)
	v.SetDefault("LLM_TIMEOUT", DefaultProviderTimeout.String())
	v.SetDefault("INVENTORY_PATH", DefaultInventoryPath)
	v.SetDefault("INVENTORY_PG_CONN", "")
	v.SetDefault("INVENTORY_PG_QUERY", DefaultInventoryQuery)
	v.SetDefault("STATIC_DIR", "public")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	timeout, err := parseTimeout(v.GetString("LLM_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Port:            strings.TrimSpace(v.GetString("PORT")),
		ProviderAPIKey:  strings.TrimSpace(v.GetString("OPENROUTER_API_KEY")),
		ProviderBaseURL: strings.TrimRight(v.GetString("OPENROUTER_BASE_URL"), "/"),
		ChatModel:       v.GetString("LLM_MODEL"),
		Temperature:     float32(v.GetFloat64("LLM_TEMPERATURE")),
		MaxTokens:       v.GetInt("LLM_MAX_TOKENS"),
		ProviderTimeout: timeout,
		AppTitle:        v.GetString("OPENROUTER_APP_TITLE"),
		Referer:         v.GetString("OPENROUTER_REFERER"),
		InventoryPath:   v.GetString("INVENTORY_PATH"),
		InventoryPGConn: v.GetString("INVENTORY_PG_CONN"),
		InventoryQuery:  v.GetString("INVENTORY_PG_QUERY"),
		StaticDir:       v.GetString("STATIC_DIR"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return errors.New("PORT is empty")
	}
	if cfg.ProviderBaseURL == "" {
		return errors.New("OPENROUTER_BASE_URL is empty")
	}
	if cfg.ChatModel == "" {
		return errors.New("LLM_MODEL is empty")
	}
	if cfg.ProviderTimeout < 0 {
		return fmt.Errorf("LLM_TIMEOUT must not be negative, got %s", cfg.ProviderTimeout)
	}
	if cfg.ProviderTimeout > 0 && cfg.ProviderTimeout < minProviderTimeout {
		return fmt.Errorf("LLM_TIMEOUT must be 0 or at least %s, got %s", minProviderTimeout, cfg.ProviderTimeout)
	}
	if cfg.MaxTokens < 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must not be negative, got %d", cfg.MaxTokens)
	}
	if cfg.InventoryPGConn == "" && cfg.InventoryPath == "" {
		return errors.New("INVENTORY_PATH is empty and INVENTORY_PG_CONN is not set")
	}
	if cfg.InventoryPGConn != "" && cfg.InventoryQuery == "" {
		return errors.New("INVENTORY_PG_QUERY is empty")
	}
	return nil
}

// parseTimeout требует единицу измерения ("30s", "1m"); "0" отключает таймаут.
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultProviderTimeout, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("LLM_TIMEOUT %q: %w", raw, err)
	}
	return d, nil
}

// UsesPostgresInventory сообщает, откуда грузить инвентарь.
func (c *Config) UsesPostgresInventory() bool {
	return c.InventoryPGConn != ""
}

func (c *Config) ListenAddr() string {
	return ":" + c.Port
}
