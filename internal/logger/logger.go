package logger

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger — структурное логирование для обработчиков и main.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
	WithError(err error) Logger
	Sync() error
}

// New собирает zap.Logger. Неизвестный уровень -> info; format "json" -> production, иначе development.
func New(levelStr, format string) *zap.Logger {
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// NewStructured — Logger поверх New.
func NewStructured(levelStr, format string) Logger {
	return &zapLogger{base: New(levelStr, format)}
}

// NewZapAdapter оборачивает готовый *zap.Logger (например, observer в тестах).
func NewZapAdapter(l *zap.Logger) Logger {
	return &zapLogger{base: l}
}

type zapLogger struct {
	base *zap.Logger
}

func (z *zapLogger) Debug(msg string, fields map[string]interface{}) {
	z.base.Debug(msg, toFields(fields)...)
}

func (z *zapLogger) Info(msg string, fields map[string]interface{}) {
	z.base.Info(msg, toFields(fields)...)
}

func (z *zapLogger) Warn(msg string, fields map[string]interface{}) {
	z.base.Warn(msg, toFields(fields)...)
}

func (z *zapLogger) Error(msg string, fields map[string]interface{}) {
	z.base.Error(msg, toFields(fields)...)
}

func (z *zapLogger) With(fields map[string]interface{}) Logger {
	return &zapLogger{base: z.base.With(toFields(fields)...)}
}

func (z *zapLogger) WithError(err error) Logger {
	return &zapLogger{base: z.base.With(zap.Error(err))}
}

func (z *zapLogger) Sync() error {
	return z.base.Sync()
}

// toFields сортирует ключи, чтобы порядок полей в строке лога был стабильным.
func toFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
