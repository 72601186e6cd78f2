package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// SlogConfig описывает параметры логгера
type SlogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json" или "text"

	// Output по умолчанию os.Stdout
	Output io.Writer
}

// ParseLevel переводит строковый уровень в slog.Level; неизвестное значение даёт Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewSlog создаёт и настраивает slog.Logger
func NewSlog(cfg SlogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	lvl := ParseLevel(cfg.Level)

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: lvl,
			// timestamp в человекочитаемом виде
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
				}
				return a
			},
		})
	}

	return slog.New(handler).With("service", "photoprint")
}

// Discard возвращает логгер, который ничего не пишет. Нужен в тестах.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
