package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tuanvumaihuynh/medsupply/internal/config"
)

const redacted = "[REDACTED]"

// Attribute keys whose values never reach the output, compared case-insensitively.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"access_token":  {},
	"authorization": {},
	"secret":        {},
}

// NewSlogLogger creates the process logger and installs it as the slog default.
func NewSlogLogger(cfg config.Log) *slog.Logger {
	logger := slog.New(newHandler(os.Stdout, cfg))
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, cfg config.Log) slog.Handler {
	var h slog.Handler
	switch cfg.Format {
	case config.LogFormatText:
		h = tint.NewHandler(w, &tint.Options{
			Level:      cfg.EffectiveLevel(),
			AddSource:  cfg.AddSource,
			TimeFormat: time.RFC3339,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a = redact(groups, a)
				if _, ok := a.Value.Any().(error); ok && a.Value.Kind() == slog.KindAny {
					return tint.Attr(9, a)
				}
				return a
			},
		})
	default:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       cfg.EffectiveLevel(),
			AddSource:   cfg.AddSource,
			ReplaceAttr: redact,
		})
	}

	return newEnrichedHandler(h)
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}
