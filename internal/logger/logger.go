package logger

import (
	"io"
	"log/slog"
	"os"
)

func New(env string, debug bool) *slog.Logger {
	return NewWriter(os.Stdout, env, debug)
}

// NewWriter builds the service logger on w: JSON at info level in prod, text
// at debug level elsewhere. debug forces debug level.
func NewWriter(w io.Writer, env string, debug bool) *slog.Logger {
	var h slog.Handler
	if env == "prod" {
		lvl := slog.LevelInfo
		if debug {
			lvl = slog.LevelDebug
		}
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h)
}
