package logger

import (
	"io"
	"log/slog"
	"os"
)

const appName = "batchbook"

func New(env string) *slog.Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter JSON в w; в dev пишем debug и место вызова.
func NewWithWriter(env string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == "dev" {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With("app", appName, "env", env)
}

// Component дочерний логгер подсистемы (sync, bot, http).
func Component(log *slog.Logger, name string) *slog.Logger {
	return log.With("component", name)
}
