// Package logger defines the small structured-logging interface commlink
// consumes, mirroring the logger.Logger abstraction in arloliu/go-secs:
// the library depends only on this interface, not on any concrete
// logging backend, so callers can plug in slog with whatever handler
// they like (text, JSON, or a terminal formatter such as
// phsym/console-slog) without commlink importing it directly.
package logger

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the structured logging interface commlink uses throughout
// the comm, receiver, and port packages. Key-value pairs follow the
// slog convention: alternating key (string) and value.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// slogLogger adapts a *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// New wraps an existing *slog.Logger.
func New(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

// Default returns a Logger backed by a slog.Logger with the standard
// text handler writing to stderr, the same default commlink falls back
// to when the caller does not supply one via comm.WithLogger.
func Default() Logger {
	return New(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func (s *slogLogger) Debug(msg string, kv ...any) { s.l.Log(context.Background(), slog.LevelDebug, msg, kv...) }
func (s *slogLogger) Info(msg string, kv ...any)  { s.l.Log(context.Background(), slog.LevelInfo, msg, kv...) }
func (s *slogLogger) Warn(msg string, kv ...any)  { s.l.Log(context.Background(), slog.LevelWarn, msg, kv...) }
func (s *slogLogger) Error(msg string, kv ...any) { s.l.Log(context.Background(), slog.LevelError, msg, kv...) }

type nopLogger struct{}

// Nop returns a Logger that discards everything, for tests and callers
// who don't want commlink's logging.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
