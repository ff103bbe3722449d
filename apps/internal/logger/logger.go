// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package logger writes the library's log events through log/slog. Each event is written twice:
// once without personal data, and once with it when PII logging is enabled.
package logger

import (
	"context"
	"log/slog"
)

type Level string

const (
	Info  Level = "info"
	Err   Level = "error"
	Warn  Level = "warn"
	Debug Level = "debug"
)

// Logger wraps a *slog.Logger. The zero value and a nil *Logger discard everything.
type Logger struct {
	logging    *slog.Logger
	piiEnabled bool
}

// New creates a Logger. slog.Default() is used when l is nil.
func New(l *slog.Logger, piiEnabled bool) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{logging: l, piiEnabled: piiEnabled}
}

// PiiEnabled reports whether LogPii writes anything.
func (a *Logger) PiiEnabled() bool {
	return a != nil && a.piiEnabled
}

// Log writes message with fields. Fields must not carry PII.
func (a *Logger) Log(ctx context.Context, level Level, message string, fields ...any) {
	if a == nil || a.logging == nil {
		return
	}
	a.logging.Log(ctx, slogLevel(level), message, fields...)
}

// LogPii writes message with fields that may carry PII, such as authorities or user principal names.
// It does nothing unless PII logging was enabled.
func (a *Logger) LogPii(ctx context.Context, level Level, message string, fields ...any) {
	if !a.PiiEnabled() || a.logging == nil {
		return
	}
	a.logging.Log(ctx, slogLevel(level), message, append([]any{slog.Bool("pii", true)}, fields...)...)
}

func slogLevel(level Level) slog.Level {
	switch level {
	case Info:
		return slog.LevelInfo
	case Err:
		return slog.LevelError
	case Warn:
		return slog.LevelWarn
	case Debug:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Field creates a slog field for any value
func Field(key string, value any) any {
	return slog.Any(key, value)
}
