// Package logger — тонкая обёртка над log/slog, через которую пишут логи все слои сервиса.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger описывает логгер, который прокидывается во все компоненты через конструкторы.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
	With(args ...any) Logger
}

// SlogLogger реализует Logger поверх slog.Logger с JSON-выводом.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger создаёт логгер, пишущий JSON в stdout. Уровень берётся из LOG_LEVEL (debug|info|warn|error).
func NewSlogLogger() *SlogLogger {
	return NewSlogLoggerWithWriter(os.Stdout, parseLevel(os.Getenv("LOG_LEVEL")))
}

// NewSlogLoggerWithWriter создаёт логгер с произвольным writer'ом (используется в тестах).
func NewSlogLoggerWithWriter(w io.Writer, level slog.Level) *SlogLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogLogger{l: slog.New(handler)}
}

// NewNopLogger возвращает логгер, который ничего не пишет.
func NewNopLogger() *SlogLogger {
	return NewSlogLoggerWithWriter(io.Discard, slog.LevelError+1)
}

func (s *SlogLogger) Debugf(format string, args ...any) {
	s.l.Debug(fmt.Sprintf(format, args...))
}

func (s *SlogLogger) Infof(format string, args ...any) {
	s.l.Info(fmt.Sprintf(format, args...))
}

func (s *SlogLogger) Warnf(format string, args ...any) {
	s.l.Warn(fmt.Sprintf(format, args...))
}

func (s *SlogLogger) Errorf(err error, format string, args ...any) {
	if err == nil {
		s.l.Error(fmt.Sprintf(format, args...))
		return
	}
	s.l.Error(fmt.Sprintf(format, args...), slog.String("error", err.Error()))
}

// With возвращает логгер с дополнительными атрибутами.
func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
