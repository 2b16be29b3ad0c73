package logging

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

type LogrusLogger struct {
	e *logrus.Entry
}

// NewLogrusLogger wraps an existing logrus logger.
func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{e: logrus.NewEntry(l)}
}

// New builds a JSON logger writing to w at the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func New(w io.Writer, level string) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return NewLogrusLogger(l)
}

func (s *LogrusLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.entry(ctx, args).Debug(msg)
}

func (s *LogrusLogger) Info(ctx context.Context, msg string, args ...any) {
	s.entry(ctx, args).Info(msg)
}

func (s *LogrusLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.entry(ctx, args).Warn(msg)
}

func (s *LogrusLogger) Error(ctx context.Context, msg string, args ...any) {
	s.entry(ctx, args).Error(msg)
}

func (s *LogrusLogger) With(args ...any) Logger {
	return &LogrusLogger{e: s.e.WithFields(toFields(args))}
}

func (s *LogrusLogger) entry(ctx context.Context, args []any) *logrus.Entry {
	e := s.e
	if ctx != nil {
		e = e.WithContext(ctx)
		if id := RequestID(ctx); id != "" {
			e = e.WithField("request_id", id)
		}
	}
	if len(args) > 0 {
		e = e.WithFields(toFields(args))
	}
	return e
}

// toFields turns key-value pairs into logrus fields. A dangling key is kept
// under "!BADKEY" the way slog does it.
func toFields(args []any) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if err, ok := args[i+1].(error); ok {
			f[key] = err.Error()
			continue
		}
		f[key] = args[i+1]
	}
	return f
}
