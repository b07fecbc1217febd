package journal

import (
	"context"
	"log/slog"
)

// LogSink writes events to a logger. It is the inserter used when no
// database is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) BatchInsert(ctx context.Context, events []Event) error {
	for _, e := range events {
		attrs := []slog.Attr{
			slog.String("session", e.SessionID),
			slog.String("from", e.From),
			slog.String("to", e.To),
			slog.String("event", e.Event),
			slog.Time("at", e.At),
		}
		level := slog.LevelInfo
		if e.Failed() {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("error", e.Error))
		}
		s.logger.LogAttrs(ctx, level, "onboarding", attrs...)
	}
	return nil
}
