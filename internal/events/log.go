package events

import (
	"context"

	"go.uber.org/zap"
)

// Log writes each event to the logger instead of a broker. Useful in dev.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Publish(_ context.Context, ev Event) error {
	l.logger.Info("event",
		zap.String("event_id", ev.ID),
		zap.String("event_type", string(ev.Type)),
		zap.String("key", ev.Key),
		zap.ByteString("data", ev.Data),
	)
	return nil
}

func (l *Log) Close() error { return nil }
