package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/entrypass/server/internal/events"
	"github.com/entrypass/server/internal/ledger"
)

// publish emits ev after a committed transaction. The ledger is already
// updated at this point, so a failed publish is logged and dropped.
func publish(ctx context.Context, pub events.Publisher, logger *zap.Logger, t events.Type, key ledger.Address, payload any) {
	if pub == nil {
		return
	}
	ev, err := events.New(t, key.String(), payload)
	if err == nil {
		err = pub.Publish(ctx, ev)
	}
	if err != nil {
		logger.Warn("event publish failed",
			zap.String("event_type", string(t)),
			zap.String("key", key.String()),
			zap.Error(err),
		)
	}
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
