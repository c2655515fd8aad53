package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/entrypass/server/internal/entrypass/store"
)

// VerificationLogPruner periodically deletes verification audit rows
// older than a configurable retention period. It runs as a background
// goroutine and is stopped via its context or Stop.
//
// A retention of 0 disables pruning entirely.
type VerificationLogPruner struct {
	log       store.VerificationLog
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

type PrunerConfig struct {
	// RetentionDays is how many days of verification history to keep.
	// 0 keeps everything and the pruner does not start.
	RetentionDays int

	// IntervalHours is how often the pruner runs. Defaults to 6.
	IntervalHours int
}

// NewVerificationLogPruner creates a pruner but does not start it.
func NewVerificationLogPruner(l store.VerificationLog, cfg PrunerConfig, logger *zap.Logger) *VerificationLogPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &VerificationLogPruner{
		log:       l,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    orNop(logger),
		done:      make(chan struct{}),
	}
}

// Start runs an immediate prune, then repeats on the configured
// interval until ctx is cancelled or Stop is called.
func (p *VerificationLogPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Info("verification log pruner disabled", zap.Int("retention_days", 0))
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Info("verification log pruner started",
		zap.Duration("retention", p.retention),
		zap.Duration("interval", p.interval),
	)
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *VerificationLogPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

// PruneNow runs one pass synchronously and returns the rows removed.
func (p *VerificationLogPruner) PruneNow(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	return p.log.PruneOlderThan(ctx, cutoff)
}

func (p *VerificationLogPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *VerificationLogPruner) prune(ctx context.Context) {
	deleted, err := p.PruneNow(ctx)
	if err != nil {
		p.logger.Error("verification log prune failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("verification log pruned", zap.Int64("deleted", deleted))
	}
}
