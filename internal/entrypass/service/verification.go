package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

// VerificationEngine answers whether a pass admits a claimed owner. It
// never writes ledger state.
type VerificationEngine struct {
	ledger store.Ledger
	log    store.VerificationLog
	clock  ledger.Clock
	logger *zap.Logger
}

// NewVerificationEngine builds the engine. vlog may be nil to skip the
// audit trail.
func NewVerificationEngine(l store.Ledger, vlog store.VerificationLog, clock ledger.Clock, logger *zap.Logger) *VerificationEngine {
	return &VerificationEngine{ledger: l, log: vlog, clock: clock, logger: orNop(logger)}
}

// Verify evaluates the pass at req.At, or at the ledger clock when At is
// nil. An invalid pass is a normal result; only a missing pass is an
// error.
func (e *VerificationEngine) Verify(ctx context.Context, req types.VerifyPassRequest) (types.Verification, error) {
	p, err := e.ledger.Pass(ctx, req.Pass)
	if err != nil {
		return types.Verification{}, passErr(err)
	}

	now := e.clock.Now().Unix()
	if req.At != nil {
		now = *req.At
	}

	valid, reason := p.Check(req.Owner, now)
	e.recordVerification(ctx, req, now, valid, reason)

	return types.Verification{
		Valid:     valid,
		Reason:    reason,
		CheckedAt: now,
		Pass:      p,
	}, nil
}

// recordVerification appends the outcome to the audit log. Errors are
// logged and not returned: a verifier at the gate still gets its answer
// when the audit store is unavailable.
func (e *VerificationEngine) recordVerification(ctx context.Context, req types.VerifyPassRequest, checkedAt int64, valid bool, reason string) {
	if e.log == nil {
		return
	}
	err := e.log.RecordVerification(ctx, store.VerificationRecord{
		Pass:         req.Pass,
		ClaimedOwner: req.Owner,
		CheckedAt:    checkedAt,
		Valid:        valid,
		Reason:       reason,
		RecordedAt:   time.Now().UTC(),
	})
	if err != nil {
		e.logger.Warn("verification audit write failed",
			zap.Stringer("pass", req.Pass),
			zap.Error(err),
		)
	}
}
