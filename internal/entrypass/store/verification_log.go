package store

import (
	"context"
	"time"

	"github.com/entrypass/server/internal/ledger"
)

// VerificationRecord captures one verification outcome for the audit
// log. It never refers back into ledger state; the pass record itself is
// not touched by verification.
type VerificationRecord struct {
	Pass         ledger.Address
	ClaimedOwner ledger.Address
	CheckedAt    int64 // ledger unix second the pass was evaluated at
	Valid        bool
	Reason       string
	RecordedAt   time.Time
}

// VerificationLog is an append-only audit log of verification outcomes.
type VerificationLog interface {
	RecordVerification(ctx context.Context, rec VerificationRecord) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
