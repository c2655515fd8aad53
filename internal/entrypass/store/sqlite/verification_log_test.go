package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/entrypass/server/internal/entrypass/store"
	sqlitestore "github.com/entrypass/server/internal/entrypass/store/sqlite"
	"github.com/entrypass/server/internal/entrypass/types"
)

func TestVerificationLog_RecordVerification(t *testing.T) {
	conn := openTestDB(t)
	vl := sqlitestore.NewVerificationLog(conn, newTestWriter(t, conn))

	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	err := vl.RecordVerification(context.Background(), store.VerificationRecord{
		Pass:         addr(3),
		ClaimedOwner: addr(2),
		CheckedAt:    1700000000,
		Valid:        false,
		Reason:       types.ReasonExpired,
		RecordedAt:   now,
	})
	if err != nil {
		t.Fatalf("RecordVerification: %v", err)
	}

	var (
		pass, owner, reason string
		checkedAt, atMs     int64
		valid               int
	)
	err = conn.QueryRowContext(context.Background(), `
SELECT pass, claimed_owner, checked_at_s, valid, reason, recorded_at_ms
FROM verification_events`).Scan(&pass, &owner, &checkedAt, &valid, &reason, &atMs)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if pass != addr(3).String() || owner != addr(2).String() {
		t.Errorf("unexpected addresses %s / %s", pass, owner)
	}
	if checkedAt != 1700000000 {
		t.Errorf("expected checked_at_s=1700000000, got %d", checkedAt)
	}
	if valid != 0 || reason != "expired" {
		t.Errorf("expected invalid/expired, got %d/%s", valid, reason)
	}
	if atMs != now.UnixMilli() {
		t.Errorf("expected recorded_at_ms=%d, got %d", now.UnixMilli(), atMs)
	}
}

func TestVerificationLog_PruneOlderThan(t *testing.T) {
	conn := openTestDB(t)
	vl := sqlitestore.NewVerificationLog(conn, newTestWriter(t, conn))
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := vl.RecordVerification(ctx, store.VerificationRecord{
			Pass:         addr(3),
			ClaimedOwner: addr(2),
			Valid:        true,
			Reason:       types.ReasonValid,
			RecordedAt:   base.AddDate(0, 0, i),
		}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	deleted, err := vl.PruneOlderThan(ctx, base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 rows pruned, got %d", deleted)
	}

	var remaining int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM verification_events`).Scan(&remaining); err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 2 {
		t.Errorf("expected 2 rows left, got %d", remaining)
	}

	// Nothing left to prune at the same cutoff.
	deleted, err = vl.PruneOlderThan(ctx, base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("second prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 on second prune, got %d", deleted)
	}
}
