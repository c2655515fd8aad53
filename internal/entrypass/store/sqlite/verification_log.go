package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/entrypass/server/internal/db"
	"github.com/entrypass/server/internal/entrypass/store"
)

type VerificationLog struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewVerificationLog(db *sql.DB, writer *dbpkg.Worker) *VerificationLog {
	return &VerificationLog{db: db, writer: writer}
}

func (s *VerificationLog) RecordVerification(ctx context.Context, rec store.VerificationRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	var valid int
	if rec.Valid {
		valid = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO verification_events(
  pass, claimed_owner, checked_at_s, valid, reason, recorded_at_ms
) VALUES (?, ?, ?, ?, ?, ?);
`,
			rec.Pass.String(), rec.ClaimedOwner.String(), rec.CheckedAt,
			valid, rec.Reason, rec.RecordedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("RecordVerification insert: %w", err)
		}
		return nil
	})
}

// PruneOlderThan deletes verification rows recorded before cutoff and
// returns how many were removed. Uses idx_verification_events_time.
func (s *VerificationLog) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM verification_events
WHERE recorded_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
