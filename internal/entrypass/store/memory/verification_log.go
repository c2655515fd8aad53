package memory

import (
	"context"
	"sync"
	"time"

	"github.com/entrypass/server/internal/entrypass/store"
)

// VerificationLog is an in-memory append-only log of verification
// outcomes. It is intended for use in tests and dev environments.
type VerificationLog struct {
	mu     sync.Mutex
	events []store.VerificationRecord
}

func NewVerificationLog() *VerificationLog {
	return &VerificationLog{}
}

func (s *VerificationLog) RecordVerification(_ context.Context, rec store.VerificationRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, rec)
	return nil
}

func (s *VerificationLog) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var deleted int64
	for _, ev := range s.events {
		if ev.RecordedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept
	return deleted, nil
}

// Events returns a copy of all recorded outcomes.  Test-only helper.
func (s *VerificationLog) Events() []store.VerificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.VerificationRecord, len(s.events))
	copy(out, s.events)
	return out
}
