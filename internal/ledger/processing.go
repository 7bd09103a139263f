// Package ledger guarantees each race event is reconciled exactly once.
package ledger

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// DedupStore is the atomic insert-if-absent primitive underneath the
// processing ledger. MarkProcessed returns true only for the caller that
// inserted the key; every later call returns false. The postgres
// implementation relies on ON CONFLICT DO NOTHING, so the guarantee
// holds even if multiple workers ever run.
type DedupStore interface {
	MarkProcessed(ctx context.Context, key string) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
}

// ProcessingLedger records which events have completed reconciliation
type ProcessingLedger struct {
	store  DedupStore
	logger *logrus.Logger
}

// NewProcessingLedger creates a processing ledger over the given store
func NewProcessingLedger(store DedupStore, logger *logrus.Logger) *ProcessingLedger {
	return &ProcessingLedger{store: store, logger: logger}
}

// IsProcessed reports whether the event key has already been reconciled
func (l *ProcessingLedger) IsProcessed(ctx context.Context, key string) (bool, error) {
	return l.store.IsProcessed(ctx, key)
}

// MarkProcessed records the event key as reconciled. It returns true if
// this call performed the recording, false if the key was already present.
func (l *ProcessingLedger) MarkProcessed(ctx context.Context, key string) (bool, error) {
	inserted, err := l.store.MarkProcessed(ctx, key)
	if err != nil {
		return false, err
	}
	if !inserted {
		l.logger.WithField("key", key).Debug("Event already recorded as processed")
	}
	return inserted, nil
}

// MemoryDedupStore is an in-memory DedupStore for tests and single runs
type MemoryDedupStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemoryDedupStore creates an empty in-memory dedup store
func NewMemoryDedupStore() *MemoryDedupStore {
	return &MemoryDedupStore{keys: make(map[string]struct{})}
}

// MarkProcessed inserts the key, returning true only on first insert
func (s *MemoryDedupStore) MarkProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

// IsProcessed reports whether the key is present
func (s *MemoryDedupStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.keys[key]
	return exists, nil
}
