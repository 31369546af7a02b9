package memory

import (
	"context"
	"sync"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
)

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu   sync.RWMutex
	log  []domain.MirrorOutcome // append order
	byID map[string]struct{}
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		byID: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// Append adds an outcome. Returns ErrDuplicateKey if outcome_id exists.
func (s *OutcomeStore) Append(_ context.Context, o domain.MirrorOutcome) error {
	if o.OutcomeID == "" || o.Signature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[o.OutcomeID]; exists {
		return storage.ErrDuplicateKey
	}
	s.byID[o.OutcomeID] = struct{}{}
	s.log = append(s.log, o)
	return nil
}

// Query retrieves outcomes matching the filter, newest first.
func (s *OutcomeStore) Query(_ context.Context, f storage.OutcomeFilter) ([]domain.MirrorOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.MirrorOutcome
	for i := len(s.log) - 1; i >= 0; i-- {
		o := s.log[i]
		if f.Account != "" && o.SourceAccount != f.Account {
			continue
		}
		if f.Kind != "" && o.Kind != f.Kind {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		matched = append(matched, o)
	}

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// Stats derives aggregate counters over all recorded outcomes.
func (s *OutcomeStore) Stats(_ context.Context) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.Stats
	for _, o := range s.log {
		storage.AccumulateStats(&stats, o)
	}
	return stats, nil
}
