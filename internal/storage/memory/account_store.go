package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
)

// AccountStore is an in-memory implementation of storage.WatchedAccountStore.
type AccountStore struct {
	mu   sync.RWMutex
	data map[string]domain.WatchedAccount // keyed by address
}

// NewAccountStore creates a new in-memory watched account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		data: make(map[string]domain.WatchedAccount),
	}
}

// Compile-time interface check.
var _ storage.WatchedAccountStore = (*AccountStore)(nil)

// Insert adds a new account. Returns ErrDuplicateKey if the address exists.
func (s *AccountStore) Insert(_ context.Context, a domain.WatchedAccount) error {
	if a.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.Address]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[a.Address] = a
	return nil
}

// Upsert atomically inserts or replaces the account for its address.
func (s *AccountStore) Upsert(_ context.Context, a domain.WatchedAccount) error {
	if a.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[a.Address] = a
	return nil
}

// Update applies partial changes. Returns ErrNotFound if the address does
// not exist.
func (s *AccountStore) Update(_ context.Context, address string, upd domain.AccountUpdate) (domain.WatchedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.data[address]
	if !exists {
		return domain.WatchedAccount{}, storage.ErrNotFound
	}

	a = upd.Apply(a)
	s.data[address] = a
	return a, nil
}

// Get retrieves an account by address. Returns ErrNotFound if not exists.
func (s *AccountStore) Get(_ context.Context, address string) (domain.WatchedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[address]
	if !exists {
		return domain.WatchedAccount{}, storage.ErrNotFound
	}
	return a, nil
}

// List retrieves all accounts, ordered by address ASC.
func (s *AccountStore) List(_ context.Context) ([]domain.WatchedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.WatchedAccount, 0, len(s.data))
	for _, a := range s.data {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address < out[j].Address
	})
	return out, nil
}

// Delete removes an account. Returns ErrNotFound if not exists.
func (s *AccountStore) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[address]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, address)
	return nil
}
