package storage

import (
	"context"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
)

// WatchedAccountStore provides access to watched_accounts storage.
// At most one entry per address.
type WatchedAccountStore interface {
	// Insert adds a new account. Returns ErrDuplicateKey if the address exists.
	Insert(ctx context.Context, a domain.WatchedAccount) error

	// Upsert atomically inserts or replaces the account for its address.
	Upsert(ctx context.Context, a domain.WatchedAccount) error

	// Update applies partial changes. Returns the updated account, or
	// ErrNotFound if the address does not exist.
	Update(ctx context.Context, address string, upd domain.AccountUpdate) (domain.WatchedAccount, error)

	// Get retrieves an account by address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (domain.WatchedAccount, error)

	// List retrieves all accounts, ordered by address ASC.
	List(ctx context.Context) ([]domain.WatchedAccount, error)

	// Delete removes an account. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, address string) error
}

// OutcomeFilter narrows an outcome history query. Zero values match all.
type OutcomeFilter struct {
	Account string
	Kind    domain.TxKind
	Status  domain.OutcomeStatus
	Limit   int // 0 = no limit
	Offset  int
}

// OutcomeStore is the append-only mirror outcome log.
type OutcomeStore interface {
	// Append adds an outcome. Returns ErrDuplicateKey if outcome_id exists.
	Append(ctx context.Context, o domain.MirrorOutcome) error

	// Query retrieves outcomes matching the filter, newest first.
	Query(ctx context.Context, f OutcomeFilter) ([]domain.MirrorOutcome, error)

	// Stats derives aggregate counters over all recorded outcomes.
	Stats(ctx context.Context) (domain.Stats, error)
}
