package postgres

import (
	"context"
	"fmt"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
)

// AccountStore is a Postgres implementation of storage.WatchedAccountStore.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new Postgres watched account store.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WatchedAccountStore = (*AccountStore)(nil)

// Insert adds a new account. Returns ErrDuplicateKey if the address exists.
func (s *AccountStore) Insert(ctx context.Context, a domain.WatchedAccount) error {
	if a.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO watched_accounts (
			address, enabled, copy_native, copy_token, copy_program, max_amount
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		a.Address, a.Enabled, a.CopyNative, a.CopyToken, a.CopyProgram, a.MaxAmount)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert watched account: %w", err)
	}

	return nil
}

// Upsert atomically inserts or replaces the account for its address.
func (s *AccountStore) Upsert(ctx context.Context, a domain.WatchedAccount) error {
	if a.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO watched_accounts (
			address, enabled, copy_native, copy_token, copy_program, max_amount
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address) DO UPDATE SET
			enabled      = EXCLUDED.enabled,
			copy_native  = EXCLUDED.copy_native,
			copy_token   = EXCLUDED.copy_token,
			copy_program = EXCLUDED.copy_program,
			max_amount   = EXCLUDED.max_amount,
			updated_at   = now()`

	_, err := s.pool.Exec(ctx, query,
		a.Address, a.Enabled, a.CopyNative, a.CopyToken, a.CopyProgram, a.MaxAmount)
	if err != nil {
		return fmt.Errorf("upsert watched account: %w", err)
	}

	return nil
}

// Update applies partial changes. Returns the updated account, or ErrNotFound
// if the address does not exist. Nil fields keep their current value.
func (s *AccountStore) Update(ctx context.Context, address string, upd domain.AccountUpdate) (domain.WatchedAccount, error) {
	query := `
		UPDATE watched_accounts SET
			enabled      = COALESCE($2, enabled),
			copy_native  = COALESCE($3, copy_native),
			copy_token   = COALESCE($4, copy_token),
			copy_program = COALESCE($5, copy_program),
			max_amount   = COALESCE($6, max_amount),
			updated_at   = now()
		WHERE address = $1
		RETURNING address, enabled, copy_native, copy_token, copy_program, max_amount`

	var a domain.WatchedAccount
	err := s.pool.QueryRow(ctx, query,
		address, upd.Enabled, upd.CopyNative, upd.CopyToken, upd.CopyProgram, upd.MaxAmount).
		Scan(&a.Address, &a.Enabled, &a.CopyNative, &a.CopyToken, &a.CopyProgram, &a.MaxAmount)
	if err != nil {
		if isNotFoundError(err) {
			return domain.WatchedAccount{}, storage.ErrNotFound
		}
		return domain.WatchedAccount{}, fmt.Errorf("update watched account: %w", err)
	}

	return a, nil
}

// Get retrieves an account by address. Returns ErrNotFound if not exists.
func (s *AccountStore) Get(ctx context.Context, address string) (domain.WatchedAccount, error) {
	query := `
		SELECT address, enabled, copy_native, copy_token, copy_program, max_amount
		FROM watched_accounts
		WHERE address = $1`

	var a domain.WatchedAccount
	err := s.pool.QueryRow(ctx, query, address).
		Scan(&a.Address, &a.Enabled, &a.CopyNative, &a.CopyToken, &a.CopyProgram, &a.MaxAmount)
	if err != nil {
		if isNotFoundError(err) {
			return domain.WatchedAccount{}, storage.ErrNotFound
		}
		return domain.WatchedAccount{}, fmt.Errorf("get watched account: %w", err)
	}

	return a, nil
}

// List retrieves all accounts, ordered by address ASC.
func (s *AccountStore) List(ctx context.Context) ([]domain.WatchedAccount, error) {
	query := `
		SELECT address, enabled, copy_native, copy_token, copy_program, max_amount
		FROM watched_accounts
		ORDER BY address ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list watched accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.WatchedAccount
	for rows.Next() {
		var a domain.WatchedAccount
		if err := rows.Scan(&a.Address, &a.Enabled, &a.CopyNative, &a.CopyToken, &a.CopyProgram, &a.MaxAmount); err != nil {
			return nil, fmt.Errorf("scan watched account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watched accounts: %w", err)
	}

	return accounts, nil
}

// Delete removes an account. Returns ErrNotFound if not exists.
func (s *AccountStore) Delete(ctx context.Context, address string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM watched_accounts WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("delete watched account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}
