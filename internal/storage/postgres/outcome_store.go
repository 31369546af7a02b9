package postgres

import (
	"context"
	"fmt"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
)

// OutcomeStore is a Postgres implementation of storage.OutcomeStore.
// The mirror_outcomes table is append-only; rows are never updated.
type OutcomeStore struct {
	pool *Pool
}

// NewOutcomeStore creates a new Postgres outcome store.
func NewOutcomeStore(pool *Pool) *OutcomeStore {
	return &OutcomeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// Append adds an outcome. Returns ErrDuplicateKey if outcome_id exists.
func (s *OutcomeStore) Append(ctx context.Context, o domain.MirrorOutcome) error {
	if o.OutcomeID == "" || o.Signature == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO mirror_outcomes (
			outcome_id, signature, source_account, kind, lamports, token_mint,
			status, skip_reason, error_kind, error_msg, mirror_signature,
			observed_at, submitted_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.pool.Exec(ctx, query,
		o.OutcomeID, o.Signature, o.SourceAccount, string(o.Kind), int64(o.Lamports), o.TokenMint,
		string(o.Status), string(o.SkipReason), string(o.ErrorKind), o.ErrorMsg, o.MirrorSignature,
		o.ObservedAt, o.SubmittedAt, o.CompletedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("append mirror outcome: %w", err)
	}

	return nil
}

// Query retrieves outcomes matching the filter, newest first. Ordering is
// by append order, so results match what an in-memory log would return.
func (s *OutcomeStore) Query(ctx context.Context, f storage.OutcomeFilter) ([]domain.MirrorOutcome, error) {
	query := `
		SELECT outcome_id, signature, source_account, kind, lamports, token_mint,
		       status, skip_reason, error_kind, error_msg, mirror_signature,
		       observed_at, submitted_at, completed_at
		FROM mirror_outcomes
		WHERE 1=1`

	args := []interface{}{}
	argNum := 1

	if f.Account != "" {
		query += fmt.Sprintf(" AND source_account = $%d", argNum)
		args = append(args, f.Account)
		argNum++
	}
	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argNum)
		args = append(args, string(f.Kind))
		argNum++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(f.Status))
		argNum++
	}

	query += " ORDER BY seq DESC"

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, f.Limit)
		argNum++
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, f.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mirror outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.MirrorOutcome
	for rows.Next() {
		var o domain.MirrorOutcome
		var kind, status, skipReason, errorKind string
		var lamports int64

		err := rows.Scan(
			&o.OutcomeID, &o.Signature, &o.SourceAccount, &kind, &lamports, &o.TokenMint,
			&status, &skipReason, &errorKind, &o.ErrorMsg, &o.MirrorSignature,
			&o.ObservedAt, &o.SubmittedAt, &o.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("scan mirror outcome: %w", err)
		}

		o.Kind = domain.TxKind(kind)
		o.Status = domain.OutcomeStatus(status)
		o.SkipReason = domain.SkipReason(skipReason)
		o.ErrorKind = domain.ErrorKind(errorKind)
		o.Lamports = uint64(lamports)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mirror outcomes: %w", err)
	}

	return outcomes, nil
}

// Stats derives aggregate counters over all recorded outcomes. The fold is
// done in Go so the semantics stay identical to the in-memory store.
func (s *OutcomeStore) Stats(ctx context.Context) (domain.Stats, error) {
	query := `
		SELECT kind, lamports, status, completed_at
		FROM mirror_outcomes`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("query outcome stats: %w", err)
	}
	defer rows.Close()

	var stats domain.Stats
	for rows.Next() {
		var o domain.MirrorOutcome
		var kind, status string
		var lamports int64

		if err := rows.Scan(&kind, &lamports, &status, &o.CompletedAt); err != nil {
			return domain.Stats{}, fmt.Errorf("scan outcome stats row: %w", err)
		}

		o.Kind = domain.TxKind(kind)
		o.Status = domain.OutcomeStatus(status)
		o.Lamports = uint64(lamports)
		storage.AccumulateStats(&stats, o)
	}
	if err := rows.Err(); err != nil {
		return domain.Stats{}, fmt.Errorf("iterate outcome stats: %w", err)
	}

	return stats, nil
}
