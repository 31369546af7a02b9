package clickhouse

import (
	"context"
	"fmt"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
)

// OutcomeEventStore writes mirror outcomes into ClickHouse for offline
// analytics. The outcome_events table is a MergeTree; uniqueness is not
// enforced here, the Postgres log stays the source of truth.
type OutcomeEventStore struct {
	conn *Conn
}

// NewOutcomeEventStore creates a new OutcomeEventStore.
func NewOutcomeEventStore(conn *Conn) *OutcomeEventStore {
	return &OutcomeEventStore{conn: conn}
}

// InsertBatch writes multiple outcome events in one batch.
func (s *OutcomeEventStore) InsertBatch(ctx context.Context, outcomes []domain.MirrorOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO outcome_events (
			outcome_id, signature, source_account, kind, lamports, token_mint,
			status, skip_reason, error_kind, error_msg, mirror_signature,
			observed_at_ms, submitted_at_ms, completed_at_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range outcomes {
		err = batch.Append(
			o.OutcomeID, o.Signature, o.SourceAccount, string(o.Kind), o.Lamports, o.TokenMint,
			string(o.Status), string(o.SkipReason), string(o.ErrorKind), o.ErrorMsg, o.MirrorSignature,
			uint64(o.ObservedAt), uint64(o.SubmittedAt), uint64(o.CompletedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Insert writes a single outcome event.
func (s *OutcomeEventStore) Insert(ctx context.Context, o domain.MirrorOutcome) error {
	return s.InsertBatch(ctx, []domain.MirrorOutcome{o})
}

// CountByStatus returns the number of recorded events per status.
func (s *OutcomeEventStore) CountByStatus(ctx context.Context) (map[string]uint64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT status, count() FROM outcome_events GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var status string
		var n uint64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	return counts, nil
}
