package history

import (
	"context"
	"errors"
	"testing"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage/memory"
)

type captureSink struct {
	inserted []domain.MirrorOutcome
	err      error
}

func (s *captureSink) Insert(_ context.Context, o domain.MirrorOutcome) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, o)
	return nil
}

func outcome(id string, status domain.OutcomeStatus) domain.MirrorOutcome {
	return domain.MirrorOutcome{
		OutcomeID:     id,
		Signature:     "sig-" + id,
		SourceAccount: "WalletAAA",
		Kind:          domain.KindNativeTransfer,
		Lamports:      500,
		Status:        status,
		ObservedAt:    1704067200000,
		CompletedAt:   1704067201000,
	}
}

func TestRecorder_RecordAndQuery(t *testing.T) {
	rec := NewRecorder(memory.NewOutcomeStore(), nil)
	ctx := context.Background()

	if err := rec.Record(ctx, outcome("id1", domain.StatusConfirmed)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := rec.Record(ctx, outcome("id2", domain.StatusSkipped)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := rec.Query(ctx, storage.OutcomeFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 || got[0].OutcomeID != "id2" {
		t.Errorf("unexpected query result: %+v", got)
	}
}

func TestRecorder_DuplicateIsIdempotent(t *testing.T) {
	rec := NewRecorder(memory.NewOutcomeStore(), nil)
	ctx := context.Background()

	o := outcome("id1", domain.StatusConfirmed)
	if err := rec.Record(ctx, o); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := rec.Record(ctx, o); err != nil {
		t.Errorf("duplicate record must not error, got %v", err)
	}

	got, err := rec.Query(ctx, storage.OutcomeFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected a single record, got %d", len(got))
	}
}

func TestRecorder_SinkReceivesCopies(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(memory.NewOutcomeStore(), nil, WithEventSink(sink))
	ctx := context.Background()

	if err := rec.Record(ctx, outcome("id1", domain.StatusConfirmed)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if len(sink.inserted) != 1 || sink.inserted[0].OutcomeID != "id1" {
		t.Errorf("sink did not receive the outcome: %+v", sink.inserted)
	}
}

func TestRecorder_SinkFailureSwallowed(t *testing.T) {
	sink := &captureSink{err: errors.New("sink down")}
	rec := NewRecorder(memory.NewOutcomeStore(), nil, WithEventSink(sink))
	ctx := context.Background()

	if err := rec.Record(ctx, outcome("id1", domain.StatusConfirmed)); err != nil {
		t.Errorf("sink failure must not fail Record, got %v", err)
	}

	got, err := rec.Query(ctx, storage.OutcomeFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("record must land in the store despite sink failure")
	}
}

func TestRecorder_Stats(t *testing.T) {
	rec := NewRecorder(memory.NewOutcomeStore(), nil)
	ctx := context.Background()

	rec.Record(ctx, outcome("id1", domain.StatusConfirmed))
	rec.Record(ctx, outcome("id2", domain.StatusFailed))

	stats, err := rec.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalObserved != 2 || stats.TotalConfirmed != 1 || stats.TotalFailed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
