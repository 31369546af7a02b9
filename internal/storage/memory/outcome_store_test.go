package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
)

func testOutcome(id, sig, account string, status domain.OutcomeStatus) domain.MirrorOutcome {
	return domain.MirrorOutcome{
		OutcomeID:     id,
		Signature:     sig,
		SourceAccount: account,
		Kind:          domain.KindNativeTransfer,
		Lamports:      1000,
		Status:        status,
		ObservedAt:    1704067200000,
		CompletedAt:   1704067201000,
	}
}

func TestOutcomeStore_AppendAndQuery(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	if err := store.Append(ctx, testOutcome("id1", "sig1", "WalletAAA", domain.StatusConfirmed)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, testOutcome("id2", "sig2", "WalletBBB", domain.StatusSkipped)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	all, err := store.Query(ctx, storage.OutcomeFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(all))
	}
	if all[0].OutcomeID != "id2" {
		t.Errorf("expected newest first, got %s", all[0].OutcomeID)
	}
}

func TestOutcomeStore_DuplicateKey(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	o := testOutcome("id1", "sig1", "WalletAAA", domain.StatusConfirmed)
	if err := store.Append(ctx, o); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, o); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestOutcomeStore_QueryFilter(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	store.Append(ctx, testOutcome("id1", "sig1", "WalletAAA", domain.StatusConfirmed))
	store.Append(ctx, testOutcome("id2", "sig2", "WalletAAA", domain.StatusSkipped))
	store.Append(ctx, testOutcome("id3", "sig3", "WalletBBB", domain.StatusConfirmed))

	byAccount, err := store.Query(ctx, storage.OutcomeFilter{Account: "WalletAAA"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(byAccount) != 2 {
		t.Errorf("expected 2 outcomes for WalletAAA, got %d", len(byAccount))
	}

	byStatus, err := store.Query(ctx, storage.OutcomeFilter{Status: domain.StatusConfirmed})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(byStatus) != 2 {
		t.Errorf("expected 2 confirmed outcomes, got %d", len(byStatus))
	}

	byBoth, err := store.Query(ctx, storage.OutcomeFilter{
		Account: "WalletAAA",
		Status:  domain.StatusConfirmed,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(byBoth) != 1 || byBoth[0].OutcomeID != "id1" {
		t.Errorf("unexpected combined filter result: %+v", byBoth)
	}
}

func TestOutcomeStore_QueryPaging(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		store.Append(ctx, testOutcome(
			fmt.Sprintf("id%d", i), fmt.Sprintf("sig%d", i), "WalletAAA", domain.StatusConfirmed))
	}

	page, err := store.Query(ctx, storage.OutcomeFilter{Limit: 3, Offset: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(page))
	}
	// Newest first: id9, id8, ... offset 2 starts at id7
	if page[0].OutcomeID != "id7" {
		t.Errorf("expected id7 first, got %s", page[0].OutcomeID)
	}

	past, err := store.Query(ctx, storage.OutcomeFilter{Offset: 100})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(past) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(past))
	}
}

func TestOutcomeStore_Stats(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	store.Append(ctx, testOutcome("id1", "sig1", "WalletAAA", domain.StatusSent))
	store.Append(ctx, testOutcome("id2", "sig1", "WalletAAA", domain.StatusConfirmed))
	store.Append(ctx, testOutcome("id3", "sig2", "WalletAAA", domain.StatusSkipped))
	store.Append(ctx, testOutcome("id4", "sig3", "WalletAAA", domain.StatusFailed))

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.TotalObserved != 3 {
		t.Errorf("expected 3 observed, got %d", stats.TotalObserved)
	}
	if stats.TotalMirrored != 1 {
		t.Errorf("expected 1 mirrored, got %d", stats.TotalMirrored)
	}
	if stats.TotalConfirmed != 1 || stats.TotalSkipped != 1 || stats.TotalFailed != 1 {
		t.Errorf("unexpected status counters: %+v", stats)
	}
	if stats.NativeMirrored != 1 {
		t.Errorf("expected 1 native mirror, got %d", stats.NativeMirrored)
	}
	if stats.VolumeLamports != 1000 {
		t.Errorf("expected volume 1000, got %d", stats.VolumeLamports)
	}
	if stats.LastActivity != 1704067201000 {
		t.Errorf("unexpected last activity: %d", stats.LastActivity)
	}
}

func TestOutcomeStore_ConcurrentAppend(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("id-%d-%d", g, i)
				if err := store.Append(ctx, testOutcome(id, id, "WalletAAA", domain.StatusConfirmed)); err != nil {
					t.Errorf("Append %s failed: %v", id, err)
				}
			}
		}(g)
	}
	wg.Wait()

	all, err := store.Query(ctx, storage.OutcomeFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(all) != 400 {
		t.Errorf("expected 400 outcomes, got %d", len(all))
	}
}
