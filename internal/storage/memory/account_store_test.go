package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
)

func boolPtr(b bool) *bool      { return &b }
func f64Ptr(f float64) *float64 { return &f }

func TestAccountStore_InsertAndGet(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	a := domain.WatchedAccount{
		Address:    "WalletAAA",
		Enabled:    true,
		CopyNative: true,
		MaxAmount:  1.5,
	}

	if err := store.Insert(ctx, a); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Get(ctx, "WalletAAA")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Address != a.Address || got.MaxAmount != a.MaxAmount {
		t.Errorf("account mismatch: got %+v, want %+v", got, a)
	}
}

func TestAccountStore_DuplicateKey(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	a := domain.WatchedAccount{Address: "WalletAAA", Enabled: true}

	if err := store.Insert(ctx, a); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	if err := store.Insert(ctx, a); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestAccountStore_Upsert(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, domain.WatchedAccount{Address: "WalletAAA", MaxAmount: 1}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, domain.WatchedAccount{Address: "WalletAAA", MaxAmount: 2}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := store.Get(ctx, "WalletAAA")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.MaxAmount != 2 {
		t.Errorf("expected MaxAmount 2, got %v", got.MaxAmount)
	}
}

func TestAccountStore_Update(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	a := domain.WatchedAccount{Address: "WalletAAA", Enabled: true, CopyNative: true, MaxAmount: 1}
	if err := store.Insert(ctx, a); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Update(ctx, "WalletAAA", domain.AccountUpdate{
		Enabled:   boolPtr(false),
		MaxAmount: f64Ptr(3),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Enabled || got.MaxAmount != 3 {
		t.Errorf("partial update not applied: %+v", got)
	}
	if !got.CopyNative {
		t.Error("untouched field must be preserved")
	}

	if _, err := store.Update(ctx, "Missing", domain.AccountUpdate{}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountStore_ListOrdered(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	for _, addr := range []string{"WalletCCC", "WalletAAA", "WalletBBB"} {
		if err := store.Insert(ctx, domain.WatchedAccount{Address: addr}); err != nil {
			t.Fatalf("Insert %s failed: %v", addr, err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(list))
	}
	if list[0].Address != "WalletAAA" || list[2].Address != "WalletCCC" {
		t.Errorf("list not ordered by address: %+v", list)
	}
}

func TestAccountStore_Delete(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	if err := store.Insert(ctx, domain.WatchedAccount{Address: "WalletAAA"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Delete(ctx, "WalletAAA"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "WalletAAA"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "WalletAAA"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestAccountStore_ConcurrentUpsert(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = store.Upsert(ctx, domain.WatchedAccount{Address: "WalletAAA", MaxAmount: float64(i)})
			}
		}(i)
	}
	wg.Wait()

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected a single entry per address, got %d", len(list))
	}
}
