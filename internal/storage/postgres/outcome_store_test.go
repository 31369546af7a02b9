package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	first := testOutcome("id1", "sig1", "WalletAAA", domain.StatusConfirmed)
	first.SkipReason = ""
	first.MirrorSignature = "mirror-sig1"
	first.SubmittedAt = 1704067200500

	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, testOutcome("id2", "sig2", "WalletBBB", domain.StatusSkipped)))

	all, err := store.Query(ctx, storage.OutcomeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "id2", all[0].OutcomeID, "newest first")
	assert.Equal(t, first, all[1], "round-trip must preserve all fields")
}

func TestOutcomeStore_AppendDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	o := testOutcome("id1", "sig1", "WalletAAA", domain.StatusConfirmed)
	require.NoError(t, store.Append(ctx, o))

	err := store.Append(ctx, o)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOutcomeStore_QueryFilter(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testOutcome("id1", "sig1", "WalletAAA", domain.StatusConfirmed)))
	require.NoError(t, store.Append(ctx, testOutcome("id2", "sig2", "WalletAAA", domain.StatusSkipped)))
	require.NoError(t, store.Append(ctx, testOutcome("id3", "sig3", "WalletBBB", domain.StatusConfirmed)))

	byAccount, err := store.Query(ctx, storage.OutcomeFilter{Account: "WalletAAA"})
	require.NoError(t, err)
	assert.Len(t, byAccount, 2)

	byStatus, err := store.Query(ctx, storage.OutcomeFilter{Status: domain.StatusConfirmed})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	byBoth, err := store.Query(ctx, storage.OutcomeFilter{
		Account: "WalletAAA",
		Status:  domain.StatusConfirmed,
	})
	require.NoError(t, err)
	require.Len(t, byBoth, 1)
	assert.Equal(t, "id1", byBoth[0].OutcomeID)

	byKind, err := store.Query(ctx, storage.OutcomeFilter{Kind: domain.KindTokenTransfer})
	require.NoError(t, err)
	assert.Empty(t, byKind)
}

func TestOutcomeStore_QueryPaging(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		o := testOutcome(fmt.Sprintf("id%d", i), fmt.Sprintf("sig%d", i), "WalletAAA", domain.StatusConfirmed)
		require.NoError(t, store.Append(ctx, o))
	}

	page, err := store.Query(ctx, storage.OutcomeFilter{Limit: 3, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 3)

	// Newest first: id9, id8, ... offset 2 starts at id7
	assert.Equal(t, "id7", page[0].OutcomeID)
	assert.Equal(t, "id5", page[2].OutcomeID)

	past, err := store.Query(ctx, storage.OutcomeFilter{Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestOutcomeStore_Stats(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testOutcome("id1", "sig1", "WalletAAA", domain.StatusSent)))
	require.NoError(t, store.Append(ctx, testOutcome("id2", "sig1", "WalletAAA", domain.StatusConfirmed)))
	require.NoError(t, store.Append(ctx, testOutcome("id3", "sig2", "WalletAAA", domain.StatusSkipped)))
	require.NoError(t, store.Append(ctx, testOutcome("id4", "sig3", "WalletAAA", domain.StatusFailed)))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalObserved)
	assert.Equal(t, int64(1), stats.TotalMirrored)
	assert.Equal(t, int64(1), stats.TotalConfirmed)
	assert.Equal(t, int64(1), stats.TotalSkipped)
	assert.Equal(t, int64(1), stats.TotalFailed)
	assert.Equal(t, int64(1), stats.NativeMirrored)
	assert.Equal(t, uint64(1000), stats.VolumeLamports)
	assert.Equal(t, int64(1704067201000), stats.LastActivity)
}

func TestOutcomeStore_AppendInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	err := store.Append(ctx, domain.MirrorOutcome{Signature: "sig1"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Append(ctx, domain.MirrorOutcome{OutcomeID: "id1"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
