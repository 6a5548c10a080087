package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/store"
)

// blockingStore parks UpdateTransactions until released, to hold the
// in-flight guard open.
type blockingStore struct {
	fakeStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) UpdateTransactions(ctx context.Context, ids []string, patch store.FieldPatch) ([]ledger.Transaction, error) {
	close(b.entered)
	<-b.release
	return b.updated, nil
}

func TestBulkApplyMergesEcho(t *testing.T) {
	t.Parallel()

	cat := "Software"
	fs := newFakeStore(3)
	// store echoes only one of the two requested rows
	echoed := fs.rows[0]
	echoed.CategoryOverride = &cat
	fs.updated = []ledger.Transaction{echoed}

	b := NewBulkCoordinator(fs)
	updated, err := b.Apply(context.Background(), []string{fs.rows[0].ID, fs.rows[1].ID}, Mutation{Kind: MutateCategorize, Category: cat})
	require.NoError(t, err)
	require.Len(t, updated, 1)

	merged := ledger.MergeByID(fs.rows, updated)
	require.Equal(t, &cat, merged[0].CategoryOverride)
	// the row the store did not echo keeps its prior state
	require.Nil(t, merged[1].CategoryOverride)
}

func TestBulkApplyEmptySelection(t *testing.T) {
	t.Parallel()

	b := NewBulkCoordinator(newFakeStore(0))
	updated, err := b.Apply(context.Background(), nil, Mutation{Kind: MutateFlag})
	require.NoError(t, err)
	require.Nil(t, updated)
}

func TestBulkApplyStoreError(t *testing.T) {
	t.Parallel()

	fs := newFakeStore(2)
	fs.updErr = errors.New("boom")
	b := NewBulkCoordinator(fs)
	_, err := b.Apply(context.Background(), []string{"t0001"}, Mutation{Kind: MutateApprove})
	require.ErrorContains(t, err, "boom")
	require.False(t, b.Busy())
}

func TestBulkConcurrentGuard(t *testing.T) {
	t.Parallel()

	bs := &blockingStore{entered: make(chan struct{}), release: make(chan struct{})}
	b := NewBulkCoordinator(bs)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := b.Apply(context.Background(), []string{"x"}, Mutation{Kind: MutateFlag})
		require.NoError(t, err)
	}()

	<-bs.entered
	require.True(t, b.Busy())
	_, err := b.Apply(context.Background(), []string{"y"}, Mutation{Kind: MutateApprove})
	require.ErrorIs(t, err, ErrBusy)

	close(bs.release)
	wg.Wait()
	require.False(t, b.Busy())
}

func TestBulkExportIsLocal(t *testing.T) {
	t.Parallel()

	fs := newFakeStore(2)
	before := fs.queries
	b := NewBulkCoordinator(fs)

	var buf bytes.Buffer
	err := b.Export(&buf, fs.rows, func(string) string { return "Checking" })
	require.NoError(t, err)
	require.Equal(t, before, fs.queries, "export must not touch the store")
	require.True(t, strings.HasPrefix(buf.String(), "Date,Merchant,Category,Amount,Type,Account,Status,Notes"))
}

func TestBulkExportMutationIsRejected(t *testing.T) {
	t.Parallel()

	b := NewBulkCoordinator(newFakeStore(1))
	_, err := b.Apply(context.Background(), []string{"t0001"}, Mutation{Kind: MutateExport})
	require.Error(t, err)
}

func TestSetCategoryInline(t *testing.T) {
	t.Parallel()

	cat := "Travel"
	fs := newFakeStore(1)
	echoed := fs.rows[0]
	echoed.CategoryOverride = &cat
	fs.updated = []ledger.Transaction{echoed}

	b := NewBulkCoordinator(fs)
	updated, err := b.SetCategory(context.Background(), fs.rows[0].ID, cat)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	require.Equal(t, &cat, updated[0].CategoryOverride)
}
