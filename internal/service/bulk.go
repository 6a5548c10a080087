package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/MaWoo96/ledgerview/internal/export"
	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/store"
)

// MutationKind enumerates the bulk operations.
type MutationKind string

const (
	MutateCategorize MutationKind = "categorize"
	MutateFlag       MutationKind = "flag"
	MutateApprove    MutationKind = "approve"
	MutateExport     MutationKind = "export"
)

// Mutation is one bulk operation. Category is set for MutateCategorize.
type Mutation struct {
	Kind     MutationKind
	Category string
}

// ErrBusy is returned when a bulk mutation is already in flight.
// Concurrent bulk operations are prevented, not last-writer-wins merged.
var ErrBusy = errors.New("bulk operation already in flight")

// Notifier is a best-effort side channel told about completed mutations.
// Failures are tolerated and never gate the mutation's own outcome.
type Notifier interface {
	MutationApplied(ids []string, m Mutation)
}

// BulkCoordinator applies one field-level mutation to a selection set and
// merges the store's echoed rows back by id. Export is purely local and
// never touches the store.
type BulkCoordinator struct {
	store      store.RecordStore
	notifier   Notifier
	processing atomic.Bool
}

// NewBulkCoordinator returns a coordinator over the given store handle.
func NewBulkCoordinator(s store.RecordStore) *BulkCoordinator {
	return &BulkCoordinator{store: s}
}

// WithNotifier attaches a best-effort side channel.
func (b *BulkCoordinator) WithNotifier(n Notifier) *BulkCoordinator {
	b.notifier = n
	return b
}

// Busy reports whether a mutation is in flight.
func (b *BulkCoordinator) Busy() bool { return b.processing.Load() }

// Apply runs one store-backed mutation against ids and returns the rows
// the store echoed back; ids absent from the echo keep their prior local
// state when merged. The caller clears its selection unconditionally on
// completion, success or failure.
func (b *BulkCoordinator) Apply(ctx context.Context, ids []string, m Mutation) ([]ledger.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if !b.processing.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer b.processing.Store(false)

	patch, err := patchFor(m)
	if err != nil {
		return nil, err
	}
	updated, err := b.store.UpdateTransactions(ctx, ids, patch)
	if err != nil {
		return nil, fmt.Errorf("bulk %s: %w", m.Kind, err)
	}
	if b.notifier != nil {
		go b.notifier.MutationApplied(ids, m)
	}
	return updated, nil
}

// Export serializes rows to w. Local only: no store round-trip, no
// in-flight guard needed.
func (b *BulkCoordinator) Export(w io.Writer, rows []ledger.Transaction, accountName func(string) string) error {
	return export.Write(w, rows, accountName)
}

// SetCategory is the inline single-row change, independent of the bulk
// in-flight guard but subject to the same by-id merge rule.
func (b *BulkCoordinator) SetCategory(ctx context.Context, id, category string) ([]ledger.Transaction, error) {
	return b.store.UpdateTransactions(ctx, []string{id}, store.FieldPatch{Category: &category})
}

func patchFor(m Mutation) (store.FieldPatch, error) {
	switch m.Kind {
	case MutateCategorize:
		c := m.Category
		return store.FieldPatch{Category: &c}, nil
	case MutateFlag:
		s := ledger.ReviewFlagged
		return store.FieldPatch{ReviewStatus: &s}, nil
	case MutateApprove:
		s := ledger.ReviewApproved
		return store.FieldPatch{ReviewStatus: &s}, nil
	case MutateExport:
		return store.FieldPatch{}, errors.New("export is local, not a store mutation")
	default:
		return store.FieldPatch{}, fmt.Errorf("unknown mutation %q", m.Kind)
	}
}
