// Package service holds the coordinators between the store and the
// in-memory transaction list: paginated fetching, bulk mutations,
// receipt uploads and category suggestions. The list has exactly one
// writer (the event loop committing results here); the pure engines in
// internal/ledger only ever read it.
package service

import (
	"context"

	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/store"
)

const (
	// PageSize is the fixed store page size.
	PageSize = 50
	// MaxPages bounds rows fetched per key. This is a circuit breaker
	// against unbounded memory growth, independent of the store's
	// reported total; hitting it is not an error.
	MaxPages = 10
)

// FetchKey identifies one (entity, date-range) fetch scope. Dates are
// normalized day strings so equal-but-new values compare equal and never
// cause refetch loops.
type FetchKey struct {
	EntityID string
	DateFrom string
	DateTo   string
}

// PageRequest is a fetch the event loop has decided to run.
type PageRequest struct {
	Key    FetchKey
	Page   int
	Append bool
}

// PageResult carries a completed (or skipped) fetch back to the event
// loop. Key is the key captured at call time; Commit compares it against
// the current key and discards stale results.
type PageResult struct {
	Key        FetchKey
	Page       int
	Append     bool
	Rows       []ledger.Transaction
	TotalCount int
	Skipped    bool // page bound reached, no store call was made
	Err        error
}

// FetchController drives page-by-page retrieval for one key at a time.
// All state mutation happens in Reset and Commit, which the event loop
// calls; Do is safe to run from a command goroutine because it only
// reads the injected store handle and its request.
type FetchController struct {
	store store.RecordStore

	key     FetchKey
	rows    []ledger.Transaction
	total   int
	fetched int // offset + row count of the last committed page
	page    int
	hasMore bool
	loading bool
	errMsg  string
}

// NewFetchController returns a controller over the given store handle.
func NewFetchController(s store.RecordStore) *FetchController {
	return &FetchController{store: s}
}

// Reset points the controller at a new (entity, date-range) key and
// returns the page-0 replace request for it. If the normalized key is
// unchanged the current state stands and changed is false.
func (c *FetchController) Reset(entityID, dateFrom, dateTo string) (req PageRequest, changed bool) {
	key := FetchKey{
		EntityID: entityID,
		DateFrom: ledger.NormalizeDay(dateFrom),
		DateTo:   ledger.NormalizeDay(dateTo),
	}
	if key == c.key && c.rows != nil {
		return PageRequest{}, false
	}
	c.key = key
	c.rows = nil
	c.total = 0
	c.fetched = 0
	c.page = 0
	c.hasMore = false
	c.errMsg = ""
	c.loading = true
	return PageRequest{Key: key, Page: 0, Append: false}, true
}

// NextPage returns the append request for the page after the last
// committed one, or ok=false when there is nothing more to fetch.
func (c *FetchController) NextPage() (req PageRequest, ok bool) {
	if !c.hasMore || c.loading {
		return PageRequest{}, false
	}
	c.loading = true
	return PageRequest{Key: c.key, Page: c.page + 1, Append: true}, true
}

// Do executes the store read for req. Requests at or past the page bound
// never reach the store and come back marked Skipped.
func (c *FetchController) Do(ctx context.Context, req PageRequest) PageResult {
	if req.Page >= MaxPages {
		return PageResult{Key: req.Key, Page: req.Page, Append: req.Append, Skipped: true}
	}
	page, err := c.store.QueryTransactions(ctx, store.TransactionQuery{
		EntityID: req.Key.EntityID,
		DateFrom: req.Key.DateFrom,
		DateTo:   req.Key.DateTo,
		Offset:   req.Page * PageSize,
		Limit:    PageSize,
	})
	if err != nil {
		return PageResult{Key: req.Key, Page: req.Page, Append: req.Append, Err: err}
	}
	return PageResult{
		Key:        req.Key,
		Page:       req.Page,
		Append:     req.Append,
		Rows:       page.Rows,
		TotalCount: page.TotalCount,
	}
}

// Commit applies a completed fetch. Results whose key no longer matches
// the current key are discarded, not applied. A failed page surfaces as
// a single error string, keeps previously loaded rows and stops
// pagination; it never rolls anything back.
func (c *FetchController) Commit(res PageResult) bool {
	if res.Key != c.key {
		return false
	}
	c.loading = false
	if res.Skipped {
		c.hasMore = false
		return true
	}
	if res.Err != nil {
		c.errMsg = res.Err.Error()
		c.hasMore = false
		return true
	}
	c.errMsg = ""
	if res.Append {
		c.rows = append(c.rows, res.Rows...)
	} else {
		c.rows = res.Rows
		if c.rows == nil {
			c.rows = []ledger.Transaction{}
		}
	}
	c.total = res.TotalCount
	c.page = res.Page
	c.fetched = res.Page*PageSize + len(res.Rows)
	c.hasMore = res.TotalCount > c.fetched && res.Page+1 < MaxPages
	return true
}

// Merge folds store-echoed rows back into the local list by id. Rows the
// store did not echo keep their prior local state.
func (c *FetchController) Merge(updated []ledger.Transaction) {
	c.rows = ledger.MergeByID(c.rows, updated)
}

// Rows returns the local transaction list. Callers treat it as
// read-only; derived views copy before sorting.
func (c *FetchController) Rows() []ledger.Transaction { return c.rows }

// HasMore reports whether another page may be fetched.
func (c *FetchController) HasMore() bool { return c.hasMore }

// Loading reports whether a fetch is in flight.
func (c *FetchController) Loading() bool { return c.loading }

// Err returns the user-visible fetch error, empty when healthy.
func (c *FetchController) Err() string { return c.errMsg }

// Key returns the current fetch key.
func (c *FetchController) Key() FetchKey { return c.key }

// Store returns the injected record-store handle.
func (c *FetchController) Store() store.RecordStore { return c.store }

// Invalidate forgets the current key so the next Reset for the same
// (entity, date-range) refetches. This is the explicit-refresh path;
// failed fetches are never retried automatically.
func (c *FetchController) Invalidate() {
	c.key = FetchKey{}
	c.rows = nil
}

// TotalCount returns the store's total-count hint for the current key.
func (c *FetchController) TotalCount() int { return c.total }
