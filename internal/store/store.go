// Package store defines the record-store contract the client engine runs
// against. The hosted API and the local sqlite database both satisfy it,
// and tests substitute fakes; the engine never reaches for an ambient
// client singleton.
package store

import (
	"context"
	"io"

	"github.com/MaWoo96/ledgerview/internal/ledger"
)

// TransactionQuery is a filtered, paginated read. Dates are YYYY-MM-DD
// day strings, inclusive on both ends. AccountID is optional.
type TransactionQuery struct {
	EntityID  string
	DateFrom  string
	DateTo    string
	AccountID string
	Offset    int
	Limit     int
}

// TransactionPage is one page of rows plus the store's total-count hint
// for the whole (entity, date-range) result set.
type TransactionPage struct {
	Rows       []ledger.Transaction
	TotalCount int
}

// FieldPatch is a field-level bulk update. Nil fields are left untouched.
type FieldPatch struct {
	Category     *string
	ReviewStatus *ledger.ReviewStatus
	Notes        *string
}

// RecordStore reads and mutates transaction records.
type RecordStore interface {
	// QueryTransactions returns rows in descending-date order.
	QueryTransactions(ctx context.Context, q TransactionQuery) (TransactionPage, error)
	// UpdateTransactions applies patch to ids and returns only the rows
	// actually updated; callers must not assume every id is echoed back.
	UpdateTransactions(ctx context.Context, ids []string, patch FieldPatch) ([]ledger.Transaction, error)
	// ListAccounts returns the accounts visible to the entity.
	ListAccounts(ctx context.Context, entityID string) ([]ledger.Account, error)
}

// TagStore edits the tag vocabulary and row-tag links.
type TagStore interface {
	UpsertTag(ctx context.Context, t ledger.Tag) error
	AttachTag(ctx context.Context, transactionID, tagID string) error
	RemoveTag(ctx context.Context, transactionID, tagID string) error
}

// ReceiptMatch is the structured result of a receipt upload. The engine
// consumes only MatchedTransactionID to join receipts onto rows; all
// matching logic lives in the upload collaborator.
type ReceiptMatch struct {
	ReceiptID            string
	Vendor               string
	AmountCents          int64
	Date                 string
	MatchStatus          string
	MatchConfidence      float64
	OCRConfidence        float64
	MatchedTransactionID string
}

// ReceiptUploader sends a receipt file to the matching collaborator.
type ReceiptUploader interface {
	UploadReceipt(ctx context.Context, r io.Reader, filename, entityID, tenantID string) (ReceiptMatch, error)
}
