// Package sqlite is the local record store: the same contract the hosted
// API serves, backed by an embedded database so the client works offline
// and tests run against real SQL.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/store"
)

// Open opens sqlite with sensible defaults.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

// WithTx runs fn in a transaction.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Now returns UTC time truncated to seconds (consistent with SQLite default).
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Store implements store.RecordStore over sqlite.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store { return &Store{db: db} }

const txColumns = `id, account_id, entity_id, tenant_id, amount, date, authorized_date,
 merchant_name, raw_description, category, category_primary, category_detailed,
 category_override, review_status, notes, reviewed_by, reviewed_at, receipt_id`

// QueryTransactions returns one descending-date page plus the total count
// for the whole (entity, date-range) result set. Date bounds are
// inclusive day strings.
func (s *Store) QueryTransactions(ctx context.Context, q store.TransactionQuery) (store.TransactionPage, error) {
	where := []string{"entity_id = ?", "date >= ?", "date <= ?"}
	args := []interface{}{q.EntityID, q.DateFrom, q.DateTo}
	if q.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, q.AccountID)
	}
	cond := strings.Join(where, " AND ")

	var total int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE "+cond, args...)
	if err := row.Scan(&total); err != nil {
		return store.TransactionPage{}, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM transactions WHERE %s ORDER BY date DESC, id DESC LIMIT ? OFFSET ?",
		txColumns, cond)
	args = append(args, q.Limit, q.Offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return store.TransactionPage{}, err
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return store.TransactionPage{}, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return store.TransactionPage{}, err
	}
	for i := range out {
		tags, err := s.fetchTags(ctx, out[i].ID)
		if err != nil {
			return store.TransactionPage{}, err
		}
		out[i].Tags = tags
	}
	return store.TransactionPage{Rows: out, TotalCount: total}, nil
}

// UpdateTransactions applies patch to ids and echoes back the rows that
// were actually updated. Ids that match no row are silently absent from
// the result.
func (s *Store) UpdateTransactions(ctx context.Context, ids []string, patch store.FieldPatch) ([]ledger.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var sets []string
	var args []interface{}
	if patch.Category != nil {
		sets = append(sets, "category_override = ?")
		args = append(args, *patch.Category)
	}
	if patch.ReviewStatus != nil {
		sets = append(sets, "review_status = ?")
		args = append(args, string(*patch.ReviewStatus))
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("update transactions: empty patch")
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	for _, id := range ids {
		args = append(args, id)
	}
	query := fmt.Sprintf("UPDATE transactions SET %s WHERE id IN (%s)",
		strings.Join(sets, ", "), placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}

	sel := fmt.Sprintf("SELECT %s FROM transactions WHERE id IN (%s) ORDER BY date DESC, id DESC",
		txColumns, placeholders)
	selArgs := make([]interface{}, len(ids))
	for i, id := range ids {
		selArgs[i] = id
	}
	rows, err := s.db.QueryContext(ctx, sel, selArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		tags, err := s.fetchTags(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tags
	}
	return out, nil
}

// ListAccounts returns the entity's accounts.
func (s *Store) ListAccounts(ctx context.Context, entityID string) ([]ledger.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, plaid_account_id, name, institution, account_type, current_balance
	 FROM accounts WHERE entity_id = ? ORDER BY name`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Account
	for rows.Next() {
		var a ledger.Account
		var balance sql.NullInt64
		if err := rows.Scan(&a.ID, &a.PlaidAccountID, &a.Name, &a.Institution, &a.Type, &balance); err != nil {
			return nil, err
		}
		if balance.Valid {
			b := balance.Int64
			a.CurrentBalanceCents = &b
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertTransaction inserts a row (seeding and tests).
func (s *Store) InsertTransaction(ctx context.Context, t ledger.Transaction) error {
	var primary, detailed *string
	if t.CategoryPath != nil {
		primary, detailed = &t.CategoryPath.Primary, &t.CategoryPath.Detailed
	}
	status := t.ReviewStatus
	if status == "" {
		status = ledger.ReviewNone
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, account_id, entity_id, tenant_id, amount, date, authorized_date,
	 merchant_name, raw_description, category, category_primary, category_detailed,
	 category_override, review_status, notes, reviewed_by, reviewed_at, receipt_id,
	 created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		t.ID, t.AccountID, t.EntityID, t.TenantID, t.AmountCents, t.Date, t.AuthorizedDate,
		t.MerchantName, t.RawDescription, t.Category, primary, detailed,
		t.CategoryOverride, string(status), t.Notes, t.ReviewedBy, t.ReviewedAt, t.ReceiptID)
	return err
}

// UpsertAccount inserts or replaces an account row.
func (s *Store) UpsertAccount(ctx context.Context, entityID string, a ledger.Account) error {
	var balance *int64
	if a.CurrentBalanceCents != nil {
		balance = a.CurrentBalanceCents
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO accounts(id, entity_id, plaid_account_id, name, institution, account_type, current_balance)
	VALUES(?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name=excluded.name, institution=excluded.institution,
	 account_type=excluded.account_type, current_balance=excluded.current_balance;
	`, a.ID, entityID, a.PlaidAccountID, a.Name, a.Institution, string(a.Type), balance)
	return err
}

// UpsertTag inserts a tag if missing.
func (s *Store) UpsertTag(ctx context.Context, t ledger.Tag) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO tags(id, name) VALUES(?, ?)
	 ON CONFLICT(id) DO UPDATE SET name=excluded.name`, t.ID, t.Name)
	return err
}

// AttachTag links a tag to a transaction.
func (s *Store) AttachTag(ctx context.Context, transactionID, tagID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO transaction_tags(transaction_id, tag_id) VALUES(?, ?)`, transactionID, tagID)
	return err
}

// RemoveTag unlinks a tag from a transaction.
func (s *Store) RemoveTag(ctx context.Context, transactionID, tagID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ? AND tag_id = ?`, transactionID, tagID)
	return err
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]ledger.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Tag
	for rows.Next() {
		var t ledger.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveReceiptMatch records an upload result and, when the collaborator
// matched a transaction, stamps the receipt onto that row.
func (s *Store) SaveReceiptMatch(ctx context.Context, m store.ReceiptMatch) error {
	return WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO receipts(id, vendor, amount, date, match_status, match_confidence, ocr_confidence, matched_transaction_id)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET match_status=excluded.match_status,
		 match_confidence=excluded.match_confidence, matched_transaction_id=excluded.matched_transaction_id;
		`, m.ReceiptID, m.Vendor, m.AmountCents, m.Date, m.MatchStatus, m.MatchConfidence, m.OCRConfidence, nullable(m.MatchedTransactionID)); err != nil {
			return err
		}
		if m.MatchedTransactionID == "" {
			return nil
		}
		_, err := tx.ExecContext(ctx, `UPDATE transactions SET receipt_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			m.ReceiptID, m.MatchedTransactionID)
		return err
	})
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) fetchTags(ctx context.Context, transactionID string) ([]ledger.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT t.id, t.name FROM tags t
	 JOIN transaction_tags tt ON tt.tag_id = t.id
	 WHERE tt.transaction_id = ? ORDER BY t.name`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []ledger.Tag
	for rows.Next() {
		var t ledger.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// scanTransaction handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (ledger.Transaction, error) {
	var t ledger.Transaction
	var authorized, merchant, category, primary, detailed, override sql.NullString
	var notes, reviewedBy, reviewedAt, receiptID sql.NullString
	var status string
	if err := row.Scan(&t.ID, &t.AccountID, &t.EntityID, &t.TenantID, &t.AmountCents, &t.Date,
		&authorized, &merchant, &t.RawDescription, &category, &primary, &detailed,
		&override, &status, &notes, &reviewedBy, &reviewedAt, &receiptID); err != nil {
		return ledger.Transaction{}, err
	}
	t.ReviewStatus = ledger.ReviewStatus(status)
	if authorized.Valid {
		t.AuthorizedDate = &authorized.String
	}
	if merchant.Valid {
		t.MerchantName = &merchant.String
	}
	if category.Valid {
		t.Category = &category.String
	}
	if primary.Valid {
		cp := ledger.CategoryPath{Primary: primary.String}
		if detailed.Valid {
			cp.Detailed = detailed.String
		}
		t.CategoryPath = &cp
	}
	if override.Valid {
		t.CategoryOverride = &override.String
	}
	if notes.Valid {
		t.Notes = &notes.String
	}
	if reviewedBy.Valid {
		t.ReviewedBy = &reviewedBy.String
	}
	if reviewedAt.Valid {
		t.ReviewedAt = &reviewedAt.String
	}
	if receiptID.Valid {
		t.ReceiptID = &receiptID.String
	}
	return t, nil
}
