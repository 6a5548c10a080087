// Package ledger holds the transaction domain model and the pure engines
// that derive views from it: aggregation, running-balance reconstruction
// and the filter pipeline. Nothing in this package touches the network or
// mutates its inputs.
package ledger

import (
	"math"
	"strings"
)

// ReviewStatus is the bookkeeping review state of a transaction.
type ReviewStatus string

const (
	ReviewNone     ReviewStatus = "none"
	ReviewFlagged  ReviewStatus = "flagged"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// AccountType classifies an account. Credit and loan accounts are
// liabilities; everything else is an asset.
type AccountType string

const (
	AccountDepository AccountType = "depository"
	AccountCredit     AccountType = "credit"
	AccountLoan       AccountType = "loan"
	AccountInvestment AccountType = "investment"
	AccountOther      AccountType = "other"
)

// Tag is a user label attached to transactions via a join table.
type Tag struct {
	ID   string
	Name string
}

// CategoryPath is the aggregator-supplied structured taxonomy.
type CategoryPath struct {
	Primary  string
	Detailed string
}

// Transaction is a synced bank transaction row. Amounts are integer cents
// with the upstream aggregator's sign convention: negative = inflow
// (income), positive = outflow (expense). Dates are YYYY-MM-DD day
// strings; all date comparisons are day-granular.
type Transaction struct {
	ID             string
	AccountID      string
	EntityID       string
	TenantID       string
	AmountCents    int64
	Date           string
	AuthorizedDate *string
	MerchantName   *string
	RawDescription string

	Category         *string       // legacy category code
	CategoryPath     *CategoryPath // structured taxonomy
	CategoryOverride *string       // manual override, wins over everything

	ReviewStatus ReviewStatus
	Notes        *string
	ReviewedBy   *string
	ReviewedAt   *string

	Tags []Tag

	// ReceiptID is set when a receipt upload matched this row.
	ReceiptID *string
}

// Account is a synced bank account.
type Account struct {
	ID                  string
	PlaidAccountID      string
	Name                string
	Institution         string
	Type                AccountType
	CurrentBalanceCents *int64
}

// IsLiability reports whether the account balance represents money owed.
func (a Account) IsLiability() bool {
	return a.Type == AccountCredit || a.Type == AccountLoan
}

// IsIncome reports whether the transaction is an inflow under the
// inflow-negative convention. Zero-amount transactions are neither income
// nor expense.
func (t Transaction) IsIncome() bool { return t.AmountCents < 0 }

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool { return t.AmountCents > 0 }

// Uncategorized is the display fallback when no category is present.
const Uncategorized = "Uncategorized"

// ResolvedCategory returns the display category, resolving in precedence
// order: manual override, structured path primary segment, legacy code.
func (t Transaction) ResolvedCategory() string {
	if t.CategoryOverride != nil && *t.CategoryOverride != "" {
		return *t.CategoryOverride
	}
	if t.CategoryPath != nil && t.CategoryPath.Primary != "" {
		return t.CategoryPath.Primary
	}
	if t.Category != nil && *t.Category != "" {
		return *t.Category
	}
	return Uncategorized
}

// Merchant returns the best display name for the counterparty.
func (t Transaction) Merchant() string {
	if t.MerchantName != nil && *t.MerchantName != "" {
		return *t.MerchantName
	}
	return t.RawDescription
}

// HasTag reports whether the transaction carries the given tag id.
func (t Transaction) HasTag(tagID string) bool {
	for _, tg := range t.Tags {
		if tg.ID == tagID {
			return true
		}
	}
	return false
}

// MonthKey returns the composite year-month bucket key ("2024-11").
// Bucketing must use this key, never the bare month name, so the same
// month number in different years never collides.
func (t Transaction) MonthKey() string {
	if len(t.Date) < 7 {
		return ""
	}
	return t.Date[:7]
}

// Units rounds cents to the nearest whole currency unit.
func Units(cents int64) int64 {
	return int64(math.Round(float64(cents) / 100))
}

// MergeByID replaces rows in dst whose id appears in src, leaving every
// other row untouched. The store is not assumed to echo every requested
// id, so absent rows keep their prior local state. Returns a new slice;
// dst is never mutated in place.
func MergeByID(dst []Transaction, src []Transaction) []Transaction {
	if len(src) == 0 {
		out := make([]Transaction, len(dst))
		copy(out, dst)
		return out
	}
	byID := make(map[string]Transaction, len(src))
	for _, t := range src {
		byID[t.ID] = t
	}
	out := make([]Transaction, len(dst))
	for i, t := range dst {
		if upd, ok := byID[t.ID]; ok {
			out[i] = upd
		} else {
			out[i] = t
		}
	}
	return out
}

// NormalizeDay canonicalizes a day string for key comparison. Dates are
// compared by value, not by object identity, so equal-but-new inputs
// never force a refetch.
func NormalizeDay(s string) string {
	return strings.TrimSpace(s)
}
