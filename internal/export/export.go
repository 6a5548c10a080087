// Package export serializes transaction rows to a delimited file. The
// csv writer quotes fields as needed and doubles internal quotes.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/MaWoo96/ledgerview/internal/ledger"
)

var header = []string{"Date", "Merchant", "Category", "Amount", "Type", "Account", "Status", "Notes"}

// Write emits one row per transaction in the given order. accountName
// resolves an account id to its display name; nil leaves the raw id.
func Write(w io.Writer, rows []ledger.Transaction, accountName func(string) string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for _, t := range rows {
		kind := "Expense"
		if t.IsIncome() {
			kind = "Income"
		}
		account := t.AccountID
		if accountName != nil {
			if name := accountName(t.AccountID); name != "" {
				account = name
			}
		}
		notes := ""
		if t.Notes != nil {
			notes = *t.Notes
		}
		rec := []string{
			t.Date,
			t.Merchant(),
			t.ResolvedCategory(),
			fmt.Sprintf("%.2f", float64(t.AmountCents)/100),
			kind,
			account,
			string(t.ReviewStatus),
			notes,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
