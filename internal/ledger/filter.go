package ledger

import (
	"fmt"
	"sort"
	"strings"
)

// Filters is the client-side predicate pipeline. Each filter is
// independently toggleable; the zero value matches everything. The
// pipeline runs account, category, search, tags in that order, but the
// predicates commute: only the final canonical sort determines row order.
type Filters struct {
	AccountID string   // exact match on the account's external id
	Category  string   // case-insensitive substring on the resolved label
	Search    string   // case-insensitive substring across several fields
	TagIDs    []string // OR semantics: any selected tag matches
}

// IsZero reports whether no filter is active.
func (f Filters) IsZero() bool {
	return f.AccountID == "" && f.Category == "" && f.Search == "" && len(f.TagIDs) == 0
}

// Apply runs the filter pipeline and returns a new date-descending slice.
// The input is never mutated. Sorting always happens here, once, at the
// end of the pipeline, so filter order can never leak a different order
// to the view.
func Apply(rows []Transaction, f Filters) []Transaction {
	out := make([]Transaction, 0, len(rows))
	for _, t := range rows {
		if !matchAccount(t, f.AccountID) {
			continue
		}
		if !matchCategory(t, f.Category) {
			continue
		}
		if !matchSearch(t, f.Search) {
			continue
		}
		if !matchTags(t, f.TagIDs) {
			continue
		}
		out = append(out, t)
	}
	SortCanonical(out)
	return out
}

// SortCanonical sorts rows date descending with id descending as the
// deterministic tiebreak. This is the single named sort step for every
// table view.
func SortCanonical(rows []Transaction) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date > rows[j].Date
		}
		return rows[i].ID > rows[j].ID
	})
}

func matchAccount(t Transaction, accountID string) bool {
	return accountID == "" || t.AccountID == accountID
}

func matchCategory(t Transaction, category string) bool {
	if category == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.ResolvedCategory()), strings.ToLower(category))
}

func matchSearch(t Transaction, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	fields := []string{
		t.Merchant(),
		t.RawDescription,
		t.ResolvedCategory(),
		fmt.Sprintf("%.2f", float64(t.AmountCents)/100),
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func matchTags(t Transaction, tagIDs []string) bool {
	if len(tagIDs) == 0 {
		return true
	}
	for _, id := range tagIDs {
		if t.HasTag(id) {
			return true
		}
	}
	return false
}

// Selection is the set of transaction ids marked for a bulk operation.
// It is independent of the current filter and page: toggling a filter
// never clears it.
type Selection map[string]struct{}

// NewSelection returns an empty selection.
func NewSelection() Selection { return Selection{} }

// Toggle flips membership for id.
func (s Selection) Toggle(id string) {
	if _, ok := s[id]; ok {
		delete(s, id)
	} else {
		s[id] = struct{}{}
	}
}

// Has reports membership.
func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Clear empties the selection in place.
func (s Selection) Clear() {
	for id := range s {
		delete(s, id)
	}
}

// IDs returns the selected ids in a stable order.
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// NoFocus is the keyboard focus value meaning no row focused.
const NoFocus = -1

// ClampFocus keeps a keyboard focus index valid against the current
// filtered length: it clamps to the last row when the list shrinks and
// resets to NoFocus when the list is empty.
func ClampFocus(focus, n int) int {
	if n <= 0 {
		return NoFocus
	}
	if focus < 0 {
		return NoFocus
	}
	if focus >= n {
		return n - 1
	}
	return focus
}
