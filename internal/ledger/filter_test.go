package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func filterRows() []Transaction {
	coffee := "Blue Bottle"
	return []Transaction{
		{
			ID: "t1", AccountID: "acct-1", Date: "2024-11-03", AmountCents: 450,
			MerchantName: &coffee, RawDescription: "BLUE BOTTLE COFFEE #12",
			CategoryPath: &CategoryPath{Primary: "Food and Drink"},
			Tags:         []Tag{{ID: "tag-a", Name: "deductible"}},
		},
		{
			ID: "t2", AccountID: "acct-2", Date: "2024-11-03", AmountCents: -250000,
			RawDescription: "ACME PAYROLL",
			CategoryPath:   &CategoryPath{Primary: "Revenue"},
		},
		{
			ID: "t3", AccountID: "acct-1", Date: "2024-11-01", AmountCents: 129900,
			RawDescription: "DELL ONLINE",
			CategoryPath:   &CategoryPath{Primary: "Office Equipment"},
			Tags:           []Tag{{ID: "tag-b", Name: "hardware"}},
		},
	}
}

func TestApplyCanonicalOrder(t *testing.T) {
	t.Parallel()

	out := Apply(filterRows(), Filters{})
	ids := []string{out[0].ID, out[1].ID, out[2].ID}
	// date descending, id descending on ties
	require.Equal(t, []string{"t2", "t1", "t3"}, ids)
}

func TestApplyOrderIndependentOfInputOrder(t *testing.T) {
	t.Parallel()

	rows := filterRows()
	reversed := []Transaction{rows[2], rows[1], rows[0]}
	a := Apply(rows, Filters{})
	b := Apply(reversed, Filters{})
	require.Equal(t, a, b)
}

func TestApplyAccountFilter(t *testing.T) {
	t.Parallel()

	out := Apply(filterRows(), Filters{AccountID: "acct-1"})
	require.Len(t, out, 2)
	for _, tr := range out {
		require.Equal(t, "acct-1", tr.AccountID)
	}
}

func TestApplyCategorySubstring(t *testing.T) {
	t.Parallel()

	out := Apply(filterRows(), Filters{Category: "food"})
	require.Len(t, out, 1)
	require.Equal(t, "t1", out[0].ID)
}

func TestApplySearchFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		query  string
		expect []string
	}{
		{"merchant", "blue bottle", []string{"t1"}},
		{"raw description", "payroll", []string{"t2"}},
		{"category", "equipment", []string{"t3"}},
		{"stringified amount", "1299.00", []string{"t3"}},
		{"no match", "zzz", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := Apply(filterRows(), Filters{Search: tc.query})
			var ids []string
			for _, tr := range out {
				ids = append(ids, tr.ID)
			}
			require.Equal(t, tc.expect, ids)
		})
	}
}

func TestApplyTagsOrSemantics(t *testing.T) {
	t.Parallel()

	out := Apply(filterRows(), Filters{TagIDs: []string{"tag-a", "tag-b"}})
	require.Len(t, out, 2)
	out = Apply(filterRows(), Filters{TagIDs: []string{"tag-b"}})
	require.Len(t, out, 1)
	require.Equal(t, "t3", out[0].ID)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	rows := filterRows()
	before := []string{rows[0].ID, rows[1].ID, rows[2].ID}
	_ = Apply(rows, Filters{})
	after := []string{rows[0].ID, rows[1].ID, rows[2].ID}
	require.Equal(t, before, after)
}

func TestSelection(t *testing.T) {
	t.Parallel()

	s := NewSelection()
	s.Toggle("a")
	s.Toggle("b")
	require.True(t, s.Has("a"))
	s.Toggle("a")
	require.False(t, s.Has("a"))
	require.Equal(t, []string{"b"}, s.IDs())
	s.Clear()
	require.Empty(t, s)
}

func TestClampFocus(t *testing.T) {
	t.Parallel()

	require.Equal(t, NoFocus, ClampFocus(3, 0))
	require.Equal(t, NoFocus, ClampFocus(NoFocus, 5))
	require.Equal(t, 4, ClampFocus(9, 5))
	require.Equal(t, 2, ClampFocus(2, 5))
}

func TestMergeByIDKeepsUnreturnedRows(t *testing.T) {
	t.Parallel()

	note := "checked"
	dst := filterRows()
	updated := dst[0]
	updated.Notes = &note
	out := MergeByID(dst, []Transaction{updated})
	require.Equal(t, &note, out[0].Notes)
	require.Nil(t, out[1].Notes)
	// dst untouched
	require.Nil(t, dst[0].Notes)
}
