package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tx(id, date string, cents int64, category string) Transaction {
	t := Transaction{ID: id, Date: date, AmountCents: cents}
	if category != "" {
		t.CategoryPath = &CategoryPath{Primary: category}
	}
	return t
}

func TestMonthlySeriesSignConvention(t *testing.T) {
	t.Parallel()

	rows := []Transaction{
		tx("a", "2024-11-03", -250000, ""), // income
		tx("b", "2024-11-10", 40000, "Rent"),
		tx("c", "2024-11-12", 12050, "Food"),
		tx("d", "2024-11-15", 0, ""), // contributes to neither side
	}
	series := MonthlySeries(rows)
	require.Len(t, series, 1)
	m := series[0]
	require.Equal(t, "2024-11", m.Key)
	require.Equal(t, "Nov 2024", m.Month)
	require.Equal(t, int64(2500), m.Revenue)
	require.Equal(t, int64(521), m.Expenses) // 520.50 rounds up
	require.Equal(t, int64(1979), m.Profit)
}

func TestMonthlySeriesSameMonthDifferentYears(t *testing.T) {
	t.Parallel()

	rows := []Transaction{
		tx("a", "2023-11-05", 10000, "Food"),
		tx("b", "2024-11-05", 20000, "Food"),
	}
	series := MonthlySeries(rows)
	require.Len(t, series, 2)
	require.Equal(t, "2023-11", series[0].Key)
	require.Equal(t, "2024-11", series[1].Key)
	require.Equal(t, int64(100), series[0].Expenses)
	require.Equal(t, int64(200), series[1].Expenses)
}

func TestMonthlySeriesIdempotent(t *testing.T) {
	t.Parallel()

	rows := []Transaction{
		tx("a", "2024-01-01", -5000, ""),
		tx("b", "2024-02-01", 3000, "Food"),
	}
	first := MonthlySeries(rows)
	second := MonthlySeries(rows)
	require.Equal(t, first, second)
}

func TestCategoryBreakdownTopSixExpensesOnly(t *testing.T) {
	t.Parallel()

	rows := []Transaction{
		tx("i", "2024-05-01", -900000, "Revenue"), // income must not appear
	}
	cats := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i, c := range cats {
		rows = append(rows, tx(c, "2024-05-02", int64(100000-i*10000), c))
	}
	out := CategoryBreakdown(rows)
	require.Len(t, out, TopCategories)
	for _, d := range out {
		require.NotEqual(t, "Revenue", d.Category)
	}
	// sorted by amount descending
	for i := 1; i < len(out); i++ {
		require.GreaterOrEqual(t, out[i-1].Amount, out[i].Amount)
	}
	// percentages are against the displayed rows, so they sum near 100
	sum := 0
	for _, d := range out {
		sum += d.Percentage
	}
	require.InDelta(t, 100, sum, 1)
}

func TestCategoryBreakdownUncategorizedFallback(t *testing.T) {
	t.Parallel()

	out := CategoryBreakdown([]Transaction{tx("a", "2024-05-01", 5000, "")})
	require.Len(t, out, 1)
	require.Equal(t, Uncategorized, out[0].Category)
	require.Equal(t, 100, out[0].Percentage)
}

func TestCashFlowSeries(t *testing.T) {
	t.Parallel()

	rows := []Transaction{
		tx("a", "2024-06-01", -100000, ""),
		tx("b", "2024-06-10", 30000, "Food"),
		tx("c", "2024-07-01", 20000, "Food"),
	}
	out := CashFlowSeries(rows)
	require.Len(t, out, 2)
	require.Equal(t, int64(1000), out[0].Inflow)
	require.Equal(t, int64(300), out[0].Outflow)
	require.Equal(t, int64(700), out[0].Net)
	require.Equal(t, int64(0), out[1].Inflow)
	require.Equal(t, int64(-200), out[1].Net)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	rows := []Transaction{
		tx("a", "2024-06-01", -100000, ""),
		tx("b", "2024-06-10", 30000, "Food"),
	}
	k := Summarize(rows)
	require.Equal(t, int64(1000), k.TotalRevenue)
	require.Equal(t, int64(300), k.TotalExpenses)
	require.Equal(t, int64(700), k.NetProfit)
	require.Equal(t, 2, k.TransactionCount)
	// avg over abs amounts: (1000 + 300) / 2
	require.Equal(t, int64(650), k.AvgTransactionSize)
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	k := Summarize(nil)
	require.Zero(t, k.TotalRevenue)
	require.Zero(t, k.AvgTransactionSize)
	require.Zero(t, k.TransactionCount)
}

func TestMonthLabelMalformed(t *testing.T) {
	t.Parallel()

	require.Equal(t, "garbage", monthLabel("garbage"))
	require.Equal(t, "2024-13", monthLabel("2024-13"))
	require.Equal(t, "Jan 2024", monthLabel("2024-01"))
}

func TestUnitsRounding(t *testing.T) {
	t.Parallel()

	require.Equal(t, int64(5), Units(450))
	require.Equal(t, int64(4), Units(449))
	require.Equal(t, int64(-5), Units(-450))
}
