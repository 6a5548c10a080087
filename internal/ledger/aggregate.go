package ledger

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Derived chart/KPI views. Every function here is pure: same input list,
// byte-identical output. Monetary outputs are rounded to whole currency
// units here, not at render time, so repeated reads are stable.

// MonthlyDatum is one month of the revenue/expense/profit series.
type MonthlyDatum struct {
	Key      string // composite "YYYY-MM" bucket key
	Month    string // display label, e.g. "Nov 2024"
	Revenue  int64
	Expenses int64
	Profit   int64
}

// CategoryDatum is one slice of the expense category breakdown.
// Percentage is relative to the sum of the displayed top-N amounts, not
// the full expense total, so visible rows sum near 100.
type CategoryDatum struct {
	Category   string
	Amount     int64
	Percentage int
}

// CashFlowDatum is one month of the inflow/outflow series.
type CashFlowDatum struct {
	Key     string
	Month   string
	Inflow  int64
	Outflow int64
	Net     int64
}

// KPI is the scalar summary bundle.
type KPI struct {
	TotalRevenue       int64
	TotalExpenses      int64
	NetProfit          int64
	TransactionCount   int
	AvgTransactionSize int64
}

// TopCategories is how many rows the category breakdown keeps.
const TopCategories = 6

// MonthlySeries buckets transactions into revenue/expense/profit per
// calendar month, keyed by year-month so identical month numbers in
// different years stay distinct. Zero-amount rows contribute to neither
// side. Output is sorted by key ascending.
func MonthlySeries(rows []Transaction) []MonthlyDatum {
	type bucket struct{ revenue, expenses int64 }
	buckets := map[string]*bucket{}
	for _, t := range rows {
		key := t.MonthKey()
		if key == "" {
			continue
		}
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		switch {
		case t.AmountCents < 0:
			b.revenue += -t.AmountCents
		case t.AmountCents > 0:
			b.expenses += t.AmountCents
		}
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]MonthlyDatum, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		rev, exp := Units(b.revenue), Units(b.expenses)
		out = append(out, MonthlyDatum{
			Key:      k,
			Month:    monthLabel(k),
			Revenue:  rev,
			Expenses: exp,
			Profit:   rev - exp,
		})
	}
	return out
}

// CategoryBreakdown aggregates expense transactions by resolved category
// and keeps the top rows by amount. Revenue rows are excluded by design.
func CategoryBreakdown(rows []Transaction) []CategoryDatum {
	totals := map[string]int64{}
	for _, t := range rows {
		if t.AmountCents <= 0 {
			continue
		}
		totals[t.ResolvedCategory()] += t.AmountCents
	}
	type pair struct {
		name  string
		cents int64
	}
	pairs := make([]pair, 0, len(totals))
	for k, v := range totals {
		pairs = append(pairs, pair{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].cents != pairs[j].cents {
			return pairs[i].cents > pairs[j].cents
		}
		return pairs[i].name < pairs[j].name
	})
	if len(pairs) > TopCategories {
		pairs = pairs[:TopCategories]
	}
	var topSum int64
	for _, p := range pairs {
		topSum += p.cents
	}
	out := make([]CategoryDatum, 0, len(pairs))
	for _, p := range pairs {
		pct := 0
		if topSum > 0 {
			pct = int(math.Round(float64(p.cents) / float64(topSum) * 100))
		}
		out = append(out, CategoryDatum{
			Category:   p.name,
			Amount:     Units(p.cents),
			Percentage: pct,
		})
	}
	return out
}

// CashFlowSeries buckets absolute inflow and outflow per month.
func CashFlowSeries(rows []Transaction) []CashFlowDatum {
	type bucket struct{ inflow, outflow int64 }
	buckets := map[string]*bucket{}
	for _, t := range rows {
		key := t.MonthKey()
		if key == "" {
			continue
		}
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		switch {
		case t.AmountCents < 0:
			b.inflow += -t.AmountCents
		case t.AmountCents > 0:
			b.outflow += t.AmountCents
		}
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]CashFlowDatum, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		in, outf := Units(b.inflow), Units(b.outflow)
		out = append(out, CashFlowDatum{
			Key:     k,
			Month:   monthLabel(k),
			Inflow:  in,
			Outflow: outf,
			Net:     in - outf,
		})
	}
	return out
}

// Summarize computes the KPI bundle over all transactions. The average
// uses abs(amount) across income and expense combined; an empty list
// yields a zero average, never NaN.
func Summarize(rows []Transaction) KPI {
	var revCents, expCents, absCents int64
	for _, t := range rows {
		switch {
		case t.AmountCents < 0:
			revCents += -t.AmountCents
			absCents += -t.AmountCents
		case t.AmountCents > 0:
			expCents += t.AmountCents
			absCents += t.AmountCents
		}
	}
	k := KPI{
		TotalRevenue:     Units(revCents),
		TotalExpenses:    Units(expCents),
		TransactionCount: len(rows),
	}
	k.NetProfit = k.TotalRevenue - k.TotalExpenses
	if len(rows) > 0 {
		k.AvgTransactionSize = int64(math.Round(float64(absCents) / float64(len(rows)) / 100))
	}
	return k
}

// monthLabel turns a "YYYY-MM" key into a short display label. Malformed
// keys fall back to the key itself so charts degrade instead of crashing.
func monthLabel(key string) string {
	if len(key) != 7 {
		return key
	}
	m, err := strconv.Atoi(key[5:7])
	if err != nil || m < 1 || m > 12 {
		return key
	}
	return fmt.Sprintf("%s %s", time.Month(m).String()[:3], key[:4])
}
