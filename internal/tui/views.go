package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MaWoo96/ledgerview/internal/ledger"
)

// styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

const barWidth = 24

func (a *App) View() string {
	var body string
	switch a.state {
	case viewTransactions:
		body = a.renderTransactions()
	case viewReceipts:
		body = a.renderReceipts()
	case viewSettings:
		body = a.renderSettings()
	default:
		body = a.renderDashboard()
	}
	if a.modal != modalNone {
		body += "\n\n" + a.renderModal()
	}
	return body
}

func (a *App) renderDashboard() string {
	title := titleStyle.Render(fmt.Sprintf("Ledgerview — %s to %s", a.dateFrom, a.dateTo))
	rows := a.fetch.Rows()

	kpi := ledger.Summarize(rows)
	out := title + "\n"
	out += fmt.Sprintf("Revenue %s  Expenses %s  Net %s  Txns %d  Avg %s\n",
		a.money(kpi.TotalRevenue), a.money(kpi.TotalExpenses), a.money(kpi.NetProfit),
		kpi.TransactionCount, a.money(kpi.AvgTransactionSize))
	if e := a.fetch.Err(); e != "" {
		out += negativeStyle.Render("fetch error: "+e) + "\n"
	}

	out += "\n" + titleStyle.Render("Monthly") + "\n"
	monthly := ledger.MonthlySeries(rows)
	var maxAbs int64 = 1
	for _, m := range monthly {
		if m.Revenue > maxAbs {
			maxAbs = m.Revenue
		}
		if m.Expenses > maxAbs {
			maxAbs = m.Expenses
		}
	}
	for _, m := range monthly {
		out += fmt.Sprintf("%-9s rev %s %-10s exp %s %-10s net %s\n",
			m.Month,
			bar(m.Revenue, maxAbs), a.money(m.Revenue),
			bar(m.Expenses, maxAbs), a.money(m.Expenses),
			a.money(m.Profit))
	}

	out += "\n" + titleStyle.Render("Top expense categories") + "\n"
	for _, c := range ledger.CategoryBreakdown(rows) {
		out += fmt.Sprintf("%-28s %s %3d%%\n", c.Category, a.money(c.Amount), c.Percentage)
	}

	out += "\n" + titleStyle.Render("Cash flow") + "\n"
	for _, c := range ledger.CashFlowSeries(rows) {
		out += fmt.Sprintf("%-9s in %-10s out %-10s net %s\n",
			c.Month, a.money(c.Inflow), a.money(c.Outflow), a.money(c.Net))
	}

	out += "\n[t] Transactions  [r] Receipts  [p] Settings  [1/3/6/y] Range  [R] Refresh  [q] Quit"
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderTransactions() string {
	filtered := a.filteredRows()
	title := titleStyle.Render(fmt.Sprintf("Transactions (%d of %d loaded", len(filtered), len(a.fetch.Rows())))
	if a.fetch.HasMore() {
		title += titleStyle.Render(", more available")
	}
	title += titleStyle.Render(")")
	out := title + "\n"
	out += a.renderFilterLine()

	var balances []int64
	if a.showBalance {
		anchor := ledger.BalanceAnchor(a.accounts, a.filters.AccountID)
		balances = ledger.RunningBalances(filtered, anchor)
	}

	names := a.accountNames()
	for i, t := range filtered {
		marker := " "
		if i == a.focus {
			marker = "▶"
		}
		sel := " "
		if a.selection.Has(t.ID) {
			sel = "✓"
		}
		receipt := " "
		if t.ReceiptID != nil {
			receipt = "◎"
		}
		amount := fmt.Sprintf("%10.2f", float64(t.AmountCents)/100)
		line := fmt.Sprintf("%s%s %s  %-28s %s  %-18s %s %-8s",
			marker, sel, t.Date, truncate(t.Merchant(), 28), amount,
			truncate(t.ResolvedCategory(), 18), receipt, t.ReviewStatus)
		if a.showBalance {
			bal := balances[i]
			balText := fmt.Sprintf("%12.2f", float64(bal)/100)
			if bal < 0 {
				balText = negativeStyle.Render(balText)
			}
			line += " " + balText
		}
		if name := names[t.AccountID]; name != "" {
			line += "  " + mutedStyle.Render(name)
		}
		if i == a.focus {
			line = selectedStyle.Render(line)
		}
		out += line + "\n"
	}
	if len(filtered) == 0 {
		out += mutedStyle.Render("(no transactions match)") + "\n"
	}

	out += fmt.Sprintf("\nselected: %d", len(a.selection))
	out += "\n[space] Select  [c] Categorize  [f] Flag  [v] Approve  [e] Export  [u] Suggest  [#] Tag row"
	out += "\n[a] Account  [g] Category  [/] Search  [T] Tags  [m] More  [b] Balance  [x] Clear sel  [d] Dashboard  [q] Quit"
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderFilterLine() string {
	var parts []string
	if a.filters.AccountID != "" {
		name := a.filters.AccountID
		if n := a.accountNames()[a.filters.AccountID]; n != "" {
			name = n
		}
		parts = append(parts, "account="+name)
	}
	if a.filters.Category != "" {
		parts = append(parts, "category~"+a.filters.Category)
	}
	if a.filters.Search != "" {
		parts = append(parts, "search~"+a.filters.Search)
	}
	if len(a.filters.TagIDs) > 0 {
		parts = append(parts, fmt.Sprintf("tags(any of %d)", len(a.filters.TagIDs)))
	}
	if len(parts) == 0 {
		return mutedStyle.Render("filters: none") + "\n"
	}
	return mutedStyle.Render("filters: "+strings.Join(parts, "  ")) + "\n"
}

func (a *App) renderReceipts() string {
	title := titleStyle.Render("Upload receipt")
	body := fmt.Sprintf("File path: %s\nType a path and press Enter to upload for matching.\n[enter] Upload  [esc] Back  [q] Quit", a.receiptPath)
	matched := 0
	for _, t := range a.fetch.Rows() {
		if t.ReceiptID != nil {
			matched++
		}
	}
	body += fmt.Sprintf("\nRows with matched receipts: %d", matched)
	if a.status != "" {
		body += "\n" + a.status
	}
	return fmt.Sprintf("%s\n%s", title, body)
}

func (a *App) renderSettings() string {
	title := titleStyle.Render("Settings")
	out := title + "\n"
	out += fmt.Sprintf("Store mode:       %s\n", a.cfg.Store.Mode)
	out += fmt.Sprintf("Entity:           %s (tenant %s)\n", a.cfg.Entity.ID, a.cfg.Entity.TenantID)
	out += fmt.Sprintf("Running balance:  %v\n", a.cfg.UI.ShowRunningBalance)
	out += fmt.Sprintf("Currency symbol:  %s\n", a.cfg.UI.CurrencySymbol)
	out += "\n[b] Toggle running balance  [s] Save  [d] Dashboard  [t] Transactions  [q] Quit"
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalSearch:
		return inputModal("Search (merchant, description, category, amount)", a.inputBuffer)
	case modalCategoryFilter:
		return inputModal("Filter by category (substring)", a.inputBuffer)
	case modalTagFilter:
		return inputModal("Filter by tags (comma-separated names, any match)", a.inputBuffer)
	case modalBulkCategorize:
		return inputModal(fmt.Sprintf("Categorize %d selected rows as", len(a.selection)), a.inputBuffer)
	case modalTagEdit:
		return inputModal("Toggle tag on focused row", a.inputBuffer)
	default:
		return ""
	}
}

func inputModal(title, buffer string) string {
	return titleStyle.Render(title) + fmt.Sprintf("\n%s\n[enter] Apply  [esc] Cancel", buffer)
}

func (a *App) money(units int64) string {
	if units < 0 {
		return fmt.Sprintf("-%s%d", a.currency, -units)
	}
	return fmt.Sprintf("%s%d", a.currency, units)
}

func bar(value, max int64) string {
	if max <= 0 {
		max = 1
	}
	n := int(value * barWidth / max)
	if n < 0 {
		n = 0
	}
	if n > barWidth {
		n = barWidth
	}
	return barStyle.Render(strings.Repeat("█", n) + strings.Repeat(" ", barWidth-n))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func splitList(input string) []string {
	raw := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == '\t' || r == '\n'
	})
	var out []string
	for _, part := range raw {
		p := normalizeName(part)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
