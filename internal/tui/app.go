// Package tui is the terminal client: one bubbletea model owning the
// authoritative in-memory transaction list, with every table, chart and
// KPI derived from it on read. Store round-trips run as commands; their
// results are committed (or discarded as stale) in Update.
package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MaWoo96/ledgerview/internal/config"
	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/service"
	"github.com/MaWoo96/ledgerview/internal/store"
)

// App ties together views over the shared transaction list.
type App struct {
	ctx      context.Context
	cfg      config.Config
	fetch    *service.FetchController
	bulk     *service.BulkCoordinator
	receipts *service.ReceiptService
	catsvc   *service.CategorizerService
	tags     *service.TagService

	state appState
	modal modalState

	accounts []ledger.Account

	filters     ledger.Filters
	selection   ledger.Selection
	focus       int
	showBalance bool

	dateFrom string
	dateTo   string

	inputBuffer string
	receiptPath string
	status      string
	currency    string
}

type appState string

const (
	viewDashboard    appState = "dashboard"
	viewTransactions appState = "transactions"
	viewReceipts     appState = "receipts"
	viewSettings     appState = "settings"
)

type modalState string

const (
	modalNone           modalState = ""
	modalSearch         modalState = "search"
	modalCategoryFilter modalState = "categoryFilter"
	modalBulkCategorize modalState = "bulkCategorize"
	modalTagFilter      modalState = "tagFilter"
	modalTagEdit        modalState = "tagEdit"
)

// Deps bundles the injected collaborators; no ambient singletons.
type Deps struct {
	Fetch       *service.FetchController
	Bulk        *service.BulkCoordinator
	Receipts    *service.ReceiptService
	Categorizer *service.CategorizerService
	Tags        *service.TagService
}

func New(ctx context.Context, cfg config.Config, deps Deps) *App {
	now := time.Now().UTC()
	return &App{
		ctx:         ctx,
		cfg:         cfg,
		fetch:       deps.Fetch,
		bulk:        deps.Bulk,
		receipts:    deps.Receipts,
		catsvc:      deps.Categorizer,
		tags:        deps.Tags,
		state:       viewDashboard,
		selection:   ledger.NewSelection(),
		focus:       ledger.NoFocus,
		showBalance: cfg.UI.ShowRunningBalance,
		dateFrom:    now.AddDate(0, -3, 0).Format("2006-01-02"),
		dateTo:      now.Format("2006-01-02"),
		currency:    cfg.UI.CurrencySymbol,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.resetFetchCmd(), a.loadAccountsCmd())
}

// filteredRows is the derived table view: predicate pipeline plus the
// single canonical date-descending sort.
func (a *App) filteredRows() []ledger.Transaction {
	return ledger.Apply(a.fetch.Rows(), a.filters)
}

// commands

func (a *App) resetFetchCmd() tea.Cmd {
	req, changed := a.fetch.Reset(a.cfg.Entity.ID, a.dateFrom, a.dateTo)
	if !changed {
		return nil
	}
	a.focus = ledger.NoFocus
	return a.fetchCmd(req)
}

func (a *App) fetchCmd(req service.PageRequest) tea.Cmd {
	return func() tea.Msg {
		return pageMsg(a.fetch.Do(a.ctx, req))
	}
}

func (a *App) loadMoreCmd() tea.Cmd {
	req, ok := a.fetch.NextPage()
	if !ok {
		return nil
	}
	return a.fetchCmd(req)
}

func (a *App) loadAccountsCmd() tea.Cmd {
	return func() tea.Msg {
		accts, err := a.fetch.Store().ListAccounts(a.ctx, a.cfg.Entity.ID)
		if err != nil {
			return errMsg{err}
		}
		return accountsMsg(accts)
	}
}

func (a *App) bulkCmd(ids []string, m service.Mutation) tea.Cmd {
	return func() tea.Msg {
		updated, err := a.bulk.Apply(a.ctx, ids, m)
		return bulkDoneMsg{updated: updated, err: err, kind: m.Kind}
	}
}

func (a *App) inlineCategorizeCmd(id, category string) tea.Cmd {
	return func() tea.Msg {
		updated, err := a.bulk.SetCategory(a.ctx, id, category)
		if err != nil {
			return errMsg{err}
		}
		return mergeMsg(updated)
	}
}

func (a *App) suggestCmd(t ledger.Transaction) tea.Cmd {
	history := a.fetch.Rows()
	categories := categoryLabels(history)
	return func() tea.Msg {
		sug, ok := a.catsvc.Suggest(a.ctx, t, history, categories)
		if !ok {
			return statusMsg("no suggestion")
		}
		return suggestMsg{txID: t.ID, suggestion: sug}
	}
}

func (a *App) toggleTagCmd(t ledger.Transaction, name string) tea.Cmd {
	known := knownTags(a.fetch.Rows())
	return func() tea.Msg {
		updated, err := a.tags.Toggle(a.ctx, t, name, known)
		if err != nil {
			return errMsg{err}
		}
		return mergeMsg{updated}
	}
}

func (a *App) uploadReceiptCmd(path string) tea.Cmd {
	return func() tea.Msg {
		matches, err := a.receipts.UploadAll(a.ctx, a.cfg.Entity.ID, a.cfg.Entity.TenantID, []string{path})
		if err != nil {
			return errMsg{err}
		}
		return receiptsMsg(matches)
	}
}

func (a *App) exportCmd() tea.Cmd {
	rows := a.exportRows()
	names := a.accountNames()
	return func() tea.Msg {
		name := fmt.Sprintf("transactions-%s.csv", time.Now().UTC().Format("20060102-150405"))
		f, err := os.Create(name)
		if err != nil {
			return bulkDoneMsg{err: err, kind: service.MutateExport}
		}
		defer f.Close()
		if err := a.bulk.Export(f, rows, func(id string) string { return names[id] }); err != nil {
			return bulkDoneMsg{err: err, kind: service.MutateExport}
		}
		return bulkDoneMsg{kind: service.MutateExport, exported: name, count: len(rows)}
	}
}

// exportRows is the selection when present, otherwise the filtered view.
func (a *App) exportRows() []ledger.Transaction {
	filtered := a.filteredRows()
	if len(a.selection) == 0 {
		return filtered
	}
	var out []ledger.Transaction
	for _, t := range filtered {
		if a.selection.Has(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

func (a *App) accountNames() map[string]string {
	out := make(map[string]string, len(a.accounts))
	for _, acct := range a.accounts {
		out[acct.ID] = acct.Name
	}
	return out
}

// knownTags is the tag vocabulary visible on the loaded rows.
func knownTags(rows []ledger.Transaction) []ledger.Tag {
	seen := map[string]struct{}{}
	var out []ledger.Tag
	for _, t := range rows {
		for _, tg := range t.Tags {
			if _, ok := seen[tg.ID]; ok {
				continue
			}
			seen[tg.ID] = struct{}{}
			out = append(out, tg)
		}
	}
	return out
}

func categoryLabels(rows []ledger.Transaction) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range rows {
		c := t.ResolvedCategory()
		if c == ledger.Uncategorized {
			continue
		}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		if a.state == viewReceipts {
			return a.handleReceiptsKey(m)
		}
		if a.state == viewSettings {
			return a.handleSettingsKey(m)
		}
		return a.handleKey(m)

	case pageMsg:
		if a.fetch.Commit(service.PageResult(m)) {
			a.focus = ledger.ClampFocus(a.focus, len(a.filteredRows()))
			if e := a.fetch.Err(); e != "" {
				a.status = "fetch error: " + e
			}
		}
	case accountsMsg:
		a.accounts = []ledger.Account(m)
	case mergeMsg:
		a.fetch.Merge([]ledger.Transaction(m))
		a.status = "row updated"
	case suggestMsg:
		a.status = fmt.Sprintf("suggestion (%s, %.0f%%): %s — press enter on row to apply via categorize",
			m.suggestion.Source, m.suggestion.Confidence*100, m.suggestion.Category)
	case bulkDoneMsg:
		// selection is released whatever the outcome; row state is the
		// only place results are reflected
		a.selection.Clear()
		switch {
		case m.err != nil:
			a.status = "bulk error: " + m.err.Error()
		case m.kind == service.MutateExport:
			a.status = fmt.Sprintf("exported %d rows to %s", m.count, m.exported)
		default:
			a.fetch.Merge(m.updated)
			a.status = fmt.Sprintf("%s applied to %d rows", m.kind, len(m.updated))
		}
	case receiptsMsg:
		matched := 0
		for _, r := range m {
			if r.MatchedTransactionID != "" {
				matched++
			}
		}
		a.fetch.Merge(service.AttachMatches(a.fetch.Rows(), m))
		a.status = fmt.Sprintf("uploaded %d receipts, %d matched", len(m), matched)
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtered := a.filteredRows()
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "d":
		a.state = viewDashboard
	case "t":
		a.state = viewTransactions
	case "r":
		a.state = viewReceipts
		a.status = ""
	case "p":
		a.state = viewSettings
		a.status = ""
	case "up", "k":
		if a.state == viewTransactions {
			if a.focus > 0 {
				a.focus--
			} else if a.focus == ledger.NoFocus && len(filtered) > 0 {
				a.focus = 0
			}
		}
	case "down", "j":
		if a.state == viewTransactions && a.focus < len(filtered)-1 {
			a.focus++
		}
	case " ":
		if a.state == viewTransactions && a.focus >= 0 && a.focus < len(filtered) {
			a.selection.Toggle(filtered[a.focus].ID)
		}
	case "a":
		if a.state == viewTransactions {
			a.cycleAccountFilter()
			a.focus = ledger.NoFocus
		}
	case "/":
		if a.state == viewTransactions {
			a.modal = modalSearch
			a.inputBuffer = a.filters.Search
		}
	case "g":
		if a.state == viewTransactions {
			a.modal = modalCategoryFilter
			a.inputBuffer = a.filters.Category
		}
	case "T":
		if a.state == viewTransactions {
			a.modal = modalTagFilter
			a.inputBuffer = ""
		}
	case "#":
		if a.state == viewTransactions && a.focus >= 0 && a.focus < len(filtered) {
			a.modal = modalTagEdit
			a.inputBuffer = ""
		}
	case "c":
		if a.state == viewTransactions && len(a.selection) > 0 {
			if a.bulk.Busy() {
				a.status = "a bulk operation is already running"
				return a, nil
			}
			a.modal = modalBulkCategorize
			a.inputBuffer = ""
		}
	case "f":
		return a.dispatchBulk(service.Mutation{Kind: service.MutateFlag})
	case "v":
		return a.dispatchBulk(service.Mutation{Kind: service.MutateApprove})
	case "e":
		if a.state == viewTransactions {
			if a.bulk.Busy() {
				a.status = "a bulk operation is already running"
				return a, nil
			}
			return a, a.exportCmd()
		}
	case "u":
		if a.state == viewTransactions && a.focus >= 0 && a.focus < len(filtered) {
			a.status = "asking for a suggestion..."
			return a, a.suggestCmd(filtered[a.focus])
		}
	case "m":
		if cmd := a.loadMoreCmd(); cmd != nil {
			a.status = "loading more..."
			return a, cmd
		}
		a.status = "no more pages"
	case "b":
		a.showBalance = !a.showBalance
	case "x":
		a.selection.Clear()
		a.status = "selection cleared"
	case "R":
		// explicit refresh is the only retry path after a fetch error
		a.fetch.Invalidate()
		return a, a.resetFetchCmd()
	case "1", "3", "6", "y":
		a.setRangePreset(m.String())
		return a, a.resetFetchCmd()
	}
	return a, nil
}

func (a *App) dispatchBulk(m service.Mutation) (tea.Model, tea.Cmd) {
	if a.state != viewTransactions || len(a.selection) == 0 {
		return a, nil
	}
	if a.bulk.Busy() {
		a.status = "a bulk operation is already running"
		return a, nil
	}
	a.status = "applying..."
	return a, a.bulkCmd(a.selection.IDs(), m)
}

// cycleAccountFilter steps through no-filter and each account in turn.
// Toggling it never clears the selection, but the focus index resets.
func (a *App) cycleAccountFilter() {
	if len(a.accounts) == 0 {
		return
	}
	if a.filters.AccountID == "" {
		a.filters.AccountID = a.accounts[0].ID
		return
	}
	for i, acct := range a.accounts {
		if acct.ID == a.filters.AccountID {
			if i+1 < len(a.accounts) {
				a.filters.AccountID = a.accounts[i+1].ID
			} else {
				a.filters.AccountID = ""
			}
			return
		}
	}
	a.filters.AccountID = ""
}

func (a *App) setRangePreset(key string) {
	now := time.Now().UTC()
	a.dateTo = now.Format("2006-01-02")
	switch key {
	case "1":
		a.dateFrom = now.AddDate(0, -1, 0).Format("2006-01-02")
	case "3":
		a.dateFrom = now.AddDate(0, -3, 0).Format("2006-01-02")
	case "6":
		a.dateFrom = now.AddDate(0, -6, 0).Format("2006-01-02")
	case "y":
		a.dateFrom = now.AddDate(-1, 0, 0).Format("2006-01-02")
	}
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.Type {
	case tea.KeyEsc:
		a.modal = modalNone
		a.inputBuffer = ""
		return a, nil
	case tea.KeyEnter:
		text := a.inputBuffer
		modal := a.modal
		a.modal = modalNone
		a.inputBuffer = ""
		switch modal {
		case modalSearch:
			a.filters.Search = text
			a.focus = ledger.NoFocus
		case modalCategoryFilter:
			a.filters.Category = text
			a.focus = ledger.NoFocus
		case modalTagFilter:
			a.filters.TagIDs = a.tagIDsByName(text)
			a.focus = ledger.NoFocus
		case modalTagEdit:
			filtered := a.filteredRows()
			if text == "" || a.focus < 0 || a.focus >= len(filtered) {
				return a, nil
			}
			return a, a.toggleTagCmd(filtered[a.focus], text)
		case modalBulkCategorize:
			if text == "" {
				a.status = "enter a category"
				return a, nil
			}
			return a.dispatchBulk(service.Mutation{Kind: service.MutateCategorize, Category: text})
		}
		return a, nil
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if len(a.inputBuffer) > 0 {
			a.inputBuffer = a.inputBuffer[:len(a.inputBuffer)-1]
		}
	case tea.KeySpace:
		a.inputBuffer += " "
	case tea.KeyRunes:
		a.inputBuffer += string(m.Runes)
	}
	return a, nil
}

// tagIDsByName resolves a comma-separated tag-name list against the tags
// present on the loaded rows. Any selected tag matches (OR semantics).
func (a *App) tagIDsByName(input string) []string {
	if input == "" {
		return nil
	}
	wanted := map[string]struct{}{}
	for _, part := range splitList(input) {
		wanted[part] = struct{}{}
	}
	seen := map[string]struct{}{}
	var out []string
	for _, t := range a.fetch.Rows() {
		for _, tg := range t.Tags {
			if _, ok := wanted[normalizeName(tg.Name)]; !ok {
				continue
			}
			if _, dup := seen[tg.ID]; dup {
				continue
			}
			seen[tg.ID] = struct{}{}
			out = append(out, tg.ID)
		}
	}
	return out
}

func (a *App) handleReceiptsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	}
	switch m.Type {
	case tea.KeyEsc:
		a.state = viewDashboard
		a.status = ""
	case tea.KeyEnter:
		path := a.receiptPath
		if path == "" {
			a.status = "enter a receipt path"
			return a, nil
		}
		a.status = "uploading..."
		return a, a.uploadReceiptCmd(path)
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if len(a.receiptPath) > 0 {
			a.receiptPath = a.receiptPath[:len(a.receiptPath)-1]
		}
	case tea.KeySpace:
		a.receiptPath += " "
	case tea.KeyRunes:
		a.receiptPath += string(m.Runes)
	}
	return a, nil
}

func (a *App) handleSettingsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "esc", "d":
		a.state = viewDashboard
		a.status = ""
	case "t":
		a.state = viewTransactions
	case "b":
		a.cfg.UI.ShowRunningBalance = !a.cfg.UI.ShowRunningBalance
		a.showBalance = a.cfg.UI.ShowRunningBalance
	case "s":
		if err := config.Save(a.cfg); err != nil {
			a.status = "save failed: " + err.Error()
		} else {
			a.status = "settings saved"
		}
	}
	return a, nil
}

// messages

type pageMsg service.PageResult

type accountsMsg []ledger.Account

type mergeMsg []ledger.Transaction

type receiptsMsg []store.ReceiptMatch

type suggestMsg struct {
	txID       string
	suggestion service.Suggestion
}

type bulkDoneMsg struct {
	updated  []ledger.Transaction
	err      error
	kind     service.MutationKind
	exported string
	count    int
}

type statusMsg string

type errMsg struct{ error }
