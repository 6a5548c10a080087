package service

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/llm"
)

const (
	merchantSimilarityThreshold = 0.82
	assistantConfidenceFloor    = 0.70
)

// Suggestion is a proposed category for one transaction.
type Suggestion struct {
	Category   string
	Confidence float64
	Source     string // "history" or "assistant"
}

// CategorizerService proposes categories for uncategorized rows. A
// manual override always wins and is never second-guessed; after that,
// similarly named merchants that already carry a category, then the
// assistant provider.
type CategorizerService struct {
	Provider llm.Provider
}

// Suggest returns a category proposal for t, or ok=false when t already
// has an override or nothing clears the confidence floor. history is the
// local transaction list; categories are the labels in use.
func (s *CategorizerService) Suggest(ctx context.Context, t ledger.Transaction, history []ledger.Transaction, categories []string) (Suggestion, bool) {
	if t.CategoryOverride != nil && *t.CategoryOverride != "" {
		return Suggestion{}, false
	}

	if sug, ok := suggestFromHistory(t, history); ok {
		return sug, true
	}

	if s.Provider == nil {
		return Suggestion{}, false
	}
	resp, err := s.Provider.Categorize(ctx, llm.CategorizeRequest{
		Transaction: llm.TransactionInput{
			Description: t.RawDescription,
			Merchant:    t.Merchant(),
			Amount:      t.AmountCents,
			Date:        t.Date,
		},
		Categories: categories,
	})
	if err != nil {
		// degrade gracefully: no suggestion beats a blocked UI
		return Suggestion{}, false
	}
	if resp.Confidence < assistantConfidenceFloor || resp.Category == "" {
		return Suggestion{}, false
	}
	return Suggestion{Category: resp.Category, Confidence: resp.Confidence, Source: "assistant"}, true
}

// suggestFromHistory looks for an already categorized row whose merchant
// is nearly the same name.
func suggestFromHistory(t ledger.Transaction, history []ledger.Transaction) (Suggestion, bool) {
	target := normalizeMerchant(t.Merchant())
	if target == "" {
		return Suggestion{}, false
	}
	best := Suggestion{}
	for _, h := range history {
		if h.ID == t.ID {
			continue
		}
		cat := h.ResolvedCategory()
		if cat == ledger.Uncategorized {
			continue
		}
		sim := merchantSimilarity(target, normalizeMerchant(h.Merchant()))
		if sim >= merchantSimilarityThreshold && sim > best.Confidence {
			best = Suggestion{Category: cat, Confidence: sim, Source: "history"}
		}
	}
	if best.Category == "" {
		return Suggestion{}, false
	}
	return best, true
}

// merchantSimilarity maps levenshtein distance onto [0,1], 1 = equal.
func merchantSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1 - float64(dist)/float64(longest)
}

func normalizeMerchant(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// strip the trailing reference junk card processors append
	if i := strings.IndexAny(s, "*#"); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
