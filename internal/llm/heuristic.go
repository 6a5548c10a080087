package llm

import (
	"context"
	"strings"
)

// HeuristicProvider is the offline fallback used when no API key is
// configured: keyword heuristics over the description, no network.
type HeuristicProvider struct{}

func NewHeuristicProvider() *HeuristicProvider { return &HeuristicProvider{} }

func (h *HeuristicProvider) Categorize(_ context.Context, req CategorizeRequest) (CategorizeResponse, error) {
	desc := strings.ToLower(req.Transaction.Description + " " + req.Transaction.Merchant)
	bestCat, bestScore := "", 0.0
	for _, cat := range req.Categories {
		score := keywordScore(desc, cat)
		if score > bestScore {
			bestScore, bestCat = score, cat
		}
	}
	return CategorizeResponse{Category: bestCat, Confidence: bestScore}, nil
}

func keywordScore(desc, cat string) float64 {
	catLower := strings.ToLower(cat)
	if strings.Contains(desc, catLower) {
		return 0.9
	}
	switch {
	case strings.Contains(desc, "uber") || strings.Contains(desc, "lyft") || strings.Contains(desc, "shell"):
		if strings.Contains(catLower, "travel") || strings.Contains(catLower, "transport") {
			return 0.85
		}
	case strings.Contains(desc, "aws") || strings.Contains(desc, "google cloud") || strings.Contains(desc, "github"):
		if strings.Contains(catLower, "software") || strings.Contains(catLower, "technology") {
			return 0.85
		}
	case strings.Contains(desc, "staples") || strings.Contains(desc, "office"):
		if strings.Contains(catLower, "office") || strings.Contains(catLower, "supplies") {
			return 0.8
		}
	case strings.Contains(desc, "payroll") || strings.Contains(desc, "gusto"):
		if strings.Contains(catLower, "payroll") || strings.Contains(catLower, "wages") {
			return 0.85
		}
	}
	return tokenOverlap(desc, catLower)
}

// tokenOverlap is a simple token overlap ratio in [0,1].
func tokenOverlap(a, b string) float64 {
	aTokens := tokens(a)
	bTokens := tokens(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}
	intersect := 0
	for t := range aTokens {
		if _, ok := bTokens[t]; ok {
			intersect++
		}
	}
	union := len(aTokens) + len(bTokens) - intersect
	return float64(intersect) / float64(union)
}

func tokens(s string) map[string]struct{} {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' || r == '_' || r == '/' || r == '*' })
	out := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out[p] = struct{}{}
	}
	return out
}
