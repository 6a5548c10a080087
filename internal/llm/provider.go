// Package llm provides the category-suggestion assistant behind an
// interface so the rest of the app stays non-blocking and testable.
package llm

import "context"

// Provider suggests a category for a transaction.
type Provider interface {
	Categorize(ctx context.Context, req CategorizeRequest) (CategorizeResponse, error)
}

// CategorizeRequest describes one transaction and the allowed categories.
type CategorizeRequest struct {
	Transaction TransactionInput `json:"transaction"`
	Categories  []string         `json:"categories"`
}

// TransactionInput is the subset of a transaction the assistant sees.
type TransactionInput struct {
	Description string `json:"description"`
	Merchant    string `json:"merchant"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date"`
}

// CategorizeResponse is the assistant's best guess.
type CategorizeResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}
