package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/llm"
)

type scriptedProvider struct {
	resp llm.CategorizeResponse
	err  error
}

func (p *scriptedProvider) Categorize(context.Context, llm.CategorizeRequest) (llm.CategorizeResponse, error) {
	return p.resp, p.err
}

func namedTx(id, merchant, category string) ledger.Transaction {
	t := ledger.Transaction{ID: id, Date: "2024-11-01", AmountCents: 500, MerchantName: &merchant}
	if category != "" {
		t.CategoryPath = &ledger.CategoryPath{Primary: category}
	}
	return t
}

func TestSuggestOverrideWins(t *testing.T) {
	t.Parallel()

	override := "Travel"
	target := namedTx("t1", "Uber", "")
	target.CategoryOverride = &override

	svc := &CategorizerService{Provider: &scriptedProvider{resp: llm.CategorizeResponse{Category: "Food", Confidence: 0.99}}}
	_, ok := svc.Suggest(context.Background(), target, nil, nil)
	require.False(t, ok, "manual override must never be second-guessed")
}

func TestSuggestFromHistorySimilarMerchant(t *testing.T) {
	t.Parallel()

	history := []ledger.Transaction{
		namedTx("h1", "BLUE BOTTLE COFFEE", "Food and Drink"),
		namedTx("h2", "Dell Online", "Office Equipment"),
	}
	target := namedTx("t1", "Blue Bottle Coffe", "") // near-identical name

	svc := &CategorizerService{}
	sug, ok := svc.Suggest(context.Background(), target, history, nil)
	require.True(t, ok)
	require.Equal(t, "Food and Drink", sug.Category)
	require.Equal(t, "history", sug.Source)
	require.GreaterOrEqual(t, sug.Confidence, merchantSimilarityThreshold)
}

func TestSuggestFallsBackToAssistant(t *testing.T) {
	t.Parallel()

	svc := &CategorizerService{Provider: &scriptedProvider{resp: llm.CategorizeResponse{Category: "Software", Confidence: 0.88}}}
	sug, ok := svc.Suggest(context.Background(), namedTx("t1", "Some SaaS", ""), nil, []string{"Software"})
	require.True(t, ok)
	require.Equal(t, "assistant", sug.Source)
	require.Equal(t, "Software", sug.Category)
}

func TestSuggestAssistantBelowFloor(t *testing.T) {
	t.Parallel()

	svc := &CategorizerService{Provider: &scriptedProvider{resp: llm.CategorizeResponse{Category: "Software", Confidence: 0.4}}}
	_, ok := svc.Suggest(context.Background(), namedTx("t1", "Some SaaS", ""), nil, []string{"Software"})
	require.False(t, ok)
}

func TestSuggestAssistantErrorDegrades(t *testing.T) {
	t.Parallel()

	svc := &CategorizerService{Provider: &scriptedProvider{err: errors.New("quota")}}
	_, ok := svc.Suggest(context.Background(), namedTx("t1", "Some SaaS", ""), nil, nil)
	require.False(t, ok)
}

func TestMerchantSimilarity(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1.0, merchantSimilarity("uber", "uber"))
	require.Less(t, merchantSimilarity("uber", "dell"), merchantSimilarityThreshold)
	require.Zero(t, merchantSimilarity("", "uber"))
}

func TestNormalizeMerchantStripsProcessorJunk(t *testing.T) {
	t.Parallel()

	require.Equal(t, "uber eats", normalizeMerchant("UBER EATS* SUSHI HOUSE"))
	require.Equal(t, "staples", normalizeMerchant("  Staples #1182 "))
}
