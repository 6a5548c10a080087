package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is the model used when config leaves it empty.
const DefaultModel = "gemini-3-flash-preview"

const categorizeTimeout = 8 * time.Second

// GeminiProvider calls the Gemini API for category suggestions.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider with the given key and model.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Categorize asks the model for a category from the allowed list. The
// model is instructed to answer with strict JSON only.
func (g *GeminiProvider) Categorize(ctx context.Context, req CategorizeRequest) (CategorizeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, categorizeTimeout)
	defer cancel()

	prompt := buildCategorizePrompt(req)
	contents := genai.Text(prompt)
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return CategorizeResponse{}, fmt.Errorf("generate content: %w", err)
	}
	text, err := extractText(result)
	if err != nil {
		return CategorizeResponse{}, err
	}

	var resp CategorizeResponse
	if err := json.Unmarshal([]byte(stripFences(text)), &resp); err != nil {
		return CategorizeResponse{}, fmt.Errorf("parse response: %w", err)
	}
	return resp, nil
}

func buildCategorizePrompt(req CategorizeRequest) string {
	var sb strings.Builder
	sb.WriteString("You are a bookkeeping assistant categorizing a bank transaction.\n\n")
	sb.WriteString("Transaction:\n")
	sb.WriteString(fmt.Sprintf("- description: %s\n", req.Transaction.Description))
	if req.Transaction.Merchant != "" {
		sb.WriteString(fmt.Sprintf("- merchant: %s\n", req.Transaction.Merchant))
	}
	sb.WriteString(fmt.Sprintf("- amount (cents, negative = income): %d\n", req.Transaction.Amount))
	sb.WriteString(fmt.Sprintf("- date: %s\n\n", req.Transaction.Date))
	sb.WriteString("Allowed categories:\n")
	for _, c := range req.Categories {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	sb.WriteString("\nAnswer with STRICT JSON only, no code fences, no extra text:\n")
	sb.WriteString(`{"category": "<one of the allowed categories>", "confidence": <0..1>}`)
	return sb.String()
}

func extractText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}
	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty response")
	}
	return text, nil
}

// stripFences tolerates models that wrap JSON in markdown fences anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
