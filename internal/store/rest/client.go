// Package rest talks to the hosted transaction-record API. It satisfies
// the same store contract as the local sqlite database, so the engine is
// wired against an injected handle, never an ambient client.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/store"
)

const defaultTimeout = 30 * time.Second

// Client is an HTTP record-store handle.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a client for the API at baseURL.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type txPayload struct {
	ID               string       `json:"id"`
	AccountID        string       `json:"account_id"`
	EntityID         string       `json:"entity_id"`
	TenantID         string       `json:"tenant_id"`
	Amount           int64        `json:"amount"`
	Date             string       `json:"date"`
	AuthorizedDate   *string      `json:"authorized_date,omitempty"`
	MerchantName     *string      `json:"merchant_name,omitempty"`
	RawDescription   string       `json:"raw_description"`
	Category         *string      `json:"category,omitempty"`
	CategoryPrimary  *string      `json:"category_primary,omitempty"`
	CategoryDetailed *string      `json:"category_detailed,omitempty"`
	CategoryOverride *string      `json:"category_override,omitempty"`
	ReviewStatus     string       `json:"review_status"`
	Notes            *string      `json:"notes,omitempty"`
	ReviewedBy       *string      `json:"reviewed_by,omitempty"`
	ReviewedAt       *string      `json:"reviewed_at,omitempty"`
	ReceiptID        *string      `json:"receipt_id,omitempty"`
	Tags             []tagPayload `json:"tags,omitempty"`
}

type tagPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type queryResponse struct {
	Rows       []txPayload `json:"rows"`
	TotalCount int         `json:"total_count"`
}

// QueryTransactions issues a filtered, paginated read.
func (c *Client) QueryTransactions(ctx context.Context, q store.TransactionQuery) (store.TransactionPage, error) {
	params := url.Values{}
	params.Set("entity_id", q.EntityID)
	params.Set("date_from", q.DateFrom)
	params.Set("date_to", q.DateTo)
	if q.AccountID != "" {
		params.Set("account_id", q.AccountID)
	}
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("order", "date.desc")

	var resp queryResponse
	if err := c.get(ctx, "/transactions?"+params.Encode(), &resp); err != nil {
		return store.TransactionPage{}, fmt.Errorf("query transactions: %w", err)
	}
	rows := make([]ledger.Transaction, 0, len(resp.Rows))
	for _, p := range resp.Rows {
		rows = append(rows, fromPayload(p))
	}
	return store.TransactionPage{Rows: rows, TotalCount: resp.TotalCount}, nil
}

type updateRequest struct {
	IDs    []string          `json:"ids"`
	Fields map[string]string `json:"fields"`
}

// UpdateTransactions applies one batched field-level update and returns
// only the rows the store reports as updated.
func (c *Client) UpdateTransactions(ctx context.Context, ids []string, patch store.FieldPatch) ([]ledger.Transaction, error) {
	req := updateRequest{IDs: ids, Fields: map[string]string{}}
	if patch.Category != nil {
		req.Fields["category_override"] = *patch.Category
	}
	if patch.ReviewStatus != nil {
		req.Fields["review_status"] = string(*patch.ReviewStatus)
	}
	if patch.Notes != nil {
		req.Fields["notes"] = *patch.Notes
	}
	var resp []txPayload
	if err := c.do(ctx, http.MethodPatch, "/transactions", req, &resp); err != nil {
		return nil, fmt.Errorf("update transactions: %w", err)
	}
	rows := make([]ledger.Transaction, 0, len(resp))
	for _, p := range resp {
		rows = append(rows, fromPayload(p))
	}
	return rows, nil
}

type accountPayload struct {
	ID             string `json:"id"`
	PlaidAccountID string `json:"plaid_account_id"`
	Name           string `json:"name"`
	Institution    string `json:"institution"`
	AccountType    string `json:"account_type"`
	CurrentBalance *int64 `json:"current_balance"`
}

// ListAccounts returns the entity's accounts.
func (c *Client) ListAccounts(ctx context.Context, entityID string) ([]ledger.Account, error) {
	params := url.Values{}
	params.Set("entity_id", entityID)
	var resp []accountPayload
	if err := c.get(ctx, "/accounts?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]ledger.Account, 0, len(resp))
	for _, p := range resp {
		out = append(out, ledger.Account{
			ID:                  p.ID,
			PlaidAccountID:      p.PlaidAccountID,
			Name:                p.Name,
			Institution:         p.Institution,
			Type:                ledger.AccountType(p.AccountType),
			CurrentBalanceCents: p.CurrentBalance,
		})
	}
	return out, nil
}

// UpsertTag creates or renames a tag.
func (c *Client) UpsertTag(ctx context.Context, t ledger.Tag) error {
	in := tagPayload{ID: t.ID, Name: t.Name}
	if err := c.do(ctx, http.MethodPut, "/tags/"+url.PathEscape(t.ID), in, nil); err != nil {
		return fmt.Errorf("upsert tag: %w", err)
	}
	return nil
}

// AttachTag links a tag to a transaction.
func (c *Client) AttachTag(ctx context.Context, transactionID, tagID string) error {
	path := "/transactions/" + url.PathEscape(transactionID) + "/tags/" + url.PathEscape(tagID)
	if err := c.do(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}

// RemoveTag unlinks a tag from a transaction.
func (c *Client) RemoveTag(ctx context.Context, transactionID, tagID string) error {
	path := "/transactions/" + url.PathEscape(transactionID) + "/tags/" + url.PathEscape(tagID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove tag: %w", err)
	}
	return nil
}

type receiptPayload struct {
	ID                   string  `json:"id"`
	Vendor               string  `json:"vendor"`
	Amount               int64   `json:"amount"`
	Date                 string  `json:"date"`
	MatchStatus          string  `json:"match_status"`
	MatchConfidence      float64 `json:"match_confidence"`
	OCRConfidence        float64 `json:"ocr_confidence"`
	MatchedTransactionID string  `json:"matched_transaction_id"`
}

// UploadReceipt sends a receipt file to the matching collaborator and
// returns the structured match result.
func (c *Client) UploadReceipt(ctx context.Context, r io.Reader, filename, entityID, tenantID string) (store.ReceiptMatch, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return store.ReceiptMatch{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return store.ReceiptMatch{}, err
	}
	_ = w.WriteField("entity_id", entityID)
	_ = w.WriteField("tenant_id", tenantID)
	if err := w.Close(); err != nil {
		return store.ReceiptMatch{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/receipts", &body)
	if err != nil {
		return store.ReceiptMatch{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return store.ReceiptMatch{}, fmt.Errorf("upload receipt: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return store.ReceiptMatch{}, fmt.Errorf("upload receipt: status %d", resp.StatusCode)
	}
	var p receiptPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return store.ReceiptMatch{}, fmt.Errorf("upload receipt: decode: %w", err)
	}
	return store.ReceiptMatch{
		ReceiptID:            p.ID,
		Vendor:               p.Vendor,
		AmountCents:          p.Amount,
		Date:                 p.Date,
		MatchStatus:          p.MatchStatus,
		MatchConfidence:      p.MatchConfidence,
		OCRConfidence:        p.OCRConfidence,
		MatchedTransactionID: p.MatchedTransactionID,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) auth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func fromPayload(p txPayload) ledger.Transaction {
	t := ledger.Transaction{
		ID:               p.ID,
		AccountID:        p.AccountID,
		EntityID:         p.EntityID,
		TenantID:         p.TenantID,
		AmountCents:      p.Amount,
		Date:             p.Date,
		AuthorizedDate:   p.AuthorizedDate,
		MerchantName:     p.MerchantName,
		RawDescription:   p.RawDescription,
		Category:         p.Category,
		CategoryOverride: p.CategoryOverride,
		ReviewStatus:     ledger.ReviewStatus(p.ReviewStatus),
		Notes:            p.Notes,
		ReviewedBy:       p.ReviewedBy,
		ReviewedAt:       p.ReviewedAt,
		ReceiptID:        p.ReceiptID,
	}
	if t.ReviewStatus == "" {
		t.ReviewStatus = ledger.ReviewNone
	}
	if p.CategoryPrimary != nil && *p.CategoryPrimary != "" {
		cp := ledger.CategoryPath{Primary: *p.CategoryPrimary}
		if p.CategoryDetailed != nil {
			cp.Detailed = *p.CategoryDetailed
		}
		t.CategoryPath = &cp
	}
	for _, tg := range p.Tags {
		t.Tags = append(t.Tags, ledger.Tag{ID: tg.ID, Name: tg.Name})
	}
	return t
}
