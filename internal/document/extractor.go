package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/KaivDev4434/FairShare/internal/metrics"
)

// Common errors
var (
	ErrNoExtractors = errors.New("no extractors configured")
	ErrNoItems      = errors.New("no line items found in document")
)

// DraftItem is one line item proposed by an extractor
type DraftItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// DraftBill is the structured reading of a parsed receipt. Its item shape is
// the same as manual entry; extraction is just another way to fill the form.
type DraftBill struct {
	Merchant  string          `json:"merchant,omitempty"`
	Items     []DraftItem     `json:"items"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	TipAmount decimal.Decimal `json:"tip_amount"`
}

// Extractor turns receipt Markdown into a draft bill
type Extractor interface {
	Name() string
	Extract(ctx context.Context, markdown string) (*DraftBill, error)
}

// Chain tries extractors in order and returns the first successful draft.
// Providers earlier in the list are preferred; a provider failing or finding
// no items hands over to the next one.
type Chain struct {
	extractors []Extractor
}

var _ Extractor = (*Chain)(nil)

// NewChain creates an extractor chain in fallback order
func NewChain(extractors ...Extractor) *Chain {
	return &Chain{extractors: extractors}
}

// Name returns the chain's provider label
func (c *Chain) Name() string { return "chain" }

// Extract runs the chain. When every provider fails, the returned error
// carries each provider's failure.
func (c *Chain) Extract(ctx context.Context, markdown string) (*DraftBill, error) {
	if len(c.extractors) == 0 {
		return nil, ErrNoExtractors
	}

	var failures []error
	for _, e := range c.extractors {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		draft, err := e.Extract(ctx, markdown)
		if err != nil {
			slog.Warn("extractor failed, trying next", "extractor", e.Name(), "error", err)
			metrics.Extractions.WithLabelValues(e.Name(), "error").Inc()
			failures = append(failures, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}

		metrics.Extractions.WithLabelValues(e.Name(), "success").Inc()
		return draft, nil
	}

	return nil, fmt.Errorf("all extractors failed: %w", errors.Join(failures...))
}

// extractionPrompt is the shared instruction both model providers receive.
// The document Markdown goes in as the user message.
const extractionPrompt = `You are reading a restaurant receipt or invoice that was converted to Markdown. Extract the line items.

Respond with JSON only, no prose, matching exactly this shape:
{"merchant": "...", "items": [{"name": "...", "price": 12.50, "quantity": 1}], "tax": 1.20, "tip": 0}

Rules:
- price is the unit price of one item, as a number.
- quantity is how many of that item were ordered; use 1 when not shown.
- tax and tip are bill-level amounts; use 0 when not shown.
- Do not include subtotal, total, tax or tip rows as items.
- merchant is the store or restaurant name, or "" if unknown.`

// extractionResult is the JSON shape the models are asked to produce
type extractionResult struct {
	Merchant string `json:"merchant"`
	Items    []struct {
		Name     string          `json:"name"`
		Price    decimal.Decimal `json:"price"`
		Quantity int64           `json:"quantity"`
	} `json:"items"`
	Tax decimal.Decimal `json:"tax"`
	Tip decimal.Decimal `json:"tip"`
}

// parseModelJSON decodes a model response, tolerating Markdown code fences
// around the JSON.
func parseModelJSON(text string) (*extractionResult, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var result extractionResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &result); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	return &result, nil
}

// toDraft normalizes a model response into a DraftBill. Rows without a name
// or with a negative price are noise, not items. A response with no usable
// items is an error so the chain can try the next provider.
func (r *extractionResult) toDraft() (*DraftBill, error) {
	draft := &DraftBill{
		Merchant:  strings.TrimSpace(r.Merchant),
		Items:     make([]DraftItem, 0, len(r.Items)),
		TaxAmount: r.Tax,
		TipAmount: r.Tip,
	}

	for _, item := range r.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" || item.Price.IsNegative() {
			continue
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		draft.Items = append(draft.Items, DraftItem{
			Name:     name,
			Price:    item.Price,
			Quantity: quantity,
		})
	}

	if len(draft.Items) == 0 {
		return nil, ErrNoItems
	}
	if draft.TaxAmount.IsNegative() {
		draft.TaxAmount = decimal.Zero
	}
	if draft.TipAmount.IsNegative() {
		draft.TipAmount = decimal.Zero
	}

	return draft, nil
}
