package document

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// stubExtractor returns a canned draft or error and records what it saw
type stubExtractor struct {
	name        string
	draft       *DraftBill
	err         error
	calls       int
	gotMarkdown string
}

var _ Extractor = (*stubExtractor)(nil)

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) Extract(ctx context.Context, markdown string) (*DraftBill, error) {
	s.calls++
	s.gotMarkdown = markdown
	if s.err != nil {
		return nil, s.err
	}
	return s.draft, nil
}

func TestChainPrefersFirst(t *testing.T) {
	draft := &DraftBill{Items: []DraftItem{{Name: "Pizza", Price: d("20.00"), Quantity: 1}}}
	first := &stubExtractor{name: "local", draft: draft}
	second := &stubExtractor{name: "cloud", draft: &DraftBill{}}

	got, err := NewChain(first, second).Extract(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got != draft {
		t.Error("expected the first extractor's draft")
	}
	if second.calls != 0 {
		t.Errorf("second extractor should not run, ran %d times", second.calls)
	}
}

func TestChainFallsBack(t *testing.T) {
	draft := &DraftBill{Items: []DraftItem{{Name: "Pizza", Price: d("20.00"), Quantity: 1}}}
	first := &stubExtractor{name: "local", err: errors.New("model offline")}
	second := &stubExtractor{name: "cloud", draft: draft}

	got, err := NewChain(first, second).Extract(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got != draft {
		t.Error("expected the second extractor's draft")
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls: first %d, second %d", first.calls, second.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	first := &stubExtractor{name: "local", err: errors.New("model offline")}
	second := &stubExtractor{name: "cloud", err: errors.New("quota exceeded")}

	_, err := NewChain(first, second).Extract(context.Background(), "doc")
	if err == nil {
		t.Fatal("expected an error when every extractor fails")
	}
	// The aggregate error names each provider and its failure
	for _, want := range []string{"local", "model offline", "cloud", "quota exceeded"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got %v", want, err)
		}
	}
}

func TestChainEmpty(t *testing.T) {
	_, err := NewChain().Extract(context.Background(), "doc")
	if !errors.Is(err, ErrNoExtractors) {
		t.Errorf("expected ErrNoExtractors, got %v", err)
	}
}

func TestChainContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubExtractor{name: "local", draft: &DraftBill{}}
	_, err := NewChain(first).Extract(ctx, "doc")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if first.calls != 0 {
		t.Errorf("no extractor should run after cancellation, ran %d times", first.calls)
	}
}

func TestParseModelJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{
			name: "plain JSON",
			text: `{"merchant": "Mario's", "items": [{"name": "Pizza", "price": 20}], "tax": 0, "tip": 0}`,
		},
		{
			name: "json fence",
			text: "```json\n{\"merchant\": \"Mario's\", \"items\": [{\"name\": \"Pizza\", \"price\": 20}], \"tax\": 0, \"tip\": 0}\n```",
		},
		{
			name: "bare fence",
			text: "```\n{\"items\": [{\"name\": \"Pizza\", \"price\": 20}]}\n```",
		},
		{
			name:    "prose instead of JSON",
			text:    "Sure! Here are the items I found on the receipt.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseModelJSON(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseModelJSON failed: %v", err)
			}
			if len(result.Items) != 1 || result.Items[0].Name != "Pizza" {
				t.Errorf("items: got %+v", result.Items)
			}
		})
	}
}

func TestDraftNormalization(t *testing.T) {
	raw := `{
		"merchant": " Mario's ",
		"items": [
			{"name": "Pizza", "price": 20},
			{"name": "", "price": 3},
			{"name": "Mystery", "price": -1},
			{"name": "Beer", "price": 5, "quantity": 2}
		],
		"tax": 1.5,
		"tip": -2
	}`

	result, err := parseModelJSON(raw)
	if err != nil {
		t.Fatalf("parseModelJSON failed: %v", err)
	}
	draft, err := result.toDraft()
	if err != nil {
		t.Fatalf("toDraft failed: %v", err)
	}

	if draft.Merchant != "Mario's" {
		t.Errorf("merchant: expected trimmed name, got %q", draft.Merchant)
	}
	// Nameless and negative-price rows are dropped
	if len(draft.Items) != 2 {
		t.Fatalf("items: expected 2, got %d", len(draft.Items))
	}
	if draft.Items[0].Name != "Pizza" || draft.Items[0].Quantity != 1 {
		t.Errorf("first item: expected Pizza with default quantity 1, got %+v", draft.Items[0])
	}
	if draft.Items[1].Name != "Beer" || draft.Items[1].Quantity != 2 {
		t.Errorf("second item: got %+v", draft.Items[1])
	}
	if !draft.TaxAmount.Equal(d("1.5")) {
		t.Errorf("tax: got %s", draft.TaxAmount)
	}
	if !draft.TipAmount.IsZero() {
		t.Errorf("tip: negative amounts must clamp to zero, got %s", draft.TipAmount)
	}
}

func TestDraftNoItems(t *testing.T) {
	result, err := parseModelJSON(`{"merchant": "Mario's", "items": []}`)
	if err != nil {
		t.Fatalf("parseModelJSON failed: %v", err)
	}
	if _, err := result.toDraft(); !errors.Is(err, ErrNoItems) {
		t.Errorf("expected ErrNoItems, got %v", err)
	}
}
