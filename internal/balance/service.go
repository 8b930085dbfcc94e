package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/KaivDev4434/FairShare/internal/bill"
	"github.com/KaivDev4434/FairShare/internal/bill/split"
)

// Common errors
var (
	ErrNoBills          = errors.New("at least one bill is required")
	ErrCurrencyMismatch = errors.New("bills in a report must share one currency")
)

// Bills is the slice of the bill feature the report needs
type Bills interface {
	ComputeSplits(ctx context.Context, id string) (*bill.Bill, *split.Result, error)
}

var _ Bills = (*bill.Service)(nil)

// Service builds cross-bill balance reports on top of the bill feature
type Service struct {
	bills Bills
}

// NewService creates a new balance service
func NewService(bills Bills) *Service {
	return &Service{bills: bills}
}

// Report nets the given bills into per-person balances and suggests payments
// that clear them. Bills without a recorded payer cannot move money, so they
// are skipped and called out in the response instead of silently dropped.
func (s *Service) Report(ctx context.Context, req *ReportRequest) (*ReportResponse, error) {
	if len(req.BillIDs) == 0 {
		return nil, ErrNoBills
	}

	var (
		currency string
		totals   []split.BillTotals
		skipped  []*SkippedBillResponse
	)

	for _, id := range req.BillIDs {
		b, result, err := s.bills.ComputeSplits(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("bill %s: %w", id, err)
		}

		if currency == "" {
			currency = result.Currency
		} else if result.Currency != currency {
			return nil, fmt.Errorf("bill %s: %w", id, ErrCurrencyMismatch)
		}

		if b.PaidByShareID == nil {
			skipped = append(skipped, &SkippedBillResponse{
				BillID: b.ID,
				Title:  b.Title,
				Reason: "no payer recorded",
			})
			continue
		}

		totals = append(totals, split.BillTotals{
			PaidBy:       payerName(result, *b.PaidByShareID),
			PersonTotals: result.PersonTotals,
		})
	}

	balances := split.ComputeBalances(totals)
	settlements := split.SuggestSettlements(balances)

	resp := &ReportResponse{
		Currency:     currency,
		Balances:     make([]*BalanceResponse, len(balances)),
		Settlements:  make([]*SettlementResponse, len(settlements)),
		SkippedBills: skipped,
	}

	for i, b := range balances {
		display := split.FormatCurrency(abs(b.AmountCents), currency)
		var message string
		switch {
		case b.AmountCents > 0:
			message = fmt.Sprintf("%s is owed %s", b.Name, display)
		case b.AmountCents < 0:
			message = fmt.Sprintf("%s owes %s", b.Name, display)
		default:
			message = fmt.Sprintf("%s is settled up", b.Name)
		}
		resp.Balances[i] = &BalanceResponse{
			Name:        b.Name,
			AmountCents: b.AmountCents,
			Amount:      split.FormatCurrency(b.AmountCents, currency),
			Message:     message,
		}
	}

	for i, st := range settlements {
		display := split.FormatCurrency(st.AmountCents, currency)
		resp.Settlements[i] = &SettlementResponse{
			From:        st.From,
			To:          st.To,
			AmountCents: st.AmountCents,
			Amount:      display,
			Message:     fmt.Sprintf("%s pays %s %s", st.From, st.To, display),
		}
	}

	return resp, nil
}

// payerName resolves a share ID to its display name. Every share on a bill
// gets a PersonTotal, so the payer is always present.
func payerName(result *split.Result, shareID string) string {
	for _, pt := range result.PersonTotals {
		if pt.ShareID == shareID {
			return pt.Name
		}
	}
	return ""
}

func abs(cents int64) int64 {
	if cents < 0 {
		return -cents
	}
	return cents
}
