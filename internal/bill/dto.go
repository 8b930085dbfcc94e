package bill

import (
	"github.com/shopspring/decimal"

	"github.com/KaivDev4434/FairShare/internal/bill/split"
)

// CreateBillRequest represents the request to create a bill
type CreateBillRequest struct {
	Title     string                `json:"title" validate:"required,min=1,max=255"`
	Currency  string                `json:"currency,omitempty" validate:"omitempty,len=3"`
	TaxAmount decimal.Decimal       `json:"tax_amount"`
	TipAmount decimal.Decimal       `json:"tip_amount"`
	Items     []*CreateItemRequest  `json:"items,omitempty"`
	Shares    []*CreateShareRequest `json:"shares,omitempty"`
}

// UpdateBillRequest represents the request to update bill attributes.
// An empty paid_by_share_id clears the payer.
type UpdateBillRequest struct {
	Title         *string          `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	TaxAmount     *decimal.Decimal `json:"tax_amount,omitempty"`
	TipAmount     *decimal.Decimal `json:"tip_amount,omitempty"`
	PaidByShareID *string          `json:"paid_by_share_id,omitempty"`
}

// CreateItemRequest represents the request to add an item to a bill
type CreateItemRequest struct {
	Name     string          `json:"name" validate:"required,min=1,max=255"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity,omitempty" validate:"omitempty,gt=0"`
}

// UpdateItemRequest represents the request to update an item
type UpdateItemRequest struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity *int64           `json:"quantity,omitempty" validate:"omitempty,gt=0"`
}

// CreateShareRequest represents the request to add a participant to a bill
type CreateShareRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// UpsertClaimRequest represents the request to create or replace a claim.
// A portion of 0 deletes the claim.
type UpsertClaimRequest struct {
	ShareID string          `json:"share_id" validate:"required"`
	ItemID  string          `json:"item_id" validate:"required"`
	Portion decimal.Decimal `json:"portion"`
}

// BillResponse represents the response for a bill
type BillResponse struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Currency      string           `json:"currency"`
	TaxAmount     decimal.Decimal  `json:"tax_amount"`
	TipAmount     decimal.Decimal  `json:"tip_amount"`
	PaidByShareID *string          `json:"paid_by_share_id,omitempty"`
	Locked        bool             `json:"locked"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
	Token         string           `json:"token,omitempty"`
	Items         []*ItemResponse  `json:"items,omitempty"`
	Shares        []*ShareResponse `json:"shares,omitempty"`
	Claims        []*ClaimResponse `json:"claims,omitempty"`
}

// ItemResponse represents the response for a bill item
type ItemResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Position  int             `json:"position"`
}

// ShareResponse represents the response for a participant
type ShareResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// ClaimResponse represents the response for a claim
type ClaimResponse struct {
	ShareID   string          `json:"share_id"`
	ItemID    string          `json:"item_id"`
	Portion   decimal.Decimal `json:"portion"`
	UpdatedAt string          `json:"updated_at"`
}

// SplitsResponse represents the computed split for a bill
type SplitsResponse struct {
	BillID            string                 `json:"bill_id"`
	Title             string                 `json:"title"`
	Currency          string                 `json:"currency"`
	Locked            bool                   `json:"locked"`
	PersonTotals      []*PersonTotalResponse `json:"person_totals"`
	SubtotalCents     int64                  `json:"subtotal_cents"`
	TaxCents          int64                  `json:"tax_cents"`
	TipCents          int64                  `json:"tip_cents"`
	TotalCents        int64                  `json:"total_cents"`
	TotalClaimedCents int64                  `json:"total_claimed_cents"`
	UnclaimedCents    int64                  `json:"unclaimed_cents"`
	Total             string                 `json:"total"`
	Unclaimed         string                 `json:"unclaimed,omitempty"`
}

// PersonTotalResponse represents one participant's computed amounts
type PersonTotalResponse struct {
	ShareID         string               `json:"share_id"`
	Name            string               `json:"name"`
	ItemsTotalCents int64                `json:"items_total_cents"`
	TaxShareCents   int64                `json:"tax_share_cents"`
	TipShareCents   int64                `json:"tip_share_cents"`
	GrandTotalCents int64                `json:"grand_total_cents"`
	GrandTotal      string               `json:"grand_total"`
	Breakdown       []*BreakdownResponse `json:"breakdown"`
}

// BreakdownResponse represents one claim inside a participant's total
type BreakdownResponse struct {
	ItemID      string          `json:"item_id"`
	ItemName    string          `json:"item_name"`
	Portion     decimal.Decimal `json:"portion"`
	AmountCents int64           `json:"amount_cents"`
	Amount      string          `json:"amount"`
	SharedWith  int             `json:"shared_with"`
}

// ToResponse converts a Bill model to a BillResponse DTO
func (b *Bill) ToResponse() *BillResponse {
	return &BillResponse{
		ID:            b.ID,
		Title:         b.Title,
		Currency:      b.Currency,
		TaxAmount:     b.TaxAmount,
		TipAmount:     b.TipAmount,
		PaidByShareID: b.PaidByShareID,
		Locked:        b.Locked,
		CreatedAt:     b.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     b.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Detail aggregate to a BillResponse with children
func (d *Detail) ToResponse() *BillResponse {
	resp := d.Bill.ToResponse()

	resp.Items = make([]*ItemResponse, len(d.Items))
	for i, item := range d.Items {
		resp.Items[i] = item.ToResponse()
	}

	resp.Shares = make([]*ShareResponse, len(d.Shares))
	for i, share := range d.Shares {
		resp.Shares[i] = share.ToResponse()
	}

	resp.Claims = make([]*ClaimResponse, len(d.Claims))
	for i, claim := range d.Claims {
		resp.Claims[i] = claim.ToResponse()
	}

	return resp
}

// ToResponse converts an Item model to an ItemResponse DTO
func (i *Item) ToResponse() *ItemResponse {
	return &ItemResponse{
		ID:        i.ID,
		Name:      i.Name,
		Price:     i.Price,
		Quantity:  i.Quantity,
		LineTotal: i.LineTotal(),
		Position:  i.Position,
	}
}

// ToResponse converts a Share model to a ShareResponse DTO
func (s *Share) ToResponse() *ShareResponse {
	return &ShareResponse{
		ID:       s.ID,
		Name:     s.Name,
		Position: s.Position,
	}
}

// ToResponse converts a Claim model to a ClaimResponse DTO
func (c *Claim) ToResponse() *ClaimResponse {
	return &ClaimResponse{
		ShareID:   c.ShareID,
		ItemID:    c.ItemID,
		Portion:   c.Portion,
		UpdatedAt: c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// NewSplitsResponse converts an engine result into the API shape, attaching
// formatted amounts in the bill's currency.
func NewSplitsResponse(b *Bill, result *split.Result) *SplitsResponse {
	resp := &SplitsResponse{
		BillID:            b.ID,
		Title:             b.Title,
		Currency:          result.Currency,
		Locked:            b.Locked,
		PersonTotals:      make([]*PersonTotalResponse, len(result.PersonTotals)),
		SubtotalCents:     result.SubtotalCents,
		TaxCents:          result.TaxCents,
		TipCents:          result.TipCents,
		TotalCents:        result.TotalCents,
		TotalClaimedCents: result.TotalClaimedCents,
		UnclaimedCents:    result.UnclaimedCents,
		Total:             split.FormatCurrency(result.TotalCents, result.Currency),
	}
	if result.UnclaimedCents > 0 {
		resp.Unclaimed = split.FormatCurrency(result.UnclaimedCents, result.Currency)
	}

	for i, pt := range result.PersonTotals {
		breakdown := make([]*BreakdownResponse, len(pt.Breakdown))
		for j, entry := range pt.Breakdown {
			breakdown[j] = &BreakdownResponse{
				ItemID:      entry.ItemID,
				ItemName:    entry.ItemName,
				Portion:     entry.Portion,
				AmountCents: entry.AmountCents,
				Amount:      split.FormatCurrency(entry.AmountCents, result.Currency),
				SharedWith:  entry.SharedWith,
			}
		}

		resp.PersonTotals[i] = &PersonTotalResponse{
			ShareID:         pt.ShareID,
			Name:            pt.Name,
			ItemsTotalCents: pt.ItemsTotalCents,
			TaxShareCents:   pt.TaxShareCents,
			TipShareCents:   pt.TipShareCents,
			GrandTotalCents: pt.GrandTotalCents,
			GrandTotal:      split.FormatCurrency(pt.GrandTotalCents, result.Currency),
			Breakdown:       breakdown,
		}
	}

	return resp
}
