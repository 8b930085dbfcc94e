package document

import (
	"github.com/shopspring/decimal"

	"github.com/KaivDev4434/FairShare/internal/bill"
)

// DraftItemResponse is one proposed line item
type DraftItemResponse struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// ExtractResponse carries the draft read from a document and, when a bill
// was targeted, the items actually appended to it
type ExtractResponse struct {
	Merchant   string               `json:"merchant,omitempty"`
	Items      []*DraftItemResponse `json:"items"`
	TaxAmount  decimal.Decimal      `json:"tax_amount"`
	TipAmount  decimal.Decimal      `json:"tip_amount"`
	BillID     string               `json:"bill_id,omitempty"`
	AddedItems []*bill.ItemResponse `json:"added_items,omitempty"`
}

// NewExtractResponse converts a draft, and the items appended on its behalf,
// to the wire shape.
func NewExtractResponse(draft *DraftBill, billID string, added []*bill.Item) *ExtractResponse {
	resp := &ExtractResponse{
		Merchant:  draft.Merchant,
		Items:     make([]*DraftItemResponse, len(draft.Items)),
		TaxAmount: draft.TaxAmount,
		TipAmount: draft.TipAmount,
		BillID:    billID,
	}
	for i, item := range draft.Items {
		resp.Items[i] = &DraftItemResponse{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}
	for _, item := range added {
		resp.AddedItems = append(resp.AddedItems, item.ToResponse())
	}
	return resp
}
