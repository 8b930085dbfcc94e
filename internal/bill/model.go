package bill

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/KaivDev4434/FairShare/internal/bill/split"
)

// Bill represents a shared bill in the system
type Bill struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Currency      string          `json:"currency"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TipAmount     decimal.Decimal `json:"tip_amount"`
	PaidByShareID *string         `json:"paid_by_share_id,omitempty"`
	Locked        bool            `json:"locked"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Item represents one line on a bill
type Item struct {
	ID       string          `json:"id"`
	BillID   string          `json:"bill_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Position int             `json:"position"`
}

// LineTotal returns price multiplied by quantity.
func (i *Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// Share represents a participant on a bill. Shares carry no weight of their
// own; what a share owes is determined entirely by its claims.
type Share struct {
	ID       string `json:"id"`
	BillID   string `json:"bill_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Claim links a share to an item with a portion. At most one claim exists
// per (share, item) pair; writing a second one replaces the first.
type Claim struct {
	ShareID   string          `json:"share_id"`
	ItemID    string          `json:"item_id"`
	Portion   decimal.Decimal `json:"portion"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Detail combines a bill with its items, shares and claims
type Detail struct {
	Bill   *Bill
	Items  []*Item
	Shares []*Share
	Claims []*Claim
}

func (d *Detail) hasShare(id string) bool {
	for _, share := range d.Shares {
		if share.ID == id {
			return true
		}
	}
	return false
}

func (d *Detail) hasItem(id string) bool {
	for _, item := range d.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// Snapshot converts the aggregate into the split engine's input type
func (d *Detail) Snapshot() split.Snapshot {
	snap := split.Snapshot{
		Currency:  d.Bill.Currency,
		TaxAmount: d.Bill.TaxAmount,
		TipAmount: d.Bill.TipAmount,
		Items:     make([]split.Item, len(d.Items)),
		Shares:    make([]split.Share, len(d.Shares)),
		Claims:    make([]split.Claim, len(d.Claims)),
	}

	for i, item := range d.Items {
		snap.Items[i] = split.Item{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}
	for i, share := range d.Shares {
		snap.Shares[i] = split.Share{
			ID:   share.ID,
			Name: share.Name,
		}
	}
	for i, claim := range d.Claims {
		snap.Claims[i] = split.Claim{
			ShareID: claim.ShareID,
			ItemID:  claim.ItemID,
			Portion: claim.Portion,
		}
	}

	return snap
}
