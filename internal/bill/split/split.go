package split

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Item is a single line on a bill.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// LineTotal returns the full cost of the line (unit price times quantity).
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// Share is a participant on a bill. A share carries no weight of its own;
// what it owes is determined entirely by its claims.
type Share struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Claim assigns a fractional portion of one item to one share. A portion of
// 1.0 is one full unit of the item, 0.5 half a unit. Portions are weights
// relative to the other claims on the same item, not percentages.
type Claim struct {
	ShareID string          `json:"share_id"`
	ItemID  string          `json:"item_id"`
	Portion decimal.Decimal `json:"portion"`
}

// Snapshot is the immutable view of one bill handed to the calculator.
type Snapshot struct {
	Currency  string          `json:"currency"`
	Items     []Item          `json:"items"`
	Shares    []Share         `json:"shares"`
	Claims    []Claim         `json:"claims"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	TipAmount decimal.Decimal `json:"tip_amount"`
}

// BreakdownEntry explains one claim's contribution to a person's total.
// SharedWith counts the claimants on the item, the person included; it is
// display information and plays no part in the arithmetic.
type BreakdownEntry struct {
	ItemID      string          `json:"item_id"`
	ItemName    string          `json:"item_name"`
	Portion     decimal.Decimal `json:"portion"`
	AmountCents int64           `json:"amount_cents"`
	SharedWith  int             `json:"shared_with"`
}

// PersonTotal is the calculated result for one share. ItemsTotalCents,
// TaxShareCents and TipShareCents are rounded independently for display;
// only GrandTotalCents carries the exact-sum guarantee.
type PersonTotal struct {
	ShareID         string           `json:"share_id"`
	Name            string           `json:"name"`
	ItemsTotalCents int64            `json:"items_total_cents"`
	TaxShareCents   int64            `json:"tax_share_cents"`
	TipShareCents   int64            `json:"tip_share_cents"`
	GrandTotalCents int64            `json:"grand_total_cents"`
	Breakdown       []BreakdownEntry `json:"breakdown"`
}

// Result is the outcome of splitting one bill. PersonTotals follows the order
// shares were supplied in the snapshot. TotalClaimedCents is the sum of all
// grand totals; UnclaimedCents is whatever part of the bill no claim covers.
type Result struct {
	Currency          string        `json:"currency"`
	PersonTotals      []PersonTotal `json:"person_totals"`
	SubtotalCents     int64         `json:"subtotal_cents"`
	TaxCents          int64         `json:"tax_cents"`
	TipCents          int64         `json:"tip_cents"`
	TotalCents        int64         `json:"total_cents"`
	TotalClaimedCents int64         `json:"total_claimed_cents"`
	UnclaimedCents    int64         `json:"unclaimed_cents"`
}

var (
	ErrUnknownItem     = errors.New("claim references an item not on the bill")
	ErrUnknownShare    = errors.New("claim references a share not on the bill")
	ErrDuplicateClaim  = errors.New("more than one claim for the same share and item")
	ErrNegativePortion = errors.New("portions cannot be negative")
	ErrNegativePrice   = errors.New("item prices cannot be negative")
	ErrInvalidQuantity = errors.New("item quantities must be positive")
	ErrNegativeAmount  = errors.New("amounts cannot be negative")
	ErrRoundingDeficit = errors.New("rounded cents cannot reconcile with the target total")
)
