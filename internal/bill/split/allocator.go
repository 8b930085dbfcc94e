package split

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PER-PERSON EXACT ALLOCATOR
// Turns a bill snapshot into exact per-person totals, then rounds the grand
// totals so they sum to the claimed total to the cent
// =============================================================================

// Compute splits a bill among its shares.
//
// Every claim owes its item's full line cost weighted by portion over the
// total portions claimed on that item. Tax and tip follow consumption: a
// share's proportion of the subtotal is its proportion of tax and tip, so a
// share that claimed nothing owes nothing. Grand totals are rounded with
// DistributeRemainder against the claimed total, which keeps their sum exact.
//
// Compute never mutates the snapshot. Corrupt input (claims pointing outside
// the bill, duplicate claims, negative numbers) is rejected rather than
// partially computed.
func Compute(snap Snapshot) (*Result, error) {
	if snap.TaxAmount.IsNegative() {
		return nil, fmt.Errorf("%w: tax is %s", ErrNegativeAmount, snap.TaxAmount)
	}
	if snap.TipAmount.IsNegative() {
		return nil, fmt.Errorf("%w: tip is %s", ErrNegativeAmount, snap.TipAmount)
	}

	items := make(map[string]Item, len(snap.Items))
	subtotal := decimal.Zero
	for _, item := range snap.Items {
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item %q", ErrNegativePrice, item.ID)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %q has quantity %d", ErrInvalidQuantity, item.ID, item.Quantity)
		}
		items[item.ID] = item
		subtotal = subtotal.Add(item.LineTotal())
	}

	shareIndex := make(map[string]int, len(snap.Shares))
	for i, share := range snap.Shares {
		shareIndex[share.ID] = i
	}

	// First pass: validate every claim and total the portions per item.
	// A zero portion means the claim was deleted and drops out here.
	seen := make(map[[2]string]bool, len(snap.Claims))
	portions := make(map[string]decimal.Decimal)
	claimants := make(map[string]int)
	active := make([]Claim, 0, len(snap.Claims))
	for _, claim := range snap.Claims {
		if _, ok := items[claim.ItemID]; !ok {
			return nil, fmt.Errorf("%w: item %q", ErrUnknownItem, claim.ItemID)
		}
		if _, ok := shareIndex[claim.ShareID]; !ok {
			return nil, fmt.Errorf("%w: share %q", ErrUnknownShare, claim.ShareID)
		}
		if claim.Portion.IsNegative() {
			return nil, fmt.Errorf("%w: share %q on item %q", ErrNegativePortion, claim.ShareID, claim.ItemID)
		}
		key := [2]string{claim.ShareID, claim.ItemID}
		if seen[key] {
			return nil, fmt.Errorf("%w: share %q on item %q", ErrDuplicateClaim, claim.ShareID, claim.ItemID)
		}
		seen[key] = true
		if claim.Portion.IsZero() {
			continue
		}
		portions[claim.ItemID] = portions[claim.ItemID].Add(claim.Portion)
		claimants[claim.ItemID]++
		active = append(active, claim)
	}

	// Second pass: price every active claim now that per-item portions are
	// complete.
	itemsTotals := make([]decimal.Decimal, len(snap.Shares))
	breakdowns := make([][]BreakdownEntry, len(snap.Shares))
	for _, claim := range active {
		item := items[claim.ItemID]
		owed := item.LineTotal().Mul(claim.Portion).Div(portions[claim.ItemID])
		idx := shareIndex[claim.ShareID]
		itemsTotals[idx] = itemsTotals[idx].Add(owed)
		breakdowns[idx] = append(breakdowns[idx], BreakdownEntry{
			ItemID:      claim.ItemID,
			ItemName:    item.Name,
			Portion:     claim.Portion,
			AmountCents: Cents(owed),
			SharedWith:  claimants[claim.ItemID],
		})
	}

	// Unclaimed items count toward the subtotal but belong to nobody.
	totalClaimed := decimal.Zero
	for _, item := range snap.Items {
		if _, ok := portions[item.ID]; ok {
			totalClaimed = totalClaimed.Add(item.LineTotal())
		}
	}

	exact := make([]decimal.Decimal, len(snap.Shares))
	taxShares := make([]decimal.Decimal, len(snap.Shares))
	tipShares := make([]decimal.Decimal, len(snap.Shares))
	for i := range snap.Shares {
		proportion := decimal.Zero
		if !subtotal.IsZero() {
			proportion = itemsTotals[i].Div(subtotal)
		}
		taxShares[i] = snap.TaxAmount.Mul(proportion)
		tipShares[i] = snap.TipAmount.Mul(proportion)
		exact[i] = itemsTotals[i].Add(taxShares[i]).Add(tipShares[i])
	}

	// The rounding target is the claimed item cost plus the slice of tax and
	// tip that claimed consumption carries. When every item is claimed this
	// is exactly subtotal + tax + tip.
	claimedProportion := decimal.Zero
	if !subtotal.IsZero() {
		claimedProportion = totalClaimed.Div(subtotal)
	}
	target := totalClaimed.Add(snap.TaxAmount.Add(snap.TipAmount).Mul(claimedProportion))
	targetCents := Cents(target)

	grandCents, err := DistributeRemainder(exact, targetCents)
	if err != nil {
		return nil, err
	}

	personTotals := make([]PersonTotal, len(snap.Shares))
	for i, share := range snap.Shares {
		personTotals[i] = PersonTotal{
			ShareID:         share.ID,
			Name:            share.Name,
			ItemsTotalCents: Cents(itemsTotals[i]),
			TaxShareCents:   Cents(taxShares[i]),
			TipShareCents:   Cents(tipShares[i]),
			GrandTotalCents: grandCents[i],
			Breakdown:       breakdowns[i],
		}
	}

	totalCents := Cents(subtotal.Add(snap.TaxAmount).Add(snap.TipAmount))
	return &Result{
		Currency:          snap.Currency,
		PersonTotals:      personTotals,
		SubtotalCents:     Cents(subtotal),
		TaxCents:          Cents(snap.TaxAmount),
		TipCents:          Cents(snap.TipAmount),
		TotalCents:        totalCents,
		TotalClaimedCents: targetCents,
		UnclaimedCents:    totalCents - targetCents,
	}, nil
}
