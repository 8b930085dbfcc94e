package split

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DistributeRemainder rounds exact amounts to integer cents so that they sum
// exactly to targetCents, using the largest remainder method: every amount
// keeps the floor of its cent value, then the missing cents are awarded one
// each to the amounts with the largest truncated fraction. Ties keep input
// order, so identical inputs always produce identical outputs. Results are
// returned in input order.
//
// The deficit between targetCents and the summed floors must lie in
// [0, len(amounts)]. Anything outside that range means the caller's
// accounting is inconsistent and comes back as ErrRoundingDeficit; it is
// never clamped.
func DistributeRemainder(amounts []decimal.Decimal, targetCents int64) ([]int64, error) {
	type fraction struct {
		index int
		value decimal.Decimal
	}

	cents := make([]int64, len(amounts))
	fractions := make([]fraction, len(amounts))
	var base int64
	for i, amount := range amounts {
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: entry %d is %s", ErrNegativeAmount, i, amount)
		}
		scaled := amount.Mul(centsPerUnit)
		floor := scaled.Floor()
		cents[i] = floor.IntPart()
		base += cents[i]
		fractions[i] = fraction{index: i, value: scaled.Sub(floor)}
	}

	deficit := targetCents - base
	if deficit < 0 || deficit > int64(len(amounts)) {
		return nil, fmt.Errorf("%w: deficit of %d cents across %d entries", ErrRoundingDeficit, deficit, len(amounts))
	}

	sort.SliceStable(fractions, func(i, j int) bool {
		return fractions[i].value.GreaterThan(fractions[j].value)
	})
	for i := int64(0); i < deficit; i++ {
		cents[fractions[i].index]++
	}
	return cents, nil
}
