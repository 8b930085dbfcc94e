package split

import "sort"

// =============================================================================
// BALANCE & SETTLEMENT SOLVER
// Nets computed bills into per-person balances and proposes payments that
// bring every balance back to zero
// =============================================================================

// BillTotals reduces one computed bill to what balance tracking needs: who
// paid it and what each person's rounded grand total was.
type BillTotals struct {
	PaidBy       string        `json:"paid_by"`
	PersonTotals []PersonTotal `json:"person_totals"`
}

// Balance is a person's signed net position across a set of bills, in cents.
// Positive means the group owes them money, negative means they owe the group.
type Balance struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
}

// Settlement is a suggested payment from a net debtor to a net creditor.
type Settlement struct {
	From        string `json:"from"`
	To          string `json:"to"`
	AmountCents int64  `json:"amount_cents"`
}

// ComputeBalances nets per-person totals across bills. Each person's balance
// drops by their grand total on every bill they consumed from, and the payer's
// balance rises by the bill's claimed total, since they fronted that money.
// Bills without a payer cannot move money and are skipped; callers that care
// should filter them out loudly beforehand.
//
// Balances come back in cents, one per distinct name, in the order names were
// first encountered.
func ComputeBalances(bills []BillTotals) []Balance {
	amounts := make(map[string]int64)
	order := make([]string, 0)
	touch := func(name string) {
		if _, ok := amounts[name]; !ok {
			amounts[name] = 0
			order = append(order, name)
		}
	}

	for _, bill := range bills {
		if bill.PaidBy == "" {
			continue
		}
		var claimed int64
		for _, pt := range bill.PersonTotals {
			touch(pt.Name)
			amounts[pt.Name] -= pt.GrandTotalCents
			claimed += pt.GrandTotalCents
		}
		touch(bill.PaidBy)
		amounts[bill.PaidBy] += claimed
	}

	balances := make([]Balance, 0, len(order))
	for _, name := range order {
		balances = append(balances, Balance{Name: name, AmountCents: amounts[name]})
	}
	return balances
}

// SuggestSettlements proposes payments that zero out the given balances. It
// greedily matches the largest remaining creditor against the largest
// remaining debtor, which is not guaranteed minimal in transaction count but
// stays close for the group sizes bills see in practice. Equal amounts are
// ordered by name, so the suggestion list is deterministic.
func SuggestSettlements(balances []Balance) []Settlement {
	type party struct {
		name      string
		remaining int64
	}

	var creditors, debtors []party
	for _, b := range balances {
		switch {
		case b.AmountCents > 0:
			creditors = append(creditors, party{name: b.Name, remaining: b.AmountCents})
		case b.AmountCents < 0:
			debtors = append(debtors, party{name: b.Name, remaining: -b.AmountCents})
		}
	}
	byAmount := func(parties []party) func(i, j int) bool {
		return func(i, j int) bool {
			if parties[i].remaining != parties[j].remaining {
				return parties[i].remaining > parties[j].remaining
			}
			return parties[i].name < parties[j].name
		}
	}
	sort.Slice(creditors, byAmount(creditors))
	sort.Slice(debtors, byAmount(debtors))

	settlements := []Settlement{}
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		creditor := &creditors[ci]
		debtor := &debtors[di]

		amount := creditor.remaining
		if debtor.remaining < amount {
			amount = debtor.remaining
		}
		settlements = append(settlements, Settlement{From: debtor.name, To: creditor.name, AmountCents: amount})

		creditor.remaining -= amount
		debtor.remaining -= amount
		if creditor.remaining == 0 {
			ci++
		}
		if debtor.remaining == 0 {
			di++
		}
	}
	return settlements
}
