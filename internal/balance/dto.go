package balance

// ReportRequest names the bills to net against each other
type ReportRequest struct {
	BillIDs []string `json:"bill_ids" validate:"required,min=1"`
}

// BalanceResponse is one person's signed net position across the reported
// bills. Positive means the group owes them money.
type BalanceResponse struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Message     string `json:"message"` // e.g., "Alice is owed $14.00" or "Bob owes $14.00"
}

// SettlementResponse is one suggested payment that helps clear the balances
type SettlementResponse struct {
	From        string `json:"from"`
	To          string `json:"to"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Message     string `json:"message"` // e.g., "Bob pays Alice $14.00"
}

// SkippedBillResponse explains why a bill was left out of the netting
type SkippedBillResponse struct {
	BillID string `json:"bill_id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// ReportResponse is the full cross-bill report
type ReportResponse struct {
	Currency     string                 `json:"currency"`
	Balances     []*BalanceResponse     `json:"balances"`
	Settlements  []*SettlementResponse  `json:"settlements"`
	SkippedBills []*SkippedBillResponse `json:"skipped_bills,omitempty"`
}
