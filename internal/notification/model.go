package notification

import "time"

// Notification represents a message addressed to a bill participant.
// FairShare has no user accounts, so the recipient is the participant's
// name exactly as it appears on the bill.
type Notification struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	BillID    *string   `json:"bill_id,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
