package bill

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/KaivDev4434/FairShare/internal/bill/split"
	"github.com/KaivDev4434/FairShare/internal/events"
	"github.com/KaivDev4434/FairShare/internal/metrics"
)

// Common errors
var (
	ErrBillNotFound    = errors.New("bill not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrShareNotFound   = errors.New("share not found")
	ErrClaimNotFound   = errors.New("claim not found")
	ErrBillLocked      = errors.New("bill is locked")
	ErrShareNotInBill  = errors.New("share does not belong to this bill")
	ErrItemNotInBill   = errors.New("item does not belong to this bill")
	ErrPayerNotInBill  = errors.New("payer must be a share on this bill")
	ErrInvalidAmount   = errors.New("amount must be non-negative")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPortion  = errors.New("portion must be non-negative")
	ErrPortionTooLarge = errors.New("portion exceeds the allowed maximum")
)

// maxPortion caps claim portions. The bound is a policy choice; it exists to
// catch fat-fingered inputs, not to enforce an arithmetic invariant.
var maxPortion = decimal.NewFromInt(1000)

// Service handles bill business logic
type Service struct {
	store     Store
	publisher events.Publisher
}

// NewService creates a new bill service with dependencies injected
func NewService(store Store, publisher events.Publisher) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
	}
}

// publish emits an event without failing the calling operation; a dead
// broker must not block bill edits.
func (s *Service) publish(ctx context.Context, eventType events.Type, billID string, payload interface{}) {
	if err := s.publisher.Publish(ctx, eventType, billID, payload); err != nil {
		slog.Warn("event publish failed",
			"event_type", eventType,
			"bill_id", billID,
			"error", err)
	}
}

func (s *Service) computeResult(detail *Detail) (*split.Result, error) {
	result, err := split.Compute(detail.Snapshot())
	if err != nil {
		return nil, err
	}
	metrics.SplitsComputed.Inc()
	return result, nil
}

// CreateBill creates a bill together with any initial items and shares
func (s *Service) CreateBill(ctx context.Context, req *CreateBillRequest) (*Detail, error) {
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}
	if req.TaxAmount.IsNegative() || req.TipAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	b := &Bill{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Currency:  currency,
		TaxAmount: req.TaxAmount,
		TipAmount: req.TipAmount,
	}

	items := make([]*Item, len(req.Items))
	for i, ir := range req.Items {
		item, err := newItem(b.ID, ir)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	shares := make([]*Share, len(req.Shares))
	for i, sr := range req.Shares {
		shares[i] = &Share{
			ID:     uuid.NewString(),
			BillID: b.ID,
			Name:   sr.Name,
		}
	}

	if err := s.store.CreateBill(ctx, b, items, shares); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeBillCreated, b.ID, nil)

	return &Detail{Bill: b, Items: items, Shares: shares, Claims: []*Claim{}}, nil
}

func newItem(billID string, req *CreateItemRequest) (*Item, error) {
	if req.Price.IsNegative() {
		return nil, ErrInvalidAmount
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	return &Item{
		ID:       uuid.NewString(),
		BillID:   billID,
		Name:     req.Name,
		Price:    req.Price,
		Quantity: quantity,
	}, nil
}

// GetBill retrieves a bill with its items, shares and claims
func (s *Service) GetBill(ctx context.Context, id string) (*Detail, error) {
	detail, err := s.store.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrBillNotFound
	}
	return detail, nil
}

// UpdateBill applies a partial update. Title, tax and tip are frozen while
// the bill is locked; the payer stays writable because it does not feed the
// split calculation.
func (s *Service) UpdateBill(ctx context.Context, id string, req *UpdateBillRequest) (*Bill, error) {
	detail, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.TaxAmount != nil && req.TaxAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if req.TipAmount != nil && req.TipAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	b := detail.Bill

	if req.Title != nil || req.TaxAmount != nil || req.TipAmount != nil {
		b, err = s.store.UpdateBill(ctx, id, BillUpdate{
			Title:     req.Title,
			TaxAmount: req.TaxAmount,
			TipAmount: req.TipAmount,
		})
		if err != nil {
			return nil, err
		}
	}

	if req.PaidByShareID != nil {
		var payer *string
		if *req.PaidByShareID != "" {
			if !detail.hasShare(*req.PaidByShareID) {
				return nil, ErrPayerNotInBill
			}
			payer = req.PaidByShareID
		}

		b, err = s.store.SetPayer(ctx, id, payer)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, ErrBillNotFound
		}
	}

	return b, nil
}

// DeleteBill removes a bill and everything attached to it
func (s *Service) DeleteBill(ctx context.Context, id string) error {
	if err := s.store.DeleteBill(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.TypeBillDeleted, id, nil)
	return nil
}

// Lock freezes the bill's items, shares and claims and announces the final
// per-person totals.
func (s *Service) Lock(ctx context.Context, id string) (*Bill, error) {
	detail, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.computeResult(detail)
	if err != nil {
		return nil, err
	}

	b, err := s.store.SetLocked(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBillNotFound
	}

	totals := make([]events.PersonTotalData, len(result.PersonTotals))
	for i, pt := range result.PersonTotals {
		totals[i] = events.PersonTotalData{
			Name:            pt.Name,
			GrandTotalCents: pt.GrandTotalCents,
			GrandTotal:      split.FormatCurrency(pt.GrandTotalCents, result.Currency),
		}
	}
	s.publish(ctx, events.TypeBillLocked, id, &events.BillLockedData{
		Title:  b.Title,
		Totals: totals,
	})

	return b, nil
}

// Unlock makes a locked bill editable again
func (s *Service) Unlock(ctx context.Context, id string) (*Bill, error) {
	b, err := s.store.SetLocked(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBillNotFound
	}

	s.publish(ctx, events.TypeBillUnlocked, id, nil)

	return b, nil
}

// ComputeSplits calculates the current per-person totals for a bill.
// Results are derived on demand from the live claims, never cached.
func (s *Service) ComputeSplits(ctx context.Context, id string) (*Bill, *split.Result, error) {
	detail, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.computeResult(detail)
	if err != nil {
		return nil, nil, err
	}

	return detail.Bill, result, nil
}

// AddItem appends an item to an unlocked bill
func (s *Service) AddItem(ctx context.Context, billID string, req *CreateItemRequest) (*Item, error) {
	item, err := newItem(billID, req)
	if err != nil {
		return nil, err
	}
	return s.store.AddItem(ctx, item)
}

// UpdateItem applies a partial update to one item
func (s *Service) UpdateItem(ctx context.Context, billID, itemID string, req *UpdateItemRequest) (*Item, error) {
	if req.Price != nil && req.Price.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.store.UpdateItem(ctx, billID, itemID, ItemUpdate{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// DeleteItem removes an item; claims on it go with it
func (s *Service) DeleteItem(ctx context.Context, billID, itemID string) error {
	return s.store.DeleteItem(ctx, billID, itemID)
}

// AddShare appends a participant to an unlocked bill
func (s *Service) AddShare(ctx context.Context, billID string, req *CreateShareRequest) (*Share, error) {
	share := &Share{
		ID:     uuid.NewString(),
		BillID: billID,
		Name:   req.Name,
	}
	return s.store.AddShare(ctx, share)
}

// DeleteShare removes a participant and their claims
func (s *Service) DeleteShare(ctx context.Context, billID, shareID string) error {
	return s.store.DeleteShare(ctx, billID, shareID)
}

// UpsertClaim creates or replaces the claim for a (share, item) pair. A
// portion of zero deletes the claim instead of storing a zero-weight one;
// the returned claim is nil in that case.
func (s *Service) UpsertClaim(ctx context.Context, billID string, req *UpsertClaimRequest) (*Claim, error) {
	if req.Portion.IsNegative() {
		return nil, ErrInvalidPortion
	}
	if req.Portion.GreaterThan(maxPortion) {
		return nil, ErrPortionTooLarge
	}

	detail, err := s.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if detail.Bill.Locked {
		return nil, ErrBillLocked
	}
	if !detail.hasShare(req.ShareID) {
		return nil, ErrShareNotInBill
	}
	if !detail.hasItem(req.ItemID) {
		return nil, ErrItemNotInBill
	}

	if req.Portion.IsZero() {
		if _, err := s.store.DeleteClaim(ctx, billID, req.ShareID, req.ItemID); err != nil {
			return nil, err
		}
		s.publish(ctx, events.TypeClaimUpdated, billID, &events.ClaimUpdatedData{
			ShareID: req.ShareID,
			ItemID:  req.ItemID,
			Portion: "0",
		})
		return nil, nil
	}

	claim, err := s.store.UpsertClaim(ctx, billID, &Claim{
		ShareID: req.ShareID,
		ItemID:  req.ItemID,
		Portion: req.Portion,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeClaimUpdated, billID, &events.ClaimUpdatedData{
		ShareID: claim.ShareID,
		ItemID:  claim.ItemID,
		Portion: claim.Portion.String(),
	})

	return claim, nil
}

// DeleteClaim removes the claim for a (share, item) pair
func (s *Service) DeleteClaim(ctx context.Context, billID, shareID, itemID string) error {
	deleted, err := s.store.DeleteClaim(ctx, billID, shareID, itemID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrClaimNotFound
	}

	s.publish(ctx, events.TypeClaimUpdated, billID, &events.ClaimUpdatedData{
		ShareID: shareID,
		ItemID:  itemID,
		Portion: "0",
	})

	return nil
}
