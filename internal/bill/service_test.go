package bill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KaivDev4434/FairShare/internal/events"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeStore is an in-memory Store for service tests. It enforces the same
// locked-bill discipline as the postgres repository.
type fakeStore struct {
	bills  map[string]*Bill
	items  map[string][]*Item
	shares map[string][]*Share
	claims map[string][]*Claim
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		bills:  make(map[string]*Bill),
		items:  make(map[string][]*Item),
		shares: make(map[string][]*Share),
		claims: make(map[string][]*Claim),
	}
}

func (f *fakeStore) guard(billID string) error {
	b, ok := f.bills[billID]
	if !ok {
		return ErrBillNotFound
	}
	if b.Locked {
		return ErrBillLocked
	}
	return nil
}

func (f *fakeStore) CreateBill(ctx context.Context, b *Bill, items []*Item, shares []*Share) error {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	f.bills[b.ID] = b

	for i, item := range items {
		item.Position = i
	}
	f.items[b.ID] = append([]*Item{}, items...)

	for i, share := range shares {
		share.Position = i
	}
	f.shares[b.ID] = append([]*Share{}, shares...)

	return nil
}

func (f *fakeStore) GetBill(ctx context.Context, id string) (*Detail, error) {
	b, ok := f.bills[id]
	if !ok {
		return nil, nil
	}
	return &Detail{
		Bill:   b,
		Items:  f.items[id],
		Shares: f.shares[id],
		Claims: f.claims[id],
	}, nil
}

func (f *fakeStore) UpdateBill(ctx context.Context, id string, update BillUpdate) (*Bill, error) {
	if err := f.guard(id); err != nil {
		return nil, err
	}
	b := f.bills[id]
	if update.Title != nil {
		b.Title = *update.Title
	}
	if update.TaxAmount != nil {
		b.TaxAmount = *update.TaxAmount
	}
	if update.TipAmount != nil {
		b.TipAmount = *update.TipAmount
	}
	b.UpdatedAt = time.Now()
	return b, nil
}

func (f *fakeStore) SetPayer(ctx context.Context, id string, shareID *string) (*Bill, error) {
	b, ok := f.bills[id]
	if !ok {
		return nil, nil
	}
	b.PaidByShareID = shareID
	b.UpdatedAt = time.Now()
	return b, nil
}

func (f *fakeStore) SetLocked(ctx context.Context, id string, locked bool) (*Bill, error) {
	b, ok := f.bills[id]
	if !ok {
		return nil, nil
	}
	b.Locked = locked
	b.UpdatedAt = time.Now()
	return b, nil
}

func (f *fakeStore) DeleteBill(ctx context.Context, id string) error {
	if _, ok := f.bills[id]; !ok {
		return ErrBillNotFound
	}
	delete(f.bills, id)
	delete(f.items, id)
	delete(f.shares, id)
	delete(f.claims, id)
	return nil
}

func (f *fakeStore) AddItem(ctx context.Context, item *Item) (*Item, error) {
	if err := f.guard(item.BillID); err != nil {
		return nil, err
	}
	item.Position = len(f.items[item.BillID])
	f.items[item.BillID] = append(f.items[item.BillID], item)
	return item, nil
}

func (f *fakeStore) UpdateItem(ctx context.Context, billID, itemID string, update ItemUpdate) (*Item, error) {
	if err := f.guard(billID); err != nil {
		return nil, err
	}
	for _, item := range f.items[billID] {
		if item.ID == itemID {
			if update.Name != nil {
				item.Name = *update.Name
			}
			if update.Price != nil {
				item.Price = *update.Price
			}
			if update.Quantity != nil {
				item.Quantity = *update.Quantity
			}
			return item, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) DeleteItem(ctx context.Context, billID, itemID string) error {
	if err := f.guard(billID); err != nil {
		return err
	}
	items := f.items[billID]
	for i, item := range items {
		if item.ID == itemID {
			f.items[billID] = append(items[:i], items[i+1:]...)
			f.removeClaims(billID, func(c *Claim) bool { return c.ItemID == itemID })
			return nil
		}
	}
	return ErrItemNotFound
}

func (f *fakeStore) AddShare(ctx context.Context, share *Share) (*Share, error) {
	if err := f.guard(share.BillID); err != nil {
		return nil, err
	}
	share.Position = len(f.shares[share.BillID])
	f.shares[share.BillID] = append(f.shares[share.BillID], share)
	return share, nil
}

func (f *fakeStore) DeleteShare(ctx context.Context, billID, shareID string) error {
	if err := f.guard(billID); err != nil {
		return err
	}
	shares := f.shares[billID]
	for i, share := range shares {
		if share.ID == shareID {
			f.shares[billID] = append(shares[:i], shares[i+1:]...)
			f.removeClaims(billID, func(c *Claim) bool { return c.ShareID == shareID })
			b := f.bills[billID]
			if b.PaidByShareID != nil && *b.PaidByShareID == shareID {
				b.PaidByShareID = nil
			}
			return nil
		}
	}
	return ErrShareNotFound
}

func (f *fakeStore) removeClaims(billID string, drop func(*Claim) bool) {
	var kept []*Claim
	for _, c := range f.claims[billID] {
		if !drop(c) {
			kept = append(kept, c)
		}
	}
	f.claims[billID] = kept
}

func (f *fakeStore) UpsertClaim(ctx context.Context, billID string, claim *Claim) (*Claim, error) {
	if err := f.guard(billID); err != nil {
		return nil, err
	}
	claim.UpdatedAt = time.Now()
	for i, c := range f.claims[billID] {
		if c.ShareID == claim.ShareID && c.ItemID == claim.ItemID {
			f.claims[billID][i] = claim
			return claim, nil
		}
	}
	f.claims[billID] = append(f.claims[billID], claim)
	return claim, nil
}

func (f *fakeStore) DeleteClaim(ctx context.Context, billID, shareID, itemID string) (bool, error) {
	if err := f.guard(billID); err != nil {
		return false, err
	}
	claims := f.claims[billID]
	for i, c := range claims {
		if c.ShareID == shareID && c.ItemID == itemID {
			f.claims[billID] = append(claims[:i], claims[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newTestService() *Service {
	return NewService(newFakeStore(), events.NoopPublisher{})
}

// createTestBill sets up a bill with Pizza ($20), Salad ($10), $2 tax,
// $3 tip and shares Alice and Bob.
func createTestBill(t *testing.T, svc *Service) *Detail {
	t.Helper()

	detail, err := svc.CreateBill(context.Background(), &CreateBillRequest{
		Title:     "Dinner",
		TaxAmount: d("2.00"),
		TipAmount: d("3.00"),
		Items: []*CreateItemRequest{
			{Name: "Pizza", Price: d("20.00")},
			{Name: "Salad", Price: d("10.00")},
		},
		Shares: []*CreateShareRequest{
			{Name: "Alice"},
			{Name: "Bob"},
		},
	})
	if err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	return detail
}

func mustUpsertClaim(t *testing.T, svc *Service, billID, shareID, itemID, portion string) {
	t.Helper()

	_, err := svc.UpsertClaim(context.Background(), billID, &UpsertClaimRequest{
		ShareID: shareID,
		ItemID:  itemID,
		Portion: d(portion),
	})
	if err != nil {
		t.Fatalf("UpsertClaim failed: %v", err)
	}
}

func TestCreateBill(t *testing.T) {
	svc := newTestService()
	detail := createTestBill(t, svc)

	if detail.Bill.ID == "" {
		t.Error("expected non-empty bill ID")
	}
	if detail.Bill.Currency != "USD" {
		t.Errorf("currency: expected default USD, got %s", detail.Bill.Currency)
	}
	if detail.Bill.Locked {
		t.Error("new bill must not be locked")
	}
	if len(detail.Items) != 2 {
		t.Fatalf("items: expected 2, got %d", len(detail.Items))
	}
	if detail.Items[0].Quantity != 1 {
		t.Errorf("quantity: expected default 1, got %d", detail.Items[0].Quantity)
	}
	if len(detail.Shares) != 2 {
		t.Fatalf("shares: expected 2, got %d", len(detail.Shares))
	}
	if len(detail.Claims) != 0 {
		t.Errorf("claims: expected none on a new bill, got %d", len(detail.Claims))
	}
}

func TestCreateBillValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateBill(ctx, &CreateBillRequest{Title: "Bad", TaxAmount: d("-1")})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative tax: expected ErrInvalidAmount, got %v", err)
	}

	_, err = svc.CreateBill(ctx, &CreateBillRequest{
		Title: "Bad",
		Items: []*CreateItemRequest{{Name: "Thing", Price: d("-5.00")}},
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative price: expected ErrInvalidAmount, got %v", err)
	}

	_, err = svc.CreateBill(ctx, &CreateBillRequest{
		Title: "Bad",
		Items: []*CreateItemRequest{{Name: "Thing", Price: d("5.00"), Quantity: -1}},
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("negative quantity: expected ErrInvalidQuantity, got %v", err)
	}
}

func TestUpsertClaimReplaces(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	detail := createTestBill(t, svc)
	billID := detail.Bill.ID
	alice := detail.Shares[0]
	bob := detail.Shares[1]
	pizza := detail.Items[0]

	mustUpsertClaim(t, svc, billID, bob.ID, pizza.ID, "1")
	mustUpsertClaim(t, svc, billID, alice.ID, pizza.ID, "1")
	// Writing the same pair again must replace the portion, not add to it
	mustUpsertClaim(t, svc, billID, alice.ID, pizza.ID, "2")

	got, err := svc.GetBill(ctx, billID)
	if err != nil {
		t.Fatalf("GetBill failed: %v", err)
	}
	if len(got.Claims) != 2 {
		t.Fatalf("claims: expected 2 after replacement, got %d", len(got.Claims))
	}

	// Pizza is $20 with portions Alice 2, Bob 1. Replacement semantics give
	// Alice 2/3 of $20 = 1333 cents; additive semantics would give 1500.
	_, result, err := svc.ComputeSplits(ctx, billID)
	if err != nil {
		t.Fatalf("ComputeSplits failed: %v", err)
	}
	if result.PersonTotals[0].ItemsTotalCents != 1333 {
		t.Errorf("Alice items total: expected 1333, got %d", result.PersonTotals[0].ItemsTotalCents)
	}
	if result.PersonTotals[1].ItemsTotalCents != 667 {
		t.Errorf("Bob items total: expected 667, got %d", result.PersonTotals[1].ItemsTotalCents)
	}
}

func TestUpsertClaimZeroDeletes(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	detail := createTestBill(t, svc)
	billID := detail.Bill.ID
	alice := detail.Shares[0]
	pizza := detail.Items[0]

	mustUpsertClaim(t, svc, billID, alice.ID, pizza.ID, "1")

	claim, err := svc.UpsertClaim(ctx, billID, &UpsertClaimRequest{
		ShareID: alice.ID,
		ItemID:  pizza.ID,
		Portion: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("zero-portion upsert failed: %v", err)
	}
	if claim != nil {
		t.Errorf("zero-portion upsert: expected nil claim, got %+v", claim)
	}

	got, err := svc.GetBill(ctx, billID)
	if err != nil {
		t.Fatalf("GetBill failed: %v", err)
	}
	if len(got.Claims) != 0 {
		t.Errorf("claims: expected none after zero-portion upsert, got %d", len(got.Claims))
	}

	// Zeroing a pair that never existed is not an error
	if _, err := svc.UpsertClaim(ctx, billID, &UpsertClaimRequest{
		ShareID: alice.ID,
		ItemID:  pizza.ID,
		Portion: decimal.Zero,
	}); err != nil {
		t.Errorf("zeroing a missing claim: expected no error, got %v", err)
	}
}

func TestUpsertClaimValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	detail := createTestBill(t, svc)
	billID := detail.Bill.ID
	alice := detail.Shares[0]
	pizza := detail.Items[0]

	tests := []struct {
		name    string
		billID  string
		req     *UpsertClaimRequest
		wantErr error
	}{
		{
			name:    "unknown share",
			billID:  billID,
			req:     &UpsertClaimRequest{ShareID: "nope", ItemID: pizza.ID, Portion: d("1")},
			wantErr: ErrShareNotInBill,
		},
		{
			name:    "unknown item",
			billID:  billID,
			req:     &UpsertClaimRequest{ShareID: alice.ID, ItemID: "nope", Portion: d("1")},
			wantErr: ErrItemNotInBill,
		},
		{
			name:    "negative portion",
			billID:  billID,
			req:     &UpsertClaimRequest{ShareID: alice.ID, ItemID: pizza.ID, Portion: d("-1")},
			wantErr: ErrInvalidPortion,
		},
		{
			name:    "portion over cap",
			billID:  billID,
			req:     &UpsertClaimRequest{ShareID: alice.ID, ItemID: pizza.ID, Portion: d("1001")},
			wantErr: ErrPortionTooLarge,
		},
		{
			name:    "missing bill",
			billID:  "nope",
			req:     &UpsertClaimRequest{ShareID: alice.ID, ItemID: pizza.ID, Portion: d("1")},
			wantErr: ErrBillNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpsertClaim(ctx, tt.billID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLockedBillRejectsMutations(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	detail := createTestBill(t, svc)
	billID := detail.Bill.ID
	alice := detail.Shares[0]
	pizza := detail.Items[0]
	salad := detail.Items[1]

	mustUpsertClaim(t, svc, billID, alice.ID, pizza.ID, "1")

	_, before, err := svc.ComputeSplits(ctx, billID)
	if err != nil {
		t.Fatalf("ComputeSplits failed: %v", err)
	}

	if _, err := svc.Lock(ctx, billID); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	newTitle := "Renamed"
	newTax := d("9.99")
	mutations := []struct {
		name string
		fn   func() error
	}{
		{"update title", func() error {
			_, err := svc.UpdateBill(ctx, billID, &UpdateBillRequest{Title: &newTitle})
			return err
		}},
		{"update tax", func() error {
			_, err := svc.UpdateBill(ctx, billID, &UpdateBillRequest{TaxAmount: &newTax})
			return err
		}},
		{"add item", func() error {
			_, err := svc.AddItem(ctx, billID, &CreateItemRequest{Name: "Beer", Price: d("5.00")})
			return err
		}},
		{"update item", func() error {
			_, err := svc.UpdateItem(ctx, billID, pizza.ID, &UpdateItemRequest{Name: &newTitle})
			return err
		}},
		{"delete item", func() error {
			return svc.DeleteItem(ctx, billID, salad.ID)
		}},
		{"add share", func() error {
			_, err := svc.AddShare(ctx, billID, &CreateShareRequest{Name: "Carol"})
			return err
		}},
		{"delete share", func() error {
			return svc.DeleteShare(ctx, billID, alice.ID)
		}},
		{"upsert claim", func() error {
			_, err := svc.UpsertClaim(ctx, billID, &UpsertClaimRequest{
				ShareID: alice.ID, ItemID: salad.ID, Portion: d("1"),
			})
			return err
		}},
		{"delete claim", func() error {
			return svc.DeleteClaim(ctx, billID, alice.ID, pizza.ID)
		}},
	}

	for _, m := range mutations {
		if err := m.fn(); !errors.Is(err, ErrBillLocked) {
			t.Errorf("%s on locked bill: expected ErrBillLocked, got %v", m.name, err)
		}
	}

	// Rejected writes must not have changed the computed splits
	_, after, err := svc.ComputeSplits(ctx, billID)
	if err != nil {
		t.Fatalf("ComputeSplits after lock failed: %v", err)
	}
	if len(after.PersonTotals) != len(before.PersonTotals) {
		t.Fatalf("person totals changed: %d vs %d", len(after.PersonTotals), len(before.PersonTotals))
	}
	for i := range after.PersonTotals {
		if after.PersonTotals[i].GrandTotalCents != before.PersonTotals[i].GrandTotalCents {
			t.Errorf("%s grand total changed on a locked bill: %d vs %d",
				after.PersonTotals[i].Name,
				after.PersonTotals[i].GrandTotalCents,
				before.PersonTotals[i].GrandTotalCents)
		}
	}

	// The payer stays writable on a locked bill
	b, err := svc.UpdateBill(ctx, billID, &UpdateBillRequest{PaidByShareID: &alice.ID})
	if err != nil {
		t.Fatalf("setting payer on locked bill failed: %v", err)
	}
	if b.PaidByShareID == nil || *b.PaidByShareID != alice.ID {
		t.Errorf("payer not set on locked bill")
	}

	// Unlocking reopens the bill for edits
	if _, err := svc.Unlock(ctx, billID); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if _, err := svc.AddItem(ctx, billID, &CreateItemRequest{Name: "Beer", Price: d("5.00")}); err != nil {
		t.Errorf("add item after unlock: expected success, got %v", err)
	}
}

func TestComputeSplits(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	detail := createTestBill(t, svc)
	billID := detail.Bill.ID
	alice := detail.Shares[0]
	bob := detail.Shares[1]
	pizza := detail.Items[0]
	salad := detail.Items[1]

	// Pizza $20 split evenly, salad $10 all Bob's. Alice consumed $10 of the
	// $30 subtotal, Bob $20, so the $2 tax and $3 tip split 1:2.
	mustUpsertClaim(t, svc, billID, alice.ID, pizza.ID, "1")
	mustUpsertClaim(t, svc, billID, bob.ID, pizza.ID, "1")
	mustUpsertClaim(t, svc, billID, bob.ID, salad.ID, "1")

	_, result, err := svc.ComputeSplits(ctx, billID)
	if err != nil {
		t.Fatalf("ComputeSplits failed: %v", err)
	}

	if result.TotalCents != 3500 {
		t.Errorf("total: expected 3500, got %d", result.TotalCents)
	}
	if result.UnclaimedCents != 0 {
		t.Errorf("unclaimed: expected 0, got %d", result.UnclaimedCents)
	}

	if len(result.PersonTotals) != 2 {
		t.Fatalf("person totals: expected 2, got %d", len(result.PersonTotals))
	}
	aliceTotal := result.PersonTotals[0]
	bobTotal := result.PersonTotals[1]

	if aliceTotal.ItemsTotalCents != 1000 {
		t.Errorf("Alice items: expected 1000, got %d", aliceTotal.ItemsTotalCents)
	}
	if aliceTotal.TaxShareCents != 67 {
		t.Errorf("Alice tax: expected 67, got %d", aliceTotal.TaxShareCents)
	}
	if aliceTotal.TipShareCents != 100 {
		t.Errorf("Alice tip: expected 100, got %d", aliceTotal.TipShareCents)
	}
	if bobTotal.ItemsTotalCents != 2000 {
		t.Errorf("Bob items: expected 2000, got %d", bobTotal.ItemsTotalCents)
	}
	if bobTotal.TaxShareCents != 133 {
		t.Errorf("Bob tax: expected 133, got %d", bobTotal.TaxShareCents)
	}
	if bobTotal.TipShareCents != 200 {
		t.Errorf("Bob tip: expected 200, got %d", bobTotal.TipShareCents)
	}

	if got := aliceTotal.GrandTotalCents + bobTotal.GrandTotalCents; got != result.TotalClaimedCents {
		t.Errorf("grand totals sum to %d, want %d", got, result.TotalClaimedCents)
	}
	if result.TotalClaimedCents != 3500 {
		t.Errorf("total claimed: expected 3500, got %d", result.TotalClaimedCents)
	}

	if len(aliceTotal.Breakdown) != 1 {
		t.Fatalf("Alice breakdown: expected 1 entry, got %d", len(aliceTotal.Breakdown))
	}
	entry := aliceTotal.Breakdown[0]
	if entry.ItemName != "Pizza" {
		t.Errorf("breakdown item: expected Pizza, got %s", entry.ItemName)
	}
	if entry.AmountCents != 1000 {
		t.Errorf("breakdown amount: expected 1000, got %d", entry.AmountCents)
	}
	if entry.SharedWith != 2 {
		t.Errorf("breakdown shared_with: expected 2, got %d", entry.SharedWith)
	}
}

func TestUpdateBillPayer(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	detail := createTestBill(t, svc)
	billID := detail.Bill.ID
	alice := detail.Shares[0]

	b, err := svc.UpdateBill(ctx, billID, &UpdateBillRequest{PaidByShareID: &alice.ID})
	if err != nil {
		t.Fatalf("setting payer failed: %v", err)
	}
	if b.PaidByShareID == nil || *b.PaidByShareID != alice.ID {
		t.Fatalf("payer: expected %s, got %v", alice.ID, b.PaidByShareID)
	}

	bogus := "not-a-share"
	if _, err := svc.UpdateBill(ctx, billID, &UpdateBillRequest{PaidByShareID: &bogus}); !errors.Is(err, ErrPayerNotInBill) {
		t.Errorf("bogus payer: expected ErrPayerNotInBill, got %v", err)
	}

	empty := ""
	b, err = svc.UpdateBill(ctx, billID, &UpdateBillRequest{PaidByShareID: &empty})
	if err != nil {
		t.Fatalf("clearing payer failed: %v", err)
	}
	if b.PaidByShareID != nil {
		t.Errorf("payer: expected cleared, got %v", *b.PaidByShareID)
	}
}

func TestDeleteShareClearsPayer(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	detail := createTestBill(t, svc)
	billID := detail.Bill.ID
	alice := detail.Shares[0]

	if _, err := svc.UpdateBill(ctx, billID, &UpdateBillRequest{PaidByShareID: &alice.ID}); err != nil {
		t.Fatalf("setting payer failed: %v", err)
	}
	if err := svc.DeleteShare(ctx, billID, alice.ID); err != nil {
		t.Fatalf("DeleteShare failed: %v", err)
	}

	got, err := svc.GetBill(ctx, billID)
	if err != nil {
		t.Fatalf("GetBill failed: %v", err)
	}
	if got.Bill.PaidByShareID != nil {
		t.Errorf("payer: expected cleared after share deletion, got %v", *got.Bill.PaidByShareID)
	}
	if len(got.Shares) != 1 {
		t.Errorf("shares: expected 1 left, got %d", len(got.Shares))
	}
}

func TestDeleteClaim(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	detail := createTestBill(t, svc)
	billID := detail.Bill.ID
	alice := detail.Shares[0]
	pizza := detail.Items[0]

	mustUpsertClaim(t, svc, billID, alice.ID, pizza.ID, "1")

	if err := svc.DeleteClaim(ctx, billID, alice.ID, pizza.ID); err != nil {
		t.Fatalf("DeleteClaim failed: %v", err)
	}
	if err := svc.DeleteClaim(ctx, billID, alice.ID, pizza.ID); !errors.Is(err, ErrClaimNotFound) {
		t.Errorf("second delete: expected ErrClaimNotFound, got %v", err)
	}
}

func TestUpdateItemChangesSplits(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	detail := createTestBill(t, svc)
	billID := detail.Bill.ID
	alice := detail.Shares[0]
	pizza := detail.Items[0]

	mustUpsertClaim(t, svc, billID, alice.ID, pizza.ID, "1")

	newPrice := d("40.00")
	if _, err := svc.UpdateItem(ctx, billID, pizza.ID, &UpdateItemRequest{Price: &newPrice}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	_, result, err := svc.ComputeSplits(ctx, billID)
	if err != nil {
		t.Fatalf("ComputeSplits failed: %v", err)
	}
	if result.PersonTotals[0].ItemsTotalCents != 4000 {
		t.Errorf("Alice items after reprice: expected 4000, got %d", result.PersonTotals[0].ItemsTotalCents)
	}

	if _, err := svc.UpdateItem(ctx, billID, "missing", &UpdateItemRequest{Price: &newPrice}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("missing item: expected ErrItemNotFound, got %v", err)
	}
}

func TestDeleteBill(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	detail := createTestBill(t, svc)
	billID := detail.Bill.ID

	if err := svc.DeleteBill(ctx, billID); err != nil {
		t.Fatalf("DeleteBill failed: %v", err)
	}
	if _, err := svc.GetBill(ctx, billID); !errors.Is(err, ErrBillNotFound) {
		t.Errorf("get after delete: expected ErrBillNotFound, got %v", err)
	}
	if err := svc.DeleteBill(ctx, billID); !errors.Is(err, ErrBillNotFound) {
		t.Errorf("second delete: expected ErrBillNotFound, got %v", err)
	}
}
