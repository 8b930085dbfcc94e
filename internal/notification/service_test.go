package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeStore is an in-memory Store. Insertion order stands in for
// created_at ordering, so listings walk the slice backwards.
type fakeStore struct {
	notifications []*Notification
	seq           int
}

var _ Store = (*fakeStore)(nil)

func (f *fakeStore) Create(ctx context.Context, recipient, message string, billID *string) (*Notification, error) {
	f.seq++
	n := &Notification{
		ID:        fmt.Sprintf("n-%d", f.seq),
		Recipient: recipient,
		BillID:    billID,
		Message:   message,
		CreatedAt: time.Unix(int64(f.seq), 0),
	}
	f.notifications = append(f.notifications, n)
	return n, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*Notification, error) {
	for _, n := range f.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListByRecipient(ctx context.Context, recipient string, limit, offset int, unreadOnly bool) ([]*Notification, int, error) {
	var matched []*Notification
	for i := len(f.notifications) - 1; i >= 0; i-- {
		n := f.notifications[i]
		if n.Recipient != recipient {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}

	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeStore) MarkAsRead(ctx context.Context, id string) error {
	for _, n := range f.notifications {
		if n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeStore) MarkAllAsRead(ctx context.Context, recipient string) error {
	for _, n := range f.notifications {
		if n.Recipient == recipient {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeStore) GetUnreadCount(ctx context.Context, recipient string) (int, error) {
	count := 0
	for _, n := range f.notifications {
		if n.Recipient == recipient && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func newTestService() *Service {
	return NewService(&fakeStore{})
}

func mustCreate(t *testing.T, svc *Service, recipient, message string) *Notification {
	t.Helper()
	n, err := svc.Create(context.Background(), recipient, message, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return n
}

func TestCreateNotification(t *testing.T) {
	svc := newTestService()

	billID := "bill-1"
	n, err := svc.Create(context.Background(), "Alice", "Dinner was finalized", &billID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if n.ID == "" {
		t.Error("expected a generated ID")
	}
	if n.Recipient != "Alice" {
		t.Errorf("Recipient = %q, want %q", n.Recipient, "Alice")
	}
	if n.IsRead {
		t.Error("new notification should be unread")
	}
	if n.BillID == nil || *n.BillID != "bill-1" {
		t.Errorf("BillID = %v, want bill-1", n.BillID)
	}
}

func TestListByRecipient(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first := mustCreate(t, svc, "Alice", "first")
	second := mustCreate(t, svc, "Alice", "second")
	mustCreate(t, svc, "Bob", "for bob")
	third := mustCreate(t, svc, "Alice", "third")

	notifications, total, err := svc.ListByRecipient(ctx, "Alice", 1, 20, false)
	if err != nil {
		t.Fatalf("ListByRecipient: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(notifications) != 3 {
		t.Fatalf("len = %d, want 3", len(notifications))
	}
	if notifications[0].ID != third.ID || notifications[2].ID != first.ID {
		t.Errorf("expected newest first, got %s .. %s", notifications[0].ID, notifications[2].ID)
	}

	if err := svc.MarkAsRead(ctx, second.ID, "Alice"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}

	unread, total, err := svc.ListByRecipient(ctx, "Alice", 1, 20, true)
	if err != nil {
		t.Fatalf("ListByRecipient unread: %v", err)
	}
	if total != 2 || len(unread) != 2 {
		t.Fatalf("unread total = %d, len = %d, want 2 and 2", total, len(unread))
	}
	for _, n := range unread {
		if n.IsRead {
			t.Errorf("notification %s should be unread", n.ID)
		}
	}
}

func TestListPagination(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		n := mustCreate(t, svc, "Alice", fmt.Sprintf("message %d", i))
		ids = append(ids, n.ID)
	}

	page2, total, err := svc.ListByRecipient(ctx, "Alice", 2, 2, false)
	if err != nil {
		t.Fatalf("ListByRecipient: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page2) != 2 {
		t.Fatalf("len = %d, want 2", len(page2))
	}
	// Newest first, so page 2 of size 2 holds the third and fourth newest.
	if page2[0].ID != ids[2] || page2[1].ID != ids[1] {
		t.Errorf("page 2 = %s, %s; want %s, %s", page2[0].ID, page2[1].ID, ids[2], ids[1])
	}

	clamped, _, err := svc.ListByRecipient(ctx, "Alice", 0, 500, false)
	if err != nil {
		t.Fatalf("ListByRecipient clamped: %v", err)
	}
	if len(clamped) != 5 {
		t.Errorf("len = %d, want all 5 under the default page size", len(clamped))
	}
	if clamped[0].ID != ids[4] {
		t.Errorf("clamped page should start from the newest, got %s", clamped[0].ID)
	}
}

func TestMarkAsRead(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	n := mustCreate(t, svc, "Alice", "hello")

	if err := svc.MarkAsRead(ctx, n.ID, "Bob"); !errors.Is(err, ErrNotRecipient) {
		t.Errorf("expected ErrNotRecipient, got %v", err)
	}

	count, err := svc.GetUnreadCount(ctx, "Alice")
	if err != nil {
		t.Fatalf("GetUnreadCount: %v", err)
	}
	if count != 1 {
		t.Errorf("unread count = %d, want 1", count)
	}

	if err := svc.MarkAsRead(ctx, n.ID, "Alice"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}

	got, err := svc.GetByID(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsRead {
		t.Error("notification should be read")
	}

	count, err = svc.GetUnreadCount(ctx, "Alice")
	if err != nil {
		t.Fatalf("GetUnreadCount: %v", err)
	}
	if count != 0 {
		t.Errorf("unread count = %d, want 0", count)
	}

	if err := svc.MarkAsRead(ctx, "missing", "Alice"); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestMarkAllAsRead(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, "Alice", "one")
	mustCreate(t, svc, "Alice", "two")
	mustCreate(t, svc, "Bob", "three")

	if err := svc.MarkAllAsRead(ctx, "Alice"); err != nil {
		t.Fatalf("MarkAllAsRead: %v", err)
	}

	aliceCount, err := svc.GetUnreadCount(ctx, "Alice")
	if err != nil {
		t.Fatalf("GetUnreadCount: %v", err)
	}
	if aliceCount != 0 {
		t.Errorf("Alice unread = %d, want 0", aliceCount)
	}

	bobCount, err := svc.GetUnreadCount(ctx, "Bob")
	if err != nil {
		t.Fatalf("GetUnreadCount: %v", err)
	}
	if bobCount != 1 {
		t.Errorf("Bob unread = %d, want 1", bobCount)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc := newTestService()

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestNotifyBillLocked(t *testing.T) {
	svc := newTestService()

	n, err := svc.NotifyBillLocked(context.Background(), "Alice", "Dinner", "$14.00", "bill-1")
	if err != nil {
		t.Fatalf("NotifyBillLocked: %v", err)
	}

	if n.Recipient != "Alice" {
		t.Errorf("Recipient = %q, want Alice", n.Recipient)
	}
	if n.BillID == nil || *n.BillID != "bill-1" {
		t.Errorf("BillID = %v, want bill-1", n.BillID)
	}
	want := "Dinner was finalized. Your share is $14.00"
	if n.Message != want {
		t.Errorf("Message = %q, want %q", n.Message, want)
	}
}
