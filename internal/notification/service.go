package notification

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Service handles notification business logic
type Service struct {
	store Store
}

// NewService creates a new notification service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create creates a new notification
func (s *Service) Create(ctx context.Context, recipient, message string, billID *string) (*Notification, error) {
	return s.store.Create(ctx, recipient, message, billID)
}

// GetByID retrieves a notification by its ID
func (s *Service) GetByID(ctx context.Context, id string) (*Notification, error) {
	notification, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// ListByRecipient retrieves notifications for a participant
func (s *Service) ListByRecipient(ctx context.Context, recipient string, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.store.ListByRecipient(ctx, recipient, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, recipient string) error {
	notification, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if notification == nil {
		return ErrNotificationNotFound
	}
	if notification.Recipient != recipient {
		return ErrNotRecipient
	}

	return s.store.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a participant
func (s *Service) MarkAllAsRead(ctx context.Context, recipient string) error {
	return s.store.MarkAllAsRead(ctx, recipient)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, recipient string) (int, error) {
	return s.store.GetUnreadCount(ctx, recipient)
}

// NotifyBillLocked records that a bill was finalized and tells the recipient
// their share of the total.
func (s *Service) NotifyBillLocked(ctx context.Context, recipient, billTitle, amount, billID string) (*Notification, error) {
	message := billTitle + " was finalized. Your share is " + amount
	return s.store.Create(ctx, recipient, message, &billID)
}
