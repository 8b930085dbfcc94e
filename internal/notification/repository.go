package notification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Store defines the persistence operations the notification service depends on.
// The postgres Repository implements it; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, recipient, message string, billID *string) (*Notification, error)
	GetByID(ctx context.Context, id string) (*Notification, error)
	ListByRecipient(ctx context.Context, recipient string, limit, offset int, unreadOnly bool) ([]*Notification, int, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context, recipient string) error
	GetUnreadCount(ctx context.Context, recipient string) (int, error)
}

// Ensure Repository implements Store
var _ Store = (*Repository)(nil)

// Repository handles notification data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new notification repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new notification into the database
func (r *Repository) Create(ctx context.Context, recipient, message string, billID *string) (*Notification, error) {
	query := `
		INSERT INTO notifications (id, recipient, bill_id, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, recipient, bill_id, message, is_read, created_at
	`

	notification := &Notification{}
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), recipient, billID, message).Scan(
		&notification.ID,
		&notification.Recipient,
		&notification.BillID,
		&notification.Message,
		&notification.IsRead,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notification, nil
}

// GetByID retrieves a notification by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Notification, error) {
	query := `
		SELECT id, recipient, bill_id, message, is_read, created_at
		FROM notifications
		WHERE id = $1
	`

	notification := &Notification{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&notification.ID,
		&notification.Recipient,
		&notification.BillID,
		&notification.Message,
		&notification.IsRead,
		&notification.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return notification, nil
}

// ListByRecipient retrieves notifications for a participant, newest first
func (r *Repository) ListByRecipient(ctx context.Context, recipient string, limit, offset int, unreadOnly bool) ([]*Notification, int, error) {
	// Get total count
	var total int
	countQuery := `SELECT COUNT(*) FROM notifications WHERE recipient = $1`
	if unreadOnly {
		countQuery += ` AND is_read = false`
	}
	if err := r.db.QueryRowContext(ctx, countQuery, recipient).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	// Get notifications
	query := `
		SELECT id, recipient, bill_id, message, is_read, created_at
		FROM notifications
		WHERE recipient = $1
	`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, recipient, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		notification := &Notification{}
		if err := rows.Scan(
			&notification.ID,
			&notification.Recipient,
			&notification.BillID,
			&notification.Message,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, notification)
	}

	return notifications, total, nil
}

// MarkAsRead marks a notification as read
func (r *Repository) MarkAsRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET is_read = true WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks all notifications as read for a participant
func (r *Repository) MarkAllAsRead(ctx context.Context, recipient string) error {
	query := `UPDATE notifications SET is_read = true WHERE recipient = $1 AND is_read = false`
	_, err := r.db.ExecContext(ctx, query, recipient)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

// GetUnreadCount returns the count of unread notifications for a participant
func (r *Repository) GetUnreadCount(ctx context.Context, recipient string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient = $1 AND is_read = false`
	if err := r.db.QueryRowContext(ctx, query, recipient).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
