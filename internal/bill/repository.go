package bill

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// Store defines the persistence operations the bill service depends on.
// The postgres Repository implements it; tests substitute an in-memory fake.
type Store interface {
	CreateBill(ctx context.Context, b *Bill, items []*Item, shares []*Share) error
	GetBill(ctx context.Context, id string) (*Detail, error)
	UpdateBill(ctx context.Context, id string, update BillUpdate) (*Bill, error)
	SetPayer(ctx context.Context, id string, shareID *string) (*Bill, error)
	SetLocked(ctx context.Context, id string, locked bool) (*Bill, error)
	DeleteBill(ctx context.Context, id string) error

	AddItem(ctx context.Context, item *Item) (*Item, error)
	UpdateItem(ctx context.Context, billID, itemID string, update ItemUpdate) (*Item, error)
	DeleteItem(ctx context.Context, billID, itemID string) error

	AddShare(ctx context.Context, share *Share) (*Share, error)
	DeleteShare(ctx context.Context, billID, shareID string) error

	UpsertClaim(ctx context.Context, billID string, claim *Claim) (*Claim, error)
	DeleteClaim(ctx context.Context, billID, shareID, itemID string) (bool, error)
}

// BillUpdate carries a partial update of the fields frozen by locking.
// The payer is updated separately via SetPayer because it stays writable
// on locked bills.
type BillUpdate struct {
	Title     *string
	TaxAmount *decimal.Decimal
	TipAmount *decimal.Decimal
}

// ItemUpdate carries a partial update of one item
type ItemUpdate struct {
	Name     *string
	Price    *decimal.Decimal
	Quantity *int64
}

// Ensure Repository implements Store
var _ Store = (*Repository)(nil)

// Repository handles bill data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new bill repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// lockBillForWrite takes a row lock on the bill and rejects the write if the
// bill is locked. Every mutation runs through this inside its transaction so
// a claim can never slip in after the bill was observed locked.
func lockBillForWrite(ctx context.Context, tx *sql.Tx, billID string) error {
	var locked bool
	err := tx.QueryRowContext(ctx, `SELECT locked FROM bills WHERE id = $1 FOR UPDATE`, billID).Scan(&locked)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrBillNotFound
		}
		return fmt.Errorf("failed to check bill lock: %w", err)
	}
	if locked {
		return ErrBillLocked
	}
	return nil
}

// nullDecimal converts an optional decimal into a driver-level NULL when unset
func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// CreateBill inserts a bill together with its initial items and shares
func (r *Repository) CreateBill(ctx context.Context, b *Bill, items []*Item, shares []*Share) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bills (id, title, currency, tax_amount, tip_amount, paid_by_share_id, locked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	if err := tx.QueryRowContext(ctx, query,
		b.ID,
		b.Title,
		b.Currency,
		b.TaxAmount,
		b.TipAmount,
		b.PaidByShareID,
		b.Locked,
	).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}

	for _, item := range items {
		if err := insertItem(ctx, tx, item); err != nil {
			return err
		}
	}
	for _, share := range shares {
		if err := insertShare(ctx, tx, share); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func insertItem(ctx context.Context, tx *sql.Tx, item *Item) error {
	query := `
		INSERT INTO items (id, bill_id, name, price, quantity, position)
		VALUES ($1, $2, $3, $4, $5, COALESCE((SELECT MAX(position) + 1 FROM items WHERE bill_id = $2), 0))
		RETURNING position
	`
	if err := tx.QueryRowContext(ctx, query,
		item.ID,
		item.BillID,
		item.Name,
		item.Price,
		item.Quantity,
	).Scan(&item.Position); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func insertShare(ctx context.Context, tx *sql.Tx, share *Share) error {
	query := `
		INSERT INTO shares (id, bill_id, name, position)
		VALUES ($1, $2, $3, COALESCE((SELECT MAX(position) + 1 FROM shares WHERE bill_id = $2), 0))
		RETURNING position
	`
	if err := tx.QueryRowContext(ctx, query,
		share.ID,
		share.BillID,
		share.Name,
	).Scan(&share.Position); err != nil {
		return fmt.Errorf("failed to create share: %w", err)
	}
	return nil
}

// GetBill retrieves a bill with its items, shares and claims
func (r *Repository) GetBill(ctx context.Context, id string) (*Detail, error) {
	query := `
		SELECT id, title, currency, tax_amount, tip_amount, paid_by_share_id, locked, created_at, updated_at
		FROM bills
		WHERE id = $1
	`

	b := &Bill{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID,
		&b.Title,
		&b.Currency,
		&b.TaxAmount,
		&b.TipAmount,
		&b.PaidByShareID,
		&b.Locked,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	shares, err := r.listShares(ctx, id)
	if err != nil {
		return nil, err
	}
	claims, err := r.listClaims(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Detail{Bill: b, Items: items, Shares: shares, Claims: claims}, nil
}

func (r *Repository) listItems(ctx context.Context, billID string) ([]*Item, error) {
	query := `
		SELECT id, bill_id, name, price, quantity, position
		FROM items
		WHERE bill_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item := &Item{}
		if err := rows.Scan(
			&item.ID,
			&item.BillID,
			&item.Name,
			&item.Price,
			&item.Quantity,
			&item.Position,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}

func (r *Repository) listShares(ctx context.Context, billID string) ([]*Share, error) {
	query := `
		SELECT id, bill_id, name, position
		FROM shares
		WHERE bill_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	defer rows.Close()

	var shares []*Share
	for rows.Next() {
		share := &Share{}
		if err := rows.Scan(
			&share.ID,
			&share.BillID,
			&share.Name,
			&share.Position,
		); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, share)
	}

	return shares, nil
}

func (r *Repository) listClaims(ctx context.Context, billID string) ([]*Claim, error) {
	query := `
		SELECT c.share_id, c.item_id, c.portion, c.updated_at
		FROM claims c
		JOIN items i ON c.item_id = i.id
		WHERE i.bill_id = $1
		ORDER BY i.position, c.updated_at
	`

	rows, err := r.db.QueryContext(ctx, query, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*Claim
	for rows.Next() {
		claim := &Claim{}
		if err := rows.Scan(
			&claim.ShareID,
			&claim.ItemID,
			&claim.Portion,
			&claim.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}

	return claims, nil
}

// UpdateBill applies a partial update to the calculation-relevant bill fields
func (r *Repository) UpdateBill(ctx context.Context, id string, update BillUpdate) (*Bill, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockBillForWrite(ctx, tx, id); err != nil {
		return nil, err
	}

	query := `
		UPDATE bills
		SET title = COALESCE($2, title),
		    tax_amount = COALESCE($3, tax_amount),
		    tip_amount = COALESCE($4, tip_amount),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, title, currency, tax_amount, tip_amount, paid_by_share_id, locked, created_at, updated_at
	`

	b := &Bill{}
	err = tx.QueryRowContext(ctx, query,
		id,
		update.Title,
		nullDecimal(update.TaxAmount),
		nullDecimal(update.TipAmount),
	).Scan(
		&b.ID,
		&b.Title,
		&b.Currency,
		&b.TaxAmount,
		&b.TipAmount,
		&b.PaidByShareID,
		&b.Locked,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return b, nil
}

// SetPayer records which share fronted the money. Allowed on locked bills
// since it does not affect the computed splits.
func (r *Repository) SetPayer(ctx context.Context, id string, shareID *string) (*Bill, error) {
	query := `
		UPDATE bills
		SET paid_by_share_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, title, currency, tax_amount, tip_amount, paid_by_share_id, locked, created_at, updated_at
	`

	b := &Bill{}
	err := r.db.QueryRowContext(ctx, query, id, shareID).Scan(
		&b.ID,
		&b.Title,
		&b.Currency,
		&b.TaxAmount,
		&b.TipAmount,
		&b.PaidByShareID,
		&b.Locked,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to set payer: %w", err)
	}

	return b, nil
}

// SetLocked flips the bill's locked flag
func (r *Repository) SetLocked(ctx context.Context, id string, locked bool) (*Bill, error) {
	query := `
		UPDATE bills
		SET locked = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, title, currency, tax_amount, tip_amount, paid_by_share_id, locked, created_at, updated_at
	`

	b := &Bill{}
	err := r.db.QueryRowContext(ctx, query, id, locked).Scan(
		&b.ID,
		&b.Title,
		&b.Currency,
		&b.TaxAmount,
		&b.TipAmount,
		&b.PaidByShareID,
		&b.Locked,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to set locked: %w", err)
	}

	return b, nil
}

// DeleteBill deletes a bill; items, shares and claims cascade
func (r *Repository) DeleteBill(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrBillNotFound
	}

	return nil
}

// AddItem appends an item to an unlocked bill
func (r *Repository) AddItem(ctx context.Context, item *Item) (*Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockBillForWrite(ctx, tx, item.BillID); err != nil {
		return nil, err
	}
	if err := insertItem(ctx, tx, item); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return item, nil
}

// UpdateItem applies a partial update to one item on an unlocked bill
func (r *Repository) UpdateItem(ctx context.Context, billID, itemID string, update ItemUpdate) (*Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockBillForWrite(ctx, tx, billID); err != nil {
		return nil, err
	}

	query := `
		UPDATE items
		SET name = COALESCE($3, name),
		    price = COALESCE($4, price),
		    quantity = COALESCE($5, quantity)
		WHERE bill_id = $1 AND id = $2
		RETURNING id, bill_id, name, price, quantity, position
	`

	item := &Item{}
	err = tx.QueryRowContext(ctx, query,
		billID,
		itemID,
		update.Name,
		nullDecimal(update.Price),
		update.Quantity,
	).Scan(
		&item.ID,
		&item.BillID,
		&item.Name,
		&item.Price,
		&item.Quantity,
		&item.Position,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return item, nil
}

// DeleteItem removes an item from an unlocked bill; its claims cascade
func (r *Repository) DeleteItem(ctx context.Context, billID, itemID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockBillForWrite(ctx, tx, billID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE bill_id = $1 AND id = $2`, billID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// AddShare appends a participant to an unlocked bill
func (r *Repository) AddShare(ctx context.Context, share *Share) (*Share, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockBillForWrite(ctx, tx, share.BillID); err != nil {
		return nil, err
	}
	if err := insertShare(ctx, tx, share); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return share, nil
}

// DeleteShare removes a participant from an unlocked bill. Their claims
// cascade and the bill's payer reference is cleared if it pointed at them.
func (r *Repository) DeleteShare(ctx context.Context, billID, shareID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockBillForWrite(ctx, tx, billID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM shares WHERE bill_id = $1 AND id = $2`, billID, shareID)
	if err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrShareNotFound
	}

	_, err = tx.ExecContext(ctx, `UPDATE bills SET paid_by_share_id = NULL WHERE id = $1 AND paid_by_share_id = $2`, billID, shareID)
	if err != nil {
		return fmt.Errorf("failed to clear payer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpsertClaim creates or replaces the claim for a (share, item) pair. The
// conflict target is the pair's primary key, which keeps the at-most-one-claim
// invariant under concurrent writes.
func (r *Repository) UpsertClaim(ctx context.Context, billID string, claim *Claim) (*Claim, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockBillForWrite(ctx, tx, billID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO claims (share_id, item_id, portion, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (share_id, item_id) DO UPDATE SET portion = EXCLUDED.portion, updated_at = NOW()
		RETURNING share_id, item_id, portion, updated_at
	`

	if err := tx.QueryRowContext(ctx, query,
		claim.ShareID,
		claim.ItemID,
		claim.Portion,
	).Scan(
		&claim.ShareID,
		&claim.ItemID,
		&claim.Portion,
		&claim.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return claim, nil
}

// DeleteClaim removes the claim for a (share, item) pair, reporting whether
// one existed
func (r *Repository) DeleteClaim(ctx context.Context, billID, shareID, itemID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockBillForWrite(ctx, tx, billID); err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE share_id = $1 AND item_id = $2`, shareID, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to delete claim: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return rowsAffected > 0, nil
}
