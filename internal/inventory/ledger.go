// Package inventory is the single writer of products.stock_quantity. Every
// stock mutation (checkout reservation, cancellation restock, admin restock)
// goes through Reserve/Restore; no other component touches the column.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// InsufficientStockError reports which product could not be reserved and how
// much stock was actually available when the row lock was held.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Reserve decrements stock inside the caller's transaction. The SELECT ...
// FOR UPDATE serializes concurrent checkouts on the same product row: of two
// reservations whose combined demand exceeds stock, exactly one fails.
// The caller must roll back its whole transaction on error.
func Reserve(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	var available int
	err := tx.QueryRow(ctx, `
		SELECT stock_quantity FROM products WHERE id=$1 FOR UPDATE
	`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return err
	}
	if available < quantity {
		return &InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
	}
	_, err = tx.Exec(ctx, `
		UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = NOW() WHERE id=$1
	`, productID, quantity)
	return err
}

// Restore increments stock inside the caller's transaction. There is no
// upper bound on stock, so this cannot fail on quantity grounds.
func Restore(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	cmd, err := tx.Exec(ctx, `
		UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = NOW() WHERE id=$1
	`, productID, quantity)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Ledger wraps standalone stock adjustments that are not part of a larger
// transaction, e.g. an admin restock.
type Ledger struct{ db *pgxpool.Pool }

func NewLedger(db *pgxpool.Pool) *Ledger { return &Ledger{db: db} }

func (l *Ledger) Credit(ctx context.Context, productID string, quantity int) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := Restore(ctx, tx, productID, quantity); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
