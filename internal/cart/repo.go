package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound = errors.New("cart item not found")
)

type Repository interface {
	GetOrCreate(ctx context.Context, userID string) (*Cart, error)
	ItemsWithProducts(ctx context.Context, cartID string) ([]ItemDetail, error)
	ItemByID(ctx context.Context, cartID, itemID string) (*ItemDetail, error)
	ItemByProduct(ctx context.Context, cartID, productID string) (*Item, error)
	UpsertItem(ctx context.Context, cartID, productID string, quantity int) (*Item, error)
	SetItemQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteItem(ctx context.Context, itemID string) error
	Clear(ctx context.Context, cartID string) (int64, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// GetOrCreate is idempotent under concurrent first access: the unique
// constraint on user_id makes the racing insert a no-op, and the re-read
// returns whichever row won.
func (r *PGRepo) GetOrCreate(ctx context.Context, userID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.db.Exec(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1,$2,NOW(),NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.NewString(), userID); err != nil {
		return nil, err
	}

	var c Cart
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id=$1
	`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const itemDetailCols = `
	ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.added_at, ci.updated_at,
	p.name, p.price::text, p.stock_quantity, p.is_active
`

func scanItemDetail(row pgx.Row) (*ItemDetail, error) {
	var d ItemDetail
	var price string
	if err := row.Scan(&d.ID, &d.CartID, &d.ProductID, &d.Quantity, &d.AddedAt, &d.UpdatedAt,
		&d.ProductName, &price, &d.StockQuantity, &d.ProductActive); err != nil {
		return nil, err
	}
	var err error
	if d.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PGRepo) ItemsWithProducts(ctx context.Context, cartID string) ([]ItemDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+itemDetailCols+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id=$1
		ORDER BY ci.added_at
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemDetail
	for rows.Next() {
		d, err := scanItemDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *PGRepo) ItemByID(ctx context.Context, cartID, itemID string) (*ItemDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	d, err := scanItemDetail(r.db.QueryRow(ctx, `
		SELECT `+itemDetailCols+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id=$1 AND ci.cart_id=$2
	`, itemID, cartID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *PGRepo) ItemByProduct(ctx context.Context, cartID, productID string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var it Item
	err := r.db.QueryRow(ctx, `
		SELECT id, cart_id, product_id, quantity, added_at, updated_at
		FROM cart_items WHERE cart_id=$1 AND product_id=$2
	`, cartID, productID).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.AddedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &it, nil
}

// UpsertItem adds quantity to an existing (cart, product) line or creates
// it. The unique constraint on (cart_id, product_id) is what guarantees a
// second add merges instead of duplicating the row.
func (r *PGRepo) UpsertItem(ctx context.Context, cartID, productID string, quantity int) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var it Item
	err := r.db.QueryRow(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, added_at, updated_at)
		VALUES ($1,$2,$3,$4,NOW(),NOW())
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, cart_id, product_id, quantity, added_at, updated_at
	`, uuid.NewString(), cartID, productID, quantity).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.AddedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := r.touch(ctx, cartID); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PGRepo) SetItemQuantity(ctx context.Context, itemID string, quantity int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE cart_items SET quantity=$2, updated_at=NOW() WHERE id=$1
	`, itemID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PGRepo) DeleteItem(ctx context.Context, itemID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id=$1`, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PGRepo) Clear(ctx context.Context, cartID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID)
	if err != nil {
		return 0, err
	}
	if err := r.touch(ctx, cartID); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepo) touch(ctx context.Context, cartID string) error {
	_, err := r.db.Exec(ctx, `UPDATE carts SET updated_at=NOW() WHERE id=$1`, cartID)
	return err
}
