package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/devshad-01/alx-project-nexus/internal/catalog"
	"github.com/devshad-01/alx-project-nexus/internal/inventory"
)

type ListFilter struct {
	UserID string // empty means all users (admin listing)
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	// Create turns the cart into an order in one transaction: it locks the
	// cart row, re-reads the lines and product state under that lock,
	// reserves stock, prices the items and removes exactly the lines it
	// consumed. It fills in OrderNumber, TotalAmount and timestamps on
	// success and returns the priced items.
	Create(ctx context.Context, o *Order, cartID string) ([]Item, error)
	GetByNumber(ctx context.Context, number string) (*Order, []Item, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)
	// Transition applies a validated status change; a transition into
	// cancelled restores stock for every line in the same transaction.
	Transition(ctx context.Context, number string, to Status) (*Order, error)
	Stats(ctx context.Context, userID string) (*Stats, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// cartLine is the in-transaction view of one cart line joined with its
// product.
type cartLine struct {
	itemID    string
	productID string
	quantity  int
	unitPrice decimal.Decimal
	active    bool
}

// readCartLines locks the cart row, then reads its lines with current
// product price and activity. The lock serializes checkouts of the same
// cart: a concurrent checkout blocks here and then sees the emptied cart.
func readCartLines(ctx context.Context, tx pgx.Tx, cartID string) ([]cartLine, error) {
	var locked string
	if err := tx.QueryRow(ctx, `
		SELECT id FROM carts WHERE id=$1 FOR UPDATE
	`, cartID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT ci.id, ci.product_id, ci.quantity, p.price::text, p.is_active
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id=$1
		ORDER BY ci.added_at
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []cartLine
	for rows.Next() {
		var l cartLine
		var price string
		if err := rows.Scan(&l.itemID, &l.productID, &l.quantity, &price, &l.active); err != nil {
			return nil, err
		}
		if l.unitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *PGRepo) Create(ctx context.Context, o *Order, cartID string) ([]Item, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// the lines read under the cart lock are the authority; whatever the
	// caller saw before the transaction opened is advisory
	lines, err := readCartLines(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	o.TotalAmount = decimal.Zero
	items := make([]Item, 0, len(lines))
	consumed := make([]string, 0, len(lines))
	for i := range lines {
		l := &lines[i]
		if !l.active {
			return nil, &catalog.ProductUnavailableError{ProductID: l.productID}
		}
		if err := inventory.Reserve(ctx, tx, l.productID, l.quantity); err != nil {
			return nil, err
		}
		it := Item{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: l.productID,
			Quantity:  l.quantity,
			// snapshot: immune to later price changes
			UnitPrice:  l.unitPrice,
			TotalPrice: l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity))),
		}
		o.TotalAmount = o.TotalAmount.Add(it.TotalPrice)
		items = append(items, it)
		consumed = append(consumed, l.itemID)
	}

	number, err := nextOrderNumber(ctx, tx, time.Now())
	if err != nil {
		return nil, err
	}
	o.OrderNumber = number

	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, err
	}
	var billing []byte
	if o.BillingAddress != nil {
		if billing, err = json.Marshal(o.BillingAddress); err != nil {
			return nil, err
		}
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, order_number, user_id, status, total_amount,
		                    shipping_address, billing_address, payment_method, notes,
		                    created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
		RETURNING created_at, updated_at
	`, o.ID, o.OrderNumber, o.UserID, o.Status, o.TotalAmount.StringFixed(2),
		shipping, billing, o.PaymentMethod, o.Notes).
		Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	for i := range items {
		it := &items[i]
		if err := tx.QueryRow(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, total_price, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,NOW())
			RETURNING created_at
		`, it.ID, it.OrderID, it.ProductID, it.Quantity,
			it.UnitPrice.StringFixed(2), it.TotalPrice.StringFixed(2)).
			Scan(&it.CreatedAt); err != nil {
			return nil, err
		}
	}

	// only the consumed lines go; a line added while this transaction ran
	// stays in the cart for the next checkout
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, consumed); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

const orderCols = `
	id, order_number, user_id, status, total_amount::text,
	shipping_address::text, billing_address::text, payment_method, notes,
	created_at, updated_at
`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var total, shipping string
	var billing *string
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &total,
		&shipping, &billing, &o.PaymentMethod, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(shipping), &o.ShippingAddress); err != nil {
		return nil, err
	}
	if billing != nil {
		o.BillingAddress = &Address{}
		if err := json.Unmarshal([]byte(*billing), o.BillingAddress); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

func (r *PGRepo) GetByNumber(ctx context.Context, number string) (*Order, []Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderCols+` FROM orders WHERE order_number=$1
	`, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	items, err := r.itemsFor(ctx, r.db, o.ID)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PGRepo) itemsFor(ctx context.Context, q querier, orderID string) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price::text, total_price::text, created_at
		FROM order_items WHERE order_id=$1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var unit, total string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &unit, &total, &it.CreatedAt); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(unit); err != nil {
			return nil, err
		}
		if it.TotalPrice, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) List(ctx context.Context, f ListFilter) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, f.UserID, string(f.Status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PGRepo) Transition(ctx context.Context, number string, to Status) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// lock the order row so a concurrent transition sees the final status
	o, err := scanOrder(tx.QueryRow(ctx, `
		SELECT `+orderCols+` FROM orders WHERE order_number=$1 FOR UPDATE
	`, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := CanTransition(o.Status, to); err != nil {
		return nil, err
	}
	if o.Status == to {
		return o, tx.Commit(ctx)
	}

	if to == StatusCancelled {
		items, err := r.itemsFor(ctx, tx, o.ID)
		if err != nil {
			return nil, err
		}
		for i := range items {
			if err := inventory.Restore(ctx, tx, items[i].ProductID, items[i].Quantity); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1
		RETURNING updated_at
	`, o.ID, to).Scan(&o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = to

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) Stats(ctx context.Context, userID string) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	st := &Stats{TotalAmount: decimal.Zero, ByStatus: map[Status]int{}}
	for s := range transitions {
		st.ByStatus[s] = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_amount),0)::text
		FROM orders
		WHERE ($1 = '' OR user_id = $1)
		GROUP BY status
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s Status
		var count int
		var sum string
		if err := rows.Scan(&s, &count, &sum); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(sum)
		if err != nil {
			return nil, err
		}
		st.ByStatus[s] = count
		st.TotalOrders += count
		st.TotalAmount = st.TotalAmount.Add(amount)
	}
	return st, rows.Err()
}
