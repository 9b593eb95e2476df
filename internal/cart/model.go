package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is 1:1 with a user and materialized lazily on first access. It is
// never deleted; after checkout it simply persists empty.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cart_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemDetail joins a cart item with the current state of its product.
// Prices here are live catalog prices; they are only frozen into an order
// at checkout.
type ItemDetail struct {
	Item
	ProductName   string          `json:"product_name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity"`
	ProductActive bool            `json:"product_active"`
}

// Available reports whether the line could be checked out right now. Items
// that went unavailable after being added stay in the cart so the user can
// resolve them; they just stop counting toward the total.
func (d *ItemDetail) Available() bool {
	return d.ProductActive && d.StockQuantity >= d.Quantity
}

func (d *ItemDetail) LineTotal() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// Summary aggregates cart totals over available items only.
// swagger:model CartSummary
type Summary struct {
	TotalItems       int             `json:"total_items"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	UnavailableItems int             `json:"unavailable_items"`
}

// ComputeSummary is the single definition of cart totals: an item counts
// only while its product is active and has stock for the requested
// quantity.
func ComputeSummary(items []ItemDetail) Summary {
	s := Summary{TotalAmount: decimal.Zero}
	for i := range items {
		if !items[i].Available() {
			s.UnavailableItems++
			continue
		}
		s.TotalItems += items[i].Quantity
		s.TotalAmount = s.TotalAmount.Add(items[i].LineTotal())
	}
	return s
}

// ValidationIssue describes why one cart line would fail checkout.
type ValidationIssue struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Reason      string `json:"reason"`
	Requested   int    `json:"requested,omitempty"`
	Available   int    `json:"available,omitempty"`
}

// ValidationReport is the checkout dry-run result: no stock is reserved.
// swagger:model CartValidation
type ValidationReport struct {
	Valid       bool              `json:"valid"`
	Issues      []ValidationIssue `json:"issues,omitempty"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	ItemCount   int               `json:"item_count"`
}

// AddItemRequest payload for adding a product to the cart.
// swagger:model AddItemRequest
type AddItemRequest struct {
	ProductID string `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity  int    `json:"quantity"   example:"2"`
}

// UpdateItemRequest payload for changing a cart line quantity. Zero or
// negative removes the line.
// swagger:model UpdateItemRequest
type UpdateItemRequest struct {
	Quantity int `json:"quantity" example:"3"`
}
