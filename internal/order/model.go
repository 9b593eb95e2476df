package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("order not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrPermissionDenied = errors.New("permission denied")
)

// Address is the structured shipping/billing shape stored as JSONB.
// Street, city and country are required for shipping.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

// InvalidAddressError names the first missing required field.
type InvalidAddressError struct {
	Field string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("shipping address must include %s", e.Field)
}

func (a *Address) Validate() error {
	switch {
	case a == nil || a.Street == "":
		return &InvalidAddressError{Field: "street"}
	case a.City == "":
		return &InvalidAddressError{Field: "city"}
	case a.Country == "":
		return &InvalidAddressError{Field: "country"}
	}
	return nil
}

type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id"`
	Status      Status `json:"status"`
	// frozen at creation; never recomputed from items afterward
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress Address         `json:"shipping_address"`
	BillingAddress  *Address        `json:"billing_address,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Item is a price-frozen snapshot of one cart line. UnitPrice never tracks
// later catalog price changes; that is what keeps old orders auditable.
type Item struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Stats summarizes order counts and spend, per status.
// swagger:model OrderStats
type Stats struct {
	TotalOrders int             `json:"total_orders"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ByStatus    map[Status]int  `json:"status_breakdown"`
}
