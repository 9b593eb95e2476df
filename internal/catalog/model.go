package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// NUMERIC(10,2) in Postgres; decimal avoids float drift in totals
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsAvailable reports whether the product can be purchased at all.
func (p *Product) IsAvailable() bool {
	return p.IsActive && p.StockQuantity > 0
}

// ProductUnavailableError is returned when a cart or checkout operation
// references a product that has been deactivated.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is not available for purchase", e.ProductID)
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name        string `json:"name"        example:"Mechanical Keyboard"`
	Description string `json:"description" example:"RGB 60%"`
	Price       string `json:"price"       example:"199.90"`
	Stock       int    `json:"stock"       example:"10"`
}

// UpdateProductRequest payload of partial update. Stock is adjusted through
// the inventory endpoints, never here.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	Q      string    `json:"q,omitempty"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Items  []Product `json:"items"`
}
