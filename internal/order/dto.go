package order

// CheckoutRequest converts the caller's cart into an order.
// swagger:model CheckoutRequest
type CheckoutRequest struct {
	ShippingAddress Address  `json:"shipping_address"`
	BillingAddress  *Address `json:"billing_address,omitempty"`
	PaymentMethod   string   `json:"payment_method" example:"card"`
	Notes           string   `json:"notes,omitempty"`
}

// UpdateStatusRequest drives an admin status transition.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status Status `json:"status" example:"confirmed"`
}
