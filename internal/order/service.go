package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/devshad-01/alx-project-nexus/internal/cart"
	"github.com/devshad-01/alx-project-nexus/internal/catalog"
	"github.com/devshad-01/alx-project-nexus/internal/inventory"
)

// Service orchestrates checkout and the order lifecycle. Checkout is the
// one multi-step operation in the system that must be all-or-nothing: the
// repository runs reservation, numbering, inserts and cart clearing in a
// single transaction, so any failure leaves stock, orders and the cart
// exactly as they were.
type Service struct {
	orders Repository
	carts  cart.Repository
	cache  *cart.SummaryCache
	log    *zap.Logger
}

func NewService(orders Repository, carts cart.Repository, cache *cart.SummaryCache, log *zap.Logger) *Service {
	return &Service{orders: orders, carts: carts, cache: cache, log: log}
}

func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*Order, []Item, error) {
	if err := req.ShippingAddress.Validate(); err != nil {
		return nil, nil, err
	}

	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.carts.ItemsWithProducts(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 {
		return nil, nil, ErrEmptyCart
	}

	// advisory pass for structured errors before any lock is taken; the
	// repository re-reads the cart under its row lock and is the authority
	// on what actually gets ordered
	for i := range lines {
		d := &lines[i]
		if !d.ProductActive {
			return nil, nil, &catalog.ProductUnavailableError{ProductID: d.ProductID}
		}
		if d.StockQuantity < d.Quantity {
			return nil, nil, &inventory.InsufficientStockError{
				ProductID: d.ProductID,
				Requested: d.Quantity,
				Available: d.StockQuantity,
			}
		}
	}

	o := &Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          StatusPending,
		TotalAmount:     decimal.Zero,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	}
	items, err := s.orders.Create(ctx, o, c.ID)
	if err != nil {
		return nil, nil, err
	}
	s.cache.Invalidate(ctx, userID)

	s.log.Info("order created",
		zap.String("order_number", o.OrderNumber),
		zap.String("user_id", userID),
		zap.Int("lines", len(items)),
		zap.String("total", o.TotalAmount.StringFixed(2)))
	return o, items, nil
}

// Get returns an order visible to the caller: owners see their own orders,
// admins see all.
func (s *Service) Get(ctx context.Context, userID string, isAdmin bool, number string) (*Order, []Item, error) {
	o, items, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, nil, err
	}
	if !isAdmin && o.UserID != userID {
		// do not leak other users' order numbers
		return nil, nil, ErrNotFound
	}
	return o, items, nil
}

func (s *Service) ListMine(ctx context.Context, userID string, f ListFilter) ([]Order, error) {
	f.UserID = userID
	return s.orders.List(ctx, f)
}

func (s *Service) ListAll(ctx context.Context, isAdmin bool, f ListFilter) ([]Order, error) {
	if !isAdmin {
		return nil, ErrPermissionDenied
	}
	return s.orders.List(ctx, f)
}

// Cancel lets the owner (or an admin) cancel an order that has not shipped.
// Restock happens inside the repository transaction together with the
// status flip.
func (s *Service) Cancel(ctx context.Context, userID string, isAdmin bool, number string) (*Order, error) {
	if _, _, err := s.Get(ctx, userID, isAdmin, number); err != nil {
		return nil, err
	}
	updated, err := s.orders.Transition(ctx, number, StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.log.Info("order cancelled",
		zap.String("order_number", number),
		zap.String("user_id", userID),
		zap.Bool("admin", isAdmin))
	return updated, nil
}

// UpdateStatus drives arbitrary legal transitions; admins only. Owners use
// Cancel, the one transition they are allowed.
func (s *Service) UpdateStatus(ctx context.Context, isAdmin bool, number string, to Status) (*Order, error) {
	if !isAdmin {
		return nil, ErrPermissionDenied
	}
	o, err := s.orders.Transition(ctx, number, to)
	if err != nil {
		return nil, err
	}
	s.log.Info("order status updated",
		zap.String("order_number", number),
		zap.String("status", string(to)))
	return o, nil
}

// StatsFor returns the caller's statistics, or global statistics for an
// admin.
func (s *Service) StatsFor(ctx context.Context, userID string, isAdmin bool) (*Stats, error) {
	scope := userID
	if isAdmin {
		scope = ""
	}
	return s.orders.Stats(ctx, scope)
}
