package cart

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/devshad-01/alx-project-nexus/internal/catalog"
	"github.com/devshad-01/alx-project-nexus/internal/inventory"
)

// Service holds the cart business rules. Stock checks here are advisory:
// nothing is reserved until checkout, they only keep carts honest against
// the catalog's current state.
type Service struct {
	carts    Repository
	products catalog.Repository
	cache    *SummaryCache
	log      *zap.Logger
}

func NewService(carts Repository, products catalog.Repository, cache *SummaryCache, log *zap.Logger) *Service {
	return &Service{carts: carts, products: products, cache: cache, log: log}
}

func (s *Service) Get(ctx context.Context, userID string) (*Cart, []ItemDetail, Summary, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, nil, Summary{}, err
	}
	items, err := s.carts.ItemsWithProducts(ctx, c.ID)
	if err != nil {
		return nil, nil, Summary{}, err
	}
	return c, items, ComputeSummary(items), nil
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*ItemDetail, error) {
	if quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, &catalog.ProductUnavailableError{ProductID: productID}
	}

	existing := 0
	if it, err := s.carts.ItemByProduct(ctx, c.ID, productID); err == nil {
		existing = it.Quantity
	} else if !errors.Is(err, ErrItemNotFound) {
		return nil, err
	}
	if existing+quantity > p.StockQuantity {
		return nil, &inventory.InsufficientStockError{
			ProductID: productID,
			Requested: existing + quantity,
			Available: p.StockQuantity,
		}
	}

	it, err := s.carts.UpsertItem(ctx, c.ID, productID, quantity)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID)
	s.log.Info("cart item added",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("quantity", it.Quantity))

	return &ItemDetail{
		Item:          *it,
		ProductName:   p.Name,
		UnitPrice:     p.Price,
		StockQuantity: p.StockQuantity,
		ProductActive: p.IsActive,
	}, nil
}

// UpdateItem sets a line's quantity. Zero or negative quantity is a
// removal, not an error.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (removed bool, err error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}
	d, err := s.carts.ItemByID(ctx, c.ID, itemID)
	if err != nil {
		return false, err
	}
	if quantity <= 0 {
		if err := s.carts.DeleteItem(ctx, d.ID); err != nil {
			return false, err
		}
		s.cache.Invalidate(ctx, userID)
		return true, nil
	}
	if quantity > d.StockQuantity {
		return false, &inventory.InsufficientStockError{
			ProductID: d.ProductID,
			Requested: quantity,
			Available: d.StockQuantity,
		}
	}
	if err := s.carts.SetItemQuantity(ctx, d.ID, quantity); err != nil {
		return false, err
	}
	s.cache.Invalidate(ctx, userID)
	return false, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	d, err := s.carts.ItemByID(ctx, c.ID, itemID)
	if err != nil {
		return err
	}
	if err := s.carts.DeleteItem(ctx, d.ID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID string) (int64, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, err
	}
	n, err := s.carts.Clear(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx, userID)
	s.log.Info("cart cleared", zap.String("user_id", userID), zap.Int64("items_removed", n))
	return n, nil
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	if cached, ok := s.cache.Get(ctx, userID); ok {
		return *cached, nil
	}
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	items, err := s.carts.ItemsWithProducts(ctx, c.ID)
	if err != nil {
		return Summary{}, err
	}
	sum := ComputeSummary(items)
	s.cache.Set(ctx, userID, sum)
	return sum, nil
}

// Validate is the checkout dry-run: it reports everything that would make
// a checkout fail right now, without reserving anything.
func (s *Service) Validate(ctx context.Context, userID string) (*ValidationReport, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.carts.ItemsWithProducts(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	report := ValidationReport{Valid: true}
	sum := ComputeSummary(items)
	report.TotalAmount = sum.TotalAmount
	report.ItemCount = len(items)

	if len(items) == 0 {
		report.Valid = false
		report.Issues = append(report.Issues, ValidationIssue{Reason: "cart is empty"})
		return &report, nil
	}
	for i := range items {
		d := &items[i]
		switch {
		case !d.ProductActive:
			report.Valid = false
			report.Issues = append(report.Issues, ValidationIssue{
				ProductID:   d.ProductID,
				ProductName: d.ProductName,
				Reason:      "product is no longer available",
			})
		case d.StockQuantity < d.Quantity:
			report.Valid = false
			report.Issues = append(report.Issues, ValidationIssue{
				ProductID:   d.ProductID,
				ProductName: d.ProductName,
				Reason:      "insufficient stock",
				Requested:   d.Quantity,
				Available:   d.StockQuantity,
			})
		}
	}
	return &report, nil
}
