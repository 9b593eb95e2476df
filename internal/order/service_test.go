package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devshad-01/alx-project-nexus/internal/cart"
	"github.com/devshad-01/alx-project-nexus/internal/catalog"
	"github.com/devshad-01/alx-project-nexus/internal/inventory"
)

//
// ---------- STUBS ----------
//

type stubProduct struct {
	name   string
	price  decimal.Decimal
	stock  int
	active bool
}

// world is the shared in-memory state behind the cart and order repo
// stubs, standing in for the relational store.
type world struct {
	products map[string]*stubProduct
	cart     *cart.Cart
	lines    map[string]*cart.Item // by item id

	orders     map[string]*Order // by order number
	orderItems map[string][]Item // by order number
	nextSeq    int
}

func newWorld() *world {
	return &world{
		products:   map[string]*stubProduct{},
		lines:      map[string]*cart.Item{},
		orders:     map[string]*Order{},
		orderItems: map[string][]Item{},
	}
}

func (w *world) addProduct(name, price string, stock int, active bool) string {
	id := uuid.NewString()
	w.products[id] = &stubProduct{name: name, price: mustDec(price), stock: stock, active: active}
	return id
}

func (w *world) addLine(productID string, qty int) {
	it := &cart.Item{ID: uuid.NewString(), CartID: "cart-1", ProductID: productID, Quantity: qty}
	w.lines[it.ID] = it
}

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type cartRepoStub struct{ w *world }

func (r *cartRepoStub) GetOrCreate(ctx context.Context, userID string) (*cart.Cart, error) {
	if r.w.cart == nil {
		r.w.cart = &cart.Cart{ID: "cart-1", UserID: userID}
	}
	return r.w.cart, nil
}

func (r *cartRepoStub) ItemsWithProducts(ctx context.Context, cartID string) ([]cart.ItemDetail, error) {
	var out []cart.ItemDetail
	for _, it := range r.w.lines {
		p := r.w.products[it.ProductID]
		out = append(out, cart.ItemDetail{
			Item:          *it,
			ProductName:   p.name,
			UnitPrice:     p.price,
			StockQuantity: p.stock,
			ProductActive: p.active,
		})
	}
	return out, nil
}

func (r *cartRepoStub) ItemByID(ctx context.Context, cartID, itemID string) (*cart.ItemDetail, error) {
	return nil, cart.ErrItemNotFound
}

func (r *cartRepoStub) ItemByProduct(ctx context.Context, cartID, productID string) (*cart.Item, error) {
	return nil, cart.ErrItemNotFound
}

func (r *cartRepoStub) UpsertItem(ctx context.Context, cartID, productID string, quantity int) (*cart.Item, error) {
	return nil, errors.New("not used")
}

func (r *cartRepoStub) SetItemQuantity(ctx context.Context, itemID string, quantity int) error {
	return errors.New("not used")
}

func (r *cartRepoStub) DeleteItem(ctx context.Context, itemID string) error {
	return errors.New("not used")
}

func (r *cartRepoStub) Clear(ctx context.Context, cartID string) (int64, error) {
	n := int64(len(r.w.lines))
	r.w.lines = map[string]*cart.Item{}
	return n, nil
}

// orderRepoStub mimics the transactional repo: the cart lines present at
// Create time are re-read as the authority, and reservation, numbering,
// inserts and line removal all succeed or leave the world untouched.
type orderRepoStub struct{ w *world }

func (r *orderRepoStub) Create(ctx context.Context, o *Order, cartID string) ([]Item, error) {
	if len(r.w.lines) == 0 {
		return nil, ErrEmptyCart
	}
	// all-or-nothing: verify every line before touching any stock
	for _, ln := range r.w.lines {
		p, ok := r.w.products[ln.ProductID]
		if !ok {
			return nil, inventory.ErrProductNotFound
		}
		if !p.active {
			return nil, &catalog.ProductUnavailableError{ProductID: ln.ProductID}
		}
		if p.stock < ln.Quantity {
			return nil, &inventory.InsufficientStockError{
				ProductID: ln.ProductID,
				Requested: ln.Quantity,
				Available: p.stock,
			}
		}
	}

	o.TotalAmount = decimal.Zero
	var items []Item
	for id, ln := range r.w.lines {
		p := r.w.products[ln.ProductID]
		p.stock -= ln.Quantity
		it := Item{
			ID:         uuid.NewString(),
			OrderID:    o.ID,
			ProductID:  ln.ProductID,
			Quantity:   ln.Quantity,
			UnitPrice:  p.price,
			TotalPrice: p.price.Mul(decimal.NewFromInt(int64(ln.Quantity))),
		}
		o.TotalAmount = o.TotalAmount.Add(it.TotalPrice)
		items = append(items, it)
		delete(r.w.lines, id)
	}

	r.w.nextSeq++
	o.OrderNumber = FormatOrderNumber(MonthKey(time.Now()), r.w.nextSeq)
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt

	cp := *o
	r.w.orders[o.OrderNumber] = &cp
	r.w.orderItems[o.OrderNumber] = append([]Item(nil), items...)
	return items, nil
}

func (r *orderRepoStub) GetByNumber(ctx context.Context, number string) (*Order, []Item, error) {
	o, ok := r.w.orders[number]
	if !ok {
		return nil, nil, ErrNotFound
	}
	cp := *o
	return &cp, append([]Item(nil), r.w.orderItems[number]...), nil
}

func (r *orderRepoStub) List(ctx context.Context, f ListFilter) ([]Order, error) {
	var out []Order
	for _, o := range r.w.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *orderRepoStub) Transition(ctx context.Context, number string, to Status) (*Order, error) {
	o, ok := r.w.orders[number]
	if !ok {
		return nil, ErrNotFound
	}
	if err := CanTransition(o.Status, to); err != nil {
		return nil, err
	}
	if o.Status == to {
		cp := *o
		return &cp, nil
	}
	if to == StatusCancelled {
		for _, it := range r.w.orderItems[number] {
			r.w.products[it.ProductID].stock += it.Quantity
		}
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

func (r *orderRepoStub) Stats(ctx context.Context, userID string) (*Stats, error) {
	st := &Stats{TotalAmount: decimal.Zero, ByStatus: map[Status]int{}}
	for _, o := range r.w.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		st.TotalOrders++
		st.TotalAmount = st.TotalAmount.Add(o.TotalAmount)
		st.ByStatus[o.Status]++
	}
	return st, nil
}

func newTestService() (*Service, *world) {
	w := newWorld()
	svc := NewService(&orderRepoStub{w: w}, &cartRepoStub{w: w}, nil, zap.NewNop())
	return svc, w
}

func validAddress() Address {
	return Address{Street: "1 Main St", City: "Nairobi", Country: "KE"}
}

//
// ---------- TESTS ----------
//

func TestCheckout_HappyPath(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "15.00", 5, true)
	b := w.addProduct("B", "7.25", 10, true)
	w.addLine(a, 2)
	w.addLine(b, 4)

	o, items, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "u1", o.UserID)
	// 2*15.00 + 4*7.25 = 59.00
	assert.Equal(t, "59.00", o.TotalAmount.StringFixed(2))
	assert.Len(t, items, 2)
	assert.Regexp(t, `^ORD\d{6}\d{4}$`, o.OrderNumber)

	// stock reserved, cart emptied
	assert.Equal(t, 3, w.products[a].stock)
	assert.Equal(t, 6, w.products[b].stock)
	assert.Empty(t, w.lines)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_InvalidAddress(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "10.00", 5, true)
	w.addLine(a, 1)

	_, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{
		ShippingAddress: Address{Street: "1 Main St", Country: "KE"},
	})

	var addrErr *InvalidAddressError
	require.True(t, errors.As(err, &addrErr))
	assert.Equal(t, "city", addrErr.Field)
	assert.Len(t, w.lines, 1, "cart untouched")
}

func TestCheckout_InactiveProduct(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "10.00", 5, false)
	w.addLine(a, 1)

	_, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})

	var unavail *catalog.ProductUnavailableError
	require.True(t, errors.As(err, &unavail))
	assert.Equal(t, a, unavail.ProductID)
	assert.Equal(t, 5, w.products[a].stock)
	assert.Len(t, w.lines, 1)
}

func TestCheckout_InsufficientStockIsAtomic(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "10.00", 10, true)
	b := w.addProduct("B", "10.00", 2, true)
	w.addLine(a, 5)
	w.addLine(b, 3) // short by one

	_, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})

	var stockErr *inventory.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, b, stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Available)

	// nothing survives the failed checkout: no order, no decrement, cart intact
	assert.Empty(t, w.orders)
	assert.Equal(t, 10, w.products[a].stock)
	assert.Equal(t, 2, w.products[b].stock)
	assert.Len(t, w.lines, 2)
}

func TestCheckout_UnitPriceIsSnapshot(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "50.00", 5, true)
	w.addLine(a, 1)

	o, items, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	// catalog price changes after the order exists
	w.products[a].price = mustDec("70.00")

	_, stored, err := svc.Get(context.Background(), "u1", false, o.OrderNumber)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "50.00", stored[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "50.00", stored[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "50.00", items[0].UnitPrice.StringFixed(2))
}

func TestCheckout_NumbersAreDistinctAndIncreasing(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "10.00", 100, true)

	w.addLine(a, 1)
	first, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	w.addLine(a, 1)
	second, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
	assert.Greater(t, second.OrderNumber, first.OrderNumber)
}

func TestCheckout_ConcurrentCheckoutMintsOneOrder(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "10.00", 10, true)
	w.addLine(a, 2)

	first, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	// a racing checkout serializes behind the first on the cart lock and
	// then sees the already-consumed cart; it must not mint a second order
	// or decrement stock again
	stale := &Order{ID: uuid.NewString(), UserID: "u1", Status: StatusPending, TotalAmount: decimal.Zero,
		ShippingAddress: validAddress()}
	_, err = (&orderRepoStub{w: w}).Create(context.Background(), stale, "cart-1")
	assert.ErrorIs(t, err, ErrEmptyCart)

	assert.Len(t, w.orders, 1)
	assert.Equal(t, 8, w.products[a].stock)
	assert.NotEmpty(t, first.OrderNumber)
}

func TestCancel_RestoresStock(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "10.00", 10, true)
	w.addLine(a, 3)

	o, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)
	require.Equal(t, 7, w.products[a].stock)

	cancelled, err := svc.Cancel(context.Background(), "u1", false, o.OrderNumber)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, w.products[a].stock)
}

func TestCancel_ShippedOrderRejected(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "10.00", 10, true)
	w.addLine(a, 1)

	o, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	for _, s := range []Status{StatusConfirmed, StatusProcessing, StatusShipped} {
		_, err = svc.UpdateStatus(context.Background(), true, o.OrderNumber, s)
		require.NoError(t, err)
	}

	_, err = svc.Cancel(context.Background(), "u1", false, o.OrderNumber)
	var transErr *InvalidTransitionError
	require.True(t, errors.As(err, &transErr))
	assert.Equal(t, StatusShipped, transErr.From)
	assert.Equal(t, 9, w.products[a].stock, "no restock on rejected cancel")
}

func TestUpdateStatus_NonAdminDenied(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "10.00", 10, true)
	w.addLine(a, 1)
	o, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), false, o.OrderNumber, StatusConfirmed)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGet_HidesOtherUsersOrders(t *testing.T) {
	svc, w := newTestService()
	a := w.addProduct("A", "10.00", 10, true)
	w.addLine(a, 1)
	o, _, err := svc.Checkout(context.Background(), "u1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	_, _, err = svc.Get(context.Background(), "intruder", false, o.OrderNumber)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.Get(context.Background(), "intruder", true, o.OrderNumber)
	assert.NoError(t, err, "admin sees all orders")
}

func TestStatsFor_ScopesByCaller(t *testing.T) {
	svc, w := newTestService()
	w.orders["ORD2025080001"] = &Order{UserID: "u1", Status: StatusPending, TotalAmount: mustDec("10.00")}
	w.orders["ORD2025080002"] = &Order{UserID: "u2", Status: StatusDelivered, TotalAmount: mustDec("25.00")}

	mine, err := svc.StatsFor(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.TotalOrders)
	assert.Equal(t, "10.00", mine.TotalAmount.StringFixed(2))

	global, err := svc.StatsFor(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.Equal(t, 2, global.TotalOrders)
	assert.Equal(t, "35.00", global.TotalAmount.StringFixed(2))
}
