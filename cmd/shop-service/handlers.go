package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/devshad-01/alx-project-nexus/internal/cart"
	"github.com/devshad-01/alx-project-nexus/internal/catalog"
	"github.com/devshad-01/alx-project-nexus/internal/httpx"
	"github.com/devshad-01/alx-project-nexus/internal/inventory"
	"github.com/devshad-01/alx-project-nexus/internal/order"
)

// writeError maps domain errors onto HTTP statuses. Every error carries
// enough detail to act on: which product, what was available, which
// transition was rejected.
func writeError(c *gin.Context, err error) {
	var stockErr *inventory.InsufficientStockError
	var unavailErr *catalog.ProductUnavailableError
	var addrErr *order.InvalidAddressError
	var transErr *order.InvalidTransitionError

	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "insufficient stock",
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
	case errors.As(err, &unavailErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "product not available",
			"product_id": unavailErr.ProductID,
		})
	case errors.As(err, &addrErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid shipping address",
			"field": addrErr.Field,
		})
	case errors.As(err, &transErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid status transition",
			"from":  transErr.From,
			"to":    transErr.To,
		})
	case errors.Is(err, order.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
	case errors.Is(err, order.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, inventory.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be positive"})
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, inventory.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, cart.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
	case errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

//
// ---------- PRODUCTS ----------
//

// listProductsHandler godoc
// @Summary List products
// @Tags products
// @Success 200 {object} catalog.ListResponse
// @Router /products [get]
func listProductsHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		q := catalog.Query{
			Q:               c.Query("q"),
			Limit:           limit,
			Offset:          offset,
			IncludeInactive: httpx.IsAdmin(c),
		}
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			writeError(c, err)
			return
		}
		if items == nil {
			items = []catalog.Product{}
		}
		c.JSON(http.StatusOK, catalog.ListResponse{Q: q.Q, Limit: limit, Offset: offset, Items: items})
	}
}

func getProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if !p.IsActive && !httpx.IsAdmin(c) {
			writeError(c, catalog.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func createProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() || req.Name == "" || req.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, non-negative price and stock are required"})
			return
		}
		p := &catalog.Product{
			ID:            uuid.NewString(),
			Name:          req.Name,
			Description:   req.Description,
			Price:         price,
			StockQuantity: req.Stock,
			IsActive:      true,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func updateProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		p := &catalog.Product{ID: c.Param("id"), Name: req.Name, Description: req.Description}
		updatePrice := false
		if req.Price != "" {
			price, err := decimal.NewFromString(req.Price)
			if err != nil || price.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
				return
			}
			p.Price = price
			updatePrice = true
		}
		if err := repo.Update(c.Request.Context(), p, updatePrice); err != nil {
			writeError(c, err)
			return
		}
		out, err := repo.GetByID(c.Request.Context(), p.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deactivateProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Deactivate(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if !ok {
			writeError(c, catalog.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "product deactivated"})
	}
}

// stockCrediter is the admin restock entry point into the inventory ledger,
// the only writer of stock.
type stockCrediter interface {
	Credit(ctx context.Context, productID string, quantity int) error
}

func restockProductHandler(ledger stockCrediter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if err := ledger.Credit(c.Request.Context(), c.Param("id"), req.Quantity); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "stock credited"})
	}
}

//
// ---------- CART ----------
//

func getCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		crt, items, sum, err := svc.Get(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if items == nil {
			items = []cart.ItemDetail{}
		}
		c.JSON(http.StatusOK, gin.H{"cart": crt, "items": items, "summary": sum})
	}
}

// addCartItemHandler godoc
// @Summary Add a product to the cart (upserts the line)
// @Tags cart
// @Param request body cart.AddItemRequest true "item"
// @Router /cart/items [post]
func addCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product_id and quantity are required"})
			return
		}
		item, err := svc.AddItem(c.Request.Context(), httpx.UserID(c), req.ProductID, req.Quantity)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "added to cart", "item": item})
	}
}

func updateCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.UpdateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		removed, err := svc.UpdateItem(c.Request.Context(), httpx.UserID(c), c.Param("id"), req.Quantity)
		if err != nil {
			writeError(c, err)
			return
		}
		msg := "cart item updated"
		if removed {
			msg = "cart item removed"
		}
		c.JSON(http.StatusOK, gin.H{"message": msg})
	}
}

func removeCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.RemoveItem(c.Request.Context(), httpx.UserID(c), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart item removed"})
	}
}

func clearCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svc.Clear(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart cleared", "items_removed": n})
	}
}

func cartSummaryHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svc.Summary(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cart_summary": sum})
	}
}

func validateCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svc.Validate(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		status := http.StatusOK
		if !report.Valid {
			status = http.StatusBadRequest
		}
		c.JSON(status, report)
	}
}

//
// ---------- ORDERS ----------
//

// checkoutHandler godoc
// @Summary Convert the cart into an order
// @Description Atomic: stock reservation, order creation and cart clearing
// @Description succeed or fail together.
// @Tags orders
// @Param request body order.CheckoutRequest true "checkout"
// @Success 201 {object} order.Order
// @Router /orders [post]
func checkoutHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, items, err := svc.Checkout(c.Request.Context(), httpx.UserID(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "order created", "order": o, "items": items})
	}
}

func listOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		f := order.ListFilter{
			Status: order.Status(c.Query("status")),
			Limit:  limit,
			Offset: offset,
		}
		orders, err := svc.ListMine(c.Request.Context(), httpx.UserID(c), f)
		if err != nil {
			writeError(c, err)
			return
		}
		if orders == nil {
			orders = []order.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func adminListOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		f := order.ListFilter{
			UserID: c.Query("user_id"),
			Status: order.Status(c.Query("status")),
			Limit:  limit,
			Offset: offset,
		}
		orders, err := svc.ListAll(c.Request.Context(), httpx.IsAdmin(c), f)
		if err != nil {
			writeError(c, err)
			return
		}
		if orders == nil {
			orders = []order.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func getOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, items, err := svc.Get(c.Request.Context(), httpx.UserID(c), httpx.IsAdmin(c), c.Param("number"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o, "items": items})
	}
}

func cancelOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Cancel(c.Request.Context(), httpx.UserID(c), httpx.IsAdmin(c), c.Param("number"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order cancelled", "order": o})
	}
}

func updateOrderStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), httpx.IsAdmin(c), c.Param("number"), req.Status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order status updated", "order": o})
	}
}

func orderStatsHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.StatsFor(c.Request.Context(), httpx.UserID(c), httpx.IsAdmin(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"statistics": stats})
	}
}
