package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/devshad-01/alx-project-nexus/internal/cart"
	"github.com/devshad-01/alx-project-nexus/internal/catalog"
	"github.com/devshad-01/alx-project-nexus/internal/config"
	_ "github.com/devshad-01/alx-project-nexus/internal/docs"
	"github.com/devshad-01/alx-project-nexus/internal/httpx"
	"github.com/devshad-01/alx-project-nexus/internal/identity"
	"github.com/devshad-01/alx-project-nexus/internal/inventory"
	"github.com/devshad-01/alx-project-nexus/internal/order"
)

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// @title Nexus Shop API
// @version 1.0
// @description E-commerce backend: catalog, cart, checkout and order lifecycle.
func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("postgres connect", zap.Error(err))
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, cart summary cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	auth, err := identity.Dial(cfg.AuthSvcAddr)
	if err != nil {
		logger.Fatal("auth service dial", zap.Error(err))
	}
	defer auth.Close()

	productRepo := catalog.NewPGRepo(pool)
	cartRepo := cart.NewPGRepo(pool)
	orderRepo := order.NewPGRepo(pool)
	ledger := inventory.NewLedger(pool)
	summaryCache := cart.NewSummaryCache(rdb, cfg.CartCacheTTL)

	cartSvc := cart.NewService(cartRepo, productRepo, summaryCache, logger)
	orderSvc := order.NewService(orderRepo, cartRepo, summaryCache, logger)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(logger), httpx.Identity())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "postgres not ready"})
			return
		}
		if err := auth.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service not ready"})
			return
		}
		c.String(http.StatusOK, "ok")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	products := r.Group("/products")
	{
		products.GET("", listProductsHandler(productRepo))
		products.GET("/:id", getProductHandler(productRepo))
		products.POST("", httpx.RequireAdmin(), createProductHandler(productRepo))
		products.PUT("/:id", httpx.RequireAdmin(), updateProductHandler(productRepo))
		products.DELETE("/:id", httpx.RequireAdmin(), deactivateProductHandler(productRepo))
		products.POST("/:id/restock", httpx.RequireAdmin(), restockProductHandler(ledger))
	}

	cartGroup := r.Group("/cart", httpx.RequireUser())
	{
		cartGroup.GET("", getCartHandler(cartSvc))
		cartGroup.DELETE("", clearCartHandler(cartSvc))
		cartGroup.GET("/summary", cartSummaryHandler(cartSvc))
		cartGroup.POST("/validate", validateCartHandler(cartSvc))
		cartGroup.POST("/items", addCartItemHandler(cartSvc))
		cartGroup.PATCH("/items/:id", updateCartItemHandler(cartSvc))
		cartGroup.DELETE("/items/:id", removeCartItemHandler(cartSvc))
	}

	orders := r.Group("/orders", httpx.RequireUser())
	{
		orders.POST("", checkoutHandler(orderSvc))
		orders.GET("", listOrdersHandler(orderSvc))
		orders.GET("/stats", orderStatsHandler(orderSvc))
		orders.GET("/all", httpx.RequireAdmin(), adminListOrdersHandler(orderSvc))
		orders.GET("/:number", getOrderHandler(orderSvc))
		orders.POST("/:number/cancel", cancelOrderHandler(orderSvc))
		orders.PATCH("/:number/status", httpx.RequireAdmin(), updateOrderStatusHandler(orderSvc))
	}

	logger.Info("shop-service listening", zap.String("addr", cfg.ShopSvcAddr))
	if err := r.Run(cfg.ShopSvcAddr); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
