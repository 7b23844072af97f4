package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maua/florist-api/internal/adapter/http/middleware"
	"github.com/maua/florist-api/internal/logging"
	"github.com/maua/florist-api/internal/security"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Orders   *OrderHandler
	Products *ProductHandler
	Payments *PaymentHandler
	Webhooks *WebhookHandler
	Tokens   *TokenHandler
}

func NewRouter(h Handlers, authz *middleware.Authz, cv *middleware.CryptoVerify) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(middleware.Logging(logging.New("http")))

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method Not Allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Debug("health check")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", h.Tokens.IssueToken)

	// paths used by the storefront and configured at PawaPay
	api := r.Group("/api")
	{
		api.POST("/initiate-payment", h.Payments.InitiatePayment)
		api.OPTIONS("/webhook-pawapay", h.Webhooks.Preflight)
		api.POST("/webhook-pawapay", cv.CryptoVerify(), h.Webhooks.Receive)
	}

	v1 := r.Group("/v1")
	{
		v1.GET("/products", h.Products.ListProducts)
		v1.GET("/products/:id", h.Products.GetProduct)
		v1.POST("/orders", h.Orders.CreateOrder)
		v1.GET("/orders/:id", h.Orders.GetOrderByID)
		v1.GET("/orders/:id/status", h.Orders.GetOrderStatus)
	}

	admin := r.Group("/v1/admin")
	{
		admin.POST("/products", authz.Require(security.PermCatalogWrite), h.Products.CreateProduct)
		admin.PUT("/products/:id", authz.Require(security.PermCatalogWrite), h.Products.UpdateProduct)
		admin.DELETE("/products/:id", authz.Require(security.PermCatalogWrite), h.Products.DeleteProduct)

		admin.GET("/orders", authz.Require(security.PermOrdersRead), h.Orders.ListOrders)
		admin.GET("/orders/:id", authz.Require(security.PermOrdersRead), h.Orders.AdminGetOrder)
		admin.POST("/orders/:id/deliver", authz.Require(security.PermOrdersWrite), h.Orders.MarkDelivered)
		admin.DELETE("/orders/:id", authz.Require(security.PermOrdersWrite), h.Orders.DeleteOrder)
	}

	return r
}
