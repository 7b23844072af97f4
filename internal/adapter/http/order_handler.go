package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	domain "github.com/maua/florist-api/internal/entity"
	"github.com/maua/florist-api/internal/logging"
	"github.com/maua/florist-api/internal/usecase"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	create *usecase.CreateOrder
	orders *usecase.Orders
}

func NewOrderHandler(create *usecase.CreateOrder, orders *usecase.Orders) *OrderHandler {
	return &OrderHandler{create: create, orders: orders}
}

type customerReq struct {
	Name    string `json:"customerName" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address" binding:"required"`
	Message string `json:"message"`
}

type createOrderReq struct {
	Customer customerReq `json:"customer" binding:"required"`
	Items    []struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,gt=0"`
	} `json:"items" binding:"required,min=1,dive"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
}

type createOrderResp struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type orderView struct {
	ID           string             `json:"id"`
	Status       domain.Status      `json:"status"`
	Customer     *domain.Customer   `json:"customer,omitempty"`
	Items        []domain.OrderItem `json:"items"`
	Currency     string             `json:"currency"`
	CatalogPrice decimal.Decimal    `json:"catalogPrice"`
	PaidAmount   decimal.Decimal    `json:"paidAmount"`
	PriceMatches bool               `json:"priceMatches"`
	PaymentInfo  domain.PaymentInfo `json:"paymentInfo"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// toOrderView hides the customer's contact details unless withCustomer is set.
func toOrderView(o *domain.Order, withCustomer bool) orderView {
	v := orderView{
		ID:           o.ID,
		Status:       o.Status,
		Items:        o.Items,
		Currency:     o.Currency,
		CatalogPrice: o.CatalogPrice,
		PaidAmount:   o.PaidAmount,
		PriceMatches: o.PriceMatches(),
		PaymentInfo:  o.PaymentInfo,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	if withCustomer {
		c := o.Customer
		v.Customer = &c
	} else {
		v.PaymentInfo.PhoneNumber = ""
	}
	return v
}

// CreateOrder handler: translate to use case input
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "detail": err.Error()})
		return
	}

	in := usecase.CreateOrderInput{
		Customer: domain.Customer{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
			Message: req.Customer.Message,
		},
		PaidAmount:     req.PaidAmount,
		IdempotencyKey: c.GetHeader(IdempotencyHeader), // prevent duplicated checkouts
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, usecase.CreateOrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	out, err := h.create.Execute(ctx, in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createOrderResp{
		OrderID: out.OrderID,
		Status:  out.Status,
	})
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	h.getOrder(c, false)
}

func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	h.getOrder(c, true)
}

func (h *OrderHandler) getOrder(c *gin.Context, withCustomer bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	o, err := h.orders.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(o, withCustomer))
}

// GetOrderStatus is polled by the payment page while a deposit is pending.
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	st, err := h.orders.Status(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": id, "status": st})
}

// ListOrders: GET /v1/admin/orders?status=paid&limit=50
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	list, err := h.orders.List(ctx, domain.Status(c.Query("status")), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]orderView, 0, len(list))
	for i := range list {
		out = append(out, toOrderView(&list[i], true))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out, "count": len(out)})
}

func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.orders.MarkDelivered(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	logging.From(c).Info("order delivered", "order_id", id)
	c.JSON(http.StatusOK, gin.H{"orderId": id, "status": domain.StatusDelivered})
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.orders.Delete(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	logging.From(c).Info("order deleted", "order_id", id)
	c.Status(http.StatusNoContent)
}

// writeError maps use case errors for the storefront and admin routes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrDuplicate),
		errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrPaymentNotAllowed):
		status = http.StatusConflict
	case errors.Is(err, usecase.ErrProductUnavailable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrMissingBuyer),
		errors.Is(err, domain.ErrInvalidProduct):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logging.From(c).Error("request failed", "err", err)
		c.JSON(status, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
