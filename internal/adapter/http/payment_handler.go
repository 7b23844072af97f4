package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maua/florist-api/internal/adapter/http/middleware"
	"github.com/maua/florist-api/internal/logging"
	"github.com/maua/florist-api/internal/usecase"
	"github.com/shopspring/decimal"
)

const IdempotencyHeader = "X-Idempotency-Key"

type PaymentHandler struct {
	initiate *usecase.InitiatePayment
	timeout  time.Duration
}

// NewPaymentHandler bounds each initiation by timeout, which should exceed the
// provider client's own timeout.
func NewPaymentHandler(initiate *usecase.InitiatePayment, timeout time.Duration) *PaymentHandler {
	if timeout <= 0 {
		timeout = 35 * time.Second
	}
	return &PaymentHandler{initiate: initiate, timeout: timeout}
}

type initiatePaymentReq struct {
	OrderID     string          `json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Operator    string          `json:"operator"`
	PhoneNumber string          `json:"phoneNumber"`
}

type initiatePaymentResp struct {
	Status    string `json:"status"`
	DepositID string `json:"depositId"`
	Message   string `json:"message"`
}

// InitiatePayment: POST /api/initiate-payment
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req initiatePaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.DepositInitiated("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields", "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out, err := h.initiate.Execute(ctx, usecase.InitiatePaymentInput{
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Operator:       req.Operator,
		PhoneNumber:    req.PhoneNumber,
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	middleware.DepositInitiated("ok")
	c.JSON(http.StatusOK, initiatePaymentResp{
		Status:    out.Status,
		DepositID: out.DepositID,
		Message:   out.Message,
	})
}

func (h *PaymentHandler) fail(c *gin.Context, err error) {
	l := logging.From(c)
	var pe *usecase.ProviderError
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		middleware.DepositInitiated("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields", "error": err.Error()})
	case errors.Is(err, usecase.ErrConfiguration):
		middleware.DepositInitiated("error")
		l.Error("pawapay token is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Configuration Error"})
	case errors.Is(err, usecase.ErrDuplicate):
		middleware.DepositInitiated("duplicate")
		c.JSON(http.StatusConflict, gin.H{"message": "Payment already in progress"})
	case errors.Is(err, usecase.ErrPaymentNotAllowed):
		middleware.DepositInitiated("invalid")
		c.JSON(http.StatusConflict, gin.H{"message": "Order already paid"})
	case errors.As(err, &pe):
		middleware.DepositInitiated("rejected")
		l.Error("pawapay rejected deposit", "status", pe.StatusCode, "err", err)
		details := any(pe.Body)
		if len(pe.Body) == 0 {
			details = gin.H{}
		}
		c.JSON(pe.StatusCode, gin.H{"message": pe.Message, "details": details})
	default:
		// unknown orders land here too: the caller gets an internal error
		middleware.DepositInitiated("error")
		l.Error("initiate payment failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error", "error": err.Error()})
	}
}
