package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maua/florist-api/internal/adapter/http/middleware"
	domain "github.com/maua/florist-api/internal/entity"
	"github.com/maua/florist-api/internal/logging"
	"github.com/maua/florist-api/internal/usecase"
)

var errEmptyBody = errors.New("empty webhook body")

const defaultWebhookTimeout = 10 * time.Second

type WebhookHandler struct {
	reconcile *usecase.ReconcileDeposits
	timeout   time.Duration
}

func NewWebhookHandler(reconcile *usecase.ReconcileDeposits, timeout time.Duration) *WebhookHandler {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookHandler{reconcile: reconcile, timeout: timeout}
}

// depositCallback accepts both the flat failCode and PawaPay's nested failureReason.
type depositCallback struct {
	DepositID     string `json:"depositId"`
	Status        string `json:"status"`
	FailCode      string `json:"failCode"`
	FailureReason *struct {
		FailureCode string `json:"failureCode"`
	} `json:"failureReason"`
}

func (cb depositCallback) event() domain.DepositEvent {
	ev := domain.DepositEvent{DepositID: cb.DepositID, Status: cb.Status, FailCode: cb.FailCode}
	if ev.FailCode == "" && cb.FailureReason != nil {
		ev.FailCode = cb.FailureReason.FailureCode
	}
	return ev
}

// decodeDepositEvents accepts a single callback object or an array of them.
func decodeDepositEvents(raw []byte) ([]domain.DepositEvent, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errEmptyBody
	}
	var cbs []depositCallback
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &cbs); err != nil {
			return nil, err
		}
	} else {
		var one depositCallback
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, err
		}
		cbs = []depositCallback{one}
	}
	out := make([]domain.DepositEvent, 0, len(cbs))
	for _, cb := range cbs {
		out = append(out, cb.event())
	}
	return out, nil
}

type depositResultView struct {
	DepositID string `json:"depositId"`
	OrderID   string `json:"orderId,omitempty"`
	Outcome   string `json:"outcome"`
	Status    string `json:"status,omitempty"`
}

// Preflight answers OPTIONS probes from the provider.
func (h *WebhookHandler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Receive: POST /api/webhook-pawapay. Unmatched and already settled deposits
// are acknowledged with 200 so the provider stops retrying; only unexpected
// failures answer 500.
func (h *WebhookHandler) Receive(c *gin.Context) {
	l := logging.From(c)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		l.Error("read webhook body", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}
	events, err := decodeDepositEvents(raw)
	if err != nil {
		l.Error("malformed webhook body", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}
	l.Info("webhook received", "events", len(events))

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	results, err := h.reconcile.Execute(ctx, events)
	for _, r := range results {
		middleware.DepositWebhook(string(r.Outcome))
	}
	if err != nil {
		middleware.DepositWebhook("error")
		l.Error("webhook processing error", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	body := gin.H{"message": ackMessage(results)}
	if len(events) > 1 {
		views := make([]depositResultView, 0, len(results))
		for _, r := range results {
			views = append(views, depositResultView{
				DepositID: r.DepositID,
				OrderID:   r.OrderID,
				Outcome:   string(r.Outcome),
				Status:    string(r.Status),
			})
		}
		body["results"] = views
	}
	c.JSON(http.StatusOK, body)
}

func ackMessage(results []usecase.DepositResult) string {
	if len(results) != 1 {
		return "Webhook processed"
	}
	switch results[0].Outcome {
	case usecase.OutcomeUnmatched:
		return "Order not found"
	case usecase.OutcomeAlreadyPaid:
		return "Order already paid"
	}
	return "Webhook processed"
}
