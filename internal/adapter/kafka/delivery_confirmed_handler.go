package kafka

import (
	"context"
	"errors"
	"strings"

	"github.com/maua/florist-api/internal/logging"
	"github.com/maua/florist-api/internal/usecase"
)

// Deliverer is the slice of usecase.Orders the courier feed needs.
type Deliverer interface {
	MarkDelivered(ctx context.Context, id string) error
}

type DeliveryConfirmedHandler struct {
	Orders Deliverer
}

func NewDeliveryConfirmedHandler(orders Deliverer) *DeliveryConfirmedHandler {
	return &DeliveryConfirmedHandler{Orders: orders}
}

// Handle archives the order once the courier reports it delivered. Orders that
// are unknown or not paid are logged and skipped; retrying cannot fix them.
func (h *DeliveryConfirmedHandler) Handle(ctx context.Context, ev usecase.DeliveryConfirmedMsg) error {
	l := logging.FromCtx(ctx).With("order_id", ev.OrderID, "courier_status", ev.Status)
	if !strings.EqualFold(ev.Status, "DELIVERED") {
		l.Debug("ignoring courier update")
		return nil
	}

	err := h.Orders.MarkDelivered(ctx, ev.OrderID)
	switch {
	case err == nil:
		l.Info("order delivered", "delivered_at", ev.DeliveredAt)
		return nil
	case errors.Is(err, usecase.ErrNotFound), errors.Is(err, usecase.ErrInvalidTransition):
		l.Warn("delivery confirmation skipped", "err", err)
		return nil
	default:
		return err
	}
}
