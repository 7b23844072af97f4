package queue

import (
	"context"

	"github.com/maua/florist-api/internal/logging"
	"github.com/maua/florist-api/internal/usecase"
)

// StaffNotifier turns order events into the shop's preparation log: new
// orders, paid orders ready to prepare, and failed payments to follow up.
type StaffNotifier struct{}

func NewStaffNotifier() *StaffNotifier { return &StaffNotifier{} }

func (n *StaffNotifier) HandleOrderCreated(ctx context.Context, msg usecase.OrderCreatedMsg) error {
	logging.FromCtx(ctx).Info("new order",
		"order_id", msg.OrderID, "customer", msg.Customer,
		"paid_amount", msg.PaidAmount, "currency", msg.Currency)
	return nil
}

func (n *StaffNotifier) HandlePaymentStatus(ctx context.Context, msg usecase.PaymentStatusChangedMsg) error {
	l := logging.FromCtx(ctx).With("order_id", msg.OrderID, "deposit_id", msg.DepositID)
	switch msg.To {
	case "paid":
		if !msg.PriceMatches {
			// the customer paid an amount different from the catalog total
			l.Warn("order paid with price mismatch, check before preparing")
			return nil
		}
		l.Info("order paid, ready to prepare")
	case "failed":
		l.Info("payment failed", "fail_code", msg.FailCode)
	default:
		l.Debug("payment status changed", "from", msg.From, "to", msg.To)
	}
	return nil
}

// Register wires the notifier onto its queues.
func (n *StaffNotifier) Register(r *Router) {
	r.Register(OrderCreatedQueue, JSONHandler[usecase.OrderCreatedMsg]{HandleFunc: n.HandleOrderCreated})
	r.Register(PaymentStatusQueue, JSONHandler[usecase.PaymentStatusChangedMsg]{HandleFunc: n.HandlePaymentStatus})
}
