package domain

import "time"

// Provider-side deposit statuses.
const (
	DepositCompleted = "COMPLETED"
	DepositFailed    = "FAILED"
	DepositCancelled = "CANCELLED"
)

const UnknownFailCode = "unknown"

// DepositEvent is one payment-status callback from the aggregator.
type DepositEvent struct {
	DepositID string `json:"depositId"`
	Status    string `json:"status"`
	FailCode  string `json:"failCode,omitempty"`
}

// Transition is the result of applying a DepositEvent to an order.
type Transition struct {
	From    Status
	To      Status
	Payment PaymentInfo // merged payment info to persist
	NoOp    bool        // nothing must be written
}

// ApplyDepositEvent maps a provider callback onto the order state machine.
// Orders that are already paid or delivered are never changed. Unknown provider
// statuses keep the order status and only record the webhook for observability.
func (o *Order) ApplyDepositEvent(ev DepositEvent, now time.Time) Transition {
	t := Transition{From: o.Status, To: o.Status}
	if o.Status == StatusPaid || o.Status == StatusDelivered {
		t.NoOp = true
		t.Payment = o.PaymentInfo
		return t
	}

	ts := now.UTC().Format(time.RFC3339Nano)
	patch := PaymentInfo{
		LastWebhookDate: ts,
		PawapayStatus:   ev.Status,
	}

	switch ev.Status {
	case DepositCompleted:
		t.To = StatusPaid
		patch.Status = string(StatusPaid)
		patch.PaidAt = ts
	case DepositFailed, DepositCancelled:
		t.To = StatusFailed
		patch.FailCode = ev.FailCode
		if patch.FailCode == "" {
			patch.FailCode = UnknownFailCode
		}
	}

	t.Payment = o.PaymentInfo.Merge(patch)
	return t
}
