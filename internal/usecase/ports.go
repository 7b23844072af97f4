package usecase

import (
	"context"

	domain "github.com/maua/florist-api/internal/entity"
	"github.com/shopspring/decimal"
)

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// FindByDepositID returns the order whose current paymentInfo.depositId matches.
	FindByDepositID(ctx context.Context, depositID string) (*domain.Order, error)
	List(ctx context.Context, status domain.Status, limit int) ([]domain.Order, error)
	// BeginPayment overlays info on the stored payment info and moves the order
	// to pending_payment. Returns ErrPaymentNotAllowed when the order is settled.
	BeginPayment(ctx context.Context, id string, info domain.PaymentInfo) error
	// UpdatePaymentIf writes status and payment info only if the stored version
	// still equals version.
	UpdatePaymentIf(ctx context.Context, id string, version int64, to domain.Status, info domain.PaymentInfo) (bool, error)
	UpdateStatusIf(ctx context.Context, id string, from, to domain.Status) (bool, error)
	Delete(ctx context.Context, id string) error
}

type ProductRepo interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
	Forget(ctx context.Context, orderID string) error
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, msg OrderCreatedMsg) error
	PublishPaymentStatus(ctx context.Context, msg PaymentStatusChangedMsg) error
}

// DepositRequest is what the aggregator needs to start a mobile-money deposit.
// PhoneNumber is digits only and Amount has no decimals.
type DepositRequest struct {
	DepositID   string
	Amount      string
	Currency    string
	Operator    string
	PhoneNumber string
}

type DepositProvider interface {
	// Configured reports whether credentials are present.
	Configured() bool
	RequestDeposit(ctx context.Context, req DepositRequest) error
}

// WholeAmount truncates to an integer string, as the provider rejects decimals.
func WholeAmount(d decimal.Decimal) string {
	return d.Truncate(0).String()
}
