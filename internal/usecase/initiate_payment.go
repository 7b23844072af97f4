package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	domain "github.com/maua/florist-api/internal/entity"
	"github.com/maua/florist-api/internal/logging"
	"github.com/shopspring/decimal"
)

type InitiatePaymentInput struct {
	OrderID, Currency, Operator, PhoneNumber, IdempotencyKey string
	Amount                                                   decimal.Decimal
}

type InitiatePaymentOutput struct {
	Status    string
	DepositID string
	Message   string
}

type InitiatePayment struct {
	repo     OrderRepo
	cache    OrderCache
	idem     IdempotencyStore
	provider DepositProvider
	currency string // sent when the request carries none

	now   func() time.Time
	newID func() string
}

func NewInitiatePayment(repo OrderRepo, cache OrderCache, idem IdempotencyStore, provider DepositProvider, currency string) *InitiatePayment {
	return &InitiatePayment{
		repo:     repo,
		cache:    cache,
		idem:     idem,
		provider: provider,
		currency: currency,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Execute starts a mobile-money deposit for an order. The deposit id is stored
// on the order before the provider is called so that the webhook can always
// find it.
func (uc *InitiatePayment) Execute(ctx context.Context, in InitiatePaymentInput) (InitiatePaymentOutput, error) {
	if err := in.validate(); err != nil {
		return InitiatePaymentOutput{}, err
	}
	if !uc.provider.Configured() {
		return InitiatePaymentOutput{}, ErrConfiguration
	}

	if strings.TrimSpace(in.Currency) == "" {
		in.Currency = uc.currency
	}

	scope := "deposit:" + in.OrderID
	if in.IdempotencyKey != "" && uc.idem != nil {
		if id, ok, _ := uc.idem.Recall(ctx, scope, in.IdempotencyKey); ok {
			return InitiatePaymentOutput{Status: "PENDING", DepositID: id, Message: "Payment already initiated"}, nil
		}
		ok, err := uc.idem.TryLock(ctx, scope, in.IdempotencyKey)
		if err != nil {
			return InitiatePaymentOutput{}, err
		}
		if !ok {
			return InitiatePaymentOutput{}, ErrDuplicate
		}
	}

	depositID := uc.newID()
	err := uc.start(ctx, in, depositID)
	if in.IdempotencyKey != "" && uc.idem != nil {
		if err != nil {
			_ = uc.idem.Release(ctx, scope, in.IdempotencyKey)
		} else {
			_ = uc.idem.Remember(ctx, scope, in.IdempotencyKey, depositID)
		}
	}
	if err != nil {
		return InitiatePaymentOutput{}, err
	}

	return InitiatePaymentOutput{
		Status:    "PENDING",
		DepositID: depositID,
		Message:   "Payment initiated successfully",
	}, nil
}

func (uc *InitiatePayment) start(ctx context.Context, in InitiatePaymentInput, depositID string) error {
	err := uc.repo.BeginPayment(ctx, in.OrderID, domain.PaymentInfo{
		DepositID:   depositID,
		Operator:    in.Operator,
		PhoneNumber: in.PhoneNumber,
		InitiatedAt: uc.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("record deposit %s on order %s: %w", depositID, in.OrderID, err)
	}
	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, in.OrderID, string(domain.StatusPendingPayment))
	}

	req := DepositRequest{
		DepositID:   depositID,
		Amount:      WholeAmount(in.Amount),
		Currency:    in.Currency,
		Operator:    in.Operator,
		PhoneNumber: DigitsOnly(in.PhoneNumber),
	}
	logging.FromCtx(ctx).Info("initiating deposit",
		"order_id", in.OrderID, "deposit_id", depositID, "amount", req.Amount,
		"currency", req.Currency, "operator", req.Operator)

	// the order stays pending_payment with this deposit id when the provider rejects it
	return uc.provider.RequestDeposit(ctx, req)
}

func (in InitiatePaymentInput) validate() error {
	var missing []string
	if !in.Amount.IsPositive() {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(in.Operator) == "" {
		missing = append(missing, "operator")
	}
	if strings.TrimSpace(in.PhoneNumber) == "" {
		missing = append(missing, "phoneNumber")
	}
	if strings.TrimSpace(in.OrderID) == "" {
		missing = append(missing, "orderId")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// DigitsOnly strips everything but ASCII digits ("+243 900-000" -> "243900000").
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
