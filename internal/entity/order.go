package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusFailed         Status = "failed"
	StatusDelivered      Status = "delivered"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPendingPayment, StatusPaid, StatusFailed, StatusDelivered:
		return true
	}
	return false
}

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyOrder    = errors.New("order has no items")
	ErrMissingBuyer  = errors.New("customer name, phone and address are required")
)

type Customer struct {
	Name    string `json:"customerName"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Message string `json:"message,omitempty"`
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"productName"`
	UnitPrice decimal.Decimal `json:"productPrice"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// PaymentInfo mirrors the provider-facing state of the current deposit attempt.
// Empty fields are omitted so that a partial value can be overlaid on the stored one.
type PaymentInfo struct {
	DepositID       string `json:"depositId,omitempty"`
	Operator        string `json:"operator,omitempty"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	InitiatedAt     string `json:"initiatedAt,omitempty"`
	PawapayStatus   string `json:"pawapayStatus,omitempty"`
	LastWebhookDate string `json:"lastWebhookDate,omitempty"`
	FailCode        string `json:"failCode,omitempty"`
	PaidAt          string `json:"paidAt,omitempty"`
	Status          string `json:"status,omitempty"`
}

// Merge overlays the non-empty fields of patch on p.
func (p PaymentInfo) Merge(patch PaymentInfo) PaymentInfo {
	out := p
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&out.DepositID, patch.DepositID)
	set(&out.Operator, patch.Operator)
	set(&out.PhoneNumber, patch.PhoneNumber)
	set(&out.InitiatedAt, patch.InitiatedAt)
	set(&out.PawapayStatus, patch.PawapayStatus)
	set(&out.LastWebhookDate, patch.LastWebhookDate)
	set(&out.FailCode, patch.FailCode)
	set(&out.PaidAt, patch.PaidAt)
	set(&out.Status, patch.Status)
	return out
}

type Order struct {
	ID           string
	Customer     Customer
	Items        []OrderItem
	Currency     string
	CatalogPrice decimal.Decimal
	PaidAmount   decimal.Decimal
	Status       Status
	PaymentInfo  PaymentInfo
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	if o.Customer.Name == "" || o.Customer.Phone == "" || o.Customer.Address == "" {
		return ErrMissingBuyer
	}
	if o.Currency == "" || !o.PaidAmount.IsPositive() {
		return ErrInvalidAmount
	}
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}

// PriceMatches reports whether the amount the customer was asked to pay equals
// the catalog total. Staff check this before preparing a paid order.
func (o *Order) PriceMatches() bool {
	return o.CatalogPrice.Equal(o.PaidAmount)
}

// CanStartPayment reports whether a new deposit attempt may overwrite the current one.
func (o *Order) CanStartPayment() bool {
	switch o.Status {
	case StatusPending, StatusPendingPayment, StatusFailed:
		return true
	}
	return false
}

func (o *Order) CanDeliver() bool { return o.Status == StatusPaid }
