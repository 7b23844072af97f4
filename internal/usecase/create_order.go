package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domain "github.com/maua/florist-api/internal/entity"
	"github.com/shopspring/decimal"
)

type CreateOrderItem struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	Customer       domain.Customer
	Items          []CreateOrderItem
	PaidAmount     decimal.Decimal // amount shown to the customer; zero means the catalog total
	IdempotencyKey string
}

type CreateOrderOutput struct {
	OrderID string
	Status  string
}

type CreateOrder struct {
	repo     OrderRepo
	products ProductRepo
	idem     IdempotencyStore
	pub      EventPublisher

	now func() time.Time
}

func NewCreateOrder(repo OrderRepo, products ProductRepo, idem IdempotencyStore, pub EventPublisher) *CreateOrder {
	return &CreateOrder{repo: repo, products: products, idem: idem, pub: pub, now: time.Now}
}

func (uc *CreateOrder) Execute(ctx context.Context, in CreateOrderInput) (CreateOrderOutput, error) {
	scope := "checkout:" + in.Customer.Phone
	if in.IdempotencyKey != "" {
		// Fast path: idempotency recall
		if id, ok, _ := uc.idem.Recall(ctx, scope, in.IdempotencyKey); ok {
			return CreateOrderOutput{OrderID: id, Status: string(domain.StatusPending)}, nil
		}
		ok, err := uc.idem.TryLock(ctx, scope, in.IdempotencyKey)
		if err != nil {
			return CreateOrderOutput{}, err
		}
		if !ok {
			return CreateOrderOutput{}, ErrDuplicate
		}
	}

	o, err := uc.price(ctx, in)
	if err == nil {
		err = o.Validate()
	}
	if err == nil {
		err = uc.repo.Create(ctx, o)
	}
	if err != nil {
		if in.IdempotencyKey != "" {
			_ = uc.idem.Release(ctx, scope, in.IdempotencyKey)
		}
		return CreateOrderOutput{}, err
	}

	if uc.pub != nil {
		_ = uc.pub.PublishOrderCreated(ctx, OrderCreatedMsg{
			OrderID:      o.ID,
			Customer:     o.Customer.Name,
			CatalogPrice: o.CatalogPrice.String(),
			PaidAmount:   o.PaidAmount.String(),
			Currency:     o.Currency,
		})
	}
	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, scope, in.IdempotencyKey, o.ID)
	}
	return CreateOrderOutput{OrderID: o.ID, Status: string(o.Status)}, nil
}

// price snapshots every item from the catalog so that staff can compare the
// catalog total with the amount the customer actually paid.
func (uc *CreateOrder) price(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	now := uc.now().UTC()
	o := &domain.Order{
		ID:        uuid.NewString(),
		Customer:  in.Customer,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	total := decimal.Zero
	for _, it := range in.Items {
		p, err := uc.products.GetByID(ctx, it.ProductID)
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, it.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if !p.InStock {
			return nil, fmt.Errorf("%w: %s is out of stock", ErrProductUnavailable, p.Name)
		}
		if o.Currency == "" {
			o.Currency = p.Currency
		} else if o.Currency != p.Currency {
			return nil, fmt.Errorf("%w: mixed currencies %s and %s", domain.ErrInvalidAmount, o.Currency, p.Currency)
		}
		o.Items = append(o.Items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  it.Quantity,
			ImageURL:  p.ImageURL,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	o.CatalogPrice = total
	o.PaidAmount = in.PaidAmount
	if o.PaidAmount.IsZero() {
		o.PaidAmount = total
	}
	return o, nil
}
