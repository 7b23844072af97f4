package usecase

import (
	"context"

	domain "github.com/maua/florist-api/internal/entity"
)

const defaultListLimit = 200

// Orders groups the read side used by the payment page and the admin dashboard,
// plus the delivery step that closes an order.
type Orders struct {
	repo  OrderRepo
	cache OrderCache // optional
}

func NewOrders(repo OrderRepo, cache OrderCache) *Orders {
	return &Orders{repo: repo, cache: cache}
}

func (uc *Orders) Get(ctx context.Context, id string) (*domain.Order, error) {
	return uc.repo.GetByID(ctx, id)
}

// List returns orders, newest first. An empty status lists everything.
func (uc *Orders) List(ctx context.Context, status domain.Status, limit int) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidRequest
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return uc.repo.List(ctx, status, limit)
}

// Status serves client polling from the cache when possible.
func (uc *Orders) Status(ctx context.Context, id string) (domain.Status, error) {
	if uc.cache != nil {
		if s, ok, err := uc.cache.GetStatus(ctx, id); err == nil && ok {
			return domain.Status(s), nil
		}
	}
	o, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, id, string(o.Status))
	}
	return o.Status, nil
}

// MarkDelivered archives a paid order. Delivering an already delivered order is a no-op.
func (uc *Orders) MarkDelivered(ctx context.Context, id string) error {
	ok, err := uc.repo.UpdateStatusIf(ctx, id, domain.StatusPaid, domain.StatusDelivered)
	if err != nil {
		return err
	}
	if !ok {
		o, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o.Status == domain.StatusDelivered {
			return nil
		}
		return ErrInvalidTransition
	}
	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, id, string(domain.StatusDelivered))
	}
	return nil
}

func (uc *Orders) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	if uc.cache != nil {
		_ = uc.cache.Forget(ctx, id)
	}
	return nil
}
