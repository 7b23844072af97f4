package http

import (
	"context"
	"sync"

	domain "github.com/maua/florist-api/internal/entity"
	"github.com/maua/florist-api/internal/usecase"
)

// memOrderRepo is a minimal in-memory usecase.OrderRepo.
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	writes int
}

func newMemOrderRepo(orders ...domain.Order) *memOrderRepo {
	m := &memOrderRepo{orders: map[string]domain.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrderRepo) get(id string) domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

func (m *memOrderRepo) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = *o
	m.writes++
	return nil
}

func (m *memOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	return &o, nil
}

func (m *memOrderRepo) FindByDepositID(_ context.Context, depositID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if depositID != "" && o.PaymentInfo.DepositID == depositID {
			return &o, nil
		}
	}
	return nil, usecase.ErrNotFound
}

func (m *memOrderRepo) List(_ context.Context, status domain.Status, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if (status == "" || o.Status == status) && len(out) < limit {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) BeginPayment(_ context.Context, id string, info domain.PaymentInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return usecase.ErrNotFound
	}
	if !o.CanStartPayment() {
		return usecase.ErrPaymentNotAllowed
	}
	o.PaymentInfo = o.PaymentInfo.Merge(info)
	o.Status = domain.StatusPendingPayment
	o.Version++
	m.orders[id] = o
	m.writes++
	return nil
}

func (m *memOrderRepo) UpdatePaymentIf(_ context.Context, id string, version int64, to domain.Status, info domain.PaymentInfo) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Version != version {
		return false, nil
	}
	o.Status = to
	o.PaymentInfo = info
	o.Version++
	m.orders[id] = o
	m.writes++
	return true, nil
}

func (m *memOrderRepo) UpdateStatusIf(_ context.Context, id string, from, to domain.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.Version++
	m.orders[id] = o
	m.writes++
	return true, nil
}

func (m *memOrderRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return usecase.ErrNotFound
	}
	delete(m.orders, id)
	m.writes++
	return nil
}

type memProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func newMemProductRepo(ps ...domain.Product) *memProductRepo {
	m := &memProductRepo{products: map[string]domain.Product{}}
	for _, p := range ps {
		m.products[p.ID] = p
	}
	return m
}

func (m *memProductRepo) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = *p
	return nil
}

func (m *memProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	return &p, nil
}

func (m *memProductRepo) List(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProductRepo) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return usecase.ErrNotFound
	}
	m.products[p.ID] = *p
	return nil
}

func (m *memProductRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return usecase.ErrNotFound
	}
	delete(m.products, id)
	return nil
}
