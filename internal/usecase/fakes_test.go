package usecase

import (
	"context"
	"sort"
	"sync"

	domain "github.com/maua/florist-api/internal/entity"
)

// memOrders is an in-memory OrderRepo. Every mutation is appended to trail so
// tests can assert ordering against other collaborators sharing the same slice.
type memOrders struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	trail  *[]string
	writes int

	// beforeUpdate runs inside UpdatePaymentIf before the version check.
	beforeUpdate func(id string)
}

func newMemOrders(trail *[]string, orders ...domain.Order) *memOrders {
	m := &memOrders{orders: map[string]domain.Order{}, trail: trail}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) record(s string) {
	if m.trail != nil {
		*m.trail = append(*m.trail, s)
	}
}

func (m *memOrders) get(id string) domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

func (m *memOrders) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = *o
	m.writes++
	m.record("create:" + o.ID)
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *memOrders) FindByDepositID(_ context.Context, depositID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.PaymentInfo.DepositID == depositID {
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memOrders) List(_ context.Context, status domain.Status, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrders) BeginPayment(_ context.Context, id string, info domain.PaymentInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	if !o.CanStartPayment() {
		return ErrPaymentNotAllowed
	}
	o.PaymentInfo = o.PaymentInfo.Merge(info)
	o.Status = domain.StatusPendingPayment
	o.Version++
	m.orders[id] = o
	m.writes++
	m.record("begin:" + info.DepositID)
	return nil
}

func (m *memOrders) UpdatePaymentIf(_ context.Context, id string, version int64, to domain.Status, info domain.PaymentInfo) (bool, error) {
	if m.beforeUpdate != nil {
		m.beforeUpdate(id)
	}
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
	m.record("update:" + string(to))
	return true, nil
}

func (m *memOrders) UpdateStatusIf(_ context.Context, id string, from, to domain.Status) (bool, error) {
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

func (m *memOrders) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	m.writes++
	return nil
}

type memProducts struct {
	products map[string]domain.Product
}

func newMemProducts(ps ...domain.Product) *memProducts {
	m := &memProducts{products: map[string]domain.Product{}}
	for _, p := range ps {
		m.products[p.ID] = p
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p *domain.Product) error {
	m.products[p.ID] = *p
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) List(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProducts) Update(_ context.Context, p *domain.Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return ErrNotFound
	}
	m.products[p.ID] = *p
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

type memIdem struct {
	locks  map[string]bool
	values map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locks: map[string]bool{}, values: map[string]string{}}
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	k := scope + ":" + key
	if m.locks[k] {
		return false, nil
	}
	m.locks[k] = true
	return true, nil
}

func (m *memIdem) Release(_ context.Context, scope, key string) error {
	delete(m.locks, scope+":"+key)
	return nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.values[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	v, ok := m.values[scope+":"+key]
	return v, ok, nil
}

type memCache struct {
	statuses map[string]string
}

func newMemCache() *memCache { return &memCache{statuses: map[string]string{}} }

func (m *memCache) SetStatus(_ context.Context, id, status string) error {
	m.statuses[id] = status
	return nil
}

func (m *memCache) GetStatus(_ context.Context, id string) (string, bool, error) {
	s, ok := m.statuses[id]
	return s, ok, nil
}

func (m *memCache) Forget(_ context.Context, id string) error {
	delete(m.statuses, id)
	return nil
}

// fakeProvider records the deposits it receives. check runs before the call is
// recorded, which lets tests inspect the store at dispatch time.
type fakeProvider struct {
	configured bool
	err        error
	trail      *[]string
	requests   []DepositRequest
	check      func(req DepositRequest)
}

func (p *fakeProvider) Configured() bool { return p.configured }

func (p *fakeProvider) RequestDeposit(_ context.Context, req DepositRequest) error {
	if p.check != nil {
		p.check(req)
	}
	p.requests = append(p.requests, req)
	if p.trail != nil {
		*p.trail = append(*p.trail, "provider:"+req.DepositID)
	}
	return p.err
}

type fakePublisher struct {
	created  []OrderCreatedMsg
	payments []PaymentStatusChangedMsg
}

func (p *fakePublisher) PublishOrderCreated(_ context.Context, msg OrderCreatedMsg) error {
	p.created = append(p.created, msg)
	return nil
}

func (p *fakePublisher) PublishPaymentStatus(_ context.Context, msg PaymentStatusChangedMsg) error {
	p.payments = append(p.payments, msg)
	return nil
}
