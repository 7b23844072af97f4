package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	domain "github.com/maua/florist-api/internal/entity"
)

type Catalog struct {
	repo ProductRepo
	now  func() time.Time
}

func NewCatalog(repo ProductRepo) *Catalog {
	return &Catalog{repo: repo, now: time.Now}
}

func (c *Catalog) List(ctx context.Context) ([]domain.Product, error) {
	return c.repo.List(ctx)
}

func (c *Catalog) Get(ctx context.Context, id string) (*domain.Product, error) {
	return c.repo.GetByID(ctx, id)
}

func (c *Catalog) Add(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	p.CreatedAt = c.now().UTC()
	p.UpdatedAt = p.CreatedAt
	if err := c.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Catalog) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	p.UpdatedAt = c.now().UTC()
	if err := c.repo.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	return c.repo.Delete(ctx, id)
}
