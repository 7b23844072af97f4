package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidProduct = errors.New("invalid product")

const DefaultCurrency = "USD"

type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Currency    string
	ImageURL    string
	InStock     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) Normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Price.IsNegative() {
		return ErrInvalidProduct
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return nil
}
