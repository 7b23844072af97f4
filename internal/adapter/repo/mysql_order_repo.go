package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/maua/florist-api/internal/entity"
	"github.com/maua/florist-api/internal/usecase"
)

// MySQLOrderRepo stores orders with their payment info as a JSON document.
// deposit_id is a stored generated column over payment_info.depositId.
type MySQLOrderRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo {
	return &MySQLOrderRepo{db: db, now: time.Now}
}

const orderColumns = `id,customer_json,items_json,currency,catalog_price,paid_amount,status,payment_info,version,created_at,updated_at`

func (r *MySQLOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("marshal customer: %w", err)
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	payment, err := marshalPayment(o.PaymentInfo)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO orders (id,customer_json,items_json,currency,catalog_price,paid_amount,status,payment_info,version,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,0,?,?)
`, o.ID, customer, items, o.Currency, o.CatalogPrice, o.PaidAmount, string(o.Status), payment, o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id)
	return scanOrder(row)
}

func (r *MySQLOrderRepo) FindByDepositID(ctx context.Context, depositID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE deposit_id=? LIMIT 1`, depositID)
	return scanOrder(row)
}

func (r *MySQLOrderRepo) List(ctx context.Context, status domain.Status, limit int) ([]domain.Order, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT ?`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE status=? ORDER BY created_at DESC LIMIT ?`, string(status), limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *MySQLOrderRepo) BeginPayment(ctx context.Context, id string, info domain.PaymentInfo) error {
	patch, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal payment info: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, payment_info = JSON_MERGE_PATCH(COALESCE(payment_info, JSON_OBJECT()), ?),
            version = version + 1, updated_at = ?
        WHERE id = ? AND status IN (?, ?, ?)`,
		string(domain.StatusPendingPayment), string(patch), r.now().UTC(), id,
		string(domain.StatusPending), string(domain.StatusPendingPayment), string(domain.StatusFailed),
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// nothing matched: either the order is missing or it is already settled
	var st string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id=?`, id).Scan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return usecase.ErrNotFound
	}
	if err != nil {
		return err
	}
	return usecase.ErrPaymentNotAllowed
}

func (r *MySQLOrderRepo) UpdatePaymentIf(ctx context.Context, id string, version int64, to domain.Status, info domain.PaymentInfo) (bool, error) {
	payment, err := marshalPayment(info)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, payment_info = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?`,
		string(to), payment, r.now().UTC(), id, version,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	// rows == 0 → someone else wrote the order since it was read
	return rows > 0, nil
}

func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, id string, fromStatus, toStatus domain.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND status = ?`,
		string(toStatus), r.now().UTC(), id, string(fromStatus),
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// rows == 0 → nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

func (r *MySQLOrderRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id=?`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return usecase.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o                        domain.Order
		status                   string
		customer, items, payment []byte
	)
	err := s.Scan(&o.ID, &customer, &items, &o.Currency, &o.CatalogPrice, &o.PaidAmount,
		&status, &payment, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("order %s customer: %w", o.ID, err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("order %s items: %w", o.ID, err)
	}
	if len(payment) > 0 {
		if err := json.Unmarshal(payment, &o.PaymentInfo); err != nil {
			return nil, fmt.Errorf("order %s payment info: %w", o.ID, err)
		}
	}
	return &o, nil
}

// marshalPayment stores NULL for an order that never started a payment, which
// keeps the unique deposit_id index free of empty strings.
func marshalPayment(p domain.PaymentInfo) (any, error) {
	if p == (domain.PaymentInfo{}) {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payment info: %w", err)
	}
	return string(b), nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
