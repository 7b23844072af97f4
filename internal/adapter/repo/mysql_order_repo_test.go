package repo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	domain "github.com/maua/florist-api/internal/entity"
	"github.com/maua/florist-api/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newOrderRepo(t *testing.T) (*MySQLOrderRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	r := NewMySQLOrderRepo(db)
	r.now = func() time.Time { return fixedNow }
	return r, mock
}

func orderRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_json", "items_json", "currency", "catalog_price", "paid_amount",
		"status", "payment_info", "version", "created_at", "updated_at"}).
		AddRow("O1",
			[]byte(`{"customerName":"Amani","phone":"+243811111111","address":"Gombe"}`),
			[]byte(`[{"productId":"p1","productName":"Roses","productPrice":"25","quantity":2}]`),
			"CDF", "50.00", "50.00", "pending_payment",
			[]byte(`{"depositId":"dep-1","operator":"ORANGE_COD"}`),
			int64(3), fixedNow, fixedNow)
}

func TestFindByDepositID(t *testing.T) {
	r, mock := newOrderRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE deposit_id=? LIMIT 1`)).
		WithArgs("dep-1").
		WillReturnRows(orderRow())

	o, err := r.FindByDepositID(context.Background(), "dep-1")
	require.NoError(t, err)

	assert.Equal(t, "O1", o.ID)
	assert.Equal(t, domain.StatusPendingPayment, o.Status)
	assert.Equal(t, "dep-1", o.PaymentInfo.DepositID)
	assert.Equal(t, int64(3), o.Version)
	assert.Equal(t, "Amani", o.Customer.Name)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.PriceMatches())
}

func TestFindByDepositID_NotFound(t *testing.T) {
	r, mock := newOrderRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE deposit_id=?`)).
		WithArgs("unknown-id").
		WillReturnError(sql.ErrNoRows)

	_, err := r.FindByDepositID(context.Background(), "unknown-id")
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestBeginPayment(t *testing.T) {
	r, mock := newOrderRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`JSON_MERGE_PATCH(COALESCE(payment_info, JSON_OBJECT()), ?)`)).
		WithArgs("pending_payment", `{"depositId":"dep-2","operator":"AIRTEL_COD"}`, fixedNow, "O1",
			"pending", "pending_payment", "failed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.BeginPayment(context.Background(), "O1", domain.PaymentInfo{DepositID: "dep-2", Operator: "AIRTEL_COD"})
	assert.NoError(t, err)
}

func TestBeginPayment_MissingOrSettled(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		r, mock := newOrderRepo(t)
		mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id=?`)).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		err := r.BeginPayment(context.Background(), "nope", domain.PaymentInfo{DepositID: "d"})
		assert.ErrorIs(t, err, usecase.ErrNotFound)
	})
	t.Run("paid", func(t *testing.T) {
		r, mock := newOrderRepo(t)
		mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id=?`)).
			WithArgs("O1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("paid"))

		err := r.BeginPayment(context.Background(), "O1", domain.PaymentInfo{DepositID: "d"})
		assert.ErrorIs(t, err, usecase.ErrPaymentNotAllowed)
	})
}

func TestUpdatePaymentIf_VersionGuard(t *testing.T) {
	r, mock := newOrderRepo(t)
	info := domain.PaymentInfo{DepositID: "dep-1", PawapayStatus: "COMPLETED", PaidAt: "2026-03-14T09:05:00Z", Status: "paid"}
	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = ? AND version = ?`)).
		WithArgs("paid", sqlmock.AnyArg(), fixedNow, "O1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = ? AND version = ?`)).
		WithArgs("paid", sqlmock.AnyArg(), fixedNow, "O1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := r.UpdatePaymentIf(context.Background(), "O1", 3, domain.StatusPaid, info)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.UpdatePaymentIf(context.Background(), "O1", 3, domain.StatusPaid, info)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_NotFound(t *testing.T) {
	r, mock := newOrderRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM orders WHERE id=?`)).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.Delete(context.Background(), "nope"), usecase.ErrNotFound)
}
