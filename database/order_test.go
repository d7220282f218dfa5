package database

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenpay/orderhub/internal/apierror"
	"github.com/ravenpay/orderhub/model"
)

func newTestDatasource(t *testing.T) (Datasource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return Datasource{Conn: db, tableRef: "orderhub.orders"}, mock
}

func testOrder() *model.Order {
	return &model.Order{
		RecordID:    model.GenerateUUIDWithSuffix("ord"),
		OrderID:     "ord-123",
		Amount:      99.5,
		FromAccount: "12345",
		ToAccount:   "67890",
		Valid:       true,
		CreatedAt:   time.Now(),
	}
}

func TestRecordOrder(t *testing.T) {
	ds, mock := newTestDatasource(t)
	order := testOrder()
	order.IsDuplicate = true

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orderhub.orders(record_id,order_id,amount,from_account,to_account,valid,is_duplicate,created_at,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)")).
		WithArgs(order.RecordID, order.OrderID, order.Amount, order.FromAccount, order.ToAccount, order.Valid, order.IsDuplicate, order.CreatedAt, []byte("null")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	saved, err := ds.RecordOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, order.RecordID, saved.RecordID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordCanonicalOrder(t *testing.T) {
	ds, mock := newTestDatasource(t)
	order := testOrder()

	query := regexp.QuoteMeta("INSERT INTO orderhub.orders(record_id,order_id,amount,from_account,to_account,valid,is_duplicate,created_at,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (order_id) WHERE NOT is_duplicate AND order_id <> '' DO NOTHING")

	mock.ExpectExec(query).
		WithArgs(order.RecordID, order.OrderID, order.Amount, order.FromAccount, order.ToAccount, order.Valid, order.IsDuplicate, order.CreatedAt, []byte("null")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	inserted, err := ds.RecordCanonicalOrder(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, inserted)

	// A second insert for the same business identifier hits the partial
	// unique index and affects zero rows.
	loser := testOrder()
	mock.ExpectExec(query).
		WithArgs(loser.RecordID, loser.OrderID, loser.Amount, loser.FromAccount, loser.ToAccount, loser.Valid, loser.IsDuplicate, loser.CreatedAt, []byte("null")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err = ds.RecordCanonicalOrder(context.Background(), loser)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderExistsByID(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM orderhub.orders WHERE order_id = $1 AND NOT is_duplicate)")).
		WithArgs("ord-123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := ds.OrderExistsByID(context.Background(), "ord-123")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM orderhub.orders WHERE order_id = $1 AND NOT is_duplicate)")).
		WithArgs("ord-404").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err = ds.OrderExistsByID(context.Background(), "ord-404")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByID(t *testing.T) {
	ds, mock := newTestDatasource(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"record_id", "order_id", "amount", "from_account", "to_account", "valid", "is_duplicate", "created_at", "meta_data"}).
		AddRow("ord_abc", "ord-123", 99.5, "12345", "67890", true, false, now, []byte(`{"source":"sqs"}`))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT record_id, order_id, amount, from_account, to_account, valid, is_duplicate, created_at, meta_data")).
		WithArgs("ord-123").
		WillReturnRows(rows)

	order, err := ds.GetOrderByID(context.Background(), "ord-123")
	require.NoError(t, err)
	assert.Equal(t, "ord-123", order.OrderID)
	assert.Equal(t, 99.5, order.Amount)
	assert.Equal(t, "sqs", order.MetaData["source"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByIDNotFound(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT record_id, order_id, amount, from_account, to_account, valid, is_duplicate, created_at, meta_data")).
		WithArgs("ord-404").
		WillReturnError(sql.ErrNoRows)

	_, err := ds.GetOrderByID(context.Background(), "ord-404")
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
