package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/ravenpay/orderhub/internal/apierror"
	"github.com/ravenpay/orderhub/model"
)

// RecordOrder inserts an order row keyed by its generated record ID. This is
// the path for duplicate submissions and for orders that arrived without a
// business identifier; both must still produce exactly one audit row.
func (d Datasource) RecordOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	ctx, span := otel.Tracer("Queue order").Start(ctx, "Saving order to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(order.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	_, err = d.Conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s(record_id,order_id,amount,from_account,to_account,valid,is_duplicate,created_at,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, d.tableRef),
		order.RecordID, order.OrderID, order.Amount, order.FromAccount, order.ToAccount, order.Valid, order.IsDuplicate, order.CreatedAt, metaDataJSON,
	)

	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record order", err)
	}

	return order, nil
}

// RecordCanonicalOrder inserts the canonical row for the order's business ID
// iff no canonical row exists yet. The insert-if-absent runs on the partial
// unique index over non-duplicate rows, so two concurrent redeliveries of the
// same ID cannot both claim the first-seen slot; the loser sees inserted ==
// false and records itself as a duplicate instead.
func (d Datasource) RecordCanonicalOrder(ctx context.Context, order *model.Order) (bool, error) {
	ctx, span := otel.Tracer("Queue order").Start(ctx, "Saving canonical order to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(order.MetaData)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	result, err := d.Conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s(record_id,order_id,amount,from_account,to_account,valid,is_duplicate,created_at,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (order_id) WHERE NOT is_duplicate AND order_id <> '' DO NOTHING`, d.tableRef),
		order.RecordID, order.OrderID, order.Amount, order.FromAccount, order.ToAccount, order.Valid, order.IsDuplicate, order.CreatedAt, metaDataJSON,
	)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record canonical order", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read canonical insert result", err)
	}

	return rowsAffected == 1, nil
}

// OrderExistsByID checks whether a canonical (non-duplicate) row exists for
// the given business identifier.
func (d Datasource) OrderExistsByID(ctx context.Context, orderID string) (bool, error) {
	ctx, span := otel.Tracer("Queue order").Start(ctx, "Checking order existence by id")
	defer span.End()

	var exists bool
	err := d.Conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE order_id = $1 AND NOT is_duplicate)`, d.tableRef),
		orderID,
	).Scan(&exists)

	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check if order exists", err)
	}

	return exists, nil
}

// GetOrderByID retrieves the canonical row for a business identifier.
// Duplicate audit rows are not reachable here.
func (d Datasource) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	row := d.Conn.QueryRowContext(ctx,
		fmt.Sprintf(`
		SELECT record_id, order_id, amount, from_account, to_account, valid, is_duplicate, created_at, meta_data
		FROM %s
		WHERE order_id = $1 AND NOT is_duplicate
	`, d.tableRef), orderID)

	order := &model.Order{}
	var metaDataJSON []byte
	err := row.Scan(&order.RecordID, &order.OrderID, &order.Amount, &order.FromAccount, &order.ToAccount, &order.Valid, &order.IsDuplicate, &order.CreatedAt, &metaDataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Order with ID '%s' not found", orderID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve order", err)
	}

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &order.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}

	return order, nil
}
