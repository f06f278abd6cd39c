package store

import (
	"context"
	"database/sql"
	"errors"

	"learn-market/internal/model"
)

var ErrOrderNotFound = errors.New("order not found")
var ErrOrderCancelled = errors.New("order is already cancelled")

const orderColumns = `order_id, payment_id, account_id, discounted_price_total, gst_amount, total_price, commission, tds, amount_credited, status, created_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.PaymentID, &o.AccountID, &o.DiscountedPriceTotal, &o.GSTAmount,
		&o.TotalPrice, &o.Commission, &o.TDS, &o.AmountCredited, &o.Status, &o.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *Database) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	order, err := scanOrder(r.DB.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachCourseIDs(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Database) GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *Database) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// CancelOrder transitions Active -> Cancelled. The conditional update
// distinguishes an unknown order from one that is already cancelled.
func (r *Database) CancelOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE order_id = $2 AND status = $3`,
		model.OrderCancelled, orderID, model.OrderActive)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		order, err := r.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if order.Status == model.OrderCancelled {
			return nil, ErrOrderCancelled
		}
		return nil, ErrOrderNotFound
	}
	return r.GetOrderByID(ctx, orderID)
}

func (r *Database) attachCourseIDs(ctx context.Context, order *model.Order) error {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT course_id FROM order_courses WHERE order_id = $1 ORDER BY course_id`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		order.CourseIDs = append(order.CourseIDs, id)
	}
	return rows.Err()
}

func collectOrders(rows *sql.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
