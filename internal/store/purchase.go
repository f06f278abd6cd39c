package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learn-market/internal/commission"
	"learn-market/internal/logging"
	"learn-market/internal/model"
)

var ErrAlreadyOwned = errors.New("course already purchased by the account")
var ErrDuplicateEarning = errors.New("order already has an earning")
var ErrFailCommTrans = errors.New("failed to commit transaction")

// paymentCounter is the single named sequence used to mint payment ids.
const paymentCounter = "payment"

// mintPaymentSeq atomically increments the named counter and returns the
// new value in one statement, so concurrent purchases can never mint the
// same payment id.
const mintPaymentSeq = `
	INSERT INTO counters (name, value) VALUES ($1, 1)
	ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
	RETURNING value`

// CreatePurchase performs every write of a purchase as one transaction:
// payment id mint, order row, per-course order lines, the earning ledger
// row, the referrer's running balance, course ownership and enrollment
// counters. A failure anywhere rolls back everything.
func (r *Database) CreatePurchase(ctx context.Context, purchaserID, referrerID int64,
	courses []model.Course, amounts commission.Breakdown) (*model.Order, *model.Earning, error) {

	amounts = amounts.Rounded()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			logging.Logg.Error("Purchase transaction rolled back", "error", err)
		}
	}()

	var seq int64
	if err = tx.QueryRowContext(ctx, mintPaymentSeq, paymentCounter).Scan(&seq); err != nil {
		return nil, nil, err
	}

	order := &model.Order{
		PaymentID:            fmt.Sprintf("PAY%08d", seq),
		AccountID:            purchaserID,
		DiscountedPriceTotal: amounts.DiscountedTotal,
		GSTAmount:            amounts.GSTAmount,
		TotalPrice:           amounts.TotalPaid,
		Commission:           amounts.Commission,
		TDS:                  amounts.TDS,
		AmountCredited:       amounts.AmountCredited,
		Status:               model.OrderActive,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders(payment_id, account_id, discounted_price_total, gst_amount, total_price, commission, tds, amount_credited, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING order_id, created_at`,
		order.PaymentID, order.AccountID, order.DiscountedPriceTotal, order.GSTAmount,
		order.TotalPrice, order.Commission, order.TDS, order.AmountCredited, order.Status).
		Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, nil, err
	}

	for _, c := range courses {
		order.CourseIDs = append(order.CourseIDs, c.ID)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_courses(order_id, course_id, price, bonus_pct)
			VALUES ($1, $2, $3, $4)`,
			order.ID, c.ID, c.DiscountedPrice, c.ReferralBonusPct)
		if err != nil {
			return nil, nil, err
		}
	}

	earning := &model.Earning{
		OrderID:         order.ID,
		ReferrerID:      referrerID,
		DiscountedPrice: amounts.DiscountedTotal,
		GST:             amounts.GSTAmount,
		TotalPrice:      amounts.TotalPaid,
		Commission:      amounts.Commission,
		TDS:             amounts.TDS,
		AmountCredited:  amounts.AmountCredited,
		PayoutStatus:    model.PayoutPending,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO earnings(order_id, referrer_id, discounted_price, gst, total_price, commission, tds, amount_credited, payout_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING earning_id, created_at, updated_at`,
		earning.OrderID, earning.ReferrerID, earning.DiscountedPrice, earning.GST,
		earning.TotalPrice, earning.Commission, earning.TDS, earning.AmountCredited, earning.PayoutStatus).
		Scan(&earning.ID, &earning.CreatedAt, &earning.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicateEarning
		}
		return nil, nil, err
	}

	// Increment by delta, never read-modify-write: concurrent purchases
	// crediting the same referrer must not lose an update.
	_, err = tx.ExecContext(ctx, `
		UPDATE accounts SET earnings_total = earnings_total + $1 WHERE account_id = $2`,
		earning.AmountCredited, referrerID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	for _, c := range courses {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO account_courses(account_id, course_id, purchased_at) VALUES ($1, $2, $3)`,
			purchaserID, c.ID, now)
		if err != nil {
			if isUniqueViolation(err) {
				err = ErrAlreadyOwned
			}
			return nil, nil, err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE courses SET total_enrolled = total_enrolled + 1 WHERE course_id = $1`, c.ID)
		if err != nil {
			return nil, nil, err
		}
	}

	err = tx.Commit()
	if err != nil {
		logging.Logg.Error("Failed to commit transaction", "error", ErrFailCommTrans)
		return nil, nil, err
	}

	return order, earning, nil
}
