package store

import (
	"context"
	"errors"
	"time"

	"learn-market/internal/model"
)

var ErrEarningNotFound = errors.New("earning not found")
var ErrNoEarnings = errors.New("referrer has no earnings")

const earningColumns = `e.earning_id, e.order_id, e.referrer_id, e.discounted_price, e.gst, e.total_price, e.commission, e.tds, e.amount_credited, e.payout_status, e.created_at, e.updated_at`

func scanEarning(row interface{ Scan(...any) error }, e *model.Earning) error {
	return row.Scan(&e.ID, &e.OrderID, &e.ReferrerID, &e.DiscountedPrice, &e.GST, &e.TotalPrice,
		&e.Commission, &e.TDS, &e.AmountCredited, &e.PayoutStatus, &e.CreatedAt, &e.UpdatedAt)
}

// FindEarnings lists ledger rows joined with the referrer's identity.
// status == nil lists everything.
func (r *Database) FindEarnings(ctx context.Context, status *model.PayoutStatus) ([]model.EarningDetail, error) {
	query := `
		SELECT ` + earningColumns + `, a.full_name, a.mobile_number
		FROM earnings e JOIN accounts a ON a.account_id = e.referrer_id`
	var args []any
	if status != nil {
		query += ` WHERE e.payout_status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY e.created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []model.EarningDetail
	for rows.Next() {
		var d model.EarningDetail
		err := rows.Scan(&d.ID, &d.OrderID, &d.ReferrerID, &d.DiscountedPrice, &d.GST, &d.TotalPrice,
			&d.Commission, &d.TDS, &d.AmountCredited, &d.PayoutStatus, &d.CreatedAt, &d.UpdatedAt,
			&d.ReferrerName, &d.ReferrerMobile)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *Database) FindEarningsByReferrer(ctx context.Context, referrerID int64) ([]model.Earning, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+earningColumns+` FROM earnings e
		WHERE e.referrer_id = $1 ORDER BY e.created_at DESC`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var earnings []model.Earning
	for rows.Next() {
		var e model.Earning
		if err := scanEarning(rows, &e); err != nil {
			return nil, err
		}
		earnings = append(earnings, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return earnings, nil
}

// GroupEarningsByReferrer collects every ledger row created since the
// window start, grouped per referrer with the pending amount totalled.
// Approved rows stay in the batch so the operator view can tell a fully
// approved batch from one still waiting.
func (r *Database) GroupEarningsByReferrer(ctx context.Context, since time.Time) ([]model.ReferrerBatch, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT e.referrer_id, a.full_name, a.mobile_number,
		       e.earning_id, e.order_id, o.payment_id,
		       e.total_price, e.commission, e.tds, e.amount_credited, e.payout_status, e.created_at
		FROM earnings e
		JOIN accounts a ON a.account_id = e.referrer_id
		JOIN orders o ON o.order_id = e.order_id
		WHERE e.created_at >= $1
		ORDER BY e.referrer_id, e.created_at`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []model.ReferrerBatch
	byReferrer := make(map[int64]int)
	for rows.Next() {
		var (
			referrerID   int64
			name, mobile string
			entry        model.BatchEntry
		)
		err := rows.Scan(&referrerID, &name, &mobile,
			&entry.EarningID, &entry.OrderID, &entry.PaymentID,
			&entry.TotalPrice, &entry.Commission, &entry.TDS, &entry.AmountCredited,
			&entry.PayoutStatus, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}

		idx, ok := byReferrer[referrerID]
		if !ok {
			idx = len(batches)
			byReferrer[referrerID] = idx
			batches = append(batches, model.ReferrerBatch{
				ReferrerID:     referrerID,
				ReferrerName:   name,
				ReferrerMobile: mobile,
			})
		}
		b := &batches[idx]
		b.Entries = append(b.Entries, entry)
		b.OrderCount++
		if entry.PayoutStatus == model.PayoutPending {
			b.PendingTotal = b.PendingTotal.Add(entry.AmountCredited)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

// ApproveOne transitions a single earning to Approved. Approving an
// already approved row is a no-op, an unknown id is ErrEarningNotFound.
func (r *Database) ApproveOne(ctx context.Context, earningID int64) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE earnings SET payout_status = $1, updated_at = now() at time zone 'utc'
		WHERE earning_id = $2 AND payout_status <> $1`,
		model.PayoutApproved, earningID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		err := r.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM earnings WHERE earning_id = $1)`, earningID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return ErrEarningNotFound
		}
	}
	return nil
}

// ApproveAllForReferrer bulk-transitions every non-approved earning of a
// referrer in a single conditional update, so two racing approvals cannot
// lose rows. Returns the number of rows actually transitioned; a second
// call with nothing left reports zero. A referrer with no earnings at all
// is ErrNoEarnings, distinct from the zero-pending no-op.
func (r *Database) ApproveAllForReferrer(ctx context.Context, referrerID int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE earnings SET payout_status = $1, updated_at = now() at time zone 'utc'
		WHERE referrer_id = $2 AND payout_status <> $1`,
		model.PayoutApproved, referrerID)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		var exists bool
		err := r.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM earnings WHERE referrer_id = $1)`, referrerID).Scan(&exists)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, ErrNoEarnings
		}
	}
	return affected, nil
}

// ReferralPurchases lists every (order, course) line credited to the
// referrer, joined with the buyer's identity, newest first.
func (r *Database) ReferralPurchases(ctx context.Context, referrerID int64) ([]model.ReferralPurchase, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT b.account_id, b.full_name, b.email, b.mobile_number,
		       o.order_id, c.course_id, c.title, e.amount_credited, o.created_at
		FROM earnings e
		JOIN orders o ON o.order_id = e.order_id
		JOIN accounts b ON b.account_id = o.account_id
		JOIN order_courses oc ON oc.order_id = o.order_id
		JOIN courses c ON c.course_id = oc.course_id
		WHERE e.referrer_id = $1
		ORDER BY o.created_at DESC`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []model.ReferralPurchase
	for rows.Next() {
		var p model.ReferralPurchase
		err := rows.Scan(&p.BuyerID, &p.BuyerName, &p.BuyerEmail, &p.BuyerMobile,
			&p.OrderID, &p.CourseID, &p.CourseTitle, &p.AmountCredited, &p.PurchasedAt)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

// LeaderboardAggregates returns, for every non-operator account, the
// referred-user count and the credited earnings total in one query.
func (r *Database) LeaderboardAggregates(ctx context.Context) ([]model.LeaderboardAggregate, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT a.account_id, a.full_name, a.email, a.mobile_number, a.created_at,
		       COALESCE(rc.cnt, 0), COALESCE(es.total, 0)
		FROM accounts a
		LEFT JOIN (
			SELECT referred_by, COUNT(*) AS cnt
			FROM accounts WHERE referred_by IS NOT NULL GROUP BY referred_by
		) rc ON rc.referred_by = a.account_id
		LEFT JOIN (
			SELECT referrer_id, SUM(amount_credited) AS total
			FROM earnings GROUP BY referrer_id
		) es ON es.referrer_id = a.account_id
		WHERE a.role <> $1`, model.RoleOperator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggs []model.LeaderboardAggregate
	for rows.Next() {
		var a model.LeaderboardAggregate
		err := rows.Scan(&a.AccountID, &a.FullName, &a.Email, &a.MobileNumber, &a.CreatedAt,
			&a.ReferredCount, &a.TotalEarnings)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return aggs, nil
}
