package store

import (
	"context"
	"database/sql"
	"errors"

	"learn-market/internal/model"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrDuplicate = errors.New("email already exists")

const accountColumns = `account_id, full_name, email, mobile_number, password_hash, role, referral_code, referred_by, earnings_total, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var acc model.Account
	var referredBy sql.NullInt64
	err := row.Scan(&acc.ID, &acc.FullName, &acc.Email, &acc.MobileNumber, &acc.PasswordHash,
		&acc.Role, &acc.ReferralCode, &referredBy, &acc.EarningsTotal, &acc.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if referredBy.Valid {
		acc.ReferredBy = &referredBy.Int64
	}
	return &acc, nil
}

func (r *Database) CreateAccount(ctx context.Context, acc *model.Account) (int64, error) {
	createAccount := `INSERT INTO accounts(full_name, email, mobile_number, password_hash, role, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING account_id, created_at`

	var referredBy sql.NullInt64
	if acc.ReferredBy != nil {
		referredBy = sql.NullInt64{Int64: *acc.ReferredBy, Valid: true}
	}

	err := r.DB.QueryRowContext(ctx, createAccount,
		acc.FullName, acc.Email, acc.MobileNumber, acc.PasswordHash, acc.Role, acc.ReferralCode, referredBy).
		Scan(&acc.ID, &acc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return acc.ID, nil
}

func (r *Database) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_id = $1`, id))
}

func (r *Database) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

func (r *Database) GetAccountByReferralCode(ctx context.Context, code string) (*model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE referral_code = $1`, code))
}

// RootAccounts returns every account with no referrer, the roots of the
// referral forest.
func (r *Database) RootAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE referred_by IS NULL ORDER BY account_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// AccountsReferredBy fetches the direct referrals of every parent in one
// batched query, the unit of the level-order tree traversal.
func (r *Database) AccountsReferredBy(ctx context.Context, parentIDs []int64) ([]model.Account, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE referred_by = ANY($1) ORDER BY account_id`, parentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]model.Account, error) {
	var accounts []model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}
