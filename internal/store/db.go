package store

import (
	"database/sql"
	"errors"
	"fmt"
	"learn-market/internal/logging"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type Database struct {
	DBDSN string
	DB    *sql.DB
}

func (ms *Database) NewStorage(DBDSN string) error {
	var err error
	ms.DBDSN = DBDSN
	if logging.Logg == nil {
		return fmt.Errorf("logger is not initialized")
	}

	if ms.DB, err = sql.Open("pgx", ms.DBDSN); err != nil {
		logging.Logg.Error("Couldn't connect to the database with an error", "error", err)
		return err
	}

	err = ms.initDBTables()
	if err != nil {
		logging.Logg.Error("Failed to initialize DB", "error", err)
		return err
	}
	logging.Logg.Info("Database connection was created")
	return nil
}

func (ms *Database) initDBTables() error {
	var errs []error
	stmts := []string{
		`create table if not exists accounts (
			account_id BIGSERIAL PRIMARY KEY,
			full_name VARCHAR(100) NOT NULL,
			email VARCHAR(100) NOT NULL UNIQUE,
			mobile_number VARCHAR(20) NOT NULL DEFAULT '',
			password_hash VARCHAR(60) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'user',
			referral_code VARCHAR(20) NOT NULL UNIQUE,
			referred_by BIGINT REFERENCES accounts(account_id),
			earnings_total DECIMAL(12, 2) NOT NULL DEFAULT 0.00,
			created_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc')
		);`,

		`create table if not exists courses (
			course_id BIGSERIAL PRIMARY KEY,
			title VARCHAR(80) NOT NULL,
			discounted_price DECIMAL(12, 2) NOT NULL,
			referral_bonus_pct DECIMAL(5, 2) NOT NULL,
			total_enrolled BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc')
		);`,

		`create table if not exists account_courses (
			account_id BIGINT NOT NULL REFERENCES accounts(account_id) ON DELETE CASCADE,
			course_id BIGINT NOT NULL REFERENCES courses(course_id) ON DELETE CASCADE,
			purchased_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc'),
			PRIMARY KEY (account_id, course_id)
		);`,

		`create table if not exists orders (
			order_id BIGSERIAL PRIMARY KEY,
			payment_id VARCHAR(20) NOT NULL UNIQUE,
			account_id BIGINT NOT NULL REFERENCES accounts(account_id) ON DELETE CASCADE,
			discounted_price_total DECIMAL(12, 2) NOT NULL,
			gst_amount DECIMAL(12, 2) NOT NULL,
			total_price DECIMAL(12, 2) NOT NULL,
			commission DECIMAL(12, 2) NOT NULL,
			tds DECIMAL(12, 2) NOT NULL,
			amount_credited DECIMAL(12, 2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'Active',
			created_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc')
		);`,

		`create table if not exists order_courses (
			order_id BIGINT NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
			course_id BIGINT NOT NULL REFERENCES courses(course_id),
			price DECIMAL(12, 2) NOT NULL,
			bonus_pct DECIMAL(5, 2) NOT NULL,
			PRIMARY KEY (order_id, course_id)
		);`,

		`create table if not exists earnings (
			earning_id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL UNIQUE REFERENCES orders(order_id),
			referrer_id BIGINT NOT NULL REFERENCES accounts(account_id),
			discounted_price DECIMAL(12, 2) NOT NULL,
			gst DECIMAL(12, 2) NOT NULL,
			total_price DECIMAL(12, 2) NOT NULL,
			commission DECIMAL(12, 2) NOT NULL,
			tds DECIMAL(12, 2) NOT NULL,
			amount_credited DECIMAL(12, 2) NOT NULL,
			payout_status VARCHAR(20) NOT NULL DEFAULT 'Pending',
			created_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc'),
			updated_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc')
		);`,

		`create table if not exists counters (
			name VARCHAR(30) PRIMARY KEY,
			value BIGINT NOT NULL DEFAULT 0
		);`,

		`create index if not exists idx_accounts_referred_by ON accounts(referred_by);`,
		`create index if not exists idx_earnings_referrer_status ON earnings(referrer_id, payout_status);`,
	}

	for _, s := range stmts {
		_, err := ms.DB.Exec(s)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
