package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleOperator Role = "operator"
)

type Account struct {
	ID            int64           `json:"account_id"`
	FullName      string          `json:"full_name"`
	Email         string          `json:"email"`
	MobileNumber  string          `json:"mobile_number"`
	PasswordHash  string          `json:"-"`
	Role          Role            `json:"role"`
	ReferralCode  string          `json:"referral_code"`  // unique, generated at registration
	ReferredBy    *int64          `json:"referred_by"`    // nil for root accounts, set once
	EarningsTotal decimal.Decimal `json:"earnings_total"` // running cache over the ledger
	CreatedAt     time.Time       `json:"created_at"`
}

type Course struct {
	ID               int64           `json:"course_id"`
	Title            string          `json:"title"`
	DiscountedPrice  decimal.Decimal `json:"discounted_price"`
	ReferralBonusPct decimal.Decimal `json:"referral_bonus_pct"` // percent of price credited as commission
	TotalEnrolled    int64           `json:"total_enrolled"`
	CreatedAt        time.Time       `json:"created_at"`
}

type OrderStatus string

const (
	OrderActive    OrderStatus = "Active"
	OrderCancelled OrderStatus = "Cancelled"
)

type Order struct {
	ID                   int64           `json:"order_id"`
	PaymentID            string          `json:"payment_id"` // sequential, zero-padded, unique
	AccountID            int64           `json:"account_id"`
	CourseIDs            []int64         `json:"course_ids"`
	DiscountedPriceTotal decimal.Decimal `json:"discounted_price_total"`
	GSTAmount            decimal.Decimal `json:"gst_amount"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	Commission           decimal.Decimal `json:"commission"`
	TDS                  decimal.Decimal `json:"tds"`
	AmountCredited       decimal.Decimal `json:"amount_credited"`
	Status               OrderStatus     `json:"status"`
	CreatedAt            time.Time       `json:"created_at"`
}

type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "Pending"
	PayoutApproved PayoutStatus = "Approved"
)

// Earning is one immutable ledger row per order, attributed to the
// purchaser's referrer at purchase time. payout_status is the only
// mutable field and only ever moves Pending -> Approved.
type Earning struct {
	ID              int64           `json:"earning_id"`
	OrderID         int64           `json:"order_id"`
	ReferrerID      int64           `json:"referrer_id"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	GST             decimal.Decimal `json:"gst"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Commission      decimal.Decimal `json:"commission"`
	TDS             decimal.Decimal `json:"tds"`
	AmountCredited  decimal.Decimal `json:"amount_credited"`
	PayoutStatus    PayoutStatus    `json:"payout_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// EarningDetail is an Earning joined with the referrer's display identity,
// used by the operator listing endpoints.
type EarningDetail struct {
	Earning
	ReferrerName   string `json:"referrer_name"`
	ReferrerMobile string `json:"referrer_mobile"`
}

// BatchEntry is one earning inside a payout batch.
type BatchEntry struct {
	EarningID      int64           `json:"earning_id"`
	OrderID        int64           `json:"order_id"`
	PaymentID      string          `json:"payment_id"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Commission     decimal.Decimal `json:"commission"`
	TDS            decimal.Decimal `json:"tds"`
	AmountCredited decimal.Decimal `json:"amount_credited"`
	PayoutStatus   PayoutStatus    `json:"payout_status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ReferrerBatch groups a referrer's weekly earnings for operator review.
// Status is Approved only when every entry in the batch is Approved.
type ReferrerBatch struct {
	ReferrerID     int64           `json:"referrer_id"`
	ReferrerName   string          `json:"referrer_name"`
	ReferrerMobile string          `json:"referrer_mobile"`
	PendingTotal   decimal.Decimal `json:"pending_total"`
	OrderCount     int             `json:"order_count"`
	Entries        []BatchEntry    `json:"entries"`
	Status         PayoutStatus    `json:"status"`
}
