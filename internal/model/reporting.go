package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralPurchase is one (order, course) line credited to a referrer,
// joined with the buyer's identity. Raw material for the referral summary.
type ReferralPurchase struct {
	BuyerID        int64           `json:"buyer_id"`
	BuyerName      string          `json:"buyer_name"`
	BuyerEmail     string          `json:"buyer_email"`
	BuyerMobile    string          `json:"buyer_mobile"`
	OrderID        int64           `json:"order_id"`
	CourseID       int64           `json:"course_id"`
	CourseTitle    string          `json:"course_title"`
	AmountCredited decimal.Decimal `json:"amount_credited"`
	PurchasedAt    time.Time       `json:"purchased_at"`
}

// LeaderboardAggregate is the per-account raw aggregate behind the
// leaderboard: referred-user count and credited earnings total.
type LeaderboardAggregate struct {
	AccountID     int64
	FullName      string
	Email         string
	MobileNumber  string
	CreatedAt     time.Time
	ReferredCount int64
	TotalEarnings decimal.Decimal
}
