package referral

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"learn-market/internal/model"
)

type LeaderboardRow struct {
	Rank               int             `json:"rank"`
	AccountID          int64           `json:"account_id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	MobileNumber       string          `json:"mobile_number"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
	TotalReferredUsers int64           `json:"total_referred_users"`
	DurationDays       int             `json:"duration_days"`
}

// RankLeaderboard orders accounts by credited earnings descending with a
// deterministic tie-break on the earliest account creation, then assigns
// ranks 1..n.
func RankLeaderboard(aggs []model.LeaderboardAggregate, now time.Time) []LeaderboardRow {
	sort.SliceStable(aggs, func(i, j int) bool {
		cmp := aggs[i].TotalEarnings.Cmp(aggs[j].TotalEarnings)
		if cmp != 0 {
			return cmp > 0
		}
		if !aggs[i].CreatedAt.Equal(aggs[j].CreatedAt) {
			return aggs[i].CreatedAt.Before(aggs[j].CreatedAt)
		}
		return aggs[i].AccountID < aggs[j].AccountID
	})

	rows := make([]LeaderboardRow, 0, len(aggs))
	for i, a := range aggs {
		rows = append(rows, LeaderboardRow{
			Rank:               i + 1,
			AccountID:          a.AccountID,
			Name:               a.FullName,
			Email:              a.Email,
			MobileNumber:       a.MobileNumber,
			TotalEarnings:      a.TotalEarnings,
			TotalReferredUsers: a.ReferredCount,
			DurationDays:       durationDays(a.CreatedAt, now),
		})
	}
	return rows
}

type SummaryPurchase struct {
	CourseID       int64           `json:"course_id"`
	CourseTitle    string          `json:"course_title"`
	AmountCredited decimal.Decimal `json:"amount_credited"`
	DateOfPurchase time.Time       `json:"date_of_purchase"`
}

type ReferredUser struct {
	AccountID    int64             `json:"account_id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	MobileNumber string            `json:"mobile_number"`
	Purchases    []SummaryPurchase `json:"purchased_courses"`
}

type Summary struct {
	ReferredUsers      []ReferredUser  `json:"referred_users"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
	DailyEarnings      decimal.Decimal `json:"daily_earnings"`
	WeeklyEarnings     decimal.Decimal `json:"weekly_earnings"`
	MonthlyEarnings    decimal.Decimal `json:"monthly_earnings"`
	DurationDays       int             `json:"duration_days"`
	TotalReferredUsers int             `json:"total_referred_users"`
}

// BuildSummary rolls the referrer's credited purchases into the
// single-account view: direct referrals with their purchases, plus
// daily/weekly/monthly/total windows against now in local time. The
// purchase rows come one per (order, course); window sums count each
// order once.
func BuildSummary(account *model.Account, purchases []model.ReferralPurchase, now time.Time) *Summary {
	summary := &Summary{
		DurationDays: durationDays(account.CreatedAt, now),
	}

	byBuyer := make(map[int64]int)
	summedOrders := make(map[int64]bool)
	for _, p := range purchases {
		idx, ok := byBuyer[p.BuyerID]
		if !ok {
			idx = len(summary.ReferredUsers)
			byBuyer[p.BuyerID] = idx
			summary.ReferredUsers = append(summary.ReferredUsers, ReferredUser{
				AccountID:    p.BuyerID,
				Name:         p.BuyerName,
				Email:        p.BuyerEmail,
				MobileNumber: p.BuyerMobile,
			})
		}
		u := &summary.ReferredUsers[idx]
		u.Purchases = append(u.Purchases, SummaryPurchase{
			CourseID:       p.CourseID,
			CourseTitle:    p.CourseTitle,
			AmountCredited: p.AmountCredited,
			DateOfPurchase: p.PurchasedAt,
		})

		if summedOrders[p.OrderID] {
			continue
		}
		summedOrders[p.OrderID] = true

		summary.TotalEarnings = summary.TotalEarnings.Add(p.AmountCredited)
		if sameDay(p.PurchasedAt, now) {
			summary.DailyEarnings = summary.DailyEarnings.Add(p.AmountCredited)
		}
		if sameWeek(p.PurchasedAt, now) {
			summary.WeeklyEarnings = summary.WeeklyEarnings.Add(p.AmountCredited)
		}
		if sameMonth(p.PurchasedAt, now) {
			summary.MonthlyEarnings = summary.MonthlyEarnings.Add(p.AmountCredited)
		}
	}

	summary.TotalReferredUsers = len(summary.ReferredUsers)
	return summary
}

func durationDays(from, now time.Time) int {
	days := int(now.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

func sameWeek(a, b time.Time) bool {
	ay, aw := a.Local().ISOWeek()
	by, bw := b.Local().ISOWeek()
	return ay == by && aw == bw
}

func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Local().Date()
	by, bm, _ := b.Local().Date()
	return ay == by && am == bm
}
