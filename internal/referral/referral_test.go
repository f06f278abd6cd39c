package referral

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learn-market/internal/logging"
	"learn-market/internal/model"
)

func TestMain(m *testing.M) {
	logging.Logg = logging.NewLogger("error")
	os.Exit(m.Run())
}

func TestNewCodeIsValid(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		assert.Len(t, code, 8)
		assert.NoError(t, ValidateCode(code))
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes should not all collide")
}

func TestValidateCodeRejectsTypos(t *testing.T) {
	code, err := NewCode()
	require.NoError(t, err)

	// Flip the last digit; the Luhn check digit must catch it.
	last := code[len(code)-1]
	flipped := code[:len(code)-1] + string('0'+(last-'0'+1)%10)
	assert.ErrorIs(t, ValidateCode(flipped), ErrInvalidCode)

	assert.ErrorIs(t, ValidateCode(""), ErrInvalidCode)
	assert.ErrorIs(t, ValidateCode("123"), ErrInvalidCode)
	assert.ErrorIs(t, ValidateCode("abcdefgh"), ErrInvalidCode)
}

type fakeGraph struct {
	roots    []model.Account
	children map[int64][]model.Account
	queries  int
}

func (f *fakeGraph) RootAccounts(_ context.Context) ([]model.Account, error) {
	return f.roots, nil
}

func (f *fakeGraph) AccountsReferredBy(_ context.Context, parentIDs []int64) ([]model.Account, error) {
	f.queries++
	var out []model.Account
	for _, id := range parentIDs {
		out = append(out, f.children[id]...)
	}
	return out, nil
}

func ref(id int64) *int64 { return &id }

func acc(id int64, name string, referredBy *int64) model.Account {
	return model.Account{ID: id, FullName: name, Email: name + "@example.com", ReferredBy: referredBy}
}

func TestBuildNetworkForest(t *testing.T) {
	g := &fakeGraph{
		roots: []model.Account{acc(1, "a", nil), acc(2, "b", nil)},
		children: map[int64][]model.Account{
			1: {acc(3, "c", ref(1)), acc(4, "d", ref(1))},
			2: {acc(5, "e", ref(2))},
			3: {acc(6, "f", ref(3))},
		},
	}

	network, err := BuildNetwork(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, network.Roots, 2)
	assert.Empty(t, network.Anomalies)

	a := network.Roots[0]
	require.Len(t, a.Children, 2)
	assert.Equal(t, int64(3), a.Children[0].AccountID)
	require.Len(t, a.Children[0].Children, 1)
	assert.Equal(t, int64(6), a.Children[0].Children[0].AccountID)

	b := network.Roots[1]
	require.Len(t, b.Children, 1)
	assert.Equal(t, int64(5), b.Children[0].AccountID)

	// One batched query per generation, not one per node.
	assert.Equal(t, 3, g.queries)
}

func TestBuildNetworkReportsCycle(t *testing.T) {
	// Corrupted edge: account 1 shows up again under its own descendant.
	g := &fakeGraph{
		roots: []model.Account{acc(1, "a", nil)},
		children: map[int64][]model.Account{
			1: {acc(2, "b", ref(1))},
			2: {acc(1, "a", ref(2))},
		},
	}

	network, err := BuildNetwork(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, network.Roots, 1)
	assert.Equal(t, []int64{1}, network.Anomalies)
	// The cycle is reported, never re-expanded.
	require.Len(t, network.Roots[0].Children, 1)
	assert.Empty(t, network.Roots[0].Children[0].Children)
}

func agg(id int64, name string, total string, createdAt time.Time) model.LeaderboardAggregate {
	return model.LeaderboardAggregate{
		AccountID:     id,
		FullName:      name,
		CreatedAt:     createdAt,
		TotalEarnings: decimal.RequireFromString(total),
	}
}

func TestRankLeaderboard(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	early := now.AddDate(0, -2, 0)
	late := now.AddDate(0, -1, 0)

	rows := RankLeaderboard([]model.LeaderboardAggregate{
		agg(1, "low", "100", early),
		agg(2, "tie-late", "500", late),
		agg(3, "tie-early", "500", early),
		agg(4, "top", "900", late),
	}, now)

	require.Len(t, rows, 4)
	assert.Equal(t, []int64{4, 3, 2, 1}, []int64{rows[0].AccountID, rows[1].AccountID, rows[2].AccountID, rows[3].AccountID})
	for i, r := range rows {
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, 31, rows[0].DurationDays)
}

func TestRankLeaderboardDeterministicTieBreak(t *testing.T) {
	now := time.Now()
	created := now.AddDate(0, 0, -10)

	a := []model.LeaderboardAggregate{
		agg(7, "x", "250", created),
		agg(5, "y", "250", created),
	}
	rows := RankLeaderboard(a, now)
	assert.Equal(t, int64(5), rows[0].AccountID, "equal earnings and creation fall back to id order")
}

func purchaseRow(buyer int64, order int64, course int64, amount string, at time.Time) model.ReferralPurchase {
	return model.ReferralPurchase{
		BuyerID:        buyer,
		BuyerName:      "buyer",
		OrderID:        order,
		CourseID:       course,
		CourseTitle:    "course",
		AmountCredited: decimal.RequireFromString(amount),
		PurchasedAt:    at,
	}
}

func TestBuildSummaryWindows(t *testing.T) {
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC) // Wednesday
	account := &model.Account{ID: 1, CreatedAt: now.AddDate(0, 0, -30)}

	// Rows fall into today, this week, this month and an older bucket.
	purchases := []model.ReferralPurchase{
		purchaseRow(10, 100, 1, "475", now.Add(-2*time.Hour)),
		purchaseRow(10, 101, 2, "100", now.AddDate(0, 0, -1)),
		purchaseRow(11, 102, 3, "50", now.AddDate(0, 0, -10)),
		purchaseRow(11, 103, 4, "25", now.AddDate(0, -3, 0)),
	}

	s := BuildSummary(account, purchases, now)

	assert.True(t, s.TotalEarnings.Equal(decimal.RequireFromString("650")), "total %s", s.TotalEarnings)
	assert.True(t, s.DailyEarnings.Equal(decimal.RequireFromString("475")), "daily %s", s.DailyEarnings)
	assert.True(t, s.WeeklyEarnings.Equal(decimal.RequireFromString("575")), "weekly %s", s.WeeklyEarnings)
	assert.True(t, s.MonthlyEarnings.Equal(decimal.RequireFromString("625")), "monthly %s", s.MonthlyEarnings)
	assert.Equal(t, 30, s.DurationDays)
	assert.Equal(t, 2, s.TotalReferredUsers)
}

func TestBuildSummaryCountsEachOrderOnce(t *testing.T) {
	// A two-course order produces two purchase rows but one credit.
	now := time.Now()
	account := &model.Account{ID: 1, CreatedAt: now.AddDate(0, 0, -5)}

	purchases := []model.ReferralPurchase{
		purchaseRow(10, 100, 1, "570", now),
		purchaseRow(10, 100, 2, "570", now),
	}

	s := BuildSummary(account, purchases, now)
	assert.True(t, s.TotalEarnings.Equal(decimal.RequireFromString("570")), "total %s", s.TotalEarnings)
	require.Len(t, s.ReferredUsers, 1)
	assert.Len(t, s.ReferredUsers[0].Purchases, 2)
}
