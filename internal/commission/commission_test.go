package commission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateSingleCourse(t *testing.T) {
	b, err := Calculate([]CourseAmount{
		{Price: d("1000"), BonusPct: d("50")},
	})
	require.NoError(t, err)

	assert.True(t, b.DiscountedTotal.Equal(d("1000")), "discounted total %s", b.DiscountedTotal)
	assert.True(t, b.GSTAmount.Equal(d("180")), "gst %s", b.GSTAmount)
	assert.True(t, b.TotalPaid.Equal(d("1180")), "total paid %s", b.TotalPaid)
	assert.True(t, b.Commission.Equal(d("500")), "commission %s", b.Commission)
	assert.True(t, b.TDS.Equal(d("25")), "tds %s", b.TDS)
	assert.True(t, b.AmountCredited.Equal(d("475")), "amount credited %s", b.AmountCredited)
}

func TestCalculatePerCourseCommission(t *testing.T) {
	// Mixed bonus rates must be applied per course, not to the aggregate.
	b, err := Calculate([]CourseAmount{
		{Price: d("1000"), BonusPct: d("50")},
		{Price: d("500"), BonusPct: d("20")},
	})
	require.NoError(t, err)

	assert.True(t, b.Commission.Equal(d("600")), "commission %s", b.Commission)
	assert.True(t, b.TDS.Equal(d("30")), "tds %s", b.TDS)
	assert.True(t, b.AmountCredited.Equal(d("570")), "amount credited %s", b.AmountCredited)
	assert.True(t, b.GSTAmount.Equal(d("270")), "gst %s", b.GSTAmount)
	assert.True(t, b.TotalPaid.Equal(d("1770")), "total paid %s", b.TotalPaid)
}

func TestTDSIsFivePercentOfCommission(t *testing.T) {
	cases := [][]CourseAmount{
		{{Price: d("999.99"), BonusPct: d("50")}},
		{{Price: d("123.45"), BonusPct: d("10")}, {Price: d("678.90"), BonusPct: d("35")}},
		{{Price: d("1"), BonusPct: d("1")}},
	}
	for _, courses := range cases {
		b, err := Calculate(courses)
		require.NoError(t, err)
		expected := b.Commission.Mul(d("0.05"))
		assert.True(t, b.TDS.Equal(expected), "tds %s != 5%% of commission %s", b.TDS, b.Commission)
		assert.True(t, b.AmountCredited.Equal(b.Commission.Sub(b.TDS)))
	}
}

func TestCalculateFailsOnMissingAmounts(t *testing.T) {
	_, err := Calculate(nil)
	assert.ErrorIs(t, err, ErrMissingAmount)

	_, err = Calculate([]CourseAmount{
		{Price: d("1000"), BonusPct: d("50")},
		{Price: decimal.Zero, BonusPct: d("50")},
	})
	assert.ErrorIs(t, err, ErrMissingAmount, "zero price must fail the whole calculation")

	_, err = Calculate([]CourseAmount{
		{Price: d("1000"), BonusPct: decimal.Zero},
	})
	assert.ErrorIs(t, err, ErrMissingAmount, "missing bonus rate must fail the whole calculation")
}

func TestRounded(t *testing.T) {
	b, err := Calculate([]CourseAmount{
		{Price: d("333.33"), BonusPct: d("33")},
	})
	require.NoError(t, err)

	r := b.Rounded()
	assert.True(t, r.Commission.Equal(d("110.00")), "commission %s", r.Commission)
	assert.True(t, r.TDS.Equal(d("5.50")), "tds %s", r.TDS)
	assert.True(t, r.AmountCredited.Equal(d("104.50")), "amount credited %s", r.AmountCredited)
}
