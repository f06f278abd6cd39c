package commission

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// GSTPercent is charged on the summed discounted price of an order.
	GSTPercent = decimal.NewFromInt(18)
	// TDSPercent is withheld from the summed commission before crediting.
	TDSPercent = decimal.NewFromInt(5)

	hundred = decimal.NewFromInt(100)
)

var ErrMissingAmount = errors.New("course is missing a discounted price or referral bonus rate")

// CourseAmount is one course's contribution to an order.
type CourseAmount struct {
	Price    decimal.Decimal // discounted price
	BonusPct decimal.Decimal // referral bonus, percent of price
}

// Breakdown carries the full money split of an order. Values keep full
// precision; callers round via Rounded at the point of persistence.
type Breakdown struct {
	DiscountedTotal decimal.Decimal
	GSTAmount       decimal.Decimal
	TotalPaid       decimal.Decimal
	Commission      decimal.Decimal
	TDS             decimal.Decimal
	AmountCredited  decimal.Decimal
}

// Calculate computes the commission breakdown for an order. Commission is
// computed per course so mixed bonus rates across a multi-course order
// come out right; TDS is a flat cut of the summed commission. Any course
// without a positive price or bonus rate fails the whole calculation.
func Calculate(courses []CourseAmount) (*Breakdown, error) {
	if len(courses) == 0 {
		return nil, ErrMissingAmount
	}

	var discountedTotal, commission decimal.Decimal
	for _, c := range courses {
		if !c.Price.IsPositive() || !c.BonusPct.IsPositive() {
			return nil, ErrMissingAmount
		}
		discountedTotal = discountedTotal.Add(c.Price)
		commission = commission.Add(c.Price.Mul(c.BonusPct).Div(hundred))
	}

	gstAmount := discountedTotal.Mul(GSTPercent).Div(hundred)
	tds := commission.Mul(TDSPercent).Div(hundred)

	return &Breakdown{
		DiscountedTotal: discountedTotal,
		GSTAmount:       gstAmount,
		TotalPaid:       discountedTotal.Add(gstAmount),
		Commission:      commission,
		TDS:             tds,
		AmountCredited:  commission.Sub(tds),
	}, nil
}

// Rounded returns a copy with every amount rounded to two fractional
// digits, the persisted precision.
func (b *Breakdown) Rounded() Breakdown {
	return Breakdown{
		DiscountedTotal: b.DiscountedTotal.Round(2),
		GSTAmount:       b.GSTAmount.Round(2),
		TotalPaid:       b.TotalPaid.Round(2),
		Commission:      b.Commission.Round(2),
		TDS:             b.TDS.Round(2),
		AmountCredited:  b.AmountCredited.Round(2),
	}
}
