// Package pricing computes what a stay costs. It knows nothing about storage or
// reservations, only rates, nights and quantities.
package pricing

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrNoPriceConfigured = errors.New("no positive nightly rate is configured")

// Rates are the per-night price fields a bookable unit may carry. Most units
// only have one or two of them set.
type Rates struct {
	Daily     decimal.Decimal `json:"dailyPrice"`
	Detail    decimal.Decimal `json:"detailPrice"`
	Wholesale decimal.Decimal `json:"wholesalePrice"`
	Base      decimal.Decimal `json:"basePrice"`
	Sale      decimal.Decimal `json:"salePrice"`
}

// Nightly returns the first positive rate in priority order: daily, detail,
// wholesale, base, sale.
func (r Rates) Nightly() (decimal.Decimal, error) {
	for _, rate := range []decimal.Decimal{r.Daily, r.Detail, r.Wholesale, r.Base, r.Sale} {
		if rate.IsPositive() {
			return rate, nil
		}
	}
	return decimal.Zero, errors.WithStack(ErrNoPriceConfigured)
}

// Total is rate * nights * quantity. Non-positive nights or quantity cost nothing.
func Total(rate decimal.Decimal, nights, quantity int) decimal.Decimal {
	if nights <= 0 || quantity <= 0 {
		return decimal.Zero
	}
	return rate.Mul(decimal.NewFromInt(int64(nights))).Mul(decimal.NewFromInt(int64(quantity)))
}
