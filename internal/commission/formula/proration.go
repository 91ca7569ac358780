package formula

import (
	"fmt"
	"time"

	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	"github.com/shopspring/decimal"
)

// maxProrationFactor guards against periods materially longer than
// their nominal type. Exceeding it is a caller error, not something to
// silently accept.
var maxProrationFactor = decimal.NewFromFloat(1.5)

// NominalDays returns the nominal length in days of a fixed-fee period
// anchored at periodStart. Monthly and quarterly are calendar-aware:
// the actual days of the month, or of the three months, containing
// periodStart.
func NominalDays(period contractdomain.PeriodType, periodStart time.Time) (int, error) {
	switch period {
	case contractdomain.PeriodDaily:
		return 1, nil
	case contractdomain.PeriodWeekly:
		return 7, nil
	case contractdomain.PeriodMonthly:
		return daysInMonth(periodStart), nil
	case contractdomain.PeriodQuarterly:
		days := 0
		for i := 0; i < 3; i++ {
			days += daysInMonth(periodStart.AddDate(0, i, 0))
		}
		return days, nil
	default:
		return 0, fmt.Errorf("%w: unknown fixed period %q", contractdomain.ErrInvalidCommissionConfig, period)
	}
}

// ElapsedDays counts calendar days covered by [start, end], both
// bounds inclusive.
func ElapsedDays(start, end time.Time) int {
	s := truncateToDay(start)
	e := truncateToDay(end)
	return int(e.Sub(s).Hours()/24) + 1
}

// Prorate scales a nominal fixed fee to the actual period length.
// It returns the prorated amount rounded to 2 decimals and the raw
// proration factor.
func Prorate(nominal decimal.Decimal, period contractdomain.PeriodType, periodStart, periodEnd time.Time) (decimal.Decimal, decimal.Decimal, error) {
	if periodEnd.Before(periodStart) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: period end before start", commissiondomain.ErrInvalidPeriod)
	}

	nominalDays, err := NominalDays(period, periodStart)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	elapsed := ElapsedDays(periodStart, periodEnd)
	factor := decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(int64(nominalDays)))
	if factor.GreaterThan(maxProrationFactor) {
		return decimal.Zero, decimal.Zero, fmt.Errorf(
			"%w: period of %d days exceeds nominal %s period of %d days beyond tolerance",
			commissiondomain.ErrInvalidPeriod, elapsed, period, nominalDays,
		)
	}

	amount := nominal.Mul(factor).Round(2)
	return amount, factor, nil
}

func daysInMonth(t time.Time) int {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
