package formula

import (
	"errors"
	"testing"
	"time"

	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func periodPtr(p contractdomain.PeriodType) *contractdomain.PeriodType {
	return &p
}

// Full June 2026: 30 days.
var (
	juneStart = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	juneEnd   = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
)

func TestResolvePercentage(t *testing.T) {
	contract := &contractdomain.Contract{
		CommissionType: contractdomain.CommissionTypePercentage,
		CommissionRate: decPtr("10"),
	}

	res, err := Resolve(contract, dec("1000000"), juneStart, juneEnd)
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(dec("100000.00")), "got %s", res.Amount)
	assert.Equal(t, "10", res.Details["rate"])
}

func TestResolvePercentageRounding(t *testing.T) {
	contract := &contractdomain.Contract{
		CommissionType: contractdomain.CommissionTypePercentage,
		CommissionRate: decPtr("3.33"),
	}

	// 1234.56 * 3.33% = 41.110848 -> 41.11
	res, err := Resolve(contract, dec("1234.56"), juneStart, juneEnd)
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(dec("41.11")), "got %s", res.Amount)
}

func TestResolveFixedProratesPartialMonth(t *testing.T) {
	contract := &contractdomain.Contract{
		CommissionType: contractdomain.CommissionTypeFixed,
		FixedAmount:    decPtr("300000"),
		FixedPeriod:    periodPtr(contractdomain.PeriodMonthly),
	}

	// 15 of 30 days in June.
	res, err := Resolve(contract, decimal.Zero, juneStart, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(dec("150000.00")), "got %s", res.Amount)
	assert.Equal(t, "0.5", res.Details["proration_factor"])
	assert.Equal(t, "monthly", res.Details["period"])
	assert.Equal(t, "300000", res.Details["nominal_amount"])
}

func TestResolveTieredProgressiveBrackets(t *testing.T) {
	contract := &contractdomain.Contract{
		CommissionType: contractdomain.CommissionTypeTiered,
		Tiers: contractdomain.CommissionTiers{
			{MinRevenue: dec("0"), Rate: dec("5")},
			{MinRevenue: dec("1000000"), Rate: dec("8")},
			{MinRevenue: dec("5000000"), Rate: dec("12")},
		},
	}

	res, err := Resolve(contract, dec("3000000"), juneStart, juneEnd)
	require.NoError(t, err)

	// 1,000,000 at 5% + 2,000,000 at 8% = 50,000 + 160,000.
	assert.True(t, res.Amount.Equal(dec("210000.00")), "got %s", res.Amount)

	brackets, ok := res.Details["brackets"].([]any)
	require.True(t, ok)
	require.Len(t, brackets, 3)

	first := brackets[0].(map[string]any)
	assert.Equal(t, "1000000", first["bracket_revenue"])
	assert.Equal(t, "50000.00", first["contribution"])

	second := brackets[1].(map[string]any)
	assert.Equal(t, "2000000", second["bracket_revenue"])
	assert.Equal(t, "160000.00", second["contribution"])

	third := brackets[2].(map[string]any)
	assert.Equal(t, "0", third["bracket_revenue"])
}

func TestResolveTieredRevenueBelowFirstThreshold(t *testing.T) {
	// Tiers represent rate bands starting at each threshold, not an
	// exempt floor: everything below the first threshold is taxed at
	// the first tier's rate.
	contract := &contractdomain.Contract{
		CommissionType: contractdomain.CommissionTypeTiered,
		Tiers: contractdomain.CommissionTiers{
			{MinRevenue: dec("100000"), Rate: dec("5")},
			{MinRevenue: dec("500000"), Rate: dec("10")},
		},
	}

	res, err := Resolve(contract, dec("50000"), juneStart, juneEnd)
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(dec("2500.00")), "got %s", res.Amount)
}

func TestResolveTieredExcessAboveTopTier(t *testing.T) {
	contract := &contractdomain.Contract{
		CommissionType: contractdomain.CommissionTypeTiered,
		Tiers: contractdomain.CommissionTiers{
			{MinRevenue: dec("0"), Rate: dec("5")},
			{MinRevenue: dec("1000"), Rate: dec("10")},
		},
	}

	// 1000 at 5% + 9000 at 10%.
	res, err := Resolve(contract, dec("10000"), juneStart, juneEnd)
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(dec("950.00")), "got %s", res.Amount)
}

func TestResolveTieredRoundsOnceAtEnd(t *testing.T) {
	contract := &contractdomain.Contract{
		CommissionType: contractdomain.CommissionTypeTiered,
		Tiers: contractdomain.CommissionTiers{
			{MinRevenue: dec("0"), Rate: dec("3.335")},
			{MinRevenue: dec("100.01"), Rate: dec("7.775")},
		},
	}

	// Band contributions: 100.01*3.335% = 3.3353335 and
	// 99.99*7.775% = 7.7742225; the sum 11.1095560 rounds to 11.11.
	res, err := Resolve(contract, dec("200.00"), juneStart, juneEnd)
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(dec("11.11")), "got %s", res.Amount)
}

func TestResolveHybrid(t *testing.T) {
	contract := &contractdomain.Contract{
		CommissionType: contractdomain.CommissionTypeHybrid,
		FixedAmount:    decPtr("100000"),
		CommissionRate: decPtr("5"),
	}

	res, err := Resolve(contract, dec("2000000"), juneStart, juneEnd)
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(dec("200000.00")), "got %s", res.Amount)
	assert.Equal(t, "100000.00", res.Details["fixed_component"])
	assert.Equal(t, "100000.00", res.Details["percentage_component"])
}

func TestResolveUnknownTypeFails(t *testing.T) {
	contract := &contractdomain.Contract{CommissionType: "revenue_share"}

	_, err := Resolve(contract, dec("100"), juneStart, juneEnd)
	assert.True(t, errors.Is(err, contractdomain.ErrInvalidCommissionConfig))
}

func TestResolveZeroRevenue(t *testing.T) {
	contract := &contractdomain.Contract{
		CommissionType: contractdomain.CommissionTypePercentage,
		CommissionRate: decPtr("10"),
	}

	res, err := Resolve(contract, decimal.Zero, juneStart, juneEnd)
	require.NoError(t, err)
	assert.True(t, res.Amount.IsZero())
}

func TestResolveFixedPeriodTooLongFails(t *testing.T) {
	contract := &contractdomain.Contract{
		CommissionType: contractdomain.CommissionTypeFixed,
		FixedAmount:    decPtr("1000"),
		FixedPeriod:    periodPtr(contractdomain.PeriodDaily),
	}

	_, err := Resolve(contract, decimal.Zero, juneStart, juneEnd)
	assert.True(t, errors.Is(err, commissiondomain.ErrInvalidPeriod))
}
