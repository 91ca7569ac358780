package formula

import (
	"fmt"
	"time"

	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var hundred = decimal.NewFromInt(100)

// Result is a resolved commission amount plus the breakdown persisted
// as calculation_details.
type Result struct {
	Amount  decimal.Decimal
	Details datatypes.JSONMap
}

// Resolve computes the commission owed for totalRevenue under the
// contract's configuration. It is a pure function of its inputs; the
// period bounds only matter for prorating fixed fees. All arithmetic
// is decimal; amounts round half-up to 2 decimal places.
func Resolve(contract *contractdomain.Contract, totalRevenue decimal.Decimal, periodStart, periodEnd time.Time) (Result, error) {
	switch contract.CommissionType {
	case contractdomain.CommissionTypePercentage:
		return resolvePercentage(*contract.CommissionRate, totalRevenue)
	case contractdomain.CommissionTypeFixed:
		return resolveFixed(*contract.FixedAmount, *contract.FixedPeriod, periodStart, periodEnd)
	case contractdomain.CommissionTypeTiered:
		return resolveTiered(contract.Tiers, totalRevenue)
	case contractdomain.CommissionTypeHybrid:
		return resolveHybrid(*contract.FixedAmount, *contract.CommissionRate, totalRevenue, periodStart, periodEnd)
	default:
		return Result{}, fmt.Errorf("%w: unknown commission type %q", contractdomain.ErrInvalidCommissionConfig, contract.CommissionType)
	}
}

func resolvePercentage(rate, totalRevenue decimal.Decimal) (Result, error) {
	amount := totalRevenue.Mul(rate).Div(hundred).Round(2)
	return Result{
		Amount: amount,
		Details: datatypes.JSONMap{
			"rate": rate.String(),
		},
	}, nil
}

func resolveFixed(nominal decimal.Decimal, period contractdomain.PeriodType, periodStart, periodEnd time.Time) (Result, error) {
	amount, factor, err := Prorate(nominal, period, periodStart, periodEnd)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Amount: amount,
		Details: datatypes.JSONMap{
			"period":           string(period),
			"nominal_amount":   nominal.String(),
			"proration_factor": factor.String(),
		},
	}, nil
}

// resolveTiered evaluates progressive brackets. Tier i's rate applies
// to revenue in [threshold_i, threshold_{i+1}); revenue below the
// first threshold is taxed at the first tier's rate, and everything
// above the top threshold at the top rate. The total is rounded once
// at the end.
func resolveTiered(tiers contractdomain.CommissionTiers, totalRevenue decimal.Decimal) (Result, error) {
	total := decimal.Zero
	brackets := make([]any, 0, len(tiers))

	for i, tier := range tiers {
		lower := tier.MinRevenue
		if i == 0 {
			lower = decimal.Zero
		}

		upper := totalRevenue
		if i+1 < len(tiers) && tiers[i+1].MinRevenue.LessThan(totalRevenue) {
			upper = tiers[i+1].MinRevenue
		}

		band := upper.Sub(lower)
		if band.IsNegative() {
			band = decimal.Zero
		}

		contribution := band.Mul(tier.Rate).Div(hundred)
		total = total.Add(contribution)

		brackets = append(brackets, map[string]any{
			"tier_index":      i,
			"bracket_revenue": band.String(),
			"bracket_rate":    tier.Rate.String(),
			"contribution":    contribution.Round(2).String(),
		})
	}

	return Result{
		Amount: total.Round(2),
		Details: datatypes.JSONMap{
			"brackets": brackets,
		},
	}, nil
}

func resolveHybrid(nominal, rate, totalRevenue decimal.Decimal, periodStart, periodEnd time.Time) (Result, error) {
	fixedComponent, factor, err := Prorate(nominal, contractdomain.PeriodMonthly, periodStart, periodEnd)
	if err != nil {
		return Result{}, err
	}

	percentageComponent := totalRevenue.Mul(rate).Div(hundred).Round(2)

	return Result{
		Amount: fixedComponent.Add(percentageComponent),
		Details: datatypes.JSONMap{
			"fixed_component":      fixedComponent.String(),
			"percentage_component": percentageComponent.String(),
			"proration_factor":     factor.String(),
			"rate":                 rate.String(),
		},
	}, nil
}
