package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "draft"
	ContractStatusActive     ContractStatus = "active"
	ContractStatusTerminated ContractStatus = "terminated"
)

// CommissionType tags which commission formula a contract uses.
// Exactly one variant's fields are populated per contract.
type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeFixed      CommissionType = "fixed"
	CommissionTypeTiered     CommissionType = "tiered"
	CommissionTypeHybrid     CommissionType = "hybrid"
)

// PeriodType is the nominal billing period of a fixed commission fee.
type PeriodType string

const (
	PeriodDaily     PeriodType = "daily"
	PeriodWeekly    PeriodType = "weekly"
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
)

func (p PeriodType) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly:
		return true
	}
	return false
}

// CommissionTier is one band of a progressive commission scheme. The
// band starts at MinRevenue and runs to the next tier's MinRevenue.
type CommissionTier struct {
	MinRevenue decimal.Decimal `json:"min_revenue"`
	Rate       decimal.Decimal `json:"rate"`
}

// CommissionTiers is stored as a JSON column on contracts.
type CommissionTiers []CommissionTier

func (t CommissionTiers) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *CommissionTiers) Scan(value any) error {
	if value == nil {
		*t = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported commission tiers column type %T", value)
	}
}

// Contract is owned by the contract management service; this engine
// reads it to resolve commission configuration and payment terms.
type Contract struct {
	ID               snowflake.ID     `gorm:"primaryKey" json:"id"`
	CounterpartyName string           `gorm:"not null" json:"counterparty_name"`
	Currency         string           `gorm:"type:varchar(3);not null" json:"currency"`
	Status           ContractStatus   `gorm:"type:text;not null;index" json:"status"`
	PaymentTermDays  int              `gorm:"not null;default:14" json:"payment_term_days"`
	CommissionType   CommissionType   `gorm:"type:text;not null" json:"commission_type"`
	CommissionRate   *decimal.Decimal `gorm:"type:numeric(8,4)" json:"commission_rate,omitempty"`
	FixedAmount      *decimal.Decimal `gorm:"type:numeric(18,2)" json:"fixed_amount,omitempty"`
	FixedPeriod      *PeriodType      `gorm:"type:text" json:"fixed_period,omitempty"`
	Tiers            CommissionTiers  `gorm:"type:text" json:"tiers,omitempty"`
	CreatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

// ContractLocation links a contract to the locations whose revenue it
// earns commission on.
type ContractLocation struct {
	ContractID snowflake.ID `gorm:"primaryKey" json:"contract_id"`
	LocationID snowflake.ID `gorm:"primaryKey" json:"location_id"`
}

func (ContractLocation) TableName() string { return "contract_locations" }

var ErrInvalidCommissionConfig = errors.New("invalid_commission_config")

var (
	percentMin = decimal.Zero
	percentMax = decimal.NewFromInt(100)
)

func validRate(rate decimal.Decimal) bool {
	return rate.GreaterThanOrEqual(percentMin) && rate.LessThanOrEqual(percentMax)
}

// ValidateCommissionConfig checks the commission configuration of a
// contract. A malformed config is fatal for calculation and must be
// fixed on the contract; it is never retried.
func (c *Contract) ValidateCommissionConfig() error {
	switch c.CommissionType {
	case CommissionTypePercentage:
		if c.CommissionRate == nil || !validRate(*c.CommissionRate) {
			return fmt.Errorf("%w: commission_rate must be between 0 and 100", ErrInvalidCommissionConfig)
		}
	case CommissionTypeFixed:
		if c.FixedAmount == nil || c.FixedAmount.IsNegative() {
			return fmt.Errorf("%w: fixed_amount must be zero or positive", ErrInvalidCommissionConfig)
		}
		if c.FixedPeriod == nil || !c.FixedPeriod.Valid() {
			return fmt.Errorf("%w: fixed_period must be daily, weekly, monthly or quarterly", ErrInvalidCommissionConfig)
		}
	case CommissionTypeTiered:
		if len(c.Tiers) == 0 {
			return fmt.Errorf("%w: tiered config requires at least one tier", ErrInvalidCommissionConfig)
		}
		for i, tier := range c.Tiers {
			if tier.MinRevenue.IsNegative() {
				return fmt.Errorf("%w: tier %d has negative revenue threshold", ErrInvalidCommissionConfig, i)
			}
			if !validRate(tier.Rate) {
				return fmt.Errorf("%w: tier %d rate must be between 0 and 100", ErrInvalidCommissionConfig, i)
			}
			if i > 0 && !tier.MinRevenue.GreaterThan(c.Tiers[i-1].MinRevenue) {
				return fmt.Errorf("%w: tier thresholds must be strictly ascending", ErrInvalidCommissionConfig)
			}
		}
	case CommissionTypeHybrid:
		if c.FixedAmount == nil || c.FixedAmount.IsNegative() {
			return fmt.Errorf("%w: fixed_amount must be zero or positive", ErrInvalidCommissionConfig)
		}
		if c.CommissionRate == nil || !validRate(*c.CommissionRate) {
			return fmt.Errorf("%w: commission_rate must be between 0 and 100", ErrInvalidCommissionConfig)
		}
	default:
		return fmt.Errorf("%w: unknown commission type %q", ErrInvalidCommissionConfig, c.CommissionType)
	}
	return nil
}

// HasCommissionConfig reports whether the contract carries any
// commission configuration at all. Contracts without one are skipped
// by batch runs rather than failed.
func (c *Contract) HasCommissionConfig() bool {
	return c.CommissionType != ""
}
