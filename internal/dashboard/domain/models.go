package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	"gorm.io/gorm"
)

// StatusSummary is the rollup of calculations in one payment status.
type StatusSummary struct {
	PaymentStatus commissiondomain.PaymentStatus `json:"payment_status"`
	Count         int64                          `json:"count"`
	TotalAmount   decimal.Decimal                `json:"total_amount"`
}

// ContractSummary ranks a contract by the commission it generated over
// the window.
type ContractSummary struct {
	ContractID       snowflake.ID    `json:"contract_id"`
	CounterpartyName string          `json:"counterparty_name"`
	Currency         string          `json:"currency"`
	CalculationCount int64           `json:"calculation_count"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalCommission  decimal.Decimal `json:"total_commission"`
}

// Summary is the operator dashboard payload. TotalCommission and
// OverdueCount are derived from StatusTotals; cancelled amounts are
// excluded from the total.
type Summary struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	PeriodFrom      time.Time         `json:"period_from"`
	PeriodTo        time.Time         `json:"period_to"`
	TotalCommission decimal.Decimal   `json:"total_commission"`
	OverdueCount    int64             `json:"overdue_count"`
	StatusTotals    []StatusSummary   `json:"status_totals"`
	TopContracts    []ContractSummary `json:"top_contracts"`
}

// Filter bounds the dashboard window by period start date.
type Filter struct {
	From time.Time
	To   time.Time
}

// Service serves the dashboard summary. Results may be briefly stale;
// they are cached to keep the hot read path off the database.
type Service interface {
	Summary(ctx context.Context, filter Filter) (*Summary, error)
}

type Repository interface {
	StatusTotals(ctx context.Context, db *gorm.DB, filter Filter) ([]StatusSummary, error)
	TopContracts(ctx context.Context, db *gorm.DB, filter Filter, limit int) ([]ContractSummary, error)
}
