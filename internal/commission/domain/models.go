package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusOverdue   PaymentStatus = "overdue"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// CommissionCalculation is one committed result of applying a
// contract's formula to a revenue figure for a period. The triple
// (contract_id, period_start, period_end) is unique among
// non-cancelled rows; that constraint, not an in-process lock, is what
// makes Calculate idempotent across processes.
type CommissionCalculation struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ContractID snowflake.ID `gorm:"not null;index" json:"contract_id"`

	PeriodStart time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`

	// Revenue snapshot, immutable once committed.
	TotalRevenue     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"total_revenue"`
	TransactionCount int64           `gorm:"not null" json:"transaction_count"`

	CommissionAmount   decimal.Decimal               `gorm:"type:numeric(18,2);not null" json:"commission_amount"`
	CommissionType     contractdomain.CommissionType `gorm:"type:text;not null" json:"commission_type"`
	CalculationDetails datatypes.JSONMap             `gorm:"type:text" json:"calculation_details,omitempty"`
	Currency           string                        `gorm:"type:varchar(3);not null" json:"currency"`

	PaymentStatus  PaymentStatus `gorm:"type:text;not null;default:'pending';index" json:"payment_status"`
	PaymentDueDate time.Time     `gorm:"not null;index" json:"payment_due_date"`
	PaymentDate    *time.Time    `json:"payment_date,omitempty"`
	CancelReason   string        `gorm:"type:text" json:"cancel_reason,omitempty"`

	CalculatedBy string         `gorm:"type:text;not null" json:"calculated_by"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CommissionCalculation) TableName() string { return "commission_calculations" }
