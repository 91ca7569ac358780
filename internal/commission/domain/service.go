package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revshare/pkg/db/pagination"
)

var (
	ErrCalculationNotFound = errors.New("calculation_not_found")
	ErrInvalidPeriod       = errors.New("invalid_period")
	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrInvalidCancelReason = errors.New("invalid_cancel_reason")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
)

type CalculateRequest struct {
	ContractID   snowflake.ID `json:"contract_id"`
	PeriodStart  time.Time    `json:"period_start"`
	PeriodEnd    time.Time    `json:"period_end"`
	CalculatedBy string       `json:"calculated_by"`
}

type ListFilter struct {
	ContractID    snowflake.ID
	PaymentStatus PaymentStatus
}

// Service is the calculation orchestrator plus the payment status
// tracker.
type Service interface {
	// Calculate runs the end-to-end computation for one contract and
	// period. Re-running for an already committed triple returns the
	// existing record unchanged.
	Calculate(ctx context.Context, req CalculateRequest) (*CommissionCalculation, error)

	Get(ctx context.Context, id snowflake.ID) (*CommissionCalculation, error)
	List(ctx context.Context, filter ListFilter, page pagination.Pagination) ([]*CommissionCalculation, *pagination.PageInfo, error)

	// MarkPaid transitions pending or overdue to paid and records the
	// payment date. Paid and cancelled are terminal.
	MarkPaid(ctx context.Context, id snowflake.ID, paymentDate time.Time, actor string) (*CommissionCalculation, error)

	// Cancel is the manual override; valid from pending or overdue.
	Cancel(ctx context.Context, id snowflake.ID, reason, actor string) (*CommissionCalculation, error)

	// SweepOverdue moves every pending calculation whose due date is
	// before asOf into overdue and returns how many rows moved.
	// Re-running with the same asOf is a no-op.
	SweepOverdue(ctx context.Context, asOf time.Time) (int64, error)
}
