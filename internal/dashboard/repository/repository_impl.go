package repository

import (
	"context"

	dashboarddomain "github.com/smallbiznis/revshare/internal/dashboard/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() dashboarddomain.Repository {
	return &repo{}
}

func (r *repo) StatusTotals(ctx context.Context, db *gorm.DB, filter dashboarddomain.Filter) ([]dashboarddomain.StatusSummary, error) {
	query := `
		SELECT payment_status,
		       COUNT(*) AS count,
		       COALESCE(SUM(commission_amount), 0) AS total_amount
		FROM commission_calculations
		WHERE deleted_at IS NULL`
	args := []any{}
	if !filter.From.IsZero() {
		query += ` AND period_start >= ?`
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += ` AND period_start <= ?`
		args = append(args, filter.To)
	}
	query += ` GROUP BY payment_status ORDER BY payment_status`

	var totals []dashboarddomain.StatusSummary
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *repo) TopContracts(ctx context.Context, db *gorm.DB, filter dashboarddomain.Filter, limit int) ([]dashboarddomain.ContractSummary, error) {
	query := `
		SELECT cc.contract_id,
		       c.counterparty_name,
		       c.currency,
		       COUNT(*) AS calculation_count,
		       COALESCE(SUM(cc.total_revenue), 0) AS total_revenue,
		       COALESCE(SUM(cc.commission_amount), 0) AS total_commission
		FROM commission_calculations cc
		JOIN contracts c ON c.id = cc.contract_id
		WHERE cc.deleted_at IS NULL
		  AND cc.payment_status <> 'cancelled'`
	args := []any{}
	if !filter.From.IsZero() {
		query += ` AND cc.period_start >= ?`
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += ` AND cc.period_start <= ?`
		args = append(args, filter.To)
	}
	query += `
		GROUP BY cc.contract_id, c.counterparty_name, c.currency
		ORDER BY total_commission DESC
		LIMIT ?`
	args = append(args, limit)

	var contracts []dashboarddomain.ContractSummary
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}
