package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() commissiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, calc *commissiondomain.CommissionCalculation) error {
	return db.WithContext(ctx).Create(calc).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*commissiondomain.CommissionCalculation, error) {
	var calc commissiondomain.CommissionCalculation
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&calc).Error
	if err != nil {
		return nil, err
	}
	if calc.ID == 0 {
		return nil, nil
	}
	return &calc, nil
}

func (r *repo) FindCommitted(ctx context.Context, db *gorm.DB, contractID snowflake.ID, periodStart, periodEnd time.Time) (*commissiondomain.CommissionCalculation, error) {
	var calc commissiondomain.CommissionCalculation
	err := db.WithContext(ctx).
		Where("contract_id = ? AND period_start = ? AND period_end = ? AND payment_status <> ?",
			contractID, periodStart, periodEnd, commissiondomain.PaymentStatusCancelled).
		Limit(1).
		Find(&calc).Error
	if err != nil {
		return nil, err
	}
	if calc.ID == 0 {
		return nil, nil
	}
	return &calc, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter commissiondomain.ListFilter, limit int, cursorID snowflake.ID) ([]*commissiondomain.CommissionCalculation, error) {
	query := db.WithContext(ctx).Model(&commissiondomain.CommissionCalculation{})
	if filter.ContractID != 0 {
		query = query.Where("contract_id = ?", filter.ContractID)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if cursorID != 0 {
		query = query.Where("id < ?", cursorID)
	}

	var calcs []*commissiondomain.CommissionCalculation
	err := query.Order("id DESC").Limit(limit).Find(&calcs).Error
	if err != nil {
		return nil, err
	}
	return calcs, nil
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paymentDate, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE commission_calculations
		 SET payment_status = ?, payment_date = ?, updated_at = ?
		 WHERE id = ? AND payment_status IN (?, ?) AND deleted_at IS NULL`,
		commissiondomain.PaymentStatusPaid,
		paymentDate,
		now,
		id,
		commissiondomain.PaymentStatusPending,
		commissiondomain.PaymentStatusOverdue,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Cancel(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE commission_calculations
		 SET payment_status = ?, cancel_reason = ?, updated_at = ?
		 WHERE id = ? AND payment_status IN (?, ?) AND deleted_at IS NULL`,
		commissiondomain.PaymentStatusCancelled,
		reason,
		now,
		id,
		commissiondomain.PaymentStatusPending,
		commissiondomain.PaymentStatusOverdue,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) ListOverdueCandidates(ctx context.Context, db *gorm.DB, asOf time.Time) ([]*commissiondomain.CommissionCalculation, error) {
	var calcs []*commissiondomain.CommissionCalculation
	err := db.WithContext(ctx).
		Where("payment_status = ? AND payment_due_date < ?", commissiondomain.PaymentStatusPending, asOf).
		Order("payment_due_date ASC").
		Find(&calcs).Error
	if err != nil {
		return nil, err
	}
	return calcs, nil
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, ids []snowflake.ID, asOf, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE commission_calculations
		 SET payment_status = ?, updated_at = ?
		 WHERE id IN ? AND payment_status = ? AND payment_due_date < ? AND deleted_at IS NULL`,
		commissiondomain.PaymentStatusOverdue,
		now,
		ids,
		commissiondomain.PaymentStatusPending,
		asOf,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) FindOverdueByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*commissiondomain.CommissionCalculation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var calcs []*commissiondomain.CommissionCalculation
	err := db.WithContext(ctx).
		Where("id IN ? AND payment_status = ?", ids, commissiondomain.PaymentStatusOverdue).
		Order("payment_due_date ASC").
		Find(&calcs).Error
	if err != nil {
		return nil, err
	}
	return calcs, nil
}
