package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() contractdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*contractdomain.Contract, error) {
	var contract contractdomain.Contract
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == 0 {
		return nil, nil
	}
	return &contract, nil
}

func (r *repo) ListActiveNeedingCalculation(ctx context.Context, db *gorm.DB, periodStart, periodEnd time.Time, afterID snowflake.ID, limit int) ([]contractdomain.Contract, error) {
	var contracts []contractdomain.Contract
	err := db.WithContext(ctx).Raw(
		`SELECT c.* FROM contracts c
		 WHERE c.id > ?
		   AND c.status = ?
		   AND c.commission_type <> ''
		   AND NOT EXISTS (
			SELECT 1 FROM commission_calculations cc
			WHERE cc.contract_id = c.id
			  AND cc.period_start = ?
			  AND cc.period_end = ?
			  AND cc.payment_status <> ?
			  AND cc.deleted_at IS NULL
		   )
		 ORDER BY c.id ASC
		 LIMIT ?`,
		afterID,
		contractdomain.ContractStatusActive,
		periodStart,
		periodEnd,
		"cancelled",
		limit,
	).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *repo) LocationIDs(ctx context.Context, db *gorm.DB, contractID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT location_id FROM contract_locations WHERE contract_id = ? ORDER BY location_id ASC`,
		contractID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
