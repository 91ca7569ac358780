package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	revenuedomain "github.com/smallbiznis/revshare/internal/revenue/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() revenuedomain.Repository {
	return &repo{}
}

type sumRow struct {
	Total decimal.Decimal `gorm:"column:total"`
	Count int64           `gorm:"column:count"`
}

func (r *repo) SumRevenue(ctx context.Context, db *gorm.DB, locationIDs []snowflake.ID, periodStart, periodEnd time.Time) (revenuedomain.Aggregate, error) {
	if len(locationIDs) == 0 {
		return revenuedomain.Aggregate{TotalRevenue: decimal.Zero}, nil
	}

	var row sumRow
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count
		 FROM transactions
		 WHERE location_id IN ?
		   AND type = ?
		   AND transaction_date >= ?
		   AND transaction_date <= ?`,
		locationIDs,
		revenuedomain.TransactionTypeSale,
		periodStart,
		periodEnd,
	).Scan(&row).Error
	if err != nil {
		return revenuedomain.Aggregate{}, err
	}

	return revenuedomain.Aggregate{
		TotalRevenue:     row.Total,
		TransactionCount: row.Count,
	}, nil
}
