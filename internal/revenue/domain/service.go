package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ErrAggregationUnavailable marks a transient failure of the
// transaction store. Callers retry it with bounded backoff; it is
// never treated as zero revenue.
var ErrAggregationUnavailable = errors.New("aggregation_unavailable")

// Service aggregates revenue attributable to a contract over a period.
type Service interface {
	Aggregate(ctx context.Context, contractID snowflake.ID, periodStart, periodEnd time.Time) (Aggregate, error)
}

// Repository is the narrow view of the transaction store backing the
// aggregator.
type Repository interface {
	SumRevenue(ctx context.Context, db *gorm.DB, locationIDs []snowflake.ID, periodStart, periodEnd time.Time) (Aggregate, error)
}
