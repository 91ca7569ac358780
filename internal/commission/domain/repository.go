package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, calc *CommissionCalculation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CommissionCalculation, error)

	// FindCommitted returns the non-cancelled calculation for the
	// triple, or nil when the period is still free.
	FindCommitted(ctx context.Context, db *gorm.DB, contractID snowflake.ID, periodStart, periodEnd time.Time) (*CommissionCalculation, error)

	List(ctx context.Context, db *gorm.DB, filter ListFilter, limit int, cursorID snowflake.ID) ([]*CommissionCalculation, error)

	// MarkPaid and Cancel guard the transition in the WHERE clause and
	// report rows affected, so concurrent transitions cannot double
	// apply.
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paymentDate, now time.Time) (int64, error)
	Cancel(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, now time.Time) (int64, error)

	ListOverdueCandidates(ctx context.Context, db *gorm.DB, asOf time.Time) ([]*CommissionCalculation, error)

	// MarkOverdue transitions the given candidates, rechecking the
	// pending status and due date in the WHERE clause so rows paid or
	// cancelled since listing are left alone. FindOverdueByIDs reads
	// back the rows that actually moved.
	MarkOverdue(ctx context.Context, db *gorm.DB, ids []snowflake.ID, asOf, now time.Time) (int64, error)
	FindOverdueByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*CommissionCalculation, error)
}
