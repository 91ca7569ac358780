package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrContractNotFound = errors.New("contract_not_found")

// Repository is the narrow read-only view of the contract store this
// engine consumes. Contract lifecycle is owned elsewhere.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contract, error)

	// ListActiveNeedingCalculation returns active contracts with a
	// commission configuration that have no committed calculation for
	// the given period yet, keyset-paged by ascending ID: only
	// contracts with an ID greater than afterID are returned.
	ListActiveNeedingCalculation(ctx context.Context, db *gorm.DB, periodStart, periodEnd time.Time, afterID snowflake.ID, limit int) ([]Contract, error)

	LocationIDs(ctx context.Context, db *gorm.DB, contractID snowflake.ID) ([]snowflake.ID, error)
}
