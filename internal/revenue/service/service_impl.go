package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	revenuedomain "github.com/smallbiznis/revshare/internal/revenue/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Repo         revenuedomain.Repository
	ContractRepo contractdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	repo         revenuedomain.Repository
	contractRepo contractdomain.Repository
}

func New(p Params) revenuedomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("revenue.service"),
		repo:         p.Repo,
		contractRepo: p.ContractRepo,
	}
}

// Aggregate sums sale transactions for the contract's locations over
// the inclusive period. A contract with no locations or no qualifying
// transactions aggregates to zero; only store failures are errors.
func (s *Service) Aggregate(ctx context.Context, contractID snowflake.ID, periodStart, periodEnd time.Time) (revenuedomain.Aggregate, error) {
	locationIDs, err := s.contractRepo.LocationIDs(ctx, s.db, contractID)
	if err != nil {
		return revenuedomain.Aggregate{}, fmt.Errorf("%w: %v", revenuedomain.ErrAggregationUnavailable, err)
	}
	if len(locationIDs) == 0 {
		return revenuedomain.Aggregate{TotalRevenue: decimal.Zero}, nil
	}

	agg, err := s.repo.SumRevenue(ctx, s.db, locationIDs, periodStart, periodEnd)
	if err != nil {
		return revenuedomain.Aggregate{}, fmt.Errorf("%w: %v", revenuedomain.ErrAggregationUnavailable, err)
	}

	s.log.Debug("aggregated revenue",
		zap.String("contract_id", contractID.String()),
		zap.String("total_revenue", agg.TotalRevenue.String()),
		zap.Int64("transaction_count", agg.TransactionCount),
	)
	return agg, nil
}
