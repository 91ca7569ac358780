package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revshare/internal/cache"
	"github.com/smallbiznis/revshare/internal/clock"
	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	dashboarddomain "github.com/smallbiznis/revshare/internal/dashboard/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	summaryTTL       = 30 * time.Second
	topContractLimit = 10
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  dashboarddomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  dashboarddomain.Repository
	cache cache.Cache[string, *dashboarddomain.Summary]
}

func New(p Params) dashboarddomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		clock: p.Clock,
		repo:  p.Repo,
		cache: cache.NewTTLCache[string, *dashboarddomain.Summary](),
	}
}

func (s *Service) Summary(ctx context.Context, filter dashboarddomain.Filter) (*dashboarddomain.Summary, error) {
	key := cacheKey(filter)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	statusTotals, err := s.repo.StatusTotals(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	topContracts, err := s.repo.TopContracts(ctx, s.db, filter, topContractLimit)
	if err != nil {
		return nil, err
	}

	totalCommission := decimal.Zero
	var overdueCount int64
	for _, st := range statusTotals {
		if st.PaymentStatus != commissiondomain.PaymentStatusCancelled {
			totalCommission = totalCommission.Add(st.TotalAmount)
		}
		if st.PaymentStatus == commissiondomain.PaymentStatusOverdue {
			overdueCount = st.Count
		}
	}

	summary := &dashboarddomain.Summary{
		GeneratedAt:     s.clock.Now(),
		PeriodFrom:      filter.From,
		PeriodTo:        filter.To,
		TotalCommission: totalCommission,
		OverdueCount:    overdueCount,
		StatusTotals:    statusTotals,
		TopContracts:    topContracts,
	}
	s.cache.Set(key, summary, summaryTTL)
	return summary, nil
}

func cacheKey(filter dashboarddomain.Filter) string {
	return fmt.Sprintf("summary:%d:%d", filter.From.Unix(), filter.To.Unix())
}
