package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revshare/internal/clock"
	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	"github.com/smallbiznis/revshare/internal/commission/formula"
	"github.com/smallbiznis/revshare/internal/commission/guard"
	"github.com/smallbiznis/revshare/internal/config"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	"github.com/smallbiznis/revshare/internal/notification"
	obsmetrics "github.com/smallbiznis/revshare/internal/observability/metrics"
	revenuedomain "github.com/smallbiznis/revshare/internal/revenue/domain"
	"github.com/smallbiznis/revshare/pkg/db"
	"github.com/smallbiznis/revshare/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config       config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         commissiondomain.Repository
	ContractRepo contractdomain.Repository
	RevenueSvc   revenuedomain.Service
	Notifier     notification.Notifier `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         commissiondomain.Repository
	contractRepo contractdomain.Repository
	revenueSvc   revenuedomain.Service
	notifier     notification.Notifier

	aggregationRetries int
	aggregationBackoff time.Duration
}

func New(p Params) commissiondomain.Service {
	retries := p.Config.Scheduler.AggregationRetries
	if retries < 1 {
		retries = 1
	}
	backoff := p.Config.Scheduler.AggregationBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Service{
		db:                 p.DB,
		log:                p.Log.Named("commission.service"),
		genID:              p.GenID,
		clock:              p.Clock,
		repo:               p.Repo,
		contractRepo:       p.ContractRepo,
		revenueSvc:         p.RevenueSvc,
		notifier:           p.Notifier,
		aggregationRetries: retries,
		aggregationBackoff: backoff,
	}
}

// Calculate orchestrates one calculation: validate, aggregate, resolve
// the formula and commit. The unique index on the contract/period
// triple makes concurrent invocations safe; the loser of an insert
// race returns the winner's row.
func (s *Service) Calculate(ctx context.Context, req commissiondomain.CalculateRequest) (*commissiondomain.CommissionCalculation, error) {
	started := time.Now()
	metrics := obsmetrics.Engine()

	if req.PeriodEnd.Before(req.PeriodStart) {
		return nil, commissiondomain.ErrInvalidPeriod
	}
	calculatedBy := strings.TrimSpace(req.CalculatedBy)
	if calculatedBy == "" {
		calculatedBy = "system"
	}

	contract, err := s.contractRepo.FindByID(ctx, s.db, req.ContractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, contractdomain.ErrContractNotFound
	}
	if !contract.HasCommissionConfig() {
		return nil, contractdomain.ErrInvalidCommissionConfig
	}
	if err := contract.ValidateCommissionConfig(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindCommitted(ctx, s.db, req.ContractID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.IncCalculation(obsmetrics.CalculationResultIdempotent)
		return existing, nil
	}

	agg, err := s.aggregateWithRetry(ctx, req.ContractID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		metrics.IncCalculation(obsmetrics.CalculationResultFailed)
		return nil, err
	}

	result, err := formula.Resolve(contract, agg.TotalRevenue, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		metrics.IncCalculation(obsmetrics.CalculationResultFailed)
		return nil, err
	}

	now := s.clock.Now()
	calc := &commissiondomain.CommissionCalculation{
		ID:                 s.genID.Generate(),
		ContractID:         contract.ID,
		PeriodStart:        req.PeriodStart,
		PeriodEnd:          req.PeriodEnd,
		TotalRevenue:       agg.TotalRevenue,
		TransactionCount:   agg.TransactionCount,
		CommissionAmount:   result.Amount,
		CommissionType:     contract.CommissionType,
		CalculationDetails: result.Details,
		Currency:           contract.Currency,
		PaymentStatus:      commissiondomain.PaymentStatusPending,
		PaymentDueDate:     req.PeriodEnd.AddDate(0, 0, contract.PaymentTermDays),
		CalculatedBy:       calculatedBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Insert(ctx, s.db, calc); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost the race to a concurrent calculation for the same
			// triple; the committed row is the result.
			winner, findErr := s.repo.FindCommitted(ctx, s.db, req.ContractID, req.PeriodStart, req.PeriodEnd)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				metrics.IncCalculation(obsmetrics.CalculationResultIdempotent)
				return winner, nil
			}
		}
		metrics.IncCalculation(obsmetrics.CalculationResultFailed)
		return nil, err
	}

	s.log.Info("commission calculated",
		zap.String("contract_id", contract.ID.String()),
		zap.String("commission_type", string(contract.CommissionType)),
		zap.String("commission_amount", calc.CommissionAmount.StringFixed(2)),
		zap.Time("period_start", req.PeriodStart),
		zap.Time("period_end", req.PeriodEnd),
		zap.String("calculated_by", calculatedBy),
	)

	if s.notifier != nil {
		s.notifier.CalculationCreated(calc)
	}
	metrics.IncCalculation(obsmetrics.CalculationResultCreated)
	metrics.ObserveCalculationDuration(time.Since(started))
	return calc, nil
}

func (s *Service) aggregateWithRetry(ctx context.Context, contractID snowflake.ID, periodStart, periodEnd time.Time) (revenuedomain.Aggregate, error) {
	backoff := s.aggregationBackoff
	var lastErr error

	for attempt := 1; attempt <= s.aggregationRetries; attempt++ {
		agg, err := s.revenueSvc.Aggregate(ctx, contractID, periodStart, periodEnd)
		if err == nil {
			return agg, nil
		}
		lastErr = err
		if !errors.Is(err, revenuedomain.ErrAggregationUnavailable) {
			return revenuedomain.Aggregate{}, err
		}
		if attempt == s.aggregationRetries {
			break
		}

		s.log.Warn("aggregation unavailable, retrying",
			zap.String("contract_id", contractID.String()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
		)
		select {
		case <-ctx.Done():
			return revenuedomain.Aggregate{}, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return revenuedomain.Aggregate{}, lastErr
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*commissiondomain.CommissionCalculation, error) {
	calc, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if calc == nil {
		return nil, commissiondomain.ErrCalculationNotFound
	}
	return calc, nil
}

func (s *Service) List(ctx context.Context, filter commissiondomain.ListFilter, page pagination.Pagination) ([]*commissiondomain.CommissionCalculation, *pagination.PageInfo, error) {
	limit := page.PageSize
	if limit <= 0 {
		limit = 25
	}

	var cursorID snowflake.ID
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, nil, commissiondomain.ErrInvalidPageToken
		}
		parsed, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, nil, commissiondomain.ErrInvalidPageToken
		}
		cursorID = parsed
	}

	calcs, err := s.repo.List(ctx, s.db, filter, limit+1, cursorID)
	if err != nil {
		return nil, nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(calcs, limit, func(c *commissiondomain.CommissionCalculation) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: c.ID.String()})
		return token
	})
	if len(calcs) > limit {
		calcs = calcs[:limit]
	}
	return calcs, pageInfo, nil
}

// MarkPaid transitions pending or overdue to paid. The repository
// repeats the guard in its WHERE clause so racing transitions cannot
// both apply.
func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID, paymentDate time.Time, actor string) (*commissiondomain.CommissionCalculation, error) {
	calc, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if calc == nil {
		return nil, commissiondomain.ErrCalculationNotFound
	}
	if err := guard.EnsureCanMarkPaid(calc.PaymentStatus); err != nil {
		return nil, err
	}

	if paymentDate.IsZero() {
		paymentDate = s.clock.Now()
	}

	rows, err := s.repo.MarkPaid(ctx, s.db, id, paymentDate, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, commissiondomain.ErrInvalidTransition
	}

	s.log.Info("commission marked paid",
		zap.String("calculation_id", id.String()),
		zap.Time("payment_date", paymentDate),
		zap.String("actor", actor),
	)
	obsmetrics.Engine().AddStatusTransitions(string(commissiondomain.PaymentStatusPaid), 1)

	return s.Get(ctx, id)
}

// Cancel is the manual override; the row stays for audit and its
// period becomes free for recalculation.
func (s *Service) Cancel(ctx context.Context, id snowflake.ID, reason, actor string) (*commissiondomain.CommissionCalculation, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, commissiondomain.ErrInvalidCancelReason
	}

	calc, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if calc == nil {
		return nil, commissiondomain.ErrCalculationNotFound
	}
	if err := guard.EnsureCanCancel(calc.PaymentStatus); err != nil {
		return nil, err
	}

	rows, err := s.repo.Cancel(ctx, s.db, id, reason, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, commissiondomain.ErrInvalidTransition
	}

	s.log.Info("commission cancelled",
		zap.String("calculation_id", id.String()),
		zap.String("reason", reason),
		zap.String("actor", actor),
	)
	obsmetrics.Engine().AddStatusTransitions(string(commissiondomain.PaymentStatusCancelled), 1)

	return s.Get(ctx, id)
}

// SweepOverdue moves every pending calculation past its due date into
// overdue. The UPDATE is scoped to the listed candidates and rechecks
// the pending status, so re-running with the same asOf is a no-op and
// a row paid between listing and updating stays paid. The notification
// is built from a read-back of the rows that actually transitioned,
// never from the candidate list.
func (s *Service) SweepOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	candidates, err := s.repo.ListOverdueCandidates(ctx, s.db, asOf)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	ids := make([]snowflake.ID, 0, len(candidates))
	for _, candidate := range candidates {
		ids = append(ids, candidate.ID)
	}

	rows, err := s.repo.MarkOverdue(ctx, s.db, ids, asOf, s.clock.Now())
	if err != nil {
		return 0, err
	}

	if rows > 0 {
		s.log.Info("overdue sweep completed",
			zap.Time("as_of", asOf),
			zap.Int64("transitioned", rows),
		)
		obsmetrics.Engine().AddStatusTransitions(string(commissiondomain.PaymentStatusOverdue), rows)
		if s.notifier != nil {
			transitioned, findErr := s.repo.FindOverdueByIDs(ctx, s.db, ids)
			if findErr != nil {
				s.log.Warn("overdue notification read-back failed", zap.Error(findErr))
			} else {
				s.notifier.CalculationsOverdue(transitioned)
			}
		}
	}
	return rows, nil
}
