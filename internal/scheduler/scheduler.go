package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/revshare/internal/clock"
	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	obsmetrics "github.com/smallbiznis/revshare/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	CommissionSvc commissiondomain.Service
	ContractRepo  contractdomain.Repository
	Config        Config `optional:"true"`
}

type Scheduler struct {
	db            *gorm.DB
	log           *zap.Logger
	cfg           Config
	clock         clock.Clock
	commissionSvc commissiondomain.Service
	contractRepo  contractdomain.Repository
}

// BatchReport summarizes one batch calculation run. A failed contract
// never aborts the run; it is counted and retried on the next run.
type BatchReport struct {
	RunID       string    `json:"run_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Failures    []string  `json:"failures,omitempty"`
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.CommissionSvc == nil || p.ContractRepo == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:            p.DB,
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           p.Config.withDefaults(),
		clock:         p.Clock,
		commissionSvc: p.CommissionSvc,
		contractRepo:  p.ContractRepo,
	}, nil
}

// RunPeriod calculates commissions for every active contract that has
// no committed calculation for the period yet. Contracts are keyset-
// paged by ascending ID; a contract that fails stays behind the page
// cursor, so it can neither be retried within the run nor starve the
// contracts after it.
func (s *Scheduler) RunPeriod(ctx context.Context, periodStart, periodEnd time.Time) (BatchReport, error) {
	report := BatchReport{
		RunID:       uuid.NewString(),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}
	log := s.log.With(
		zap.String("run_id", report.RunID),
		zap.Time("period_start", periodStart),
		zap.Time("period_end", periodEnd),
	)
	log.Info("batch calculation run started", zap.Int("batch_size", s.cfg.BatchSize))

	var afterID snowflake.ID
	var runErr error

	for {
		if ctx.Err() != nil {
			return report, errors.Join(runErr, ctx.Err())
		}

		contracts, err := s.contractRepo.ListActiveNeedingCalculation(ctx, s.db, periodStart, periodEnd, afterID, s.cfg.BatchSize)
		if err != nil {
			return report, errors.Join(runErr, err)
		}
		if len(contracts) == 0 {
			break
		}

		for _, contract := range contracts {
			// Cooperative stop: cancellation skips the remaining
			// contracts without marking them failed.
			if ctx.Err() != nil {
				return report, errors.Join(runErr, ctx.Err())
			}
			afterID = contract.ID

			_, err := s.commissionSvc.Calculate(ctx, commissiondomain.CalculateRequest{
				ContractID:   contract.ID,
				PeriodStart:  periodStart,
				PeriodEnd:    periodEnd,
				CalculatedBy: "scheduler",
			})
			if err != nil {
				report.Failed++
				report.Failures = append(report.Failures, fmt.Sprintf("contract %s: %v", contract.ID, err))
				runErr = errors.Join(runErr, fmt.Errorf("contract %s: %w", contract.ID, err))
				log.Warn("batch calculation failed for contract",
					zap.String("contract_id", contract.ID.String()),
					zap.Error(err),
				)
				continue
			}
			report.Succeeded++
		}
	}

	log.Info("batch calculation run finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, runErr
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{"overdue_sweep", s.cfg.SweepEnabled, s.OverdueSweepJob},
		{"calculate_previous_month", s.cfg.MonthlyRunEnabled, s.CalculatePreviousMonthJob},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, s.runJob(parent, job.Name, job.Run))
		}
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// OverdueSweepJob moves pending calculations past their due date into
// overdue.
func (s *Scheduler) OverdueSweepJob(ctx context.Context) error {
	moved, err := s.commissionSvc.SweepOverdue(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	if moved > 0 {
		s.log.Info("overdue sweep moved calculations", zap.Int64("count", moved))
	}
	return nil
}

// CalculatePreviousMonthJob runs the batch calculation for the last
// completed calendar month. Calculation idempotency makes repeated
// runs within the month harmless.
func (s *Scheduler) CalculatePreviousMonthJob(ctx context.Context) error {
	periodStart, periodEnd := previousMonth(s.clock.Now())
	_, err := s.RunPeriod(ctx, periodStart, periodEnd)
	return err
}

func previousMonth(now time.Time) (time.Time, time.Time) {
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := firstOfThisMonth.AddDate(0, -1, 0)
	end := firstOfThisMonth.AddDate(0, 0, -1)
	return start, end
}
