package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config carries the static labels attached to every engine metric.
type Config struct {
	ServiceName string
	Environment string
}

func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = "revshare"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	return c
}

const (
	CalculationResultCreated    = "created"
	CalculationResultIdempotent = "idempotent"
	CalculationResultFailed     = "failed"
)

// EngineMetrics counts commission calculation outcomes and payment
// status transitions.
type EngineMetrics struct {
	cfg Config

	calculations        *prometheus.CounterVec
	calculationDuration *prometheus.HistogramVec
	statusTransitions   *prometheus.CounterVec
}

var (
	engineMu       sync.Mutex
	engineInstance *EngineMetrics
)

func Engine() *EngineMetrics {
	return EngineWithConfig(Config{})
}

func EngineWithConfig(cfg Config) *EngineMetrics {
	engineMu.Lock()
	defer engineMu.Unlock()
	if engineInstance != nil {
		return engineInstance
	}
	cfg = cfg.withDefaults()

	factory := promauto.With(prometheus.DefaultRegisterer)
	engineInstance = &EngineMetrics{
		cfg: cfg,
		calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "revshare_commission_calculations_total",
			Help: "Commission calculation outcomes.",
		}, []string{"service", "env", "result"}),
		calculationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "revshare_commission_calculation_duration_seconds",
			Help:    "End-to-end duration of one commission calculation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "env"}),
		statusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "revshare_payment_status_transitions_total",
			Help: "Payment status transitions by target status.",
		}, []string{"service", "env", "to_status"}),
	}
	return engineInstance
}

// ResetEngineMetricsForTest drops the singleton so tests can install a
// private registry.
func ResetEngineMetricsForTest() {
	engineMu.Lock()
	defer engineMu.Unlock()
	engineInstance = nil
}

func (m *EngineMetrics) IncCalculation(result string) {
	m.calculations.WithLabelValues(m.cfg.ServiceName, m.cfg.Environment, result).Inc()
}

func (m *EngineMetrics) ObserveCalculationDuration(d time.Duration) {
	m.calculationDuration.WithLabelValues(m.cfg.ServiceName, m.cfg.Environment).Observe(d.Seconds())
}

func (m *EngineMetrics) AddStatusTransitions(toStatus string, n int64) {
	if n <= 0 {
		return
	}
	m.statusTransitions.WithLabelValues(m.cfg.ServiceName, m.cfg.Environment, toStatus).Add(float64(n))
}

const (
	SchedulerJobReasonDeadlineExceeded = "deadline_exceeded"
	SchedulerJobReasonCanceled         = "canceled"
	SchedulerJobReasonError            = "error"
)

// SchedulerMetrics tracks periodic job runs.
type SchedulerMetrics struct {
	cfg Config

	jobRuns     *prometheus.CounterVec
	jobErrors   *prometheus.CounterVec
	jobTimeouts *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

var (
	schedulerMu       sync.Mutex
	schedulerInstance *SchedulerMetrics
)

func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	if schedulerInstance != nil {
		return schedulerInstance
	}
	cfg = cfg.withDefaults()

	factory := promauto.With(prometheus.DefaultRegisterer)
	schedulerInstance = &SchedulerMetrics{
		cfg: cfg,
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "revshare_scheduler_job_runs_total",
			Help: "Scheduler job executions.",
		}, []string{"service", "env", "job"}),
		jobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "revshare_scheduler_job_errors_total",
			Help: "Scheduler job errors by reason.",
		}, []string{"service", "env", "job", "reason"}),
		jobTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "revshare_scheduler_job_timeouts_total",
			Help: "Scheduler jobs that hit their deadline.",
		}, []string{"service", "env", "job"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "revshare_scheduler_job_duration_seconds",
			Help:    "Scheduler job wall time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "env", "job"}),
	}
	return schedulerInstance
}

func ResetSchedulerMetricsForTest() {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	schedulerInstance = nil
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	m.jobRuns.WithLabelValues(m.cfg.ServiceName, m.cfg.Environment, job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string, err error) {
	m.jobErrors.WithLabelValues(m.cfg.ServiceName, m.cfg.Environment, job, classifyReason(err)).Inc()
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	m.jobTimeouts.WithLabelValues(m.cfg.ServiceName, m.cfg.Environment, job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(m.cfg.ServiceName, m.cfg.Environment, job).Observe(d.Seconds())
}

func classifyReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return SchedulerJobReasonDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return SchedulerJobReasonCanceled
	default:
		return SchedulerJobReasonError
	}
}
