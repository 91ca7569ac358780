package scheduler

import (
	"time"

	appconfig "github.com/smallbiznis/revshare/internal/config"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval       time.Duration
	BatchSize         int
	JobTimeout        time.Duration
	SweepEnabled      bool
	MonthlyRunEnabled bool
}

func DefaultConfig() Config {
	return Config{
		RunInterval:       time.Minute,
		BatchSize:         100,
		JobTimeout:        30 * time.Second,
		SweepEnabled:      true,
		MonthlyRunEnabled: true,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

func FromAppConfig(cfg appconfig.Config) Config {
	return Config{
		RunInterval:       cfg.Scheduler.RunInterval,
		BatchSize:         cfg.Scheduler.CalculationBatchSize,
		SweepEnabled:      cfg.Scheduler.SweepEnabled,
		MonthlyRunEnabled: cfg.Scheduler.MonthlyRunEnabled,
	}.withDefaults()
}
