package migration

import (
	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	"github.com/smallbiznis/revshare/internal/config"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	revenuedomain "github.com/smallbiznis/revshare/internal/revenue/domain"
	"github.com/smallbiznis/revshare/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Versioned migrations target postgres; other dialects are
			// for local development and get the schema straight from
			// the models.
			if err := conn.AutoMigrate(
				&contractdomain.Contract{},
				&contractdomain.ContractLocation{},
				&revenuedomain.Transaction{},
				&commissiondomain.CommissionCalculation{},
			); err != nil {
				return err
			}
			if err := conn.Exec(
				`CREATE UNIQUE INDEX IF NOT EXISTS ux_commission_calculations_period
				 ON commission_calculations (contract_id, period_start, period_end)
				 WHERE payment_status <> 'cancelled' AND deleted_at IS NULL`,
			).Error; err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
