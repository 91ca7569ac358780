package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revshare/internal/clock"
	"github.com/smallbiznis/revshare/internal/commission"
	"github.com/smallbiznis/revshare/internal/config"
	"github.com/smallbiznis/revshare/internal/contract"
	"github.com/smallbiznis/revshare/internal/dashboard"
	"github.com/smallbiznis/revshare/internal/migration"
	"github.com/smallbiznis/revshare/internal/notification"
	"github.com/smallbiznis/revshare/internal/observability"
	"github.com/smallbiznis/revshare/internal/revenue"
	"github.com/smallbiznis/revshare/internal/scheduler"
	"github.com/smallbiznis/revshare/internal/server"
	"github.com/smallbiznis/revshare/pkg/db"
	"go.uber.org/fx"
)

// Monolith mode: HTTP API and scheduler in one process.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		contract.Module,
		revenue.Module,
		notification.Module,
		commission.Module,
		dashboard.Module,
		scheduler.Module,

		server.Module,
		fx.Invoke(StartScheduler),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func StartScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.RunForever(context.Background())
			return nil
		},
	})
}
