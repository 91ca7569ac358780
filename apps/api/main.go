package main

import (
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

// API mode: HTTP only; periodic jobs run in the scheduler app. The
// scheduler module is still wired so calculate-all can run batches on
// demand.
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
