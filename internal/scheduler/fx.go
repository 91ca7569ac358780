package scheduler

import (
	appconfig "github.com/smallbiznis/revshare/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(func(cfg appconfig.Config) Config { return FromAppConfig(cfg) }),
	fx.Provide(New),
)
