package revenue

import (
	"github.com/smallbiznis/revshare/internal/revenue/repository"
	"github.com/smallbiznis/revshare/internal/revenue/service"
	"go.uber.org/fx"
)

var Module = fx.Module("revenue.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
