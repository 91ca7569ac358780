package notification

import (
	"github.com/smallbiznis/revshare/internal/config"
	"github.com/smallbiznis/revshare/internal/providers/email"
	"github.com/smallbiznis/revshare/internal/providers/slack"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notification",
	email.Module,
	slack.Module,
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger, emailProvider email.Provider, slackProvider slack.Provider) Notifier {
	return New(log, emailProvider, slackProvider, cfg.Notify.Recipients)
}
