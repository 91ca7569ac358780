package notification

import (
	"context"
	"fmt"
	"time"

	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	"github.com/smallbiznis/revshare/internal/providers/email"
	"github.com/smallbiznis/revshare/internal/providers/slack"
	"go.uber.org/zap"
)

// Notifier announces engine events to operators. Delivery is
// fire-and-forget: calculation correctness never waits on it and
// failures are only logged.
type Notifier interface {
	CalculationCreated(calc *commissiondomain.CommissionCalculation)
	CalculationsOverdue(calcs []*commissiondomain.CommissionCalculation)
}

const dispatchTimeout = 10 * time.Second

type notifier struct {
	log        *zap.Logger
	email      email.Provider
	slack      slack.Provider
	recipients []string
	channel    string
}

func New(log *zap.Logger, emailProvider email.Provider, slackProvider slack.Provider, recipients []string) Notifier {
	return &notifier{
		log:        log.Named("notification"),
		email:      emailProvider,
		slack:      slackProvider,
		recipients: recipients,
		channel:    "#billing-ops",
	}
}

func (n *notifier) CalculationCreated(calc *commissiondomain.CommissionCalculation) {
	subject := fmt.Sprintf("Commission calculated for contract %s", calc.ContractID)
	body := fmt.Sprintf(
		"<p>Commission of %s %s was calculated for contract %s, period %s to %s. Payment is due %s.</p>",
		calc.CommissionAmount.StringFixed(2),
		calc.Currency,
		calc.ContractID,
		calc.PeriodStart.Format("2006-01-02"),
		calc.PeriodEnd.Format("2006-01-02"),
		calc.PaymentDueDate.Format("2006-01-02"),
	)
	n.dispatch("calculation.created", subject, body)
}

func (n *notifier) CalculationsOverdue(calcs []*commissiondomain.CommissionCalculation) {
	if len(calcs) == 0 {
		return
	}
	subject := fmt.Sprintf("%d commission payment(s) overdue", len(calcs))
	body := "<p>The following commission payments are past due:</p><ul>"
	for _, calc := range calcs {
		body += fmt.Sprintf("<li>contract %s: %s %s, due %s</li>",
			calc.ContractID,
			calc.CommissionAmount.StringFixed(2),
			calc.Currency,
			calc.PaymentDueDate.Format("2006-01-02"),
		)
	}
	body += "</ul>"
	n.dispatch("calculation.overdue", subject, body)
}

func (n *notifier) dispatch(event, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if len(n.recipients) > 0 {
			if err := n.email.Send(ctx, n.recipients, subject, body); err != nil {
				n.log.Warn("email notification failed",
					zap.String("event", event),
					zap.Error(err),
				)
			}
		}
		if err := n.slack.PostMessage(ctx, n.channel, subject); err != nil {
			n.log.Warn("slack notification failed",
				zap.String("event", event),
				zap.Error(err),
			)
		}
	}()
}
