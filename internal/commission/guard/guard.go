package guard

import (
	"fmt"

	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
)

// transitions is the payment status state machine. Paid and cancelled
// are terminal; nothing ever returns to pending.
var transitions = map[commissiondomain.PaymentStatus][]commissiondomain.PaymentStatus{
	commissiondomain.PaymentStatusPending: {
		commissiondomain.PaymentStatusPaid,
		commissiondomain.PaymentStatusOverdue,
		commissiondomain.PaymentStatusCancelled,
	},
	commissiondomain.PaymentStatusOverdue: {
		commissiondomain.PaymentStatusPaid,
		commissiondomain.PaymentStatusCancelled,
	},
	commissiondomain.PaymentStatusPaid:      {},
	commissiondomain.PaymentStatusCancelled: {},
}

func CanTransition(from, to commissiondomain.PaymentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func EnsureTransition(from, to commissiondomain.PaymentStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", commissiondomain.ErrInvalidTransition, from, to)
	}
	return nil
}

func EnsureCanMarkPaid(status commissiondomain.PaymentStatus) error {
	return EnsureTransition(status, commissiondomain.PaymentStatusPaid)
}

func EnsureCanCancel(status commissiondomain.PaymentStatus) error {
	return EnsureTransition(status, commissiondomain.PaymentStatusCancelled)
}
