package guard

import (
	"errors"
	"testing"

	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from    commissiondomain.PaymentStatus
		to      commissiondomain.PaymentStatus
		allowed bool
	}{
		{commissiondomain.PaymentStatusPending, commissiondomain.PaymentStatusPaid, true},
		{commissiondomain.PaymentStatusPending, commissiondomain.PaymentStatusOverdue, true},
		{commissiondomain.PaymentStatusPending, commissiondomain.PaymentStatusCancelled, true},
		{commissiondomain.PaymentStatusOverdue, commissiondomain.PaymentStatusPaid, true},
		{commissiondomain.PaymentStatusOverdue, commissiondomain.PaymentStatusCancelled, true},
		{commissiondomain.PaymentStatusOverdue, commissiondomain.PaymentStatusPending, false},
		{commissiondomain.PaymentStatusPaid, commissiondomain.PaymentStatusPending, false},
		{commissiondomain.PaymentStatusPaid, commissiondomain.PaymentStatusOverdue, false},
		{commissiondomain.PaymentStatusPaid, commissiondomain.PaymentStatusCancelled, false},
		{commissiondomain.PaymentStatusCancelled, commissiondomain.PaymentStatusPaid, false},
		{commissiondomain.PaymentStatusCancelled, commissiondomain.PaymentStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestEnsureTransitionError(t *testing.T) {
	err := EnsureCanMarkPaid(commissiondomain.PaymentStatusCancelled)
	assert.True(t, errors.Is(err, commissiondomain.ErrInvalidTransition))

	err = EnsureCanCancel(commissiondomain.PaymentStatusPaid)
	assert.True(t, errors.Is(err, commissiondomain.ErrInvalidTransition))

	assert.NoError(t, EnsureCanMarkPaid(commissiondomain.PaymentStatusOverdue))
	assert.NoError(t, EnsureCanCancel(commissiondomain.PaymentStatusPending))
}
