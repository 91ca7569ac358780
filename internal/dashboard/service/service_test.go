package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revshare/internal/clock"
	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	dashboarddomain "github.com/smallbiznis/revshare/internal/dashboard/domain"
	dashboardrepo "github.com/smallbiznis/revshare/internal/dashboard/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&contractdomain.Contract{},
		&commissiondomain.CommissionCalculation{},
	))
	return db
}

type fixture struct {
	db    *gorm.DB
	svc   dashboarddomain.Service
	node  *snowflake.Node
	clock *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		Repo:  dashboardrepo.Provide(),
	})
	return &fixture{db: db, svc: svc, node: node, clock: fake}
}

func (f *fixture) seedContract(t *testing.T, name string) snowflake.ID {
	t.Helper()
	rate := decimal.RequireFromString("10")
	contract := &contractdomain.Contract{
		ID:               f.node.Generate(),
		CounterpartyName: name,
		Currency:         "USD",
		Status:           contractdomain.ContractStatusActive,
		PaymentTermDays:  14,
		CommissionType:   contractdomain.CommissionTypePercentage,
		CommissionRate:   &rate,
	}
	require.NoError(t, f.db.Create(contract).Error)
	return contract.ID
}

func (f *fixture) seedCalculation(t *testing.T, contractID snowflake.ID, status commissiondomain.PaymentStatus, revenue, amount string, periodStart time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&commissiondomain.CommissionCalculation{
		ID:               f.node.Generate(),
		ContractID:       contractID,
		PeriodStart:      periodStart,
		PeriodEnd:        periodStart.AddDate(0, 1, -1),
		TotalRevenue:     decimal.RequireFromString(revenue),
		CommissionAmount: decimal.RequireFromString(amount),
		CommissionType:   contractdomain.CommissionTypePercentage,
		Currency:         "USD",
		PaymentStatus:    status,
		PaymentDueDate:   periodStart.AddDate(0, 1, 13),
		CalculatedBy:     "system",
	}).Error)
}

func TestSummaryStatusTotalsAndRanking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acme := f.seedContract(t, "Acme Vending")
	globex := f.seedContract(t, "Globex Snacks")
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	f.seedCalculation(t, acme, commissiondomain.PaymentStatusPending, "100000", "10000", jan)
	f.seedCalculation(t, acme, commissiondomain.PaymentStatusPaid, "200000", "20000", feb)
	f.seedCalculation(t, globex, commissiondomain.PaymentStatusOverdue, "50000", "2500", jan)
	// Cancelled rows show in status totals but never in the ranking.
	f.seedCalculation(t, globex, commissiondomain.PaymentStatusCancelled, "900000", "90000", feb)

	summary, err := f.svc.Summary(ctx, dashboarddomain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), summary.GeneratedAt)
	// 10000 + 20000 + 2500; the cancelled 90000 is excluded.
	assert.Equal(t, "32500", summary.TotalCommission.String())
	assert.Equal(t, int64(1), summary.OverdueCount)

	byStatus := map[commissiondomain.PaymentStatus]dashboarddomain.StatusSummary{}
	for _, s := range summary.StatusTotals {
		byStatus[s.PaymentStatus] = s
	}
	require.Len(t, byStatus, 4)
	assert.Equal(t, int64(1), byStatus[commissiondomain.PaymentStatusPending].Count)
	assert.Equal(t, "10000", byStatus[commissiondomain.PaymentStatusPending].TotalAmount.String())
	assert.Equal(t, "20000", byStatus[commissiondomain.PaymentStatusPaid].TotalAmount.String())
	assert.Equal(t, "2500", byStatus[commissiondomain.PaymentStatusOverdue].TotalAmount.String())
	assert.Equal(t, "90000", byStatus[commissiondomain.PaymentStatusCancelled].TotalAmount.String())

	require.Len(t, summary.TopContracts, 2)
	assert.Equal(t, acme, summary.TopContracts[0].ContractID)
	assert.Equal(t, "Acme Vending", summary.TopContracts[0].CounterpartyName)
	assert.Equal(t, int64(2), summary.TopContracts[0].CalculationCount)
	assert.Equal(t, "30000", summary.TopContracts[0].TotalCommission.String())
	assert.Equal(t, "300000", summary.TopContracts[0].TotalRevenue.String())
	assert.Equal(t, globex, summary.TopContracts[1].ContractID)
	assert.Equal(t, "2500", summary.TopContracts[1].TotalCommission.String())
}

func TestSummaryWindowFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acme := f.seedContract(t, "Acme Vending")
	f.seedCalculation(t, acme, commissiondomain.PaymentStatusPaid, "100000", "10000",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	f.seedCalculation(t, acme, commissiondomain.PaymentStatusPaid, "200000", "20000",
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	summary, err := f.svc.Summary(ctx, dashboarddomain.Filter{
		From: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, summary.StatusTotals, 1)
	assert.Equal(t, int64(1), summary.StatusTotals[0].Count)
	assert.Equal(t, "20000", summary.StatusTotals[0].TotalAmount.String())
	require.Len(t, summary.TopContracts, 1)
	assert.Equal(t, "20000", summary.TopContracts[0].TotalCommission.String())
}

func TestSummaryIsCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acme := f.seedContract(t, "Acme Vending")
	f.seedCalculation(t, acme, commissiondomain.PaymentStatusPending, "100000", "10000",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	first, err := f.svc.Summary(ctx, dashboarddomain.Filter{})
	require.NoError(t, err)

	// New data inside the TTL window is not visible yet.
	f.seedCalculation(t, acme, commissiondomain.PaymentStatusPending, "500000", "50000",
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	second, err := f.svc.Summary(ctx, dashboarddomain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, second.StatusTotals, 1)
	assert.Equal(t, int64(1), second.StatusTotals[0].Count)
}
