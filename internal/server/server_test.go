package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revshare/internal/clock"
	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	commissionrepo "github.com/smallbiznis/revshare/internal/commission/repository"
	commissionservice "github.com/smallbiznis/revshare/internal/commission/service"
	"github.com/smallbiznis/revshare/internal/config"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	contractrepo "github.com/smallbiznis/revshare/internal/contract/repository"
	dashboardrepo "github.com/smallbiznis/revshare/internal/dashboard/repository"
	dashboardservice "github.com/smallbiznis/revshare/internal/dashboard/service"
	revenuedomain "github.com/smallbiznis/revshare/internal/revenue/domain"
	revenuerepo "github.com/smallbiznis/revshare/internal/revenue/repository"
	revenueservice "github.com/smallbiznis/revshare/internal/revenue/service"
	"github.com/smallbiznis/revshare/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type apiFixture struct {
	server *Server
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&contractdomain.Contract{},
		&contractdomain.ContractLocation{},
		&revenuedomain.Transaction{},
		&commissiondomain.CommissionCalculation{},
	))
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_commission_calculations_period
		 ON commission_calculations (contract_id, period_start, period_end)
		 WHERE payment_status <> 'cancelled' AND deleted_at IS NULL`,
	).Error)

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{
		HTTPAddr: ":0",
		Scheduler: config.SchedulerConfig{
			AggregationRetries: 1,
			AggregationBackoff: time.Millisecond,
		},
	}

	contractRepo := contractrepo.Provide()
	revenueSvc := revenueservice.New(revenueservice.Params{
		DB:           db,
		Log:          log,
		Repo:         revenuerepo.Provide(),
		ContractRepo: contractRepo,
	})
	commissionSvc := commissionservice.New(commissionservice.Params{
		Config:       cfg,
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fake,
		Repo:         commissionrepo.Provide(),
		ContractRepo: contractRepo,
		RevenueSvc:   revenueSvc,
	})
	dashboardSvc := dashboardservice.New(dashboardservice.Params{
		DB:    db,
		Log:   log,
		Clock: fake,
		Repo:  dashboardrepo.Provide(),
	})
	sched, err := scheduler.New(scheduler.Params{
		DB:            db,
		Log:           log,
		Clock:         fake,
		CommissionSvc: commissionSvc,
		ContractRepo:  contractRepo,
	})
	require.NoError(t, err)

	srv := NewServer(ServerParams{
		Gin:           NewEngine(log),
		Cfg:           cfg,
		CommissionSvc: commissionSvc,
		DashboardSvc:  dashboardSvc,
		Scheduler:     sched,
	})

	return &apiFixture{server: srv, db: db, node: node, clock: fake}
}

func (f *apiFixture) seedContract(t *testing.T) *contractdomain.Contract {
	t.Helper()
	rate := decimal.RequireFromString("10")
	contract := &contractdomain.Contract{
		ID:               f.node.Generate(),
		CounterpartyName: "Acme Vending",
		Currency:         "USD",
		Status:           contractdomain.ContractStatusActive,
		PaymentTermDays:  14,
		CommissionType:   contractdomain.CommissionTypePercentage,
		CommissionRate:   &rate,
	}
	require.NoError(t, f.db.Create(contract).Error)

	locationID := f.node.Generate()
	require.NoError(t, f.db.Create(&contractdomain.ContractLocation{
		ContractID: contract.ID,
		LocationID: locationID,
	}).Error)
	require.NoError(t, f.db.Create(&revenuedomain.Transaction{
		ID:              f.node.Generate(),
		LocationID:      locationID,
		Type:            revenuedomain.TransactionTypeSale,
		Amount:          decimal.RequireFromString("100000"),
		TransactionDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}).Error)
	return contract
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.server.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeCalculation(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCalculateEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	contract := f.seedContract(t)

	rec := f.do(t, http.MethodPost, "/v1/commissions/calculate", gin.H{
		"contract_id":  contract.ID.String(),
		"period_start": "2025-01-01",
		"period_end":   "2025-01-31",
	}, map[string]string{"X-Actor-Id": "ops@example.com"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeCalculation(t, rec)
	assert.Equal(t, "10000", body["commission_amount"])
	assert.Equal(t, "pending", body["payment_status"])
	assert.Equal(t, "ops@example.com", body["calculated_by"])

	// Second call returns the same committed calculation.
	again := f.do(t, http.MethodPost, "/v1/commissions/calculate", gin.H{
		"contract_id":  contract.ID.String(),
		"period_start": "2025-01-01",
		"period_end":   "2025-01-31",
	}, nil)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, body["id"], decodeCalculation(t, again)["id"])
}

func TestCalculateEndpointValidation(t *testing.T) {
	f := newAPIFixture(t)
	contract := f.seedContract(t)

	cases := []struct {
		name string
		body gin.H
		want int
	}{
		{"missing fields", gin.H{"contract_id": contract.ID.String()}, http.StatusBadRequest},
		{"bad date", gin.H{
			"contract_id":  contract.ID.String(),
			"period_start": "January 1st",
			"period_end":   "2025-01-31",
		}, http.StatusBadRequest},
		{"inverted period", gin.H{
			"contract_id":  contract.ID.String(),
			"period_start": "2025-01-31",
			"period_end":   "2025-01-01",
		}, http.StatusBadRequest},
		{"unknown contract", gin.H{
			"contract_id":  "999999999999",
			"period_start": "2025-01-01",
			"period_end":   "2025-01-31",
		}, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/v1/commissions/calculate", tc.body, nil)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestPaymentLifecycleEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	contract := f.seedContract(t)

	rec := f.do(t, http.MethodPost, "/v1/commissions/calculate", gin.H{
		"contract_id":  contract.ID.String(),
		"period_start": "2025-01-01",
		"period_end":   "2025-01-31",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeCalculation(t, rec)["id"].(string)

	paid := f.do(t, http.MethodPost, "/v1/commissions/"+id+"/mark-paid", gin.H{
		"payment_date": "2025-02-05",
	}, map[string]string{"X-Actor-Id": "finance@example.com"})
	require.Equal(t, http.StatusOK, paid.Code, paid.Body.String())
	assert.Equal(t, "paid", decodeCalculation(t, paid)["payment_status"])

	// Terminal state: both transitions now conflict.
	again := f.do(t, http.MethodPost, "/v1/commissions/"+id+"/mark-paid", nil, nil)
	assert.Equal(t, http.StatusConflict, again.Code)
	cancelled := f.do(t, http.MethodPost, "/v1/commissions/"+id+"/cancel", gin.H{"reason": "oops"}, nil)
	assert.Equal(t, http.StatusConflict, cancelled.Code)

	missing := f.do(t, http.MethodPost, "/v1/commissions/12345/mark-paid", nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestCancelEndpointRequiresReason(t *testing.T) {
	f := newAPIFixture(t)
	contract := f.seedContract(t)

	rec := f.do(t, http.MethodPost, "/v1/commissions/calculate", gin.H{
		"contract_id":  contract.ID.String(),
		"period_start": "2025-01-01",
		"period_end":   "2025-01-31",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeCalculation(t, rec)["id"].(string)

	noReason := f.do(t, http.MethodPost, "/v1/commissions/"+id+"/cancel", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, noReason.Code)

	ok := f.do(t, http.MethodPost, "/v1/commissions/"+id+"/cancel", gin.H{
		"reason": "contract renegotiated",
	}, nil)
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "cancelled", decodeCalculation(t, ok)["payment_status"])
}

func TestListCommissionsEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	contract := f.seedContract(t)

	rec := f.do(t, http.MethodPost, "/v1/commissions/calculate", gin.H{
		"contract_id":  contract.ID.String(),
		"period_start": "2025-01-01",
		"period_end":   "2025-01-31",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := f.do(t, http.MethodGet, "/v1/commissions?contract_id="+contract.ID.String()+"&payment_status=pending", nil, nil)
	require.Equal(t, http.StatusOK, list.Code)

	var resp listCommissionsResponse
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, contract.ID, resp.Data[0].ContractID)
	assert.False(t, resp.PageInfo.HasMore)

	badStatus := f.do(t, http.MethodGet, "/v1/commissions?payment_status=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, badStatus.Code)
}

func TestCalculateAllEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.seedContract(t)
	f.seedContract(t)

	rec := f.do(t, http.MethodPost, "/v1/commissions/calculate-all", gin.H{
		"period_start": "2025-01-01",
		"period_end":   "2025-01-31",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report scheduler.BatchReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.NotEmpty(t, report.RunID)
}

func TestDashboardEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	contract := f.seedContract(t)

	rec := f.do(t, http.MethodPost, "/v1/commissions/calculate", gin.H{
		"contract_id":  contract.ID.String(),
		"period_start": "2025-01-01",
		"period_end":   "2025-01-31",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	dash := f.do(t, http.MethodGet, "/v1/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, dash.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(dash.Body.Bytes(), &body))
	assert.NotEmpty(t, body["status_totals"])
	assert.NotEmpty(t, body["top_contracts"])

	badWindow := f.do(t, http.MethodGet, "/v1/dashboard?from=2025-02-01&to=2025-01-01", nil, nil)
	assert.Equal(t, http.StatusBadRequest, badWindow.Code)
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
