package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	commissiondomain "github.com/smallbiznis/revshare/internal/commission/domain"
	"github.com/smallbiznis/revshare/pkg/db/pagination"
)

const actorHeader = "X-Actor-Id"

type calculateCommissionRequest struct {
	ContractID  string `json:"contract_id" binding:"required"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

type calculateAllRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

type markPaidRequest struct {
	PaymentDate string `json:"payment_date"`
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type listCommissionsResponse struct {
	Data     []*commissiondomain.CommissionCalculation `json:"data"`
	PageInfo *pagination.PageInfo                      `json:"page_info"`
}

func (s *Server) CalculateCommission(c *gin.Context) {
	var req calculateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	contractID, err := snowflake.ParseString(req.ContractID)
	if err != nil {
		AbortWithError(c, newValidationError("contract_id", "invalid_contract_id", "contract_id must be a valid id"))
		return
	}
	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		AbortWithError(c, newValidationError("period_start", "invalid_date", "period_start must be a date"))
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		AbortWithError(c, newValidationError("period_end", "invalid_date", "period_end must be a date"))
		return
	}

	calc, err := s.commissionSvc.Calculate(c.Request.Context(), commissiondomain.CalculateRequest{
		ContractID:   contractID,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		CalculatedBy: s.actor(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, calc)
}

func (s *Server) CalculateAllCommissions(c *gin.Context) {
	var req calculateAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		AbortWithError(c, newValidationError("period_start", "invalid_date", "period_start must be a date"))
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		AbortWithError(c, newValidationError("period_end", "invalid_date", "period_end must be a date"))
		return
	}
	if periodEnd.Before(periodStart) {
		AbortWithError(c, commissiondomain.ErrInvalidPeriod)
		return
	}

	// Per-contract failures are reported in the batch counts, not as a
	// request failure.
	report, _ := s.scheduler.RunPeriod(c.Request.Context(), periodStart, periodEnd)
	c.JSON(http.StatusOK, report)
}

func (s *Server) GetCommissionByID(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, commissiondomain.ErrCalculationNotFound)
		return
	}

	calc, err := s.commissionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, calc)
}

func (s *Server) ListCommissions(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	var filter commissiondomain.ListFilter
	if raw := c.Query("contract_id"); raw != "" {
		contractID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("contract_id", "invalid_contract_id", "contract_id must be a valid id"))
			return
		}
		filter.ContractID = contractID
	}
	if raw := c.Query("payment_status"); raw != "" {
		status := commissiondomain.PaymentStatus(raw)
		switch status {
		case commissiondomain.PaymentStatusPending,
			commissiondomain.PaymentStatusPaid,
			commissiondomain.PaymentStatusOverdue,
			commissiondomain.PaymentStatusCancelled:
			filter.PaymentStatus = status
		default:
			AbortWithError(c, newValidationError("payment_status", "invalid_payment_status", "unknown payment status"))
			return
		}
	}

	calcs, pageInfo, err := s.commissionSvc.List(c.Request.Context(), filter, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if calcs == nil {
		calcs = []*commissiondomain.CommissionCalculation{}
	}
	c.JSON(http.StatusOK, listCommissionsResponse{Data: calcs, PageInfo: pageInfo})
}

func (s *Server) MarkCommissionPaid(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, commissiondomain.ErrCalculationNotFound)
		return
	}

	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	var paymentDate time.Time
	if req.PaymentDate != "" {
		paymentDate, err = parseDate(req.PaymentDate)
		if err != nil {
			AbortWithError(c, newValidationError("payment_date", "invalid_date", "payment_date must be a date"))
			return
		}
	}

	calc, err := s.commissionSvc.MarkPaid(c.Request.Context(), id, paymentDate, s.actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, calc)
}

func (s *Server) CancelCommission(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, commissiondomain.ErrCalculationNotFound)
		return
	}

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("reason", "invalid_cancel_reason", "reason is required"))
		return
	}

	calc, err := s.commissionSvc.Cancel(c.Request.Context(), id, req.Reason, s.actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, calc)
}

func (s *Server) actor(c *gin.Context) string {
	if actor := strings.TrimSpace(c.GetHeader(actorHeader)); actor != "" {
		return actor
	}
	return "api"
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
