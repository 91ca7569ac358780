package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	dashboarddomain "github.com/smallbiznis/revshare/internal/dashboard/domain"
)

func (s *Server) GetDashboard(c *gin.Context) {
	var filter dashboarddomain.Filter

	if raw := c.Query("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			AbortWithError(c, newValidationError("from", "invalid_date", "from must be a date"))
			return
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			AbortWithError(c, newValidationError("to", "invalid_date", "to must be a date"))
			return
		}
		filter.To = to
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		AbortWithError(c, newValidationError("to", "invalid_window", "to must not be before from"))
		return
	}

	summary, err := s.dashboardSvc.Summary(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
