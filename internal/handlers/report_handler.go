package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/forecast"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// ReportHandler serves the read-only reports and the forecast simulator.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ScenarioRequest is one what-if adjustment. A positive monthly_amount is
// extra income, a negative one extra expense.
type ScenarioRequest struct {
	Name          string           `json:"name" binding:"required,max=100"`
	MonthlyAmount *decimal.Decimal `json:"monthly_amount" binding:"required" swaggertype:"string" example:"-150"`
	Active        bool             `json:"active"`
}

// ForecastRequest represents the request payload of the forecast simulator.
type ForecastRequest struct {
	Year      int               `json:"year" binding:"required,min=2000,max=2100"`
	Scenarios []ScenarioRequest `json:"scenarios" binding:"max=50,dive"`
}

// dateRange reads the optional start_date and end_date parameters.
func dateRange(c *gin.Context) (services.DateRange, error) {
	from, err := queryDate(c, "start_date")
	if err != nil {
		return services.DateRange{}, err
	}
	to, err := queryDate(c, "end_date")
	if err != nil {
		return services.DateRange{}, err
	}
	return services.DateRange{From: from, To: to}, nil
}

// GetSummary returns income, expense and balance totals
// @Summary     Summary report
// @Description Totals of income and expense. The range applies only when both dates are given.
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Start date (YYYY-MM-DD)"
// @Param       end_date   query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} aggregate.Summary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	r, err := dateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reportService.GetSummary(userID, r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetByCategory returns totals grouped by category
// @Summary     Totals by category
// @Description Amount, count and share of each category, largest first
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       type       query string false "income or expense (default expense)"
// @Param       start_date query string false "Start date (YYYY-MM-DD)"
// @Param       end_date   query string false "End date (YYYY-MM-DD)"
// @Success     200 {array}  aggregate.CategoryTotal "Category totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /reports/by-category [get]
func (h *ReportHandler) GetByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	r, err := dateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.reportService.GetByCategory(userID, models.TransactionType(c.Query("type")), r)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": totals})
}

// GetMonthlyTrend returns income and expense per calendar month
// @Summary     Monthly trend
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Months to look back (1-60, default 6)"
// @Success     200 {array}  aggregate.TrendPoint "Trend"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /reports/monthly-trend [get]
func (h *ReportHandler) GetMonthlyTrend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months, err := queryInt(c, "months")
	if err != nil {
		respondWithError(c, err)
		return
	}
	n := 0
	if months != nil {
		if *months < 1 {
			respondWithError(c, apperrors.WithField(apperrors.ErrInvalidInput, "months", "months must be between 1 and 60"))
			return
		}
		n = *months
	}

	trend, err := h.reportService.GetMonthlyTrend(userID, n)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trend": trend})
}

// GetDashboard returns the overview of the current month
// @Summary     Dashboard
// @Description Current month summary, expense by category, six month trend, recent transactions and budgets
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Dashboard "Dashboard"
// @Router      /reports/dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.reportService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetForecast projects a year and simulates what-if scenarios
// @Summary     Forecast
// @Description Project the monthly income, expense and cumulative balance of a year. Active scenarios produce a simulated series next to the baseline.
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ForecastRequest true "Year and scenarios"
// @Success     200 {object} forecast.Projection "Projection"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /reports/forecast [post]
func (h *ReportHandler) GetForecast(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	scenarios := make([]forecast.Scenario, 0, len(req.Scenarios))
	for _, s := range req.Scenarios {
		scenarios = append(scenarios, forecast.Scenario{Name: s.Name, MonthlyAmount: *s.MonthlyAmount, Active: s.Active})
	}

	projection, err := h.reportService.GetForecast(userID, req.Year, scenarios)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, projection)
}
