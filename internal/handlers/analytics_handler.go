package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spendsense/internal/analytics"
	"spendsense/internal/services"
)

// AnalyticsHandler serves the read-only month views.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) monthSummary(c *gin.Context) (*analytics.Summary, bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	year, month, err := parseMonthYear(c)
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	summary, err := h.analyticsService.GetMonthSummary(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	return summary, true
}

// GetDashboard handles the dashboard view
// @Summary     Get dashboard
// @Description Month totals, breakdowns, heatmap, gamification state and budget warnings
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       month query int false "Month 1-12 (default current)"
// @Param       year  query int false "Year (default current)"
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid month or year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /analytics/dashboard [get]
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	year, month, err := parseMonthYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dash, err := h.analyticsService.GetDashboard(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// GetCategoryBreakdown handles the category breakdown
// @Summary     Get category breakdown
// @Description Amount, count and share of total per category with spending
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       month query int false "Month 1-12 (default current)"
// @Param       year  query int false "Year (default current)"
// @Success     200 {object} map[string]interface{} "Category breakdown"
// @Failure     400 {object} ErrorResponse "Invalid month or year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /analytics/categories [get]
func (h *AnalyticsHandler) GetCategoryBreakdown(c *gin.Context) {
	s, ok := h.monthSummary(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":        s.Year,
		"month":       s.Month,
		"total_spent": s.TotalSpent,
		"categories":  s.Categories,
	})
}

// GetDailySpending handles the daily spending series
// @Summary     Get daily spending
// @Description Per-day totals for days with spending, ascending by date
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       month query int false "Month 1-12 (default current)"
// @Param       year  query int false "Year (default current)"
// @Success     200 {object} map[string]interface{} "Daily spending"
// @Failure     400 {object} ErrorResponse "Invalid month or year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /analytics/daily [get]
func (h *AnalyticsHandler) GetDailySpending(c *gin.Context) {
	s, ok := h.monthSummary(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":           s.Year,
		"month":          s.Month,
		"daily_spending": s.DailySpending,
	})
}

// GetHeatmap handles the month heatmap
// @Summary     Get spending heatmap
// @Description One entry per day of the month, zero-filled
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       month query int false "Month 1-12 (default current)"
// @Param       year  query int false "Year (default current)"
// @Success     200 {object} map[string]interface{} "Heatmap"
// @Failure     400 {object} ErrorResponse "Invalid month or year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /analytics/heatmap [get]
func (h *AnalyticsHandler) GetHeatmap(c *gin.Context) {
	s, ok := h.monthSummary(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":         s.Year,
		"month":        s.Month,
		"heatmap_data": s.Heatmap,
	})
}
