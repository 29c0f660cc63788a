package api

import (
	"alcyxob/gym-tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard godoc
// @Summary Aggregated progress view
// @Description Today's weight, workout and distance, the last 7 days, muscle frequency and the streak.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Dashboard
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.dashboardService.Get(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Error fetching dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
