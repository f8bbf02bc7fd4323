package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/services"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: services.NewDashboardService(db),
	}
}

// GetStats returns dashboard statistics
// GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	resp, err := h.dashboardService.GetStats()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}
