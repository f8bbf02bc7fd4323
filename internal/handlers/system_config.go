package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/services"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
	budget        *services.BudgetService
	holidays      *services.HolidayService
}

func NewSystemConfigHandler(db *gorm.DB, budget *services.BudgetService, holidays *services.HolidayService) *SystemConfigHandler {
	return &SystemConfigHandler{
		configService: services.NewSystemConfigService(db),
		budget:        budget,
		holidays:      holidays,
	}
}

// GetHolidayCountries lists the selectable working-day calendars
// GET /api/system-config/holiday-countries
func (h *SystemConfigHandler) GetHolidayCountries(c *gin.Context) {
	response.Success(c, h.holidays.GetSupportedCountries())
}

// GetBudgetSettings returns the stored budget settings
// GET /api/system-config/budget
func (h *SystemConfigHandler) GetBudgetSettings(c *gin.Context) {
	response.Success(c, h.configService.GetBudgetSettings())
}

// UpdateBudgetSettings stores the settings and switches the live calendar
// PUT /api/system-config/budget
func (h *SystemConfigHandler) UpdateBudgetSettings(c *gin.Context) {
	var req services.UpdateBudgetSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	settings, err := h.configService.UpdateBudgetSettings(&req, h.holidays)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.budget.SetCountry(settings.HolidayCountry)
	response.Success(c, settings)
}
