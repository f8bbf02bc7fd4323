package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/services"
	"github.com/podplan/backend/pkg/response"
)

type BudgetHandler struct {
	budgetService *services.BudgetService
}

func NewBudgetHandler(svc *services.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: svc}
}

// Report returns the budget health of every project, most severe first
// GET /api/budget
func (h *BudgetHandler) Report(c *gin.Context) {
	reports, err := h.budgetService.Report()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, reports)
}

// Summary returns portfolio totals
// GET /api/budget/summary
func (h *BudgetHandler) Summary(c *gin.Context) {
	reports, err := h.budgetService.Report()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.budgetService.Summary(reports))
}

// WorkingDays returns the working days of one month under the active calendar
// GET /api/budget/working-days?month=&year=
func (h *BudgetHandler) WorkingDays(c *gin.Context) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		response.BadRequest(c, "Month must be between 1 and 12")
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.BadRequest(c, "Year must be a valid year")
		return
	}

	days, err := h.budgetService.WorkingDaysInMonth(month, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"month":       month,
		"year":        year,
		"workingDays": days,
		"country":     h.budgetService.Country(),
	})
}
