package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/grid"
	"github.com/podplan/backend/internal/services"
	"github.com/podplan/backend/pkg/response"
)

type AllocationHandler struct {
	allocationService *services.AllocationService
}

func NewAllocationHandler(svc *services.AllocationService) *AllocationHandler {
	return &AllocationHandler{allocationService: svc}
}

// queryYear reads ?year=; an absent year yields nil.
func queryYear(c *gin.Context) (*int, bool) {
	raw := c.Query("year")
	if raw == "" {
		return nil, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		response.BadRequest(c, "Year must be a valid year")
		return nil, false
	}
	return &year, true
}

// yearOrCurrent reads ?year= and falls back to the current calendar year.
func yearOrCurrent(c *gin.Context) (int, bool) {
	year, ok := queryYear(c)
	if !ok {
		return 0, false
	}
	if year == nil {
		return time.Now().Year(), true
	}
	return *year, true
}

// List returns allocations, optionally for one year
// GET /api/allocations?year=
func (h *AllocationHandler) List(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	items, err := h.allocationService.WithContext(c.Request.Context()).List(year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// GetByID returns one allocation
// GET /api/allocations/:id
func (h *AllocationHandler) GetByID(c *gin.Context) {
	item, err := h.allocationService.WithContext(c.Request.Context()).Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// Create stores a single monthly allocation
// POST /api/allocations
func (h *AllocationHandler) Create(c *gin.Context) {
	var req services.CreateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	item, err := h.allocationService.WithContext(c.Request.Context()).Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update changes percentage and notes
// PATCH /api/allocations/:id
func (h *AllocationHandler) Update(c *gin.Context) {
	var req services.UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	item, err := h.allocationService.WithContext(c.Request.Context()).Update(c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// Delete removes one allocation
// DELETE /api/allocations/:id
func (h *AllocationHandler) Delete(c *gin.Context) {
	if err := h.allocationService.WithContext(c.Request.Context()).Delete(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "allocation deleted successfully"})
}

// Expand fills the missing months of a resource/project pair with 0% allocations
// POST /api/allocations/expand
func (h *AllocationHandler) Expand(c *gin.Context) {
	var req services.AllocationPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	created, err := h.allocationService.WithContext(c.Request.Context()).ExpandToFullYear(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"created": created, "count": len(created)})
}

// Remove deletes every allocation of a pair in one year
// POST /api/allocations/remove
func (h *AllocationHandler) Remove(c *gin.Context) {
	var req services.AllocationPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	deleted, err := h.allocationService.WithContext(c.Request.Context()).RemoveFromProject(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted})
}

// Grid returns the twelve-month grid grouped by project or by resource
// GET /api/allocations/grid?year=&view=
func (h *AllocationHandler) Grid(c *gin.Context) {
	year, ok := yearOrCurrent(c)
	if !ok {
		return
	}
	view, err := h.allocationService.WithContext(c.Request.Context()).Grid(year, c.Query("view"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Totals returns per-resource monthly totals, or one project's totals with ?projectId=
// GET /api/allocations/totals?year=
func (h *AllocationHandler) Totals(c *gin.Context) {
	year, ok := yearOrCurrent(c)
	if !ok {
		return
	}
	svc := h.allocationService.WithContext(c.Request.Context())

	if projectID := c.Query("projectId"); projectID != "" {
		totals, err := svc.ProjectMonthlyTotals(projectID, year)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, totals)
		return
	}

	totals, err := svc.MonthlyTotals(year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, totals)
}

type gridCommitRequest struct {
	Cells []grid.Cell `json:"cells" binding:"required"`
}

type gridCommitResponse struct {
	Outcomes []grid.Outcome `json:"outcomes"`
	Written  int            `json:"written"`
	Failed   int            `json:"failed"`
}

// GridCommit writes the changed cells of a grid edit session and reports each cell
// POST /api/allocations/grid/commit
func (h *AllocationHandler) GridCommit(c *gin.Context) {
	var req gridCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	outcomes := grid.Commit(c.Request.Context(), grid.NewAllocationWriter(h.allocationService), req.Cells)
	resp := gridCommitResponse{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.OK() {
			resp.Written++
		} else {
			resp.Failed++
		}
	}
	response.Success(c, resp)
}
