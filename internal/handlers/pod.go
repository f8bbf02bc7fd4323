package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/services"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type PodHandler struct {
	podService *services.PodService
}

func NewPodHandler(db *gorm.DB) *PodHandler {
	return &PodHandler{
		podService: services.NewPodService(db),
	}
}

// GET /api/pods
func (h *PodHandler) List(c *gin.Context) {
	pods, err := h.podService.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, pods)
}

// GET /api/pods/:id
func (h *PodHandler) GetByID(c *gin.Context) {
	pod, err := h.podService.GetByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, pod)
}

// POST /api/pods
func (h *PodHandler) Create(c *gin.Context) {
	var req services.PodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pod, err := h.podService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pod)
}

// PATCH /api/pods/:id
func (h *PodHandler) Update(c *gin.Context) {
	var req services.PodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pod, err := h.podService.Update(c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, pod)
}

// Delete removes a pod; members and projects are unassigned, not deleted
// DELETE /api/pods/:id
func (h *PodHandler) Delete(c *gin.Context) {
	if err := h.podService.Delete(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "pod deleted successfully"})
}
