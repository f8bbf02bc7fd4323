package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/services"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db),
	}
}

// List returns all projects, newest first
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, projects)
}

// GetByID returns a project with its pods and allocations
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, err := h.projectService.GetByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Create creates a project with optional pods and allocations
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update applies a partial update; supplied pods and allocations replace the stored ones
// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Delete deletes a project and its allocations
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.Delete(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "project deleted successfully"})
}
