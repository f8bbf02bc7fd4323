package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/services"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type ResourceHandler struct {
	resourceService *services.ResourceService
}

func NewResourceHandler(db *gorm.DB) *ResourceHandler {
	return &ResourceHandler{
		resourceService: services.NewResourceService(db),
	}
}

// GET /api/resources
func (h *ResourceHandler) List(c *gin.Context) {
	resources, err := h.resourceService.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resources)
}

// Search matches resource names case-insensitively
// GET /api/resources/search?q=&limit=&status=
func (h *ResourceHandler) Search(c *gin.Context) {
	var req services.ResourceSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resources, err := h.resourceService.Search(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resources)
}

// GET /api/resources/:id
func (h *ResourceHandler) GetByID(c *gin.Context) {
	resource, err := h.resourceService.GetByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resource)
}

// POST /api/resources
func (h *ResourceHandler) Create(c *gin.Context) {
	var req services.ResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resource, err := h.resourceService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resource)
}

// PATCH /api/resources/:id
func (h *ResourceHandler) Update(c *gin.Context) {
	var req services.ResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resource, err := h.resourceService.Update(c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resource)
}

// Delete removes a resource together with its allocations and memberships
// DELETE /api/resources/:id
func (h *ResourceHandler) Delete(c *gin.Context) {
	if err := h.resourceService.Delete(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "resource deleted successfully"})
}
