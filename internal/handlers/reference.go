package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/services"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

// RoleHandler serves the role reference list.
type RoleHandler struct {
	roleService *services.RoleService
}

func NewRoleHandler(db *gorm.DB) *RoleHandler {
	return &RoleHandler{roleService: services.NewRoleService(db)}
}

// GET /api/roles
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.roleService.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, roles)
}

// POST /api/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var req services.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role, err := h.roleService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, role)
}

// PATCH /api/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	var req services.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role, err := h.roleService.Update(c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, role)
}

// Delete is refused while any resource still holds the role
// DELETE /api/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.roleService.Delete(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "role deleted successfully"})
}

// SkillHandler serves the skill reference list.
type SkillHandler struct {
	skillService *services.SkillService
}

func NewSkillHandler(db *gorm.DB) *SkillHandler {
	return &SkillHandler{skillService: services.NewSkillService(db)}
}

// GET /api/skills
func (h *SkillHandler) List(c *gin.Context) {
	skills, err := h.skillService.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, skills)
}

// POST /api/skills
func (h *SkillHandler) Create(c *gin.Context) {
	var req services.SkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	skill, err := h.skillService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, skill)
}

// PATCH /api/skills/:id
func (h *SkillHandler) Update(c *gin.Context) {
	var req services.SkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	skill, err := h.skillService.Update(c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, skill)
}

// Delete is refused while any resource lists the skill
// DELETE /api/skills/:id
func (h *SkillHandler) Delete(c *gin.Context) {
	if err := h.skillService.Delete(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "skill deleted successfully"})
}
