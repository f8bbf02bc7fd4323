package services

import (
	"fmt"
	"strings"

	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/pkg/logger"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type RoleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

type RoleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// List returns roles ordered by name
func (s *RoleService) List() ([]models.Role, error) {
	var roles []models.Role
	if err := s.db.Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// Create creates a role with a unique name
func (s *RoleService) Create(req *RoleRequest) (*models.Role, error) {
	name := ""
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if name == "" {
		return nil, response.NewValidation("Role name is required")
	}
	if err := s.checkName(name, ""); err != nil {
		return nil, err
	}

	role := models.Role{Name: name, Description: optionalText(req.Description)}
	if err := s.db.Create(&role).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errDuplicateRole
		}
		return nil, fmt.Errorf("create role: %w", err)
	}
	return &role, nil
}

// Update renames a role and/or changes its description. Resources keep the role name they
// were assigned.
func (s *RoleService) Update(id string, req *RoleRequest) (*models.Role, error) {
	var role models.Role
	if err := s.db.Where("id = ?", id).First(&role).Error; err != nil {
		return nil, notFoundOr(err, "Role")
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, response.NewValidation("Role name is required")
		}
		if name != role.Name {
			if err := s.checkName(name, id); err != nil {
				return nil, err
			}
			updates["name"] = name
		}
	}
	if req.Description != nil {
		updates["description"] = optionalText(req.Description)
	}
	if len(updates) == 0 {
		return &role, nil
	}

	if err := s.db.Model(&role).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errDuplicateRole
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	var fresh models.Role
	if err := s.db.Where("id = ?", id).First(&fresh).Error; err != nil {
		return nil, notFoundOr(err, "Role")
	}
	return &fresh, nil
}

// Delete removes a role unless a resource still holds its name.
func (s *RoleService) Delete(id string) error {
	var role models.Role
	if err := s.db.Where("id = ?", id).First(&role).Error; err != nil {
		return notFoundOr(err, "Role")
	}

	var count int64
	if err := s.db.Model(&models.Resource{}).Where("role = ?", role.Name).Count(&count).Error; err != nil {
		return fmt.Errorf("count role dependents: %w", err)
	}
	if count > 0 {
		logger.Warn().Str("role", role.Name).Int64("count", count).Msg("role delete blocked by resources")
		return response.NewDependency(fmt.Sprintf(
			"Cannot delete role %q because it is assigned to %d engineer(s). Please reassign them first.",
			role.Name, count), count)
	}

	if err := s.db.Delete(&role).Error; err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

var errDuplicateRole = response.NewDuplicate("A role with this name already exists")

func (s *RoleService) checkName(name, excludeID string) error {
	query := s.db.Model(&models.Role{}).Where("name = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check role name: %w", err)
	}
	if count > 0 {
		return errDuplicateRole
	}
	return nil
}
