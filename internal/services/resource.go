package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/pkg/logger"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type ResourceService struct {
	db *gorm.DB
}

func NewResourceService(db *gorm.DB) *ResourceService {
	return &ResourceService{db: db}
}

// ResourceRequest is used for create and partial update. PodIDs and SkillIDs replace the
// current sets when present.
type ResourceRequest struct {
	Name      *string   `json:"name"`
	Email     *string   `json:"email"`
	Role      *string   `json:"role"`
	Seniority *string   `json:"seniority"`
	Status    *string   `json:"status"`
	PodIDs    *[]string `json:"podIds"`
	SkillIDs  *[]string `json:"skills"`
}

type ResourceSearchRequest struct {
	Query  string `form:"q"`
	Limit  int    `form:"limit"`
	Status string `form:"status"`
}

// ResourceDetail is a resource with its allocations ordered by year and month.
type ResourceDetail struct {
	models.Resource
	Allocations []AllocationView `json:"allocations"`
}

// List returns all resources ordered by name with pods and skills
func (s *ResourceService) List() ([]models.Resource, error) {
	var resources []models.Resource
	if err := s.db.Preload("Pods").Preload("Skills").Order("name ASC").Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}

func (s *ResourceService) GetByID(id string) (*ResourceDetail, error) {
	var resource models.Resource
	if err := s.db.Preload("Pods").Preload("Skills").Where("id = ?", id).First(&resource).Error; err != nil {
		return nil, notFoundOr(err, "Resource")
	}

	var allocations []models.ProjectAllocation
	if err := s.db.Preload("Project").Where("resource_id = ?", id).
		Order("year ASC, month ASC").Find(&allocations).Error; err != nil {
		return nil, fmt.Errorf("load resource allocations: %w", err)
	}

	detail := &ResourceDetail{Resource: resource, Allocations: make([]AllocationView, 0, len(allocations))}
	for _, a := range allocations {
		a.Resource = &resource
		detail.Allocations = append(detail.Allocations, newAllocationView(a))
	}
	return detail, nil
}

// Search matches active (by default) resources whose name contains the query, ignoring case.
// The query is matched literally; % and _ are not wildcards.
func (s *ResourceService) Search(req *ResourceSearchRequest) ([]models.Resource, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	status := req.Status
	if status == "" {
		status = models.ResourceStatusActive
	}

	query := s.db.Where("status = ?", status)
	if q := models.FoldKey(req.Query); q != "" {
		query = query.Where("name_key LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(q)+"%")
	}

	var resources []models.Resource
	if err := query.Order("name ASC").Limit(limit).Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("search resources: %w", err)
	}
	return resources, nil
}

func (s *ResourceService) Create(req *ResourceRequest) (*models.Resource, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, response.NewValidation("Name is required")
	}
	resource := models.Resource{
		Name:   strings.TrimSpace(*req.Name),
		Status: models.ResourceStatusActive,
	}
	if req.Email != nil {
		resource.Email = normalizeEmail(*req.Email)
	}
	if req.Role != nil {
		resource.Role = strings.TrimSpace(*req.Role)
	}
	if req.Seniority != nil {
		resource.Seniority = *req.Seniority
	}
	if req.Status != nil && *req.Status != "" {
		resource.Status = *req.Status
	}
	if err := validateResourceFields(&resource); err != nil {
		return nil, err
	}
	if err := s.checkUnique(resource.Name, resource.Email, ""); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Pods", "Skills").Create(&resource).Error; err != nil {
			return err
		}
		return replaceResourceLinks(tx, resource.ID, req.PodIDs, req.SkillIDs)
	})
	if err != nil {
		return nil, resourceWriteError("create resource", err)
	}

	logger.Info().Str("resource_id", resource.ID).Str("name", resource.Name).Msg("resource created")
	return s.load(resource.ID)
}

func (s *ResourceService) Update(id string, req *ResourceRequest) (*models.Resource, error) {
	var resource models.Resource
	if err := s.db.Where("id = ?", id).First(&resource).Error; err != nil {
		return nil, notFoundOr(err, "Resource")
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, response.NewValidation("Name cannot be empty")
		}
		resource.Name = name
		updates["name"] = name
	}
	if req.Email != nil {
		resource.Email = normalizeEmail(*req.Email)
		updates["email"] = resource.Email
	}
	resource.SetKeys()
	if req.Name != nil {
		updates["name_key"] = resource.NameKey
	}
	if req.Email != nil {
		updates["email_key"] = resource.EmailKey
	}
	if req.Role != nil {
		resource.Role = strings.TrimSpace(*req.Role)
		updates["role"] = resource.Role
	}
	if req.Seniority != nil {
		resource.Seniority = *req.Seniority
		updates["seniority"] = resource.Seniority
	}
	if req.Status != nil {
		resource.Status = *req.Status
		updates["status"] = resource.Status
	}
	if err := validateResourceFields(&resource); err != nil {
		return nil, err
	}

	var name string
	if req.Name != nil {
		name = resource.Name
	}
	var email *string
	if req.Email != nil {
		email = resource.Email
	}
	if err := s.checkUnique(name, email, id); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Resource{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		return replaceResourceLinks(tx, id, req.PodIDs, req.SkillIDs)
	})
	if err != nil {
		return nil, resourceWriteError("update resource", err)
	}
	return s.load(id)
}

// Delete removes the resource together with its allocations and pod/skill links.
func (s *ResourceService) Delete(id string) error {
	var resource models.Resource
	if err := s.db.Where("id = ?", id).First(&resource).Error; err != nil {
		return notFoundOr(err, "Resource")
	}

	var removed int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("resource_id = ?", id).Delete(&models.ProjectAllocation{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		if err := tx.Where("resource_id = ?", id).Delete(&models.ResourcePod{}).Error; err != nil {
			return err
		}
		if err := tx.Where("resource_id = ?", id).Delete(&models.ResourceSkill{}).Error; err != nil {
			return err
		}
		return tx.Delete(&resource).Error
	})
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}

	logger.Info().Str("resource_id", id).Int64("count", removed).Msg("resource deleted with allocations")
	return nil
}

func (s *ResourceService) load(id string) (*models.Resource, error) {
	var resource models.Resource
	if err := s.db.Preload("Pods").Preload("Skills").Where("id = ?", id).First(&resource).Error; err != nil {
		return nil, notFoundOr(err, "Resource")
	}
	return &resource, nil
}

// checkUnique rejects a name or email already used by another resource, ignoring case. Empty
// name and nil email are not checked. The unique key columns back this up under concurrent writes.
func (s *ResourceService) checkUnique(name string, email *string, excludeID string) error {
	if name != "" {
		taken, err := s.keyTaken("name_key", models.FoldKey(name), excludeID)
		if err != nil {
			return fmt.Errorf("check resource name: %w", err)
		}
		if taken {
			return errDuplicateResourceName
		}
	}

	if email != nil {
		taken, err := s.keyTaken("email_key", models.FoldKey(*email), excludeID)
		if err != nil {
			return fmt.Errorf("check resource email: %w", err)
		}
		if taken {
			return errDuplicateResourceEmail
		}
	}
	return nil
}

func (s *ResourceService) keyTaken(column, key, excludeID string) (bool, error) {
	query := s.db.Model(&models.Resource{}).Where(column+" = ?", key)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var (
	errDuplicateResourceName  = response.NewConflict("A resource with this name already exists")
	errDuplicateResourceEmail = response.NewConflict("A resource with this email already exists")
)

// likeEscaper makes user text literal inside a LIKE pattern using ! as the escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func resourceWriteError(op string, err error) error {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if isUniqueViolation(err) {
		if strings.Contains(strings.ToLower(err.Error()), "email") {
			return errDuplicateResourceEmail
		}
		return errDuplicateResourceName
	}
	return fmt.Errorf("%s: %w", op, err)
}

func validateResourceFields(r *models.Resource) error {
	if !models.IsValidResourceStatus(r.Status) {
		return response.NewValidation("Status must be one of " + strings.Join(models.ResourceStatuses, ", "))
	}
	if r.Seniority != "" {
		valid := false
		for _, v := range models.Seniorities {
			if v == r.Seniority {
				valid = true
				break
			}
		}
		if !valid {
			return response.NewValidation("Seniority must be one of " + strings.Join(models.Seniorities, ", "))
		}
	}
	return nil
}

func normalizeEmail(email string) *string {
	return optionalText(&email)
}

func replaceResourceLinks(tx *gorm.DB, resourceID string, podIDs, skillIDs *[]string) error {
	if podIDs != nil {
		if err := tx.Where("resource_id = ?", resourceID).Delete(&models.ResourcePod{}).Error; err != nil {
			return err
		}
		ids := uniqueIDs(*podIDs)
		if err := requireAll(tx, &models.Pod{}, ids, "Pod"); err != nil {
			return err
		}
		links := make([]models.ResourcePod, 0, len(ids))
		for _, podID := range ids {
			links = append(links, models.ResourcePod{ResourceID: resourceID, PodID: podID})
		}
		if len(links) > 0 {
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}
	}

	if skillIDs != nil {
		if err := tx.Where("resource_id = ?", resourceID).Delete(&models.ResourceSkill{}).Error; err != nil {
			return err
		}
		ids := uniqueIDs(*skillIDs)
		if err := requireAll(tx, &models.Skill{}, ids, "Skill"); err != nil {
			return err
		}
		links := make([]models.ResourceSkill, 0, len(ids))
		for _, skillID := range ids {
			links = append(links, models.ResourceSkill{ResourceID: resourceID, SkillID: skillID})
		}
		if len(links) > 0 {
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// uniqueIDs drops blanks and repeats, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
