package services

import (
	"fmt"
	"strings"

	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/pkg/logger"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type SkillService struct {
	db *gorm.DB
}

func NewSkillService(db *gorm.DB) *SkillService {
	return &SkillService{db: db}
}

type SkillRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
}

var errDuplicateSkill = response.NewDuplicate("A skill with this name already exists")

// List returns skills ordered by category, then name
func (s *SkillService) List() ([]models.Skill, error) {
	var skills []models.Skill
	if err := s.db.Order("category ASC, name ASC").Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return skills, nil
}

func (s *SkillService) Create(req *SkillRequest) (*models.Skill, error) {
	name := ""
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if name == "" {
		return nil, response.NewValidation("Skill name is required")
	}
	category := "Other"
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		category = strings.TrimSpace(*req.Category)
	}
	if err := s.checkName(name, ""); err != nil {
		return nil, err
	}

	skill := models.Skill{Name: name, Category: category}
	if err := s.db.Create(&skill).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errDuplicateSkill
		}
		return nil, fmt.Errorf("create skill: %w", err)
	}
	return &skill, nil
}

func (s *SkillService) Update(id string, req *SkillRequest) (*models.Skill, error) {
	var skill models.Skill
	if err := s.db.Where("id = ?", id).First(&skill).Error; err != nil {
		return nil, notFoundOr(err, "Skill")
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, response.NewValidation("Skill name is required")
		}
		if name != skill.Name {
			if err := s.checkName(name, id); err != nil {
				return nil, err
			}
			updates["name"] = name
		}
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}
	if len(updates) == 0 {
		return &skill, nil
	}

	if err := s.db.Model(&skill).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errDuplicateSkill
		}
		return nil, fmt.Errorf("update skill: %w", err)
	}
	if err := s.db.Where("id = ?", id).First(&skill).Error; err != nil {
		return nil, notFoundOr(err, "Skill")
	}
	return &skill, nil
}

// Delete removes a skill unless a resource profile still lists it.
func (s *SkillService) Delete(id string) error {
	var skill models.Skill
	if err := s.db.Where("id = ?", id).First(&skill).Error; err != nil {
		return notFoundOr(err, "Skill")
	}

	var count int64
	if err := s.db.Model(&models.ResourceSkill{}).Where("skill_id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("count skill dependents: %w", err)
	}
	if count > 0 {
		logger.Warn().Str("skill", skill.Name).Int64("count", count).Msg("skill delete blocked by resources")
		return response.NewDependency(fmt.Sprintf(
			"Cannot delete skill %q because it is assigned to %d engineer(s). Please remove it from their profiles first.",
			skill.Name, count), count)
	}

	if err := s.db.Delete(&skill).Error; err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	return nil
}

func (s *SkillService) checkName(name, excludeID string) error {
	query := s.db.Model(&models.Skill{}).Where("name = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check skill name: %w", err)
	}
	if count > 0 {
		return errDuplicateSkill
	}
	return nil
}
