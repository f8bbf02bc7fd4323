package services

import (
	"fmt"
	"strings"

	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/pkg/logger"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type PodService struct {
	db *gorm.DB
}

func NewPodService(db *gorm.DB) *PodService {
	return &PodService{db: db}
}

type PodRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// PodView is a pod with its members and their count.
type PodView struct {
	models.Pod
	MemberCount int `json:"memberCount"`
}

func newPodView(p models.Pod) PodView {
	if p.Members == nil {
		p.Members = []models.Resource{}
	}
	return PodView{Pod: p, MemberCount: len(p.Members)}
}

// List returns pods ordered by name
func (s *PodService) List() ([]PodView, error) {
	var pods []models.Pod
	if err := s.db.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).Preload("Members.Skills").Order("name ASC").Find(&pods).Error; err != nil {
		return nil, fmt.Errorf("list pods: %w", err)
	}

	views := make([]PodView, 0, len(pods))
	for _, p := range pods {
		views = append(views, newPodView(p))
	}
	return views, nil
}

func (s *PodService) GetByID(id string) (*PodView, error) {
	var pod models.Pod
	if err := s.db.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).Preload("Members.Skills").Where("id = ?", id).First(&pod).Error; err != nil {
		return nil, notFoundOr(err, "Pod")
	}
	v := newPodView(pod)
	return &v, nil
}

func (s *PodService) Create(req *PodRequest) (*PodView, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, response.NewValidation("Pod name is required")
	}
	pod := models.Pod{
		Name:        strings.TrimSpace(*req.Name),
		Description: optionalText(req.Description),
		Status:      "active",
	}
	if req.Status != nil && *req.Status != "" {
		pod.Status = *req.Status
	}
	if err := validatePodStatus(pod.Status); err != nil {
		return nil, err
	}

	if err := s.db.Create(&pod).Error; err != nil {
		return nil, fmt.Errorf("create pod: %w", err)
	}
	return s.GetByID(pod.ID)
}

func (s *PodService) Update(id string, req *PodRequest) (*PodView, error) {
	var pod models.Pod
	if err := s.db.Where("id = ?", id).First(&pod).Error; err != nil {
		return nil, notFoundOr(err, "Pod")
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, response.NewValidation("Pod name is required")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = optionalText(req.Description)
	}
	if req.Status != nil {
		if err := validatePodStatus(*req.Status); err != nil {
			return nil, err
		}
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(&pod).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update pod: %w", err)
		}
	}
	return s.GetByID(id)
}

// Delete removes the pod and unassigns its members and projects. Members are kept.
func (s *PodService) Delete(id string) error {
	var pod models.Pod
	if err := s.db.Where("id = ?", id).First(&pod).Error; err != nil {
		return notFoundOr(err, "Pod")
	}

	var members int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("pod_id = ?", id).Delete(&models.ResourcePod{})
		if result.Error != nil {
			return result.Error
		}
		members = result.RowsAffected
		if err := tx.Where("pod_id = ?", id).Delete(&models.ProjectPod{}).Error; err != nil {
			return err
		}
		return tx.Delete(&pod).Error
	})
	if err != nil {
		return fmt.Errorf("delete pod: %w", err)
	}

	logger.Info().Str("pod_id", id).Int64("count", members).Msg("pod deleted, members unassigned")
	return nil
}

func validatePodStatus(status string) error {
	if status != "active" && status != "inactive" {
		return response.NewValidation("Status must be active or inactive")
	}
	return nil
}
