package services

import (
	"fmt"

	"github.com/podplan/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type DashboardStats struct {
	TotalResources    int64   `json:"totalResources"`
	ActiveResources   int64   `json:"activeResources"`
	TotalPods         int64   `json:"totalPods"`
	ActivePods        int64   `json:"activePods"`
	TotalProjects     int64   `json:"totalProjects"`
	ActiveProjects    int64   `json:"activeProjects"`
	AllocationCount   int64   `json:"allocationCount"`
	AverageAllocation float64 `json:"averageAllocation"`
}

// PodMembers is a pod with its member count for the "resources by pod" panel.
type PodMembers struct {
	PodID       string `json:"podId"`
	PodName     string `json:"podName"`
	MemberCount int64  `json:"memberCount"`
}

type DashboardResponse struct {
	Stats DashboardStats `json:"stats"`
	Pods  []PodMembers   `json:"pods"`
}

func (s *DashboardService) GetStats() (*DashboardResponse, error) {
	var stats DashboardStats

	counts := []struct {
		model  interface{}
		status string
		total  *int64
		active *int64
	}{
		{&models.Resource{}, models.ResourceStatusActive, &stats.TotalResources, &stats.ActiveResources},
		{&models.Pod{}, "active", &stats.TotalPods, &stats.ActivePods},
		{&models.Project{}, models.ProjectStatusActive, &stats.TotalProjects, &stats.ActiveProjects},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Count(c.total).Error; err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
		if err := s.db.Model(c.model).Where("status = ?", c.status).Count(c.active).Error; err != nil {
			return nil, fmt.Errorf("count active: %w", err)
		}
	}

	var avg struct {
		Count int64
		Total float64
	}
	if err := s.db.Model(&models.ProjectAllocation{}).
		Select("COUNT(*) AS count, COALESCE(SUM(percentage), 0) AS total").
		Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("average allocation: %w", err)
	}
	stats.AllocationCount = avg.Count
	if avg.Count > 0 {
		stats.AverageAllocation = decimal.NewFromFloat(avg.Total).
			Div(decimal.NewFromInt(avg.Count)).Round(0).InexactFloat64()
	}

	var pods []PodMembers
	if err := s.db.Model(&models.Pod{}).
		Select("pods.id AS pod_id, pods.name AS pod_name, COUNT(resource_pods.resource_id) AS member_count").
		Joins("LEFT JOIN resource_pods ON resource_pods.pod_id = pods.id").
		Group("pods.id, pods.name").
		Order("pods.name ASC").
		Scan(&pods).Error; err != nil {
		return nil, fmt.Errorf("pod members: %w", err)
	}
	if pods == nil {
		pods = []PodMembers{}
	}

	return &DashboardResponse{Stats: stats, Pods: pods}, nil
}
