package models

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses
const (
	ProjectStatusPlanned   = "planned"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on-hold"
	ProjectStatusCompleted = "completed"
)

// ProjectStatuses lists every accepted project status.
var ProjectStatuses = []string{ProjectStatusPlanned, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted}

// Project is a unit of work budgeted in man-days.
type Project struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string     `gorm:"size:200;not null;index" json:"name"`
	Description *string    `gorm:"type:text" json:"description"`
	Owner       string     `gorm:"size:200" json:"owner"`
	Status      string     `gorm:"size:20;default:planned;index" json:"status"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	// BudgetManDays and ConsumedManDays are entered by hand; consumption is never derived
	// from allocations.
	BudgetManDays   float64             `gorm:"default:0" json:"budgetManDays"`
	ConsumedManDays float64             `gorm:"default:0" json:"consumedManDays"`
	Pods            []Pod               `gorm:"many2many:project_pods" json:"-"`
	Allocations     []ProjectAllocation `gorm:"foreignKey:ProjectID" json:"-"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// ProjectPod links a project to a pod.
type ProjectPod struct {
	ProjectID string    `gorm:"primaryKey;type:varchar(36)"`
	PodID     string    `gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Project) TableName() string    { return "projects" }
func (ProjectPod) TableName() string { return "project_pods" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// IsValidProjectStatus reports whether s is one of ProjectStatuses.
func IsValidProjectStatus(s string) bool {
	for _, v := range ProjectStatuses {
		if v == s {
			return true
		}
	}
	return false
}
