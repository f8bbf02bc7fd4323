package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectAllocation assigns a share of one resource to one project for one calendar month.
// (resource, project, year, month) identifies a grid cell and is unique.
type ProjectAllocation struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ResourceID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_allocation_cell,priority:1" json:"resourceId"`
	ProjectID  string    `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_allocation_cell,priority:2" json:"projectId"`
	Year       int       `gorm:"not null;index;uniqueIndex:idx_allocation_cell,priority:3" json:"year"`
	Month      int       `gorm:"not null;uniqueIndex:idx_allocation_cell,priority:4;check:chk_allocation_month,month >= 1 AND month <= 12" json:"month"`
	Percentage float64   `gorm:"not null;default:0;check:chk_allocation_percentage,percentage >= 0 AND percentage <= 100" json:"percentage"`
	Notes      *string   `gorm:"type:text" json:"notes"`
	Resource   *Resource `gorm:"foreignKey:ResourceID" json:"-"`
	Project    *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (ProjectAllocation) TableName() string { return "project_allocations" }

func (a *ProjectAllocation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
