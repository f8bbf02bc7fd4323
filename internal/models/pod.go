package models

import (
	"time"

	"gorm.io/gorm"
)

// Pod is a team grouping of resources.
type Pod struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string     `gorm:"size:200;not null;index" json:"name"`
	Description *string    `gorm:"size:1000" json:"description"`
	Status      string     `gorm:"size:20;default:active" json:"status"` // active, inactive
	Members     []Resource `gorm:"many2many:resource_pods" json:"members,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Pod) TableName() string { return "pods" }

func (p *Pod) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
