package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is a lookup entry for Resource.Role.
type Role struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description *string   `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Skill is attached to resources through ResourceSkill.
type Skill struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Category  string    `gorm:"size:100" json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var SkillCategories = []string{"Programming Language", "Framework", "Database", "Tool", "Cloud Platform", "Other"}

func (Role) TableName() string  { return "roles" }
func (Skill) TableName() string { return "skills" }

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

func (s *Skill) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
