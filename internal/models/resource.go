package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// Resource statuses
const (
	ResourceStatusActive   = "active"
	ResourceStatusOnLeave  = "on-leave"
	ResourceStatusInactive = "inactive"
)

var ResourceStatuses = []string{ResourceStatusActive, ResourceStatusOnLeave, ResourceStatusInactive}

var Seniorities = []string{"Junior", "Mid-Level", "Senior", "Staff", "Principal"}

// Resource is an engineer that can be allocated to projects.
type Resource struct {
	ID    string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name  string  `gorm:"size:200;not null;index" json:"name"`
	Email *string `gorm:"size:255;index" json:"email"`
	// NameKey and EmailKey hold FoldKey of Name and Email and carry the uniqueness rule.
	NameKey  string  `gorm:"size:200;uniqueIndex" json:"-"`
	EmailKey *string `gorm:"size:255;uniqueIndex" json:"-"`
	// Role holds Role.Name by value. Renaming a Role does not touch existing resources.
	Role      string    `gorm:"size:100;index" json:"role"`
	Seniority string    `gorm:"size:50" json:"seniority"`
	Status    string    `gorm:"size:20;default:active;index" json:"status"`
	Pods      []Pod     `gorm:"many2many:resource_pods" json:"pods"`
	Skills    []Skill   `gorm:"many2many:resource_skills" json:"skills"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ResourcePod links a resource to a pod.
type ResourcePod struct {
	ResourceID string    `gorm:"primaryKey;type:varchar(36)"`
	PodID      string    `gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ResourceSkill links a resource to a skill.
type ResourceSkill struct {
	ResourceID string    `gorm:"primaryKey;type:varchar(36)"`
	SkillID    string    `gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Resource) TableName() string      { return "resources" }
func (ResourcePod) TableName() string   { return "resource_pods" }
func (ResourceSkill) TableName() string { return "resource_skills" }

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	r.SetKeys()
	return nil
}

// FoldKey is the case-insensitive comparison form of a name or email.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// SetKeys recomputes NameKey and EmailKey from Name and Email.
func (r *Resource) SetKeys() {
	r.NameKey = FoldKey(r.Name)
	r.EmailKey = nil
	if r.Email != nil {
		key := FoldKey(*r.Email)
		r.EmailKey = &key
	}
}

// IsValidResourceStatus reports whether s is one of ResourceStatuses.
func IsValidResourceStatus(s string) bool {
	for _, v := range ResourceStatuses {
		if v == s {
			return true
		}
	}
	return false
}
