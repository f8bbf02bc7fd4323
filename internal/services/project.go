package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/pkg/logger"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db, now: time.Now}
}

// OptionalDate distinguishes an absent date (Set false) from an explicit null (Set true,
// Value nil). Accepts "2006-01-02" in local time or RFC 3339.
type OptionalDate struct {
	Set   bool
	Value *time.Time
}

func (d *OptionalDate) UnmarshalJSON(data []byte) error {
	d.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("date must be a string")
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Value = t
	return nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", s)
	}
	return &t, nil
}

// ProjectAllocationInput is one nested allocation of a project write.
type ProjectAllocationInput struct {
	ResourceID string      `json:"resourceId"`
	Percentage interface{} `json:"percentage"`
	Month      interface{} `json:"month"`
	Year       interface{} `json:"year"`
	Notes      *string     `json:"notes"`
}

// ProjectRequest serves create and partial update. Pods and Allocations replace the current
// sets when present.
type ProjectRequest struct {
	Name            *string                   `json:"name"`
	Description     *string                   `json:"description"`
	Owner           *string                   `json:"owner"`
	Status          *string                   `json:"status"`
	StartDate       OptionalDate              `json:"startDate"`
	EndDate         OptionalDate              `json:"endDate"`
	BudgetManDays   interface{}               `json:"budgetManDays"`
	ConsumedManDays interface{}               `json:"consumedManDays"`
	Pods            *[]string                 `json:"pods"`
	Allocations     *[]ProjectAllocationInput `json:"allocations"`
}

// ProjectView is a project with its pod ids and allocations ordered by year and month.
type ProjectView struct {
	models.Project
	Pods        []string         `json:"pods"`
	Allocations []AllocationView `json:"allocations"`
}

func newProjectView(p models.Project) ProjectView {
	v := ProjectView{Project: p, Pods: make([]string, 0, len(p.Pods)), Allocations: make([]AllocationView, 0, len(p.Allocations))}
	for _, pod := range p.Pods {
		v.Pods = append(v.Pods, pod.ID)
	}
	for _, a := range p.Allocations {
		a.Project = &p
		v.Allocations = append(v.Allocations, newAllocationView(a))
	}
	return v
}

func (s *ProjectService) withChildren(db *gorm.DB) *gorm.DB {
	return db.Preload("Pods").Preload("Allocations", func(db *gorm.DB) *gorm.DB {
		return db.Order("year ASC, month ASC")
	}).Preload("Allocations.Resource")
}

// List returns projects, newest first
func (s *ProjectService) List() ([]ProjectView, error) {
	var projects []models.Project
	if err := s.withChildren(s.db).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, newProjectView(p))
	}
	return views, nil
}

// GetByID returns a project by ID
func (s *ProjectService) GetByID(id string) (*ProjectView, error) {
	var project models.Project
	if err := s.withChildren(s.db).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, notFoundOr(err, "Project")
	}
	v := newProjectView(project)
	return &v, nil
}

// Create creates a project with its nested pods and allocations in one transaction.
func (s *ProjectService) Create(req *ProjectRequest) (*ProjectView, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, response.NewValidation("Project name is required")
	}

	project := models.Project{
		Name:        strings.TrimSpace(*req.Name),
		Description: optionalText(req.Description),
		Status:      models.ProjectStatusPlanned,
		StartDate:   req.StartDate.Value,
		EndDate:     req.EndDate.Value,
	}
	if req.Owner != nil {
		project.Owner = strings.TrimSpace(*req.Owner)
	}
	if req.Status != nil && *req.Status != "" {
		project.Status = *req.Status
	}
	if !models.IsValidProjectStatus(project.Status) {
		return nil, errProjectStatus
	}
	if err := s.checkPlannedStart(project.Status, project.StartDate); err != nil {
		return nil, err
	}
	if err := checkDateOrder(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	var err error
	if project.BudgetManDays, err = coerceManDays(req.BudgetManDays, "Budget"); err != nil {
		return nil, err
	}
	if project.ConsumedManDays, err = coerceManDays(req.ConsumedManDays, "Consumed"); err != nil {
		return nil, err
	}

	allocations, err := buildProjectAllocations(req.Allocations)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Pods", "Allocations").Create(&project).Error; err != nil {
			return err
		}
		return replaceProjectChildren(tx, project.ID, req.Pods, allocations)
	})
	if err != nil {
		return nil, projectWriteError("create project", err)
	}

	logger.Info().Str("project_id", project.ID).Str("name", project.Name).Msg("project created")
	return s.GetByID(project.ID)
}

// Update applies a partial update. The planned start date rule is checked against the stored
// status or start date for whichever of the two the request omits, and only when the request
// carries at least one of them.
func (s *ProjectService) Update(id string, req *ProjectRequest) (*ProjectView, error) {
	var project models.Project
	if err := s.db.Where("id = ?", id).First(&project).Error; err != nil {
		return nil, notFoundOr(err, "Project")
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, response.NewValidation("Project name is required")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = optionalText(req.Description)
	}
	if req.Owner != nil {
		updates["owner"] = strings.TrimSpace(*req.Owner)
	}

	status, start, end := project.Status, project.StartDate, project.EndDate
	if req.Status != nil {
		status = *req.Status
		if !models.IsValidProjectStatus(status) {
			return nil, errProjectStatus
		}
		updates["status"] = status
	}
	if req.StartDate.Set {
		start = req.StartDate.Value
		updates["start_date"] = start
	}
	if req.EndDate.Set {
		end = req.EndDate.Value
		updates["end_date"] = end
	}
	if req.Status != nil || req.StartDate.Set {
		if err := s.checkPlannedStart(status, start); err != nil {
			return nil, err
		}
	}
	if req.StartDate.Set || req.EndDate.Set {
		if err := checkDateOrder(start, end); err != nil {
			return nil, err
		}
	}

	if req.BudgetManDays != nil {
		v, err := coerceManDays(req.BudgetManDays, "Budget")
		if err != nil {
			return nil, err
		}
		updates["budget_man_days"] = v
	}
	if req.ConsumedManDays != nil {
		v, err := coerceManDays(req.ConsumedManDays, "Consumed")
		if err != nil {
			return nil, err
		}
		updates["consumed_man_days"] = v
	}

	allocations, err := buildProjectAllocations(req.Allocations)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		return replaceProjectChildren(tx, id, req.Pods, allocations)
	})
	if err != nil {
		return nil, projectWriteError("update project", err)
	}
	return s.GetByID(id)
}

// Delete removes a project with its pod links and allocations.
func (s *ProjectService) Delete(id string) error {
	var project models.Project
	if err := s.db.Where("id = ?", id).First(&project).Error; err != nil {
		return notFoundOr(err, "Project")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectAllocation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectPod{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	logger.Info().Str("project_id", id).Msg("project deleted")
	return nil
}

var errProjectStatus = response.NewValidation("Status must be one of " + strings.Join(models.ProjectStatuses, ", "))

// checkPlannedStart rejects a planned project starting before today (local time).
func (s *ProjectService) checkPlannedStart(status string, start *time.Time) error {
	if status != models.ProjectStatusPlanned || start == nil {
		return nil
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if start.Before(today) {
		return errPlannedInPast
	}
	return nil
}

func checkDateOrder(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return response.NewValidation("End date cannot be before start date")
	}
	return nil
}

func coerceManDays(v interface{}, label string) (float64, error) {
	if v == nil {
		return 0, nil
	}
	f, ok := toNumber(v)
	if !ok || f < 0 {
		return 0, response.NewValidation(label + " man-days must be a non-negative number")
	}
	return f, nil
}

func buildProjectAllocations(inputs *[]ProjectAllocationInput) (*[]models.ProjectAllocation, error) {
	if inputs == nil {
		return nil, nil
	}
	out := make([]models.ProjectAllocation, 0, len(*inputs))
	for _, in := range *inputs {
		resourceID := strings.TrimSpace(in.ResourceID)
		if resourceID == "" {
			return nil, response.NewValidation("Resource is required for every allocation")
		}
		a := models.ProjectAllocation{ResourceID: resourceID, Notes: optionalText(in.Notes)}
		var err error
		if in.Percentage != nil {
			if a.Percentage, err = coercePercentage(in.Percentage); err != nil {
				return nil, err
			}
		}
		if a.Month, err = coerceMonth(in.Month); err != nil {
			return nil, err
		}
		if a.Year, err = coerceYear(in.Year); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return &out, nil
}

// replaceProjectChildren swaps the pod links and/or allocations of a project. It must run
// inside a transaction so a failed insert keeps the previous sets.
func replaceProjectChildren(tx *gorm.DB, projectID string, podIDs *[]string, allocations *[]models.ProjectAllocation) error {
	if podIDs != nil {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectPod{}).Error; err != nil {
			return err
		}
		ids := uniqueIDs(*podIDs)
		if err := requireAll(tx, &models.Pod{}, ids, "Pod"); err != nil {
			return err
		}
		links := make([]models.ProjectPod, 0, len(ids))
		for _, podID := range ids {
			links = append(links, models.ProjectPod{ProjectID: projectID, PodID: podID})
		}
		if len(links) > 0 {
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}
	}

	if allocations != nil {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectAllocation{}).Error; err != nil {
			return err
		}
		resourceIDs := make([]string, 0, len(*allocations))
		for i := range *allocations {
			(*allocations)[i].ProjectID = projectID
			resourceIDs = append(resourceIDs, (*allocations)[i].ResourceID)
		}
		if err := requireAll(tx, &models.Resource{}, uniqueIDs(resourceIDs), "Resource"); err != nil {
			return err
		}
		if len(*allocations) > 0 {
			if err := tx.Create(allocations).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// requireAll fails with NotFound unless every id exists in model's table.
func requireAll(tx *gorm.DB, model interface{}, ids []string, what string) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(model).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return response.NewNotFound(what + " not found")
	}
	return nil
}

func projectWriteError(op string, err error) error {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if isUniqueViolation(err) {
		return response.NewConflict("Allocations contain the same resource more than once for a month")
	}
	return fmt.Errorf("%s: %w", op, err)
}
