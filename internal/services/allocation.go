package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/pkg/logger"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

// Grid views
const (
	GridViewByProject  = "by-project"
	GridViewByResource = "by-resource"
)

type AllocationService struct {
	db *gorm.DB
}

func NewAllocationService(db *gorm.DB) *AllocationService {
	return &AllocationService{db: db}
}

// WithContext returns a copy of the service whose queries run under ctx.
func (s *AllocationService) WithContext(ctx context.Context) *AllocationService {
	return &AllocationService{db: s.db.WithContext(ctx)}
}

// CreateAllocationRequest accepts numbers or numeric strings for the numeric fields.
type CreateAllocationRequest struct {
	ResourceID string      `json:"resourceId"`
	ProjectID  string      `json:"projectId"`
	Percentage interface{} `json:"percentage"`
	Month      interface{} `json:"month"`
	Year       interface{} `json:"year"`
	Notes      *string     `json:"notes"`
}

// UpdateAllocationRequest is a partial update; nil fields are left unchanged.
type UpdateAllocationRequest struct {
	Percentage interface{} `json:"percentage"`
	Notes      *string     `json:"notes"`
}

// AllocationPairRequest addresses every month of one resource/project pair in one year.
type AllocationPairRequest struct {
	ResourceID string      `json:"resourceId"`
	ProjectID  string      `json:"projectId"`
	Year       interface{} `json:"year"`
}

// AllocationView is an allocation with the resource and project fields the dashboard displays.
type AllocationView struct {
	models.ProjectAllocation
	ResourceName      string `json:"resourceName"`
	ResourceRole      string `json:"resourceRole"`
	ResourceSeniority string `json:"resourceSeniority"`
	ProjectName       string `json:"projectName"`
}

func newAllocationView(a models.ProjectAllocation) AllocationView {
	v := AllocationView{ProjectAllocation: a}
	if a.Resource != nil {
		v.ResourceName = a.Resource.Name
		v.ResourceRole = a.Resource.Role
		v.ResourceSeniority = a.Resource.Seniority
	}
	if a.Project != nil {
		v.ProjectName = a.Project.Name
	}
	return v
}

// List returns all allocations, optionally for one year, ordered by year then month.
func (s *AllocationService) List(year *int) ([]AllocationView, error) {
	query := s.db.Preload("Resource").Preload("Project")
	if year != nil {
		query = query.Where("year = ?", *year)
	}

	var allocations []models.ProjectAllocation
	if err := query.Order("year ASC, month ASC").Find(&allocations).Error; err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}

	views := make([]AllocationView, 0, len(allocations))
	for _, a := range allocations {
		views = append(views, newAllocationView(a))
	}
	return views, nil
}

// Get returns one enriched allocation.
func (s *AllocationService) Get(id string) (*AllocationView, error) {
	var allocation models.ProjectAllocation
	if err := s.db.Preload("Resource").Preload("Project").Where("id = ?", id).First(&allocation).Error; err != nil {
		return nil, notFoundOr(err, "Allocation")
	}
	v := newAllocationView(allocation)
	return &v, nil
}

// Create validates and stores one allocation cell.
func (s *AllocationService) Create(req *CreateAllocationRequest) (*models.ProjectAllocation, error) {
	resourceID := strings.TrimSpace(req.ResourceID)
	projectID := strings.TrimSpace(req.ProjectID)
	if resourceID == "" || projectID == "" {
		return nil, response.NewValidation("Resource and project are required")
	}

	percentage := 0.0
	if req.Percentage != nil {
		p, err := coercePercentage(req.Percentage)
		if err != nil {
			return nil, err
		}
		percentage = p
	}
	month, err := coerceMonth(req.Month)
	if err != nil {
		return nil, err
	}
	year, err := coerceYear(req.Year)
	if err != nil {
		return nil, err
	}

	if err := s.ensurePair(resourceID, projectID); err != nil {
		return nil, err
	}

	allocation := models.ProjectAllocation{
		ResourceID: resourceID,
		ProjectID:  projectID,
		Percentage: percentage,
		Month:      month,
		Year:       year,
		Notes:      optionalText(req.Notes),
	}
	if err := s.db.Create(&allocation).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, response.NewConflict(fmt.Sprintf("An allocation for this resource and project already exists for %d/%d", month, year))
		}
		return nil, fmt.Errorf("create allocation: %w", err)
	}

	logger.Debug().Str("allocation_id", allocation.ID).Str("project_id", projectID).
		Int("year", year).Int("month", month).Float64("percentage", percentage).Msg("allocation created")
	return &allocation, nil
}

// Update changes percentage and/or notes of an allocation.
func (s *AllocationService) Update(id string, req *UpdateAllocationRequest) (*models.ProjectAllocation, error) {
	var allocation models.ProjectAllocation
	if err := s.db.Where("id = ?", id).First(&allocation).Error; err != nil {
		return nil, notFoundOr(err, "Allocation")
	}

	updates := make(map[string]interface{})
	if req.Percentage != nil {
		p, err := coercePercentage(req.Percentage)
		if err != nil {
			return nil, err
		}
		updates["percentage"] = p
	}
	if req.Notes != nil {
		updates["notes"] = optionalText(req.Notes)
	}
	if len(updates) == 0 {
		return &allocation, nil
	}

	if err := s.db.Model(&allocation).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update allocation: %w", err)
	}
	var fresh models.ProjectAllocation
	if err := s.db.Where("id = ?", id).First(&fresh).Error; err != nil {
		return nil, notFoundOr(err, "Allocation")
	}
	return &fresh, nil
}

// Delete removes one allocation. Allocations have no dependents.
func (s *AllocationService) Delete(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.ProjectAllocation{})
	if result.Error != nil {
		return fmt.Errorf("delete allocation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("Allocation not found")
	}
	return nil
}

// ExpandToFullYear creates 0% rows for every month of year that the pair does not have yet and
// returns the rows it created. Calling it again creates nothing.
func (s *AllocationService) ExpandToFullYear(req *AllocationPairRequest) ([]models.ProjectAllocation, error) {
	year, err := coerceYear(req.Year)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePair(req.ResourceID, req.ProjectID); err != nil {
		return nil, err
	}

	var existing []int
	if err := s.db.Model(&models.ProjectAllocation{}).
		Where("resource_id = ? AND project_id = ? AND year = ?", req.ResourceID, req.ProjectID, year).
		Pluck("month", &existing).Error; err != nil {
		return nil, fmt.Errorf("load existing months: %w", err)
	}
	have := make(map[int]bool, len(existing))
	for _, m := range existing {
		have[m] = true
	}

	created := make([]models.ProjectAllocation, 0, 12)
	for month := 1; month <= 12; month++ {
		if have[month] {
			continue
		}
		created = append(created, models.ProjectAllocation{
			ResourceID: req.ResourceID,
			ProjectID:  req.ProjectID,
			Month:      month,
			Year:       year,
		})
	}
	if len(created) == 0 {
		return created, nil
	}

	if err := s.db.Create(&created).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, response.NewConflict("Allocations for this year were created concurrently, reload and retry")
		}
		return nil, fmt.Errorf("expand allocations: %w", err)
	}

	logger.Info().Str("resource_id", req.ResourceID).Str("project_id", req.ProjectID).
		Int("year", year).Int("count", len(created)).Msg("allocations expanded to full year")
	return created, nil
}

// RemoveFromProject deletes the pair's allocations in one year and leaves other years alone.
func (s *AllocationService) RemoveFromProject(req *AllocationPairRequest) (int64, error) {
	if strings.TrimSpace(req.ResourceID) == "" || strings.TrimSpace(req.ProjectID) == "" {
		return 0, response.NewValidation("Resource and project are required")
	}
	year, err := coerceYear(req.Year)
	if err != nil {
		return 0, err
	}

	result := s.db.Where("resource_id = ? AND project_id = ? AND year = ?", req.ResourceID, req.ProjectID, year).
		Delete(&models.ProjectAllocation{})
	if result.Error != nil {
		return 0, fmt.Errorf("remove allocations: %w", result.Error)
	}

	logger.Info().Str("resource_id", req.ResourceID).Str("project_id", req.ProjectID).
		Int("year", year).Int64("count", result.RowsAffected).Msg("resource removed from project")
	return result.RowsAffected, nil
}

func (s *AllocationService) ensurePair(resourceID, projectID string) error {
	if strings.TrimSpace(resourceID) == "" || strings.TrimSpace(projectID) == "" {
		return response.NewValidation("Resource and project are required")
	}
	var count int64
	if err := s.db.Model(&models.Resource{}).Where("id = ?", resourceID).Count(&count).Error; err != nil {
		return fmt.Errorf("check resource: %w", err)
	}
	if count == 0 {
		return response.NewNotFound("Resource not found")
	}
	if err := s.db.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	if count == 0 {
		return response.NewNotFound("Project not found")
	}
	return nil
}

// MonthTotal is a summed percentage for one month.
type MonthTotal struct {
	Month         int     `json:"month"`
	Total         float64 `json:"total"`
	OverAllocated bool    `json:"overAllocated"`
}

// ResourceTotals holds a resource's summed allocation across projects for each month.
type ResourceTotals struct {
	ResourceID    string       `json:"resourceId"`
	ResourceName  string       `json:"resourceName"`
	Months        []MonthTotal `json:"months"`
	OverAllocated bool         `json:"overAllocated"`
}

type monthSum struct {
	GroupID string
	Month   int
	Total   float64
}

func emptyMonths() []MonthTotal {
	months := make([]MonthTotal, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	return months
}

// MonthlyTotals sums every resource's allocations per month of year. A month above 100% is
// over-allocated.
func (s *AllocationService) MonthlyTotals(year int) ([]ResourceTotals, error) {
	var sums []monthSum
	if err := s.db.Model(&models.ProjectAllocation{}).
		Select("resource_id AS group_id, month, SUM(percentage) AS total").
		Where("year = ?", year).
		Group("resource_id, month").
		Scan(&sums).Error; err != nil {
		return nil, fmt.Errorf("sum allocations: %w", err)
	}
	if len(sums) == 0 {
		return []ResourceTotals{}, nil
	}

	byResource := make(map[string]*ResourceTotals)
	ids := make([]string, 0)
	for _, sum := range sums {
		rt, ok := byResource[sum.GroupID]
		if !ok {
			rt = &ResourceTotals{ResourceID: sum.GroupID, Months: emptyMonths()}
			byResource[sum.GroupID] = rt
			ids = append(ids, sum.GroupID)
		}
		if sum.Month < 1 || sum.Month > 12 {
			continue
		}
		mt := &rt.Months[sum.Month-1]
		mt.Total = sum.Total
		mt.OverAllocated = sum.Total > 100
		if mt.OverAllocated {
			rt.OverAllocated = true
		}
	}

	var resources []models.Resource
	if err := s.db.Select("id", "name").Where("id IN ?", ids).Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}
	for _, r := range resources {
		byResource[r.ID].ResourceName = r.Name
	}

	totals := make([]ResourceTotals, 0, len(byResource))
	for _, id := range ids {
		totals = append(totals, *byResource[id])
	}
	sort.SliceStable(totals, func(i, j int) bool { return totals[i].ResourceName < totals[j].ResourceName })
	return totals, nil
}

// ProjectMonthlyTotals sums one project's allocations per month of year.
func (s *AllocationService) ProjectMonthlyTotals(projectID string, year int) ([]MonthTotal, error) {
	var sums []monthSum
	if err := s.db.Model(&models.ProjectAllocation{}).
		Select("project_id AS group_id, month, SUM(percentage) AS total").
		Where("project_id = ? AND year = ?", projectID, year).
		Group("project_id, month").
		Scan(&sums).Error; err != nil {
		return nil, fmt.Errorf("sum project allocations: %w", err)
	}

	months := emptyMonths()
	for _, sum := range sums {
		if sum.Month >= 1 && sum.Month <= 12 {
			months[sum.Month-1].Total = sum.Total
		}
	}
	return months, nil
}

// GridCell is one month of a grid row. ID is empty for a month with no stored allocation.
type GridCell struct {
	ID         string  `json:"id"`
	Month      int     `json:"month"`
	Percentage float64 `json:"percentage"`
	Notes      *string `json:"notes,omitempty"`
}

// GridRow is one resource/project pair expanded to twelve months.
type GridRow struct {
	ItemID     string     `json:"itemId"`
	ItemName   string     `json:"itemName"`
	ResourceID string     `json:"resourceId"`
	ProjectID  string     `json:"projectId"`
	Cells      []GridCell `json:"cells"`
}

// GridGroup is a parent (project or resource, depending on the view) with its rows.
type GridGroup struct {
	ParentID   string    `json:"parentId"`
	ParentName string    `json:"parentName"`
	Rows       []GridRow `json:"rows"`
}

type GridView struct {
	Year   int         `json:"year"`
	View   string      `json:"view"`
	Groups []GridGroup `json:"groups"`
}

type allocationPair struct {
	ResourceID string
	ProjectID  string
}

// Grid expands every resource/project pair ever allocated to twelve cells of year. Months with
// no stored row are placeholders at 0% with an empty id.
func (s *AllocationService) Grid(year int, view string) (*GridView, error) {
	if view == "" {
		view = GridViewByProject
	}
	if view != GridViewByProject && view != GridViewByResource {
		return nil, response.NewValidation("View must be by-project or by-resource")
	}

	var pairs []allocationPair
	if err := s.db.Model(&models.ProjectAllocation{}).
		Distinct("resource_id", "project_id").
		Scan(&pairs).Error; err != nil {
		return nil, fmt.Errorf("load allocation pairs: %w", err)
	}

	var allocations []models.ProjectAllocation
	if err := s.db.Where("year = ?", year).Find(&allocations).Error; err != nil {
		return nil, fmt.Errorf("load allocations: %w", err)
	}
	cells := make(map[allocationPair][]models.ProjectAllocation)
	for _, a := range allocations {
		p := allocationPair{a.ResourceID, a.ProjectID}
		cells[p] = append(cells[p], a)
	}

	var resources []models.Resource
	if err := s.db.Select("id", "name").Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}
	var projects []models.Project
	if err := s.db.Select("id", "name").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	resourceNames := make(map[string]string, len(resources))
	for _, r := range resources {
		resourceNames[r.ID] = r.Name
	}
	projectNames := make(map[string]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
	}

	groups := make(map[string]*GridGroup)
	for _, pair := range pairs {
		row := GridRow{ResourceID: pair.ResourceID, ProjectID: pair.ProjectID, Cells: make([]GridCell, 12)}
		for i := range row.Cells {
			row.Cells[i].Month = i + 1
		}
		for _, a := range cells[pair] {
			if a.Month >= 1 && a.Month <= 12 {
				row.Cells[a.Month-1] = GridCell{ID: a.ID, Month: a.Month, Percentage: a.Percentage, Notes: a.Notes}
			}
		}

		parentID, parentName := pair.ProjectID, projectNames[pair.ProjectID]
		row.ItemID, row.ItemName = pair.ResourceID, resourceNames[pair.ResourceID]
		if view == GridViewByResource {
			parentID, parentName = pair.ResourceID, resourceNames[pair.ResourceID]
			row.ItemID, row.ItemName = pair.ProjectID, projectNames[pair.ProjectID]
		}

		g, ok := groups[parentID]
		if !ok {
			g = &GridGroup{ParentID: parentID, ParentName: parentName}
			groups[parentID] = g
		}
		g.Rows = append(g.Rows, row)
	}

	result := &GridView{Year: year, View: view, Groups: make([]GridGroup, 0, len(groups))}
	for _, g := range groups {
		sort.Slice(g.Rows, func(i, j int) bool {
			if g.Rows[i].ItemName != g.Rows[j].ItemName {
				return g.Rows[i].ItemName < g.Rows[j].ItemName
			}
			return g.Rows[i].ItemID < g.Rows[j].ItemID
		})
		result.Groups = append(result.Groups, *g)
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		if result.Groups[i].ParentName != result.Groups[j].ParentName {
			return result.Groups[i].ParentName < result.Groups[j].ParentName
		}
		return result.Groups[i].ParentID < result.Groups[j].ParentID
	})
	return result, nil
}
