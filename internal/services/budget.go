package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/podplan/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget health
const (
	BudgetOnTrack    = "on-track"
	BudgetAtRisk     = "at-risk"
	BudgetOverBudget = "over-budget"
)

// DefaultAtRiskThreshold is the consumed percentage from which a project is at risk.
const DefaultAtRiskThreshold = 80.0

var budgetSeverity = map[string]int{BudgetOverBudget: 0, BudgetAtRisk: 1, BudgetOnTrack: 2}

type BudgetService struct {
	db       *gorm.DB
	holidays *HolidayService
	atRisk   float64

	mu      sync.RWMutex
	country string
}

// NewBudgetService counts working days with the calendar named by country (WeekdaysOnly when
// empty). A non-positive atRisk falls back to DefaultAtRiskThreshold.
func NewBudgetService(db *gorm.DB, holidays *HolidayService, country string, atRisk float64) *BudgetService {
	if holidays == nil {
		holidays = NewHolidayService()
	}
	if country == "" {
		country = WeekdaysOnly
	}
	if atRisk <= 0 {
		atRisk = DefaultAtRiskThreshold
	}
	return &BudgetService{db: db, holidays: holidays, country: strings.ToUpper(country), atRisk: atRisk}
}

// Country returns the working-day calendar in use.
func (s *BudgetService) Country() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.country
}

// SetCountry switches the working-day calendar for subsequent calculations.
func (s *BudgetService) SetCountry(country string) {
	if country == "" {
		country = WeekdaysOnly
	}
	s.mu.Lock()
	s.country = strings.ToUpper(country)
	s.mu.Unlock()
}

// BudgetReport is the budget health of one project. Figures are rounded to one decimal.
type BudgetReport struct {
	ProjectID        string     `json:"projectId"`
	ProjectName      string     `json:"projectName"`
	ProjectStatus    string     `json:"projectStatus"`
	Owner            string     `json:"owner"`
	BudgetManDays    float64    `json:"budgetManDays"`
	AllocatedManDays float64    `json:"allocatedManDays"`
	ConsumedManDays  float64    `json:"consumedManDays"`
	RemainingManDays float64    `json:"remainingManDays"`
	PercentageUsed   float64    `json:"percentageUsed"`
	Status           string     `json:"status"`
	StartDate        *time.Time `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	AllocationCount  int        `json:"allocationCount"`
}

type BudgetSummary struct {
	Total           int     `json:"total"`
	OnTrack         int     `json:"onTrack"`
	AtRisk          int     `json:"atRisk"`
	OverBudget      int     `json:"overBudget"`
	TotalBudget     float64 `json:"totalBudget"`
	TotalConsumed   float64 `json:"totalConsumed"`
	TotalAllocated  float64 `json:"totalAllocated"`
	TotalRemaining  float64 `json:"totalRemaining"`
	AtRiskThreshold float64 `json:"atRiskThreshold"`
}

// WorkingDaysInMonth counts the working days of month in year.
func (s *BudgetService) WorkingDaysInMonth(month, year int) (int, error) {
	if month < 1 || month > 12 {
		return 0, errMonthRange
	}
	if year < 1 || year > 9999 {
		return 0, errYearInvalid
	}
	return s.holidays.WorkingDays(month, year, s.Country()), nil
}

// ManDays converts a monthly percentage into man-days. The result is not rounded.
func (s *BudgetService) ManDays(percentage float64, month, year int) (float64, error) {
	days, err := s.WorkingDaysInMonth(month, year)
	if err != nil {
		return 0, err
	}
	return percentage / 100 * float64(days), nil
}

// Classify maps a consumed percentage onto a budget health status.
func (s *BudgetService) Classify(percentageUsed float64) string {
	switch {
	case percentageUsed > 100:
		return BudgetOverBudget
	case percentageUsed >= s.atRisk:
		return BudgetAtRisk
	default:
		return BudgetOnTrack
	}
}

// ProjectBudgetStatus computes the report of one project over all of its allocations.
// Allocations must be loaded on project.
func (s *BudgetService) ProjectBudgetStatus(project *models.Project) (*BudgetReport, error) {
	return s.projectBudgetStatus(project, make(map[[2]int]int))
}

func (s *BudgetService) projectBudgetStatus(project *models.Project, days map[[2]int]int) (*BudgetReport, error) {
	allocated := 0.0
	for _, a := range project.Allocations {
		key := [2]int{a.Year, a.Month}
		d, ok := days[key]
		if !ok {
			var err error
			if d, err = s.WorkingDaysInMonth(a.Month, a.Year); err != nil {
				return nil, fmt.Errorf("allocation %s: %w", a.ID, err)
			}
			days[key] = d
		}
		allocated += a.Percentage / 100 * float64(d)
	}

	remaining := project.BudgetManDays - project.ConsumedManDays
	used := 0.0
	if project.BudgetManDays > 0 {
		used = project.ConsumedManDays / project.BudgetManDays * 100
	}

	return &BudgetReport{
		ProjectID:        project.ID,
		ProjectName:      project.Name,
		ProjectStatus:    project.Status,
		Owner:            project.Owner,
		BudgetManDays:    round1(project.BudgetManDays),
		AllocatedManDays: round1(allocated),
		ConsumedManDays:  round1(project.ConsumedManDays),
		RemainingManDays: round1(remaining),
		PercentageUsed:   round1(used),
		Status:           s.Classify(used),
		StartDate:        project.StartDate,
		EndDate:          project.EndDate,
		AllocationCount:  len(project.Allocations),
	}, nil
}

// Report returns every project's budget report, over-budget first, then at-risk, then on-track.
// Order within a group follows project creation.
func (s *BudgetService) Report() ([]BudgetReport, error) {
	var projects []models.Project
	if err := s.db.Preload("Allocations").Order("created_at ASC, id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}

	days := make(map[[2]int]int)
	reports := make([]BudgetReport, 0, len(projects))
	for i := range projects {
		r, err := s.projectBudgetStatus(&projects[i], days)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}

	SortBudgetReports(reports)
	return reports, nil
}

// SortBudgetReports orders reports by severity, keeping the existing order within a status.
func SortBudgetReports(reports []BudgetReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		return budgetSeverity[reports[i].Status] < budgetSeverity[reports[j].Status]
	})
}

// Summary totals a set of reports.
func (s *BudgetService) Summary(reports []BudgetReport) BudgetSummary {
	sum := BudgetSummary{Total: len(reports), AtRiskThreshold: s.atRisk}
	budget, consumed, allocated := decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range reports {
		switch r.Status {
		case BudgetOnTrack:
			sum.OnTrack++
		case BudgetAtRisk:
			sum.AtRisk++
		case BudgetOverBudget:
			sum.OverBudget++
		}
		budget = budget.Add(decimal.NewFromFloat(r.BudgetManDays))
		consumed = consumed.Add(decimal.NewFromFloat(r.ConsumedManDays))
		allocated = allocated.Add(decimal.NewFromFloat(r.AllocatedManDays))
	}
	sum.TotalBudget = budget.Round(1).InexactFloat64()
	sum.TotalConsumed = consumed.Round(1).InexactFloat64()
	sum.TotalAllocated = allocated.Round(1).InexactFloat64()
	sum.TotalRemaining = budget.Sub(consumed).Round(1).InexactFloat64()
	return sum
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
