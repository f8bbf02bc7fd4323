package services

import (
	"testing"

	"github.com/podplan/backend/internal/config"
	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory database with every table migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func strp(s string) *string { return &s }

func mustResource(t *testing.T, db *gorm.DB, name, role string) *models.Resource {
	t.Helper()
	r, err := NewResourceService(db).Create(&ResourceRequest{Name: strp(name), Role: strp(role)})
	if err != nil {
		t.Fatalf("create resource %q: %v", name, err)
	}
	return r
}

func mustProject(t *testing.T, db *gorm.DB, name string, budget, consumed float64) *ProjectView {
	t.Helper()
	p, err := NewProjectService(db).Create(&ProjectRequest{
		Name:            strp(name),
		Status:          strp("active"),
		BudgetManDays:   budget,
		ConsumedManDays: consumed,
	})
	if err != nil {
		t.Fatalf("create project %q: %v", name, err)
	}
	return p
}

func mustAllocation(t *testing.T, db *gorm.DB, resourceID, projectID string, pct float64, month, year int) *models.ProjectAllocation {
	t.Helper()
	a, err := NewAllocationService(db).Create(&CreateAllocationRequest{
		ResourceID: resourceID,
		ProjectID:  projectID,
		Percentage: pct,
		Month:      month,
		Year:       year,
	})
	if err != nil {
		t.Fatalf("create allocation: %v", err)
	}
	return a
}

func assertKind(t *testing.T, err error, kind string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := response.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
