package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/config"
	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/internal/services"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

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

func newTestRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	holidays := services.NewHolidayService()
	budget := services.NewBudgetService(db, holidays, services.WeekdaysOnly, 0)

	allocations := NewAllocationHandler(services.NewAllocationService(db))
	r.POST("/api/allocations", allocations.Create)
	r.POST("/api/allocations/grid/commit", allocations.GridCommit)
	r.GET("/api/allocations/totals", allocations.Totals)

	roles := NewRoleHandler(db)
	r.POST("/api/roles", roles.Create)
	r.DELETE("/api/roles/:id", roles.Delete)

	projects := NewProjectHandler(db)
	r.GET("/api/projects/:id", projects.GetByID)

	budgets := NewBudgetHandler(budget)
	r.GET("/api/budget/working-days", budgets.WorkingDays)

	health := NewHealthHandler(db, budget.Country)
	r.GET("/health", health.CheckHealth)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s response %q: %v", method, path, w.Body.String(), err)
	}
	return w, env
}

func seedPair(t *testing.T, db *gorm.DB) (resourceID, projectID string) {
	t.Helper()
	name, role := "Alice", "Developer"
	r, err := services.NewResourceService(db).Create(&services.ResourceRequest{Name: &name, Role: &role})
	if err != nil {
		t.Fatalf("create resource: %v", err)
	}
	projectName, status := "Redesign", "active"
	p, err := services.NewProjectService(db).Create(&services.ProjectRequest{Name: &projectName, Status: &status, BudgetManDays: 20})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return r.ID, p.ID
}

func TestAllocationHandler_CreateAndConflict(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	resourceID, projectID := seedPair(t, db)

	body := gin.H{"resourceId": resourceID, "projectId": projectID, "percentage": "50", "month": 3, "year": 2026}
	w, env := do(t, r, http.MethodPost, "/api/allocations", body)
	if w.Code != http.StatusCreated || env.Code != 0 {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}

	w, env = do(t, r, http.MethodPost, "/api/allocations", body)
	if w.Code != http.StatusConflict || env.Kind != "conflict" {
		t.Errorf("duplicate status = %d kind = %q", w.Code, env.Kind)
	}

	body["month"] = 13
	w, env = do(t, r, http.MethodPost, "/api/allocations", body)
	if w.Code != http.StatusBadRequest || env.Kind != "validation" {
		t.Errorf("bad month status = %d kind = %q", w.Code, env.Kind)
	}

	body["month"], body["projectId"] = 4, "missing"
	w, env = do(t, r, http.MethodPost, "/api/allocations", body)
	if w.Code != http.StatusNotFound || env.Kind != "not_found" {
		t.Errorf("missing project status = %d kind = %q", w.Code, env.Kind)
	}
}

func TestAllocationHandler_GridCommit(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	resourceID, projectID := seedPair(t, db)

	cells := []gin.H{
		{"resourceId": resourceID, "projectId": projectID, "year": 2026, "month": 1, "text": "25"},
		{"resourceId": resourceID, "projectId": projectID, "year": 2026, "month": 2, "text": "0"},
		{"resourceId": resourceID, "projectId": projectID, "year": 2026, "month": 3, "text": "140"},
	}
	w, env := do(t, r, http.MethodPost, "/api/allocations/grid/commit", gin.H{"cells": cells})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var data struct {
		Written int `json:"written"`
		Failed  int `json:"failed"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Written != 1 || data.Failed != 1 {
		t.Errorf("written=%d failed=%d, want 1/1", data.Written, data.Failed)
	}

	w, _ = do(t, r, http.MethodPost, "/api/allocations/grid/commit", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing cells status = %d", w.Code)
	}
}

func TestAllocationHandler_Totals(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)

	w, _ := do(t, r, http.MethodGet, "/api/allocations/totals?year=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad year status = %d", w.Code)
	}
	w, _ = do(t, r, http.MethodGet, "/api/allocations/totals?year=2026", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestRoleHandler_DeleteBlockedByResources(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)

	w, env := do(t, r, http.MethodPost, "/api/roles", gin.H{"name": "Developer"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create role status = %d, body %s", w.Code, w.Body.String())
	}
	var role models.Role
	json.Unmarshal(env.Data, &role)
	seedPair(t, db)

	w, env = do(t, r, http.MethodPost, "/api/roles", gin.H{"name": "Developer"})
	if w.Code != http.StatusBadRequest || env.Kind != "duplicate" {
		t.Errorf("duplicate role status = %d kind = %q", w.Code, env.Kind)
	}

	w, env = do(t, r, http.MethodDelete, "/api/roles/"+role.ID, nil)
	if w.Code != http.StatusBadRequest || env.Kind != "dependency" {
		t.Fatalf("delete status = %d kind = %q", w.Code, env.Kind)
	}
	var data struct {
		Count int64 `json:"count"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Count != 1 {
		t.Errorf("count = %d, want 1", data.Count)
	}

	w, env = do(t, r, http.MethodDelete, "/api/roles/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing role status = %d kind = %q", w.Code, env.Kind)
	}
}

func TestBudgetHandler_WorkingDays(t *testing.T) {
	r := newTestRouter(newTestDB(t))

	tests := []struct {
		query      string
		wantStatus int
		wantDays   int
	}{
		{"month=2&year=2026", http.StatusOK, 20},
		{"month=12&year=2026", http.StatusOK, 23},
		{"month=13&year=2026", http.StatusBadRequest, 0},
		{"month=x&year=2026", http.StatusBadRequest, 0},
		{"month=2", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w, env := do(t, r, http.MethodGet, "/api/budget/working-days?"+tt.query, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var data struct {
				WorkingDays int    `json:"workingDays"`
				Country     string `json:"country"`
			}
			json.Unmarshal(env.Data, &data)
			if data.WorkingDays != tt.wantDays || data.Country != services.WeekdaysOnly {
				t.Errorf("data = %+v", data)
			}
		})
	}
}

func TestProjectHandler_GetByIDNotFound(t *testing.T) {
	r := newTestRouter(newTestDB(t))
	w, env := do(t, r, http.MethodGet, "/api/projects/missing", nil)
	if w.Code != http.StatusNotFound || env.Kind != "not_found" {
		t.Errorf("status = %d kind = %q", w.Code, env.Kind)
	}
}

func TestHealthHandler(t *testing.T) {
	r := newTestRouter(newTestDB(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"podplan"`)) {
		t.Errorf("body %s does not name the service", w.Body.String())
	}
}
