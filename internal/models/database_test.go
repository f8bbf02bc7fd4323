package models

import (
	"testing"

	"github.com/podplan/backend/internal/config"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestSeed_IsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := Seed(db); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if err := Seed(db); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}

	var roles, skills, configs int64
	db.Model(&Role{}).Count(&roles)
	db.Model(&Skill{}).Count(&skills)
	db.Model(&SystemConfig{}).Count(&configs)

	if roles != int64(len(defaultRoles)) {
		t.Errorf("roles = %d, expected %d", roles, len(defaultRoles))
	}
	if skills != int64(len(defaultSkills)) {
		t.Errorf("skills = %d, expected %d", skills, len(defaultSkills))
	}
	if configs != 2 {
		t.Errorf("configs = %d, expected 2", configs)
	}
}

func TestBeforeCreate_AssignsUUID(t *testing.T) {
	db := openTestDB(t)

	pod := Pod{Name: "Platform"}
	if err := db.Create(&pod).Error; err != nil {
		t.Fatalf("create pod: %v", err)
	}
	if len(pod.ID) != 36 {
		t.Errorf("expected a UUID id, got %q", pod.ID)
	}
	if pod.Status != "active" {
		t.Errorf("default status = %q, expected active", pod.Status)
	}
}

func TestProjectAllocation_CellIsUnique(t *testing.T) {
	db := openTestDB(t)

	first := ProjectAllocation{ResourceID: "r1", ProjectID: "p1", Year: 2026, Month: 3, Percentage: 50}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("create allocation: %v", err)
	}

	dup := ProjectAllocation{ResourceID: "r1", ProjectID: "p1", Year: 2026, Month: 3, Percentage: 10}
	if err := db.Create(&dup).Error; err == nil {
		t.Error("expected unique index violation for the same cell")
	}

	otherYear := ProjectAllocation{ResourceID: "r1", ProjectID: "p1", Year: 2027, Month: 3}
	if err := db.Create(&otherYear).Error; err != nil {
		t.Errorf("different year should be allowed: %v", err)
	}
}

func TestIsValidStatus(t *testing.T) {
	if !IsValidProjectStatus("on-hold") {
		t.Error("on-hold should be a valid project status")
	}
	if IsValidProjectStatus("archived") {
		t.Error("archived should not be a valid project status")
	}
	if !IsValidResourceStatus("on-leave") {
		t.Error("on-leave should be a valid resource status")
	}
	if IsValidResourceStatus("retired") {
		t.Error("retired should not be a valid resource status")
	}
}

func TestGormLogLevel(t *testing.T) {
	tests := map[string]int{"silent": 1, "error": 2, "warn": 3, "": 3, "info": 4}
	for in, want := range tests {
		if got := int(gormLogLevel(in)); got != want {
			t.Errorf("gormLogLevel(%q) = %d, expected %d", in, got, want)
		}
	}
}

func TestFoldKey(t *testing.T) {
	tests := map[string]string{
		"Alice":           "alice",
		"  ÉLODIE ":       "élodie",
		"JOSÉ@Example.io": "josé@example.io",
		"Straße":          "strasse",
	}
	for in, want := range tests {
		if got := FoldKey(in); got != want {
			t.Errorf("FoldKey(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestMigrate_BackfillsResourceKeys(t *testing.T) {
	db := openTestDB(t)

	email := "JOSÉ@Example.io"
	r := Resource{Name: "José", Email: &email, Status: ResourceStatusActive}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("create resource: %v", err)
	}
	db.Model(&Resource{}).Where("id = ?", r.ID).Updates(map[string]interface{}{"name_key": "", "email_key": nil})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var got Resource
	db.Where("id = ?", r.ID).First(&got)
	if got.NameKey != "josé" || got.EmailKey == nil || *got.EmailKey != "josé@example.io" {
		t.Errorf("keys = %q, %v", got.NameKey, got.EmailKey)
	}
}
