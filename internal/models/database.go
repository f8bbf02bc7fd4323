package models

import (
	"fmt"
	"strings"

	"github.com/podplan/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the configured database and stores it in DB.
func InitDB(cfg *config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open connects to the database described by cfg without touching the package global.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		// Deletes never cascade in the store; services remove dependents explicitly.
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite allows a single writer; one connection makes concurrent writes queue
		// instead of failing with SQLITE_BUSY, and keeps :memory: databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// AutoMigrate migrates the global DB.
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate creates or updates every table on db.
func Migrate(db *gorm.DB) error {
	joins := []struct {
		model     interface{}
		field     string
		joinTable interface{}
	}{
		{&Resource{}, "Pods", &ResourcePod{}},
		{&Resource{}, "Skills", &ResourceSkill{}},
		{&Pod{}, "Members", &ResourcePod{}},
		{&Project{}, "Pods", &ProjectPod{}},
	}
	for _, j := range joins {
		if err := db.SetupJoinTable(j.model, j.field, j.joinTable); err != nil {
			return fmt.Errorf("setup join table %s: %w", j.field, err)
		}
	}

	if err := db.AutoMigrate(
		&User{},
		&SystemConfig{},
		&SystemLog{},
		&Role{},
		&Skill{},
		&Pod{},
		&Resource{},
		&ResourcePod{},
		&ResourceSkill{},
		&Project{},
		&ProjectPod{},
		&ProjectAllocation{},
	); err != nil {
		return err
	}
	return backfillResourceKeys(db)
}

// backfillResourceKeys fills the comparison keys of rows written before the key columns existed.
func backfillResourceKeys(db *gorm.DB) error {
	var resources []Resource
	if err := db.Select("id", "name", "email").Where("name_key IS NULL OR name_key = ''").
		Find(&resources).Error; err != nil {
		return fmt.Errorf("load resources without keys: %w", err)
	}
	for i := range resources {
		r := &resources[i]
		r.SetKeys()
		if err := db.Model(&Resource{}).Where("id = ?", r.ID).
			Updates(map[string]interface{}{"name_key": r.NameKey, "email_key": r.EmailKey}).Error; err != nil {
			return fmt.Errorf("backfill resource %s: %w", r.ID, err)
		}
	}
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData seeds the global DB.
func SeedDefaultData() error {
	return Seed(DB)
}

var defaultRoles = []Role{
	{Name: "Developer", Description: strPtr("Software developer responsible for writing and maintaining code")},
	{Name: "Senior Developer", Description: strPtr("Experienced developer with advanced technical skills and mentorship responsibilities")},
	{Name: "Team Lead", Description: strPtr("Technical leader managing a development team")},
	{Name: "Tech Lead", Description: strPtr("Technical architect and principal engineer for a project or area")},
	{Name: "Engineering Manager", Description: strPtr("Manager responsible for team performance and people management")},
	{Name: "Architect", Description: strPtr("Senior technical leader defining system architecture and technical strategy")},
	{Name: "Principal Engineer", Description: strPtr("Distinguished technical expert providing technical leadership across the organization")},
}

var defaultSkills = []Skill{
	{Name: "JavaScript", Category: "Programming Language"},
	{Name: "TypeScript", Category: "Programming Language"},
	{Name: "Python", Category: "Programming Language"},
	{Name: "Java", Category: "Programming Language"},
	{Name: "Go", Category: "Programming Language"},
	{Name: "React", Category: "Framework"},
	{Name: "Node.js", Category: "Framework"},
	{Name: "Django", Category: "Framework"},
	{Name: "Spring Boot", Category: "Framework"},
	{Name: "PostgreSQL", Category: "Database"},
	{Name: "Docker", Category: "Tool"},
	{Name: "Kubernetes", Category: "Tool"},
	{Name: "AWS", Category: "Cloud Platform"},
}

// Seed creates default reference data if not exists. Existing rows are never modified.
func Seed(db *gorm.DB) error {
	var roleCount int64
	db.Model(&Role{}).Count(&roleCount)
	if roleCount == 0 {
		roles := make([]Role, len(defaultRoles))
		copy(roles, defaultRoles)
		if err := db.Create(&roles).Error; err != nil {
			return err
		}
	}

	var skillCount int64
	db.Model(&Skill{}).Count(&skillCount)
	if skillCount == 0 {
		skills := make([]Skill, len(defaultSkills))
		copy(skills, defaultSkills)
		if err := db.Create(&skills).Error; err != nil {
			return err
		}
	}

	defaultConfigs := []SystemConfig{
		{Key: "log_retention_days", Value: "30", Type: "int", Group: "system", Label: "System Log Retention Days"},
		{Key: "holiday_country", Value: "NONE", Type: "string", Group: "budget", Label: "Working Day Calendar"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		db.Model(&SystemConfig{}).Where("config_key = ?", cfg.Key).Count(&count)
		if count == 0 {
			if err := db.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func strPtr(s string) *string {
	return &s
}
