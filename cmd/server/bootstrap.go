package main

import (
	"strings"

	"github.com/podplan/backend/internal/config"
	"github.com/podplan/backend/internal/handlers"
	"github.com/podplan/backend/internal/middleware"
	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/internal/services"
	"github.com/podplan/backend/internal/utils"
	"github.com/podplan/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	holidays    *services.HolidayService
	allocations *services.AllocationService
	budget      *services.BudgetService
	scheduler   *services.Scheduler
	limiter     *middleware.RateLimiter
	authHandler *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()
	services.InitSystemLogger(db)

	holidays := services.NewHolidayService()
	country := strings.ToUpper(cfg.Budget.HolidayCountry)
	if !holidays.IsSupported(country) {
		logger.Warn().Str("country", country).Msg("Unsupported holiday calendar, counting weekdays only")
		country = services.WeekdaysOnly
	}
	// configuration wins at startup; the stored value follows it
	if err := services.NewSystemConfigService(db).Set(services.ConfigHolidayCountry, country); err != nil {
		logger.Warn().Err(err).Msg("Failed to store holiday calendar")
	}

	budget := services.NewBudgetService(db, holidays, country, cfg.Budget.AtRiskThreshold)
	scheduler := services.NewScheduler(budget, services.NewSystemLogService(db), cfg.Scheduler)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		holidays:    holidays,
		allocations: services.NewAllocationService(db),
		budget:      budget,
		scheduler:   scheduler,
		limiter:     middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		authHandler: authHandler,
	}
}

// shutdown gracefully stops all background work.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	s.limiter.Stop()
	logger.Info().Msg("All schedulers stopped")
}
