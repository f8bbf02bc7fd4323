package main

import (
	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/handlers"
	"github.com/podplan/backend/internal/middleware"
	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	db := models.GetDB()

	healthHandler := handlers.NewHealthHandler(db, svc.budget.Country)
	r.GET("/health", healthHandler.CheckHealth)

	allocationHandler := handlers.NewAllocationHandler(svc.allocations)
	budgetHandler := handlers.NewBudgetHandler(svc.budget)
	projectHandler := handlers.NewProjectHandler(db)
	resourceHandler := handlers.NewResourceHandler(db)
	podHandler := handlers.NewPodHandler(db)
	roleHandler := handlers.NewRoleHandler(db)
	skillHandler := handlers.NewSkillHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db)
	systemLogHandler := handlers.NewSystemLogHandler(db)
	systemConfigHandler := handlers.NewSystemConfigHandler(db, svc.budget, svc.holidays)

	api := r.Group("/api", svc.limiter.Middleware())
	{
		// Auth routes (public)
		api.POST("/auth/login", svc.authHandler.Login)

		// Read routes (all users)
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			protected.GET("/dashboard/stats", dashboardHandler.GetStats)

			protected.GET("/allocations", allocationHandler.List)
			protected.GET("/allocations/grid", allocationHandler.Grid)
			protected.GET("/allocations/totals", allocationHandler.Totals)
			protected.GET("/allocations/:id", allocationHandler.GetByID)

			protected.GET("/budget", budgetHandler.Report)
			protected.GET("/budget/summary", budgetHandler.Summary)
			protected.GET("/budget/working-days", budgetHandler.WorkingDays)

			protected.GET("/projects", projectHandler.List)
			protected.GET("/projects/:id", projectHandler.GetByID)

			protected.GET("/resources", resourceHandler.List)
			protected.GET("/resources/search", resourceHandler.Search)
			protected.GET("/resources/:id", resourceHandler.GetByID)

			protected.GET("/pods", podHandler.List)
			protected.GET("/pods/:id", podHandler.GetByID)

			protected.GET("/roles", roleHandler.List)
			protected.GET("/skills", skillHandler.List)

			protected.GET("/system-config/holiday-countries", systemConfigHandler.GetHolidayCountries)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			admin.POST("/allocations", allocationHandler.Create)
			admin.PATCH("/allocations/:id", allocationHandler.Update)
			admin.DELETE("/allocations/:id", allocationHandler.Delete)
			admin.POST("/allocations/expand", allocationHandler.Expand)
			admin.POST("/allocations/remove", allocationHandler.Remove)
			admin.POST("/allocations/grid/commit", allocationHandler.GridCommit)

			admin.POST("/projects", projectHandler.Create)
			admin.PATCH("/projects/:id", projectHandler.Update)
			admin.DELETE("/projects/:id", projectHandler.Delete)

			admin.POST("/resources", resourceHandler.Create)
			admin.PATCH("/resources/:id", resourceHandler.Update)
			admin.DELETE("/resources/:id", resourceHandler.Delete)

			admin.POST("/pods", podHandler.Create)
			admin.PATCH("/pods/:id", podHandler.Update)
			admin.DELETE("/pods/:id", podHandler.Delete)

			admin.POST("/roles", roleHandler.Create)
			admin.PATCH("/roles/:id", roleHandler.Update)
			admin.DELETE("/roles/:id", roleHandler.Delete)

			admin.POST("/skills", skillHandler.Create)
			admin.PATCH("/skills/:id", skillHandler.Update)
			admin.DELETE("/skills/:id", skillHandler.Delete)

			admin.GET("/system-logs", systemLogHandler.List)
			admin.GET("/system-logs/modules", systemLogHandler.GetModules)
			admin.POST("/system-logs/cleanup", systemLogHandler.Cleanup)

			admin.GET("/system-config/budget", systemConfigHandler.GetBudgetSettings)
			admin.PUT("/system-config/budget", systemConfigHandler.UpdateBudgetSettings)
		}
	}
}
