package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports service health.
type HealthHandler struct {
	db      *gorm.DB
	country func() string
}

// NewHealthHandler takes the active holiday calendar as a getter because it can change at runtime.
func NewHealthHandler(db *gorm.DB, country func() string) *HealthHandler {
	return &HealthHandler{db: db, country: country}
}

// CheckHealth returns the health status of all subsystems.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	components := gin.H{"database": dbStatus}
	if h.country != nil {
		components["holiday_country"] = h.country()
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"service":    "podplan",
		"components": components,
	})
}
