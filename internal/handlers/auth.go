package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/config"
	"github.com/podplan/backend/internal/middleware"
	"github.com/podplan/backend/internal/services"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
	admin       config.AdminConfig
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, &cfg.JWT),
		admin:       cfg.Admin,
	}
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		services.LogWarning("Auth", "Login", "failed login for "+req.Username, nil, c.ClientIP(), c.Request.UserAgent(), nil)
		response.Error(c, err)
		return
	}

	uid := resp.User.ID
	services.LogInfo("Auth", "Login", resp.User.Username+" logged in", &uid, c.ClientIP(), c.Request.UserAgent(), nil)
	response.Success(c, resp)
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// ChangePassword changes the password of the current user
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ChangePassword(middleware.GetUserID(c), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "password changed successfully"})
}

// Logout is client-side token removal
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success(c, gin.H{"message": "logged out successfully"})
}

// CreateAdminIfNotExists creates the configured admin user
func (h *AuthHandler) CreateAdminIfNotExists() error {
	return h.authService.CreateAdminIfNotExists(h.admin)
}
