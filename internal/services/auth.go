package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/podplan/backend/internal/config"
	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/internal/utils"
	"github.com/podplan/backend/pkg/logger"
	"github.com/podplan/backend/pkg/response"
	"gorm.io/gorm"
)

const defaultExpireHours = 24

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	ExpireAt time.Time    `json:"expire_at"`
}

var errInvalidCredentials = response.NewUnauthorized("invalid username or password")

// Login authenticates a local user and returns a JWT token
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, errInvalidCredentials
	}

	hours := s.expireHours()
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, hours)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record last login")
	}
	user.LastLogin = &now

	return &LoginResponse{
		Token:    token,
		User:     &user,
		ExpireAt: now.Add(time.Duration(hours) * time.Hour),
	}, nil
}

func (s *AuthService) expireHours() int {
	if s.jwtConfig == nil || s.jwtConfig.ExpireHour <= 0 {
		return defaultExpireHours
	}
	return s.jwtConfig.ExpireHour
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User")
	}
	return &user, nil
}

// CreateAdminIfNotExists creates the configured admin user when no admin exists
func (s *AuthService) CreateAdminIfNotExists(admin config.AdminConfig) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username, password := admin.Username, admin.Password
	if username == "" {
		username = "admin"
	}
	if password == "" {
		return errors.New("admin password must not be empty")
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	user := models.User{
		Username: username,
		Password: hashedPassword,
		Nickname: "Administrator",
		Role:     "admin",
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return err
	}

	logger.Info().Str("username", username).Msg("default admin user created")
	return nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return notFoundOr(err, "User")
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewValidation("incorrect old password")
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.db.Model(&user).Update("password", hashedPassword).Error
}
