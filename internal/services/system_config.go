package services

import (
	"errors"
	"strings"

	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/pkg/response"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

const (
	ConfigHolidayCountry   = "holiday_country"
	ConfigLogRetentionDays = "log_retention_days"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where("config_key = ?", key).First(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where("config_key = ?", key).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return s.db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

func (s *SystemConfigService) GetByGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Where("config_group = ?", group).Order("config_key ASC").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

type BudgetSettings struct {
	HolidayCountry   string `json:"holidayCountry"`
	LogRetentionDays int    `json:"logRetentionDays"`
}

type UpdateBudgetSettingsRequest struct {
	HolidayCountry   *string     `json:"holidayCountry"`
	LogRetentionDays interface{} `json:"logRetentionDays"`
}

func (s *SystemConfigService) GetBudgetSettings() *BudgetSettings {
	return &BudgetSettings{
		HolidayCountry:   s.GetWithDefault(ConfigHolidayCountry, WeekdaysOnly),
		LogRetentionDays: cast.ToInt(s.GetWithDefault(ConfigLogRetentionDays, "30")),
	}
}

// UpdateBudgetSettings validates and stores the settings. The calendar code must be known
// to holidays.
func (s *SystemConfigService) UpdateBudgetSettings(req *UpdateBudgetSettingsRequest, holidays *HolidayService) (*BudgetSettings, error) {
	if req.HolidayCountry != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.HolidayCountry))
		if !holidays.IsSupported(code) {
			return nil, response.NewValidation("Unsupported holiday calendar: " + *req.HolidayCountry)
		}
		if err := s.Set(ConfigHolidayCountry, code); err != nil {
			return nil, err
		}
	}
	if req.LogRetentionDays != nil {
		days, ok := toWholeNumber(req.LogRetentionDays)
		if !ok || days < 0 {
			return nil, response.NewValidation("Log retention days must be a non-negative whole number")
		}
		if err := s.Set(ConfigLogRetentionDays, cast.ToString(days)); err != nil {
			return nil, err
		}
	}
	return s.GetBudgetSettings(), nil
}
