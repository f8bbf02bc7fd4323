package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Budget    BudgetConfig    `yaml:"budget"`
	Admin     AdminConfig     `yaml:"admin"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	Mode         string `yaml:"mode"`          // debug, release, test
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite, mysql, postgres
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"` // silent, error, warn, info
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// BudgetConfig controls man-day calculations.
type BudgetConfig struct {
	// HolidayCountry selects the working-day calendar. NONE counts Monday to Friday only.
	HolidayCountry  string  `yaml:"holiday_country"`
	AtRiskThreshold float64 `yaml:"at_risk_threshold"`
}

// AdminConfig is the dashboard account created on first start.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type SchedulerConfig struct {
	BudgetDigestCron string `yaml:"budget_digest_cron"`
	LogCleanupCron   string `yaml:"log_cleanup_cron"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			Mode:         "debug",
			ReadTimeout:  15,
			WriteTimeout: 15,
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			DSN:      "podplan.db",
			LogLevel: "warn",
		},
		JWT: JWTConfig{
			Secret:     "podplan-secret-key-change-in-production",
			ExpireHour: 24,
		},
		Log: LogConfig{
			Level: "info",
		},
		Budget: BudgetConfig{
			HolidayCountry:  "NONE",
			AtRiskThreshold: 80,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin123",
		},
		RateLimit: RateLimitConfig{
			RPS:   20,
			Burst: 40,
		},
		Scheduler: SchedulerConfig{
			BudgetDigestCron: "0 8 * * 1-5",
			LogCleanupCron:   "30 3 * * *",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if hours := os.Getenv("JWT_EXPIRE_HOUR"); hours != "" {
		if h, err := cast.ToIntE(hours); err == nil && h > 0 {
			c.JWT.ExpireHour = h
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if country := os.Getenv("HOLIDAY_COUNTRY"); country != "" {
		c.Budget.HolidayCountry = strings.ToUpper(country)
	}
	if username := os.Getenv("ADMIN_USERNAME"); username != "" {
		c.Admin.Username = username
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		c.Admin.Password = password
	}
	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		if v, err := cast.ToFloat64E(rps); err == nil && v > 0 {
			c.RateLimit.RPS = v
		}
	}
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
