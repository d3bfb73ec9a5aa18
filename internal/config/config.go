package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration
type Config struct {
	Service  ServiceConfig  `toml:"service"`
	Auth     AuthConfig     `toml:"auth"`
	Calendar CalendarConfig `toml:"calendar"`
	Secrets  *SecretsConfig // From environment
}

// ServiceConfig holds the service configuration
type ServiceConfig struct {
	Port         int    `toml:"port"`
	DatabaseFile string `toml:"database_file"`
	LogLevel     string `toml:"log_level"`
	Development  bool   `toml:"development"`
}

// AuthConfig holds the token verification settings
type AuthConfig struct {
	Issuer string `toml:"issuer"`
}

// CalendarConfig holds the default merged-calendar window, in months. These
// seed the settings table on first start; later changes happen through the
// settings API.
type CalendarConfig struct {
	MonthsBack    int `toml:"months_back"`
	MonthsForward int `toml:"months_forward"`
}

// SecretsConfig holds secrets loaded from environment
type SecretsConfig struct {
	JWTSecret     string
	WebhookSecret string
}

// Load reads the configuration file and environment variables
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Ensure the database file path is absolute
	if cfg.Service.DatabaseFile != "" && !filepath.IsAbs(cfg.Service.DatabaseFile) {
		configDir := filepath.Dir(path)
		cfg.Service.DatabaseFile = filepath.Join(configDir, "..", cfg.Service.DatabaseFile)
	}

	// Load secrets from environment
	cfg.Secrets = &SecretsConfig{
		JWTSecret:     os.Getenv("CUSTODIA_JWT_SECRET"),
		WebhookSecret: os.Getenv("CUSTODIA_WEBHOOK_SECRET"),
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Service.Port == 0 {
		cfg.Service.Port = 8080
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "info"
	}
	if cfg.Calendar.MonthsBack == 0 {
		cfg.Calendar.MonthsBack = 1
	}
	if cfg.Calendar.MonthsForward == 0 {
		cfg.Calendar.MonthsForward = 2
	}
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Service.Port < 1 || cfg.Service.Port > 65535 {
		return fmt.Errorf("invalid service port: %d", cfg.Service.Port)
	}

	if cfg.Service.DatabaseFile == "" {
		return fmt.Errorf("database file path is required")
	}

	if cfg.Auth.Issuer == "" {
		return fmt.Errorf("auth issuer is required")
	}

	if cfg.Calendar.MonthsBack < 0 {
		return fmt.Errorf("calendar months back cannot be negative")
	}
	if cfg.Calendar.MonthsForward < 1 {
		return fmt.Errorf("calendar months forward must be positive")
	}

	if cfg.Secrets.JWTSecret == "" {
		return fmt.Errorf("CUSTODIA_JWT_SECRET environment variable is required")
	}
	if cfg.Secrets.WebhookSecret == "" {
		return fmt.Errorf("CUSTODIA_WEBHOOK_SECRET environment variable is required")
	}

	return nil
}
