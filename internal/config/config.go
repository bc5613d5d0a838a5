// Package config assembles the full application configuration: the shared
// bot/core settings plus the catalog, HTTP, and session tuning specific to
// this service. YAML gives the base, environment variables override.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/scriptsbot/core/config"
	"github.com/m3rciful/scriptsbot/core/database"
)

// defaultAdminID seeds the allow-list when neither YAML nor ADMINS set one.
const defaultAdminID int64 = 5307228059

// HTTPConfig tunes the delivery-gate listener.
type HTTPConfig struct {
	Port int `yaml:"port" envconfig:"PORT"`
}

// WebConfig points at the public download page.
type WebConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"WEB_URL"`
}

// CatalogConfig tunes listing and add-workflow behaviour.
type CatalogConfig struct {
	FetchLimit       int  `yaml:"fetch_limit" envconfig:"CATALOG_FETCH_LIMIT"`
	PageSize         int  `yaml:"page_size" envconfig:"CATALOG_PAGE_SIZE"`
	MinNameLen       int  `yaml:"min_name_len" envconfig:"CATALOG_MIN_NAME_LEN"`
	MinDescLen       int  `yaml:"min_desc_len" envconfig:"CATALOG_MIN_DESC_LEN"`
	SkipConfirmation bool `yaml:"skip_confirmation" envconfig:"CATALOG_SKIP_CONFIRMATION"`
}

// SessionConfig tunes add-session expiry.
type SessionConfig struct {
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" envconfig:"SESSION_SWEEP_INTERVAL_MINUTES"`
	MaxIdleMinutes       int `yaml:"max_idle_minutes" envconfig:"SESSION_MAX_IDLE_MINUTES"`
}

// Config is the complete application configuration.
type Config struct {
	Core     coreconfig.Config `yaml:",inline"`
	Database database.Config   `yaml:"database"`
	HTTP     HTTPConfig        `yaml:"http"`
	Web      WebConfig         `yaml:"web"`
	Catalog  CatalogConfig     `yaml:"catalog"`
	Session  SessionConfig     `yaml:"session"`
}

// Load reads the YAML file, applies environment overrides, and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return err
	}
	if len(cfg.Core.Telegram.Admins) == 0 {
		cfg.Core.Telegram.Admins = []int64{defaultAdminID}
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 3000
	}
	if cfg.Web.BaseURL == "" {
		return fmt.Errorf("web.base_url is required (WEB_URL)")
	}
	if cfg.Catalog.FetchLimit <= 0 {
		cfg.Catalog.FetchLimit = 20
	}
	if cfg.Catalog.PageSize <= 0 {
		cfg.Catalog.PageSize = 5
	}
	if cfg.Catalog.MinNameLen <= 0 {
		cfg.Catalog.MinNameLen = 2
	}
	if cfg.Catalog.MinDescLen <= 0 {
		cfg.Catalog.MinDescLen = 10
	}
	if cfg.Session.SweepIntervalMinutes <= 0 {
		cfg.Session.SweepIntervalMinutes = 10
	}
	if cfg.Session.MaxIdleMinutes <= 0 {
		cfg.Session.MaxIdleMinutes = 30
	}
	return nil
}
