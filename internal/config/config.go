package config

import (
	"fmt"
	"os"
	"time"

	"garagedesk/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Workshop   WorkshopConfig   `yaml:"workshop"`
	API        APIConfig        `yaml:"api"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Audit      AuditConfig      `yaml:"audit"`
	Exports    ExportConfig     `yaml:"exports"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type WorkshopConfig struct {
	Name string `yaml:"name" validate:"required"`
}

type APIConfig struct {
	BaseURL        string  `yaml:"base_url" validate:"required,url"`
	TimeoutSeconds int     `yaml:"timeout_seconds" validate:"gte=0"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `yaml:"rate_limit_burst" validate:"gte=0"`
	CacheTTL       int     `yaml:"cache_ttl_seconds" validate:"gte=0"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	TTLSeconds int `yaml:"ttl_seconds" validate:"gte=0"`
}

func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type RefreshConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds" validate:"gte=0"`
}

func (c RefreshConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type MonitoringConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" validate:"gte=0,lte=65535"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Load reads an optional .env, expands ${VAR} references in the YAML file and
// unmarshals it into a validated Config.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required when audit is enabled")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "garagedesk"
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = models.DefaultAPITimeout
	}
	if c.API.RateLimitRPS == 0 {
		c.API.RateLimitRPS = 10
	}
	if c.API.RateLimitBurst == 0 {
		c.API.RateLimitBurst = 20
	}
	if c.Session.TTLSeconds == 0 {
		c.Session.TTLSeconds = models.DefaultSessionTTL
	}
	if c.Refresh.IntervalSeconds == 0 {
		c.Refresh.IntervalSeconds = models.DefaultRefreshInterval
	}
	if c.Monitoring.Enabled && c.Monitoring.Port == 0 {
		c.Monitoring.Port = 9090
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
