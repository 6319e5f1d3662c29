package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Limits   LimitsConfig   `yaml:"limits"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds redis configuration (presence + upload quota counters)
type RedisConfig struct {
	URL string `yaml:"url"`
}

// AWSConfig holds AWS configuration for the media bucket
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// LimitsConfig holds client-facing limits
type LimitsConfig struct {
	// DailyUploadBytes is the advisory per-user per-day upload budget.
	DailyUploadBytes int64 `yaml:"daily_upload_bytes"`
	// RepairIntervalRaw is how often the summary/count repair pass runs,
	// in time.ParseDuration syntax.
	RepairIntervalRaw string `yaml:"repair_interval"`
	// RepairInterval is the parsed form, filled in by Load.
	RepairInterval time.Duration `yaml:"-"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Limits.DailyUploadBytes == 0 {
		cfg.Limits.DailyUploadBytes = 50 << 20 // 50MB
	}
	cfg.Limits.RepairInterval = 15 * time.Minute
	if cfg.Limits.RepairIntervalRaw != "" {
		interval, err := time.ParseDuration(cfg.Limits.RepairIntervalRaw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse repair_interval: %w", err)
		}
		cfg.Limits.RepairInterval = interval
	}

	return &cfg, nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
