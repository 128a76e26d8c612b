package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	SendGrid   SendGridConfig   `yaml:"sendgrid"`
	Log        LogConfig        `yaml:"log"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Moderation ModerationConfig `yaml:"moderation"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains settings for validating actor tokens issued by the
// auth collaborator.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// SendGridConfig contains outbound notification settings
type SendGridConfig struct {
	APIKey          string `yaml:"api_key"`
	FromEmail       string `yaml:"from_email"`
	FromName        string `yaml:"from_name"`
	ModerationInbox string `yaml:"moderation_inbox"` // digest and decision copies
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig holds the cron specs for the background scans
type SchedulerConfig struct {
	ScanSLABreaches     string `yaml:"scan_sla_breaches"`
	ScanFrozenCampaigns string `yaml:"scan_frozen_campaigns"`
}

// ModerationConfig holds workflow tunables
type ModerationConfig struct {
	SLAWindowHours    int    `yaml:"sla_window_hours"`    // pending longer than this is SLA-breached
	FreezeWindowHours int    `yaml:"freeze_window_hours"` // inactive longer than this is frozen
	PaymentWebhookKey string `yaml:"payment_webhook_key"` // shared secret for the payment collaborator callback
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}

	// Payment collaborator webhook
	if val := os.Getenv("PAYMENT_WEBHOOK_KEY"); val != "" {
		c.Moderation.PaymentWebhookKey = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Moderation.SLAWindowHours <= 0 {
		c.Moderation.SLAWindowHours = 7 * 24
	}
	if c.Moderation.FreezeWindowHours <= 0 {
		c.Moderation.FreezeWindowHours = 30 * 24
	}
	if c.Scheduler.ScanSLABreaches == "" {
		c.Scheduler.ScanSLABreaches = "0 0 6 * * *" // daily 06:00 UTC
	}
	if c.Scheduler.ScanFrozenCampaigns == "" {
		c.Scheduler.ScanFrozenCampaigns = "0 30 6 * * *"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	return nil
}

// GetServerAddress returns the listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabaseConnectionString returns the PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
		c.Database.Database, sslMode)
}

// SLAWindow returns the pending-too-long threshold as a duration
func (c *Config) SLAWindow() time.Duration {
	return time.Duration(c.Moderation.SLAWindowHours) * time.Hour
}

// FreezeWindow returns the inactivity threshold as a duration
func (c *Config) FreezeWindow() time.Duration {
	return time.Duration(c.Moderation.FreezeWindowHours) * time.Hour
}
