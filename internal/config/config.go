// Package config provides configuration management for the Tipping Monster settlement engine.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Paths      PathsConfig      `mapstructure:"paths" validate:"required"`
	Settlement SettlementConfig `mapstructure:"settlement" validate:"required"`
	ROI        ROIConfig        `mapstructure:"roi" validate:"required"`
	NAP        NAPConfig        `mapstructure:"nap" validate:"required"`
	Gate       GateConfig       `mapstructure:"gate" validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	API        APIConfig        `mapstructure:"api"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// PathsConfig locates the daily input and output files. Templates may use
// {date}, {date_us} and {mode}; relative templates resolve against Root.
type PathsConfig struct {
	Root          string `mapstructure:"root"`
	Tips          string `mapstructure:"tips"`
	SentTips      string `mapstructure:"sent_tips"`
	Results       string `mapstructure:"results"`
	SettlementLog string `mapstructure:"settlement_log"`
	NAPLog        string `mapstructure:"nap_log"`
	ReportDir     string `mapstructure:"report_dir"`
}

// SettlementConfig controls how a day is settled.
type SettlementConfig struct {
	Mode                 string  `mapstructure:"mode" validate:"required,stakemode"`
	DefaultStake         float64 `mapstructure:"default_stake" validate:"gt=0"`
	PreferRealisticPrice bool    `mapstructure:"prefer_realistic_price"`
	UseSentTips          bool    `mapstructure:"use_sent_tips"`
	MinConfidence        float64 `mapstructure:"min_confidence" validate:"gte=0,lte=1"`
	Tag                  string  `mapstructure:"tag"`
}

// BandConfig is one configured confidence band.
type BandConfig struct {
	Low    float64 `mapstructure:"low" validate:"gte=0"`
	High   float64 `mapstructure:"high" validate:"gtfield=Low"`
	Closed bool    `mapstructure:"closed"`
}

// DecayBucketConfig weights settlements at most MaxAgeDays old.
type DecayBucketConfig struct {
	MaxAgeDays int     `mapstructure:"max_age_days" validate:"gt=0"`
	Weight     float64 `mapstructure:"weight" validate:"gte=0,lte=1"`
}

// ROIConfig represents ROI aggregation configuration
type ROIConfig struct {
	Bands      []BandConfig        `mapstructure:"bands" validate:"dive"`
	BandOrder  string              `mapstructure:"band_order" validate:"required,bandorder"`
	Decay      []DecayBucketConfig `mapstructure:"decay" validate:"dive"`
	DecayFloor float64             `mapstructure:"decay_floor" validate:"gte=0,lte=1"`
	WindowDays int                 `mapstructure:"window_days" validate:"gt=0"`
	Period     string              `mapstructure:"period" validate:"omitempty,oneof=day week month"`
}

// NAPConfig represents NAP selection configuration
type NAPConfig struct {
	Ceiling float64 `mapstructure:"ceiling" validate:"gt=1"`
}

// GateConfig represents confidence-gate configuration
type GateConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence" validate:"gte=0,lte=1"`
	WindowDays    int     `mapstructure:"window_days" validate:"gt=0"`
	BandOrder     string  `mapstructure:"band_order" validate:"required,bandorder"`
}

// StorageConfig selects the optional settlement mirror.
type StorageConfig struct {
	Driver     string `mapstructure:"driver" validate:"required,storagedriver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// DispatchConfig represents Telegram summary dispatch configuration
type DispatchConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	APIURL         string  `mapstructure:"api_url" validate:"omitempty,url"`
	BotToken       string  `mapstructure:"bot_token"`
	ChatID         string  `mapstructure:"chat_id"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
	RatePerSecond  float64 `mapstructure:"rate_per_second" validate:"omitempty,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// APIConfig represents the stats API configuration
type APIConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ScheduleConfig holds cron specs for serve mode.
type ScheduleConfig struct {
	Settle     string `mapstructure:"settle"`
	ROIRefresh string `mapstructure:"roi_refresh"`
}

// CacheConfig configures the parsed-results cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size" validate:"gte=0"`
}

// SecretsConfig names the optional AWS Secrets Manager overlay.
type SecretsConfig struct {
	AWSRegion  string `mapstructure:"aws_region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DispatchTimeout returns the dispatch request timeout.
func (c *Config) DispatchTimeout() time.Duration {
	if c.Dispatch.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Dispatch.TimeoutSeconds) * time.Second
}

// HasSecretsOverlay reports whether an AWS secret is configured.
func (c *Config) HasSecretsOverlay() bool {
	return c.Secrets.SecretName != ""
}
