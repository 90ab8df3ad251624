package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is read when no path is given.
	DefaultConfigPath = "config/config.yaml"
	// EnvPrefix prefixes environment variable overrides, e.g. TIPPING_MONSTER_NAP_CEILING.
	EnvPrefix = "TIPPING_MONSTER"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := readExpanded(v, data); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error: defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := readExpanded(v, data); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// Default returns the built-in configuration with environment overrides applied.
func Default() (*Config, error) {
	v := newViper()
	setDefaults(v)
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// readExpanded expands ${VAR} placeholders before parsing.
func readExpanded(v *viper.Viper, data []byte) error {
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tipping-monster")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("paths.root", ".")
	v.SetDefault("paths.tips", "predictions/{date}/tips_with_odds.jsonl")
	v.SetDefault("paths.sent_tips", "logs/dispatch/sent_tips_{date}.jsonl")
	v.SetDefault("paths.results", "rpscrape/data/dates/all/{date_us}.csv")
	v.SetDefault("paths.settlement_log", "logs/roi/tips_results_{date}_{mode}.csv")
	v.SetDefault("paths.nap_log", "logs/nap_override_{date}.log")
	v.SetDefault("paths.report_dir", "logs/roi")

	v.SetDefault("settlement.mode", "advised")
	v.SetDefault("settlement.default_stake", 1.0)
	v.SetDefault("settlement.prefer_realistic_price", false)
	v.SetDefault("settlement.use_sent_tips", true)
	v.SetDefault("settlement.min_confidence", 0.0)
	v.SetDefault("settlement.tag", "")

	v.SetDefault("roi.band_order", "ascending")
	v.SetDefault("roi.decay", []map[string]any{
		{"max_age_days": 30, "weight": 1.0},
		{"max_age_days": 90, "weight": 0.5},
	})
	v.SetDefault("roi.decay_floor", 0.1)
	v.SetDefault("roi.window_days", 30)
	v.SetDefault("roi.period", "day")

	v.SetDefault("nap.ceiling", 21.0)

	v.SetDefault("gate.min_confidence", 0.80)
	v.SetDefault("gate.window_days", 30)
	v.SetDefault("gate.band_order", "ascending")

	v.SetDefault("storage.driver", "none")
	v.SetDefault("storage.sqlite_path", "data/settlements.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "tipping_monster")
	v.SetDefault("database.user", "tipping_monster")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("dispatch.enabled", false)
	v.SetDefault("dispatch.api_url", "https://api.telegram.org")
	v.SetDefault("dispatch.bot_token", "")
	v.SetDefault("dispatch.chat_id", "")
	v.SetDefault("dispatch.timeout_seconds", 10)
	v.SetDefault("dispatch.rate_per_second", 1.0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.allowed_origins", []string{"*"})

	v.SetDefault("schedule.settle", "0 30 23 * * *")
	v.SetDefault("schedule.roi_refresh", "0 0 6 * * *")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_size", 64)

	v.SetDefault("secrets.aws_region", "")
	v.SetDefault("secrets.secret_name", "")
}
