// Package main provides the tipmonster CLI: settle days, report ROI, pick the
// NAP, gate tips and serve the stats API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/watsonpaul80/tipping-monster/internal/config"
	"github.com/watsonpaul80/tipping-monster/internal/logger"
	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	envFile    string
	logLevel   string
	modeFlag   string
	cfg        *config.Config
	log        *logrus.Logger
	audit      *logger.AuditLogger
)

var rootCmd = &cobra.Command{
	Use:           "tipmonster",
	Short:         "Settle racing tips and track ROI",
	Long:          `Settles a day's tips against official results, writes settlement logs and reports ROI by confidence band, tag and period.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Assigned here rather than in the literal: loadEnvFile reads rootCmd,
	// which would otherwise form an initialization cycle.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := loadEnvFile(); err != nil {
			return err
		}
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before the configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override app.log_level")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "Override settlement.mode (advised or level)")

	rootCmd.AddCommand(settleCmd, roiCmd, rollingCmd, napCmd, gateCmd, serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadEnvFile loads the .env file. A missing default file is ignored.
func loadEnvFile() error {
	if envFile == "" {
		return nil
	}
	err := godotenv.Load(envFile)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !rootCmd.PersistentFlags().Changed("env-file") {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", envFile, err)
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	log = logger.NewLogger(cfg.App.LogLevel, logger.FormatForEnvironment(cfg.App.Environment))
	audit = logger.NewAuditLogger(log)

	if logLevel != "" {
		audit.LogConfigChange("app.log_level", cfg.App.LogLevel, logLevel, "flag")
		cfg.App.LogLevel = logLevel
		log = logger.NewLogger(cfg.App.LogLevel, logger.FormatForEnvironment(cfg.App.Environment))
		audit = logger.NewAuditLogger(log)
	}
	if modeFlag != "" {
		audit.LogConfigChange("settlement.mode", cfg.Settlement.Mode, modeFlag, "flag")
		cfg.Settlement.Mode = modeFlag
	}

	secretsCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := config.LoadSecretsFromAWS(secretsCtx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if cfg.IsProduction() {
		if err := config.ValidateEnvironment(cfg); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"config":      configFile,
		"environment": cfg.App.Environment,
		"mode":        cfg.Settlement.Mode,
		"storage":     cfg.Storage.Driver,
	}).Debug("Configuration loaded")
	return nil
}

// overrideConfig applies a flag value to a config field when the flag was set.
func overrideConfig[T any](cmd *cobra.Command, flag, key string, target *T, value T) {
	if !cmd.Flags().Changed(flag) {
		return
	}
	audit.LogConfigChange(key, *target, value, "flag")
	*target = value
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return d, nil
}

// yesterday returns the previous calendar day in UTC.
func yesterday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// today returns the current calendar day in UTC.
func today() time.Time {
	return yesterday().AddDate(0, 0, 1)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tipmonster %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}
