package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/watsonpaul80/tipping-monster/internal/api"
	"github.com/watsonpaul80/tipping-monster/internal/health"
	"github.com/watsonpaul80/tipping-monster/internal/metrics"
	"github.com/watsonpaul80/tipping-monster/internal/scheduler"
)

var serveSource string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the nightly settlement schedule and the stats API",
	Long: `Settles the previous day on the settle schedule, refreshes the ROI gauges
on the refresh schedule and serves the stats API with health and metrics
endpoints until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveSource, "source", "log", "History source for the stats API: log or repo")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	settler := a.settlementService()
	stats, err := a.roiService(serveSource)
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(log)
	if cfg.Schedule.Settle != "" {
		if err := sched.ScheduleSettlement(cfg.Schedule.Settle, settler); err != nil {
			return err
		}
	}
	if cfg.Schedule.ROIRefresh != "" {
		if err := sched.ScheduleRefresh(cfg.Schedule.ROIRefresh, stats); err != nil {
			return err
		}
	}
	if cfg.Schedule.Settle != "" || cfg.Schedule.ROIRefresh != "" {
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				log.WithError(err).Warn("Scheduler stop error")
			}
		}()
		log.WithField("next_run", sched.GetNextRun()).Info("Scheduler started")
	}

	checker := health.NewChecker(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Checks:      map[string]health.Pinger{"repository": a.repo},
	})

	serveMetricsOnAPI := cfg.Metrics.Enabled && cfg.API.Enabled && cfg.Metrics.Port == cfg.API.Port
	if cfg.API.Enabled {
		apiCfg := api.Config{Port: cfg.API.Port, AllowedOrigins: cfg.API.AllowedOrigins}
		if serveMetricsOnAPI {
			apiCfg.Metrics = metrics.Handler()
		}
		server := api.NewServer(apiCfg, stats, checker, log)
		if err := server.Start(ctx); err != nil {
			return err
		}
		defer server.Shutdown()
	}

	if cfg.Metrics.Enabled && !serveMetricsOnAPI {
		metricsServer := newMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, checker)
		go func() {
			log.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Metrics server error")
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
		checker.SetReady(true)
	}

	go func() {
		if err := stats.Refresh(ctx); err != nil {
			log.WithError(err).Warn("Initial ROI refresh failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case <-ctx.Done():
	}
	cancel()
	return nil
}

// newMetricsServer serves metrics and health on their own port.
func newMetricsServer(port int, path string, checker *health.Checker) *http.Server {
	if path == "" {
		path = "/metrics"
	}
	r := chi.NewRouter()
	r.Handle(path, metrics.Handler())
	r.Get("/health", checker.HandleHealth)
	r.Get("/ready", checker.HandleReady)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
