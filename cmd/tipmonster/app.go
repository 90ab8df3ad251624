package main

import (
	"context"
	"fmt"

	"github.com/watsonpaul80/tipping-monster/internal/config"
	"github.com/watsonpaul80/tipping-monster/internal/datasource"
	"github.com/watsonpaul80/tipping-monster/internal/dispatch"
	"github.com/watsonpaul80/tipping-monster/internal/gate"
	"github.com/watsonpaul80/tipping-monster/internal/logger"
	"github.com/watsonpaul80/tipping-monster/internal/metrics"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/nap"
	"github.com/watsonpaul80/tipping-monster/internal/repository"
	"github.com/watsonpaul80/tipping-monster/internal/service"
)

// app holds the wired services for one command run.
type app struct {
	cfg      *config.Config
	factory  *datasource.Factory
	repo     repository.SettlementRepository
	notifier dispatch.Notifier
	settleLg *logger.SettlementLogger
}

// newApp opens the repository mirror and the dispatcher. withDispatch false
// disables the summary dispatch regardless of configuration.
func newApp(ctx context.Context, cfg *config.Config, withDispatch bool) (*app, error) {
	a := &app{
		cfg:      cfg,
		factory:  datasource.NewFactory(cfg),
		notifier: dispatch.NoopNotifier{},
		settleLg: logger.NewSettlementLogger(log),
	}

	repo, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.repo = repo

	if withDispatch && cfg.Dispatch.Enabled {
		httpCfg := dispatch.DefaultHTTPClientConfig()
		httpCfg.Timeout = cfg.DispatchTimeout()
		if cfg.Dispatch.RatePerSecond > 0 {
			httpCfg.RateLimit = cfg.Dispatch.RatePerSecond
		}
		a.notifier = dispatch.NewTelegramNotifier(dispatch.TelegramConfig{
			APIURL:   cfg.Dispatch.APIURL,
			BotToken: cfg.Dispatch.BotToken,
			ChatID:   cfg.Dispatch.ChatID,
			HTTP:     httpCfg,
		}, log)
	}
	return a, nil
}

func (a *app) Close() {
	if closer, ok := a.notifier.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			log.WithError(err).Warn("Failed to close repository")
		}
	}
}

func (a *app) mode() models.StakeMode {
	return models.StakeMode(a.cfg.Settlement.Mode)
}

func (a *app) settlementService() *service.SettlementService {
	return service.NewSettlementService(
		a.factory.TipSource(),
		a.factory.ResultSource(metrics.UpdateCacheHitRatio),
		a.factory.Layout(),
		a.repo,
		a.notifier,
		a.settleLg,
		service.SettlementOptions(a.cfg),
	)
}

// history reads from the repository mirror when source is "repo", otherwise
// from the settlement logs.
func (a *app) history(source string) (service.HistorySource, error) {
	switch source {
	case "", "log":
		return service.NewLogHistory(a.factory.LogReader(), a.settleLg), nil
	case "repo":
		if a.repo == nil {
			return nil, fmt.Errorf("history source repo needs storage.driver set")
		}
		return service.NewRepositoryHistory(a.repo), nil
	default:
		return nil, fmt.Errorf("unknown history source %q, want log or repo", source)
	}
}

func (a *app) roiService(source string) (*service.ROIService, error) {
	h, err := a.history(source)
	if err != nil {
		return nil, err
	}
	return service.NewROIService(h, service.NewAggregator(a.cfg), a.mode(), a.cfg.ROI.WindowDays, log), nil
}

func (a *app) tipService(source string) (*service.TipService, error) {
	h, err := a.history(source)
	if err != nil {
		return nil, err
	}
	layout := a.factory.Layout()
	sink := nap.MultiSink{nap.NewFileSink(layout.NAPLog), nap.NewLogSink(audit)}
	return service.NewTipService(
		datasource.NewFileTipSource(layout, false),
		layout,
		h,
		gate.New(service.GateConfig(a.cfg), audit),
		a.cfg.Gate.WindowDays,
		nap.NewSelector(a.cfg.NAP.Ceiling, sink),
		a.mode(),
		log,
	), nil
}
