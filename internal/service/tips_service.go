package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/watsonpaul80/tipping-monster/internal/datasource"
	"github.com/watsonpaul80/tipping-monster/internal/gate"
	"github.com/watsonpaul80/tipping-monster/internal/metrics"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/nap"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
)

// GateResult is the outcome of gating a day's predictions.
type GateResult struct {
	Date      time.Time
	Tips      []models.Tip
	Issued    []models.Tip
	Decisions []gate.Decision
}

// NAPResult is the outcome of choosing a day's NAP.
type NAPResult struct {
	Date      time.Time
	Tips      []models.Tip
	Selection nap.Selection
	// Path is the sent tips file written, empty when nothing was written.
	Path string
}

// TipService prepares a day's tips for dispatch: it gates sub-threshold
// predictions and picks the NAP.
type TipService struct {
	predictions datasource.TipSource
	layout      datasource.Layout
	history     HistorySource
	gate        *gate.Gate
	gateWindow  int
	selector    *nap.Selector
	mode        models.StakeMode
	logger      *logrus.Entry
}

// NewTipService creates a tip service. predictions should read the full
// predictions file rather than the sent tips.
func NewTipService(
	predictions datasource.TipSource,
	layout datasource.Layout,
	history HistorySource,
	g *gate.Gate,
	gateWindow int,
	selector *nap.Selector,
	mode models.StakeMode,
	log *logrus.Logger,
) *TipService {
	if gateWindow <= 0 {
		gateWindow = roi.DefaultWindowDays
	}
	return &TipService{
		predictions: predictions,
		layout:      layout,
		history:     history,
		gate:        g,
		gateWindow:  gateWindow,
		selector:    selector,
		mode:        mode,
		logger:      log.WithField("component", "tips"),
	}
}

// GateTips loads date's predictions and decides which to issue, using band
// history from the window of days before date.
func (s *TipService) GateTips(ctx context.Context, date time.Time) (*GateResult, error) {
	date = roi.Day(date)
	batch, err := s.predictions.LoadTips(ctx, date)
	if err != nil {
		return nil, err
	}

	from := date.AddDate(0, 0, -s.gateWindow)
	to := date.AddDate(0, 0, -1)
	history, err := s.history.Settlements(ctx, s.mode, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load gate history: %w", err)
	}

	issued, decisions := s.gate.Filter(batch.Tips, date, history)
	for _, d := range decisions {
		metrics.RecordGateDecision(string(d.Reason))
	}

	s.logger.WithFields(logrus.Fields{
		"date":       date.Format(models.DateLayout),
		"candidates": len(batch.Tips),
		"issued":     len(issued),
		"history":    len(history),
	}).Info("Tips gated")

	return &GateResult{Date: date, Tips: batch.Tips, Issued: issued, Decisions: decisions}, nil
}

// SelectNAP chooses the NAP among tips and marks it. When write is set the
// marked tips are written as the day's sent tips file.
func (s *TipService) SelectNAP(ctx context.Context, date time.Time, tips []models.Tip, write bool) (*NAPResult, error) {
	date = roi.Day(date)
	sel, err := s.selector.Select(ctx, date, tips)
	if err != nil {
		// the audit line failed, the selection itself still stands
		s.logger.WithError(err).Warn("NAP override not recorded")
	}
	if sel.Event != nil {
		metrics.RecordNAPOverride(sel.Event.Replacement != nil)
	}
	nap.Apply(tips, sel)

	res := &NAPResult{Date: date, Tips: tips, Selection: sel}
	if sel.HasNAP() {
		s.logger.WithFields(logrus.Fields{
			"date":  date.Format(models.DateLayout),
			"horse": sel.Tip.Name,
			"price": nap.FormatPrice(sel.Tip.PriceAtIssue),
		}).Info("NAP selected")
	}

	if write {
		res.Path = s.layout.SentTips(date)
		if err := datasource.WriteTips(res.Path, tips); err != nil {
			return res, fmt.Errorf("failed to write sent tips: %w", err)
		}
	}
	return res, nil
}

// Prepare gates date's predictions and chooses the NAP among the issued tips.
func (s *TipService) Prepare(ctx context.Context, date time.Time, write bool) (*GateResult, *NAPResult, error) {
	gated, err := s.GateTips(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	picked, err := s.SelectNAP(ctx, gated.Date, gated.Issued, write)
	return gated, picked, err
}
