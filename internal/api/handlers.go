package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
	"github.com/watsonpaul80/tipping-monster/internal/settlement"
)

// BucketResponse is an ROI bucket with its derived rates.
type BucketResponse struct {
	models.ROIBucket
	WinPct         float64 `json:"win_pct"`
	PlacePct       float64 `json:"place_pct"`
	ROIPct         float64 `json:"roi_pct"`
	WeightedWinPct float64 `json:"weighted_win_pct"`
	WeightedROIPct float64 `json:"weighted_roi_pct"`
}

// BandResponse is one confidence band's statistics.
type BandResponse struct {
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Closed bool    `json:"closed"`
	BucketResponse
}

// RollingResponse is one trailing-window point.
type RollingResponse struct {
	roi.RollingPoint
	ROIPct float64 `json:"roi_pct"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func bucketResponse(b models.ROIBucket) BucketResponse {
	return BucketResponse{
		ROIBucket:      b,
		WinPct:         settlement.RoundMoney(b.WinPct()),
		PlacePct:       settlement.RoundMoney(b.PlacePct()),
		ROIPct:         settlement.RoundMoney(b.ROIPct()),
		WeightedWinPct: settlement.RoundMoney(b.WeightedWinPct()),
		WeightedROIPct: settlement.RoundMoney(b.WeightedROIPct()),
	}
}

func bucketResponses(buckets []models.ROIBucket) []BucketResponse {
	out := make([]BucketResponse, len(buckets))
	for i := range buckets {
		out[i] = bucketResponse(buckets[i])
	}
	return out
}

func (s *Server) handleBands(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	bands, err := s.stats.Bands(r.Context(), from, to)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	out := make([]BandResponse, len(bands))
	for i, b := range bands {
		out[i] = BandResponse{Low: b.Band.Low, High: b.Band.High, Closed: b.Band.Closed, BucketResponse: bucketResponse(b.ROIBucket)}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tags, err := s.stats.Tags(r.Context(), from, to)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, bucketResponses(tags))
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	period, from, to, err := periodQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	buckets, err := s.stats.Periods(r.Context(), period, from, to)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, bucketResponses(buckets))
}

func (s *Server) handleNAPHistory(w http.ResponseWriter, r *http.Request) {
	period, from, to, err := periodQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	buckets, err := s.stats.NAPHistory(r.Context(), period, from, to)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, bucketResponses(buckets))
}

func (s *Server) handleRolling(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	window := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		window, err = strconv.Atoi(raw)
		if err != nil || window <= 0 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid window %q", raw))
			return
		}
	}

	points, err := s.stats.Rolling(r.Context(), window, from, to)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]RollingResponse, len(points))
	for i, p := range points {
		out[i] = RollingResponse{RollingPoint: p, ROIPct: settlement.RoundMoney(p.ROIPct())}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithError(err).WithField("path", r.URL.Path).Error("Stats query failed")
	respondError(w, http.StatusInternalServerError, "failed to load statistics")
}

func dateRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to is before from")
	}
	return from, to, nil
}

func periodQuery(r *http.Request) (roi.Period, time.Time, time.Time, error) {
	period, err := roi.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	from, to, err := dateRange(r)
	return period, from, to, err
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return t, nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
