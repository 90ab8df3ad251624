package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
)

var bucketHeader = []string{
	"Label", "Tips", "Wins", "Places", "NRs", "Stake", "Profit",
	"Win%", "Place%", "ROI%", "Weighted Win%", "Weighted ROI%",
}

// WriteBucketsCSV writes ROI buckets, one row each.
func WriteBucketsCSV(w io.Writer, buckets []models.ROIBucket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bucketHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range buckets {
		if err := cw.Write(bucketRow(&buckets[i])); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBandsCSV writes the per-band aggregate.
func WriteBandsCSV(w io.Writer, bands []roi.BandBucket) error {
	buckets := make([]models.ROIBucket, len(bands))
	for i, b := range bands {
		buckets[i] = b.ROIBucket
	}
	return WriteBucketsCSV(w, buckets)
}

func bucketRow(b *models.ROIBucket) []string {
	return []string{
		b.Label,
		strconv.Itoa(b.Tips),
		strconv.Itoa(b.Wins),
		strconv.Itoa(b.Places),
		strconv.Itoa(b.NonRunners),
		money(b.Stake),
		money(b.Profit),
		money(b.WinPct()),
		money(b.PlacePct()),
		money(b.ROIPct()),
		money(b.WeightedWinPct()),
		money(b.WeightedROIPct()),
	}
}

// WriteRollingCSV writes the rolling ROI series.
func WriteRollingCSV(w io.Writer, points []roi.RollingPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Days", "Tips", "Wins", "Stake", "Profit", "ROI%"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range points {
		row := []string{
			p.Date.Format(models.DateLayout),
			strconv.Itoa(p.Days),
			strconv.Itoa(p.Tips),
			strconv.Itoa(p.Wins),
			money(p.Stake),
			money(p.Profit),
			money(p.ROIPct()),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
