package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/watsonpaul80/tipping-monster/internal/report"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
)

var (
	roiBy     string
	roiPeriod string
	roiFrom   string
	roiTo     string
	roiSource string
	roiCSV    string
	roiNAP    bool
)

var roiCmd = &cobra.Command{
	Use:   "roi",
	Short: "Report ROI by confidence band, tag or period",
	RunE:  runROI,
}

func init() {
	roiCmd.Flags().StringVar(&roiBy, "by", "band", "Grouping: band, tag or period")
	roiCmd.Flags().StringVar(&roiPeriod, "period", "", "Period for --by period or --nap: day, week or month (default roi.period)")
	roiCmd.Flags().StringVar(&roiFrom, "from", "", "First day to include (YYYY-MM-DD)")
	roiCmd.Flags().StringVar(&roiTo, "to", "", "Last day to include (YYYY-MM-DD)")
	roiCmd.Flags().StringVar(&roiSource, "source", "log", "History source: log or repo")
	roiCmd.Flags().StringVar(&roiCSV, "csv", "", "Also write the table as CSV to this file")
	roiCmd.Flags().BoolVar(&roiNAP, "nap", false, "Report NAP history instead")
}

func runROI(cmd *cobra.Command, args []string) error {
	from, err := parseDate(roiFrom)
	if err != nil {
		return err
	}
	to, err := parseDate(roiTo)
	if err != nil {
		return err
	}
	periodName := roiPeriod
	if periodName == "" {
		periodName = cfg.ROI.Period
	}
	period, err := roi.ParsePeriod(periodName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.roiService(roiSource)
	if err != nil {
		return err
	}
	printer := report.NewPrinter(cmd.OutOrStdout())

	if roiNAP {
		buckets, err := svc.NAPHistory(ctx, period, from, to)
		if err != nil {
			return err
		}
		printer.Buckets(fmt.Sprintf("NAP history by %s", period), buckets)
		return writeCSV(roiCSV, func(w io.Writer) error { return report.WriteBucketsCSV(w, buckets) })
	}

	switch roiBy {
	case "band":
		bands, err := svc.Bands(ctx, from, to)
		if err != nil {
			return err
		}
		printer.Bands(bands)
		return writeCSV(roiCSV, func(w io.Writer) error { return report.WriteBandsCSV(w, bands) })
	case "tag":
		tags, err := svc.Tags(ctx, from, to)
		if err != nil {
			return err
		}
		printer.Buckets("ROI by tag", tags)
		return writeCSV(roiCSV, func(w io.Writer) error { return report.WriteBucketsCSV(w, tags) })
	case "period":
		buckets, err := svc.Periods(ctx, period, from, to)
		if err != nil {
			return err
		}
		printer.Buckets(fmt.Sprintf("ROI by %s", period), buckets)
		return writeCSV(roiCSV, func(w io.Writer) error { return report.WriteBucketsCSV(w, buckets) })
	default:
		return fmt.Errorf("unknown grouping %q, want band, tag or period", roiBy)
	}
}

// writeCSV writes to path, resolving relative paths against paths.report_dir.
// An empty path writes nothing.
func writeCSV(path string, write func(io.Writer) error) error {
	if path == "" {
		return nil
	}
	if !filepath.IsAbs(path) && cfg.Paths.ReportDir != "" {
		dir := cfg.Paths.ReportDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.Paths.Root, dir)
		}
		path = filepath.Join(dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.WithField("path", path).Info("Report written")
	return nil
}
