package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/watsonpaul80/tipping-monster/internal/report"
)

var (
	rollingWindow int
	rollingFrom   string
	rollingTo     string
	rollingSource string
	rollingCSV    string
)

var rollingCmd = &cobra.Command{
	Use:   "rolling",
	Short: "Report trailing-window ROI for each settled day",
	RunE:  runRolling,
}

func init() {
	rollingCmd.Flags().IntVarP(&rollingWindow, "window", "w", 0, "Window length in days (default roi.window_days)")
	rollingCmd.Flags().StringVar(&rollingFrom, "from", "", "First day to report (YYYY-MM-DD)")
	rollingCmd.Flags().StringVar(&rollingTo, "to", "", "Last day to report (YYYY-MM-DD)")
	rollingCmd.Flags().StringVar(&rollingSource, "source", "log", "History source: log or repo")
	rollingCmd.Flags().StringVar(&rollingCSV, "csv", "rolling_roi.csv", "CSV file to write, empty to skip")
}

func runRolling(cmd *cobra.Command, args []string) error {
	overrideConfig(cmd, "window", "roi.window_days", &cfg.ROI.WindowDays, rollingWindow)

	from, err := parseDate(rollingFrom)
	if err != nil {
		return err
	}
	to, err := parseDate(rollingTo)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.roiService(rollingSource)
	if err != nil {
		return err
	}
	points, err := svc.Rolling(ctx, 0, from, to)
	if err != nil {
		return err
	}

	report.NewPrinter(cmd.OutOrStdout()).Rolling(points, svc.WindowDays())
	return writeCSV(rollingCSV, func(w io.Writer) error { return report.WriteRollingCSV(w, points) })
}
