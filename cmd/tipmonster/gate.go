package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/report"
)

var (
	gateDate   string
	gateSource string
	gateMinCon float64
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Show which of a day's predictions the confidence gate would issue",
	RunE:  runGate,
}

func init() {
	gateCmd.Flags().StringVar(&gateDate, "date", "", "Day to gate (YYYY-MM-DD, default today)")
	gateCmd.Flags().StringVar(&gateSource, "source", "log", "History source: log or repo")
	gateCmd.Flags().Float64Var(&gateMinCon, "min-confidence", 0, "Override gate.min_confidence")
}

func runGate(cmd *cobra.Command, args []string) error {
	overrideConfig(cmd, "min-confidence", "gate.min_confidence", &cfg.Gate.MinConfidence, gateMinCon)

	date, err := parseDate(gateDate)
	if err != nil {
		return err
	}
	if date.IsZero() {
		date = today()
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.tipService(gateSource)
	if err != nil {
		return err
	}
	res, err := svc.GateTips(ctx, date)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report.NewPrinter(out).GateDecisions(res.Tips, res.Decisions)
	fmt.Fprintf(out, "%s   issued %d of %d tips\n", res.Date.Format(models.DateLayout), len(res.Issued), len(res.Tips))
	return nil
}
