package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watsonpaul80/tipping-monster/internal/datasource"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/nap"
	"github.com/watsonpaul80/tipping-monster/internal/service"
)

var (
	napDate    string
	napGate    bool
	napWrite   bool
	napSource  string
	napCeiling float64
)

var napCmd = &cobra.Command{
	Use:   "nap",
	Short: "Choose the day's NAP from its predictions",
	Long: `Chooses the highest-confidence tip priced at or under the NAP ceiling and
marks it as the NAP. A blocked top pick is recorded in the NAP override log.
With --gate the predictions are first filtered by the confidence gate.`,
	RunE: runNAP,
}

func init() {
	napCmd.Flags().StringVar(&napDate, "date", "", "Day to choose for (YYYY-MM-DD, default today)")
	napCmd.Flags().BoolVar(&napGate, "gate", false, "Gate the predictions before choosing")
	napCmd.Flags().BoolVar(&napWrite, "write", false, "Write the marked tips as the day's sent tips file")
	napCmd.Flags().StringVar(&napSource, "source", "log", "History source for the gate: log or repo")
	napCmd.Flags().Float64Var(&napCeiling, "ceiling", 0, "Override nap.ceiling")
}

func runNAP(cmd *cobra.Command, args []string) error {
	overrideConfig(cmd, "ceiling", "nap.ceiling", &cfg.NAP.Ceiling, napCeiling)

	date, err := parseDate(napDate)
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

	svc, err := a.tipService(napSource)
	if err != nil {
		return err
	}

	var picked *service.NAPResult
	if napGate {
		_, picked, err = svc.Prepare(ctx, date, napWrite)
	} else {
		var batch *datasource.TipBatch
		batch, err = datasource.NewFileTipSource(a.factory.Layout(), false).LoadTips(ctx, date)
		if err != nil {
			return err
		}
		picked, err = svc.SelectNAP(ctx, date, batch.Tips, napWrite)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if picked.Selection.Event != nil {
		fmt.Fprintln(out, picked.Selection.Event.Line())
	}
	if !picked.Selection.HasNAP() {
		fmt.Fprintf(out, "%s   no tip qualifies as NAP (ceiling %.1f)\n", date.Format(models.DateLayout), cfg.NAP.Ceiling)
		return nil
	}
	tip := picked.Selection.Tip
	fmt.Fprintf(out, "%s   NAP: %s @ %s  (%s)\n",
		date.Format(models.DateLayout), tip.Name, nap.FormatPrice(tip.PriceAtIssue), tip.Race)
	if picked.Path != "" {
		fmt.Fprintf(out, "Sent tips written to %s\n", picked.Path)
	}
	return nil
}
