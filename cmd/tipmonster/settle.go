package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watsonpaul80/tipping-monster/internal/report"
)

var (
	settleDate      string
	settleFrom      string
	settleTo        string
	settleRealistic bool
	settleMinConf   float64
	settleTag       string
	settleVerbose   bool
	settleNoSend    bool
)

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Settle a day, or a range of days, against official results",
	Long: `Joins each day's tips to its results, prices every tip, writes the
settlement log and prints the daily summary line. Days with a missing tips
or results file are skipped.`,
	RunE: runSettle,
}

func init() {
	settleCmd.Flags().StringVar(&settleDate, "date", "", "Day to settle (YYYY-MM-DD, default yesterday)")
	settleCmd.Flags().StringVar(&settleFrom, "from", "", "First day of a range to settle")
	settleCmd.Flags().StringVar(&settleTo, "to", "", "Last day of a range to settle (default yesterday)")
	settleCmd.Flags().BoolVar(&settleRealistic, "realistic", false, "Prefer the realistic price over the price at issue")
	settleCmd.Flags().Float64Var(&settleMinConf, "min-confidence", 0, "Only settle tips at or above this confidence")
	settleCmd.Flags().StringVar(&settleTag, "tag", "", "Only settle tips carrying this tag")
	settleCmd.Flags().BoolVarP(&settleVerbose, "verbose", "v", false, "Print every settled tip")
	settleCmd.Flags().BoolVar(&settleNoSend, "no-dispatch", false, "Do not send the summary to the tips channel")
}

func runSettle(cmd *cobra.Command, args []string) error {
	overrideConfig(cmd, "realistic", "settlement.prefer_realistic_price", &cfg.Settlement.PreferRealisticPrice, settleRealistic)
	overrideConfig(cmd, "min-confidence", "settlement.min_confidence", &cfg.Settlement.MinConfidence, settleMinConf)
	overrideConfig(cmd, "tag", "settlement.tag", &cfg.Settlement.Tag, settleTag)

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, !settleNoSend)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.settlementService()
	out := cmd.OutOrStdout()

	if settleFrom == "" {
		date, err := parseDate(settleDate)
		if err != nil {
			return err
		}
		if date.IsZero() {
			date = yesterday()
		}

		// a mirror failure still returns the settled day
		day, err := svc.SettleDay(ctx, date)
		if day != nil {
			if settleVerbose {
				report.NewPrinter(out).Settlements(day.Settlements)
			}
			fmt.Fprintln(out, report.SummaryLine(day.Summary))
		}
		return err
	}

	from, err := parseDate(settleFrom)
	if err != nil {
		return err
	}
	to, err := parseDate(settleTo)
	if err != nil {
		return err
	}
	if to.IsZero() {
		to = yesterday()
	}

	rep, err := svc.SettleRange(ctx, from, to)
	if rep != nil {
		for _, sum := range rep.Summaries {
			fmt.Fprintln(out, report.SummaryLine(sum))
		}
		for _, f := range rep.Failures {
			fmt.Fprintf(out, "%s   skipped: %v\n", f.Date.Format("2006-01-02"), f.Err)
		}
		total := rep.Total()
		fmt.Fprintf(out, "\nTotal   Tips: %d    Wins: %d   Places: %d   Stake: %.2f Profit: %.2f ROI: %.2f%%\n",
			total.Tips, total.Wins, total.Places, total.Stake, total.Profit, total.GetROI())
		log.WithField("report", rep.String()).Info("Batch settlement finished")
	}
	return err
}
