package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/watsonpaul80/tipping-monster/internal/gate"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// Printer renders tables to a console writer.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) heading(title string) {
	fmt.Fprintf(p.out, "\n%s\n", titleCaser.String(title))
}

// Settlements prints one row per settled tip.
func (p *Printer) Settlements(rows []models.Settlement) {
	table := tablewriter.NewWriter(p.out)
	table.Header("Time", "Course", "Horse", "Odds", "Conf", "Pos", "Stake", "Profit", "Outcome", "NAP")

	for i := range rows {
		s := &rows[i]
		odds := "-"
		if s.PriceValid {
			odds = strconv.FormatFloat(s.Price, 'f', -1, 64)
		}
		conf := "-"
		if c, ok := s.GetConfidence(); ok {
			conf = fmt.Sprintf("%.2f", c)
		}
		nap := ""
		if s.NAP {
			nap = "NAP"
		}
		table.Append(
			s.Time, s.Course, s.Horse, odds, conf, s.PositionText(),
			fmt.Sprintf("%.2f", s.Stake),
			fmt.Sprintf("%+.2f", s.Profit),
			string(s.Outcome), nap,
		)
	}
	table.Render()
}

// Bands prints the per-band aggregate, weighted columns included.
func (p *Printer) Bands(buckets []roi.BandBucket) {
	p.heading("confidence bands")
	table := tablewriter.NewWriter(p.out)
	table.Header("Band", "Tips", "Wins", "Win%", "Places", "NRs", "Stake", "Profit", "ROI%", "wWin%", "wROI%")

	for _, b := range buckets {
		table.Append(
			b.Label,
			strconv.Itoa(b.Tips),
			strconv.Itoa(b.Wins),
			fmt.Sprintf("%.1f", b.WinPct()),
			strconv.Itoa(b.Places),
			strconv.Itoa(b.NonRunners),
			fmt.Sprintf("%.2f", b.Stake),
			fmt.Sprintf("%+.2f", b.Profit),
			fmt.Sprintf("%.2f", b.ROIPct()),
			fmt.Sprintf("%.1f", b.WeightedWinPct()),
			fmt.Sprintf("%.2f", b.WeightedROIPct()),
		)
	}
	table.Render()
}

// Buckets prints labelled aggregates such as tags or periods.
func (p *Printer) Buckets(title string, buckets []models.ROIBucket) {
	p.heading(title)
	table := tablewriter.NewWriter(p.out)
	table.Header("Label", "Tips", "Wins", "Win%", "Places", "Place%", "NRs", "Stake", "Profit", "ROI%")

	for _, b := range buckets {
		table.Append(
			b.Label,
			strconv.Itoa(b.Tips),
			strconv.Itoa(b.Wins),
			fmt.Sprintf("%.1f", b.WinPct()),
			strconv.Itoa(b.Places),
			fmt.Sprintf("%.1f", b.PlacePct()),
			strconv.Itoa(b.NonRunners),
			fmt.Sprintf("%.2f", b.Stake),
			fmt.Sprintf("%+.2f", b.Profit),
			fmt.Sprintf("%.2f", b.ROIPct()),
		)
	}
	table.Render()
}

// Rolling prints the rolling window series.
func (p *Printer) Rolling(points []roi.RollingPoint, windowDays int) {
	p.heading(fmt.Sprintf("rolling %d-day ROI", windowDays))
	table := tablewriter.NewWriter(p.out)
	table.Header("Date", "Days", "Tips", "Wins", "Stake", "Profit", "ROI%")

	for _, pt := range points {
		table.Append(
			pt.Date.Format(models.DateLayout),
			strconv.Itoa(pt.Days),
			strconv.Itoa(pt.Tips),
			strconv.Itoa(pt.Wins),
			fmt.Sprintf("%.2f", pt.Stake),
			fmt.Sprintf("%+.2f", pt.Profit),
			fmt.Sprintf("%.2f", pt.ROIPct()),
		)
	}
	table.Render()
}

// GateDecisions prints the gate outcome for each tip.
func (p *Printer) GateDecisions(tips []models.Tip, decisions []gate.Decision) {
	p.heading("confidence gate")
	table := tablewriter.NewWriter(p.out)
	table.Header("Race", "Horse", "Conf", "Band", "Band ROI%", "Issue", "Reason")

	for i := range tips {
		if i >= len(decisions) {
			break
		}
		d := decisions[i]
		conf := "-"
		if c, ok := tips[i].GetConfidence(); ok {
			conf = fmt.Sprintf("%.2f", c)
		}
		bandROI := "-"
		if d.HasHistory {
			bandROI = fmt.Sprintf("%.2f", d.BandROI)
		}
		table.Append(tips[i].Race, tips[i].Name, conf, d.Band, bandROI, strconv.FormatBool(d.Issue), string(d.Reason))
	}
	table.Render()
}
