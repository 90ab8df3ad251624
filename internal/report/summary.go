// Package report renders settlement and ROI results for the console, CSV
// files and the tips channel.
package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// SummaryLine formats the one-line daily summary printed after settling.
func SummaryLine(s models.DailySummary) string {
	return fmt.Sprintf("%s   Tips: %d    Wins: %d   Places: %d   NRs: %d   Stake: %.2f Profit: %.2f ROI: %.2f%%",
		s.Date.Format(models.DateLayout), s.Tips, s.Wins, s.Places, s.NonRunners, s.Stake, s.Profit, s.GetROI())
}

// DispatchMessage formats the daily summary for the tips channel as Telegram HTML.
func DispatchMessage(s models.DailySummary, mode models.StakeMode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s ROI Summary</b> (%s)\n", s.Date.Format(models.DateLayout), html.EscapeString(string(mode)))
	fmt.Fprintf(&b, "🏇 <b>Tips:</b> %d | 🥇 <b>Winners:</b> %d | 🥈 <b>Places:</b> %d", s.Tips, s.Wins, s.Places)
	if s.NonRunners > 0 {
		fmt.Fprintf(&b, " | 🚫 <b>NRs:</b> %d", s.NonRunners)
	}
	fmt.Fprintf(&b, "\n💸 <b>Stake:</b> %.2f pts | <b>Profit:</b> %+.2f pts\n", s.Stake, s.Profit)
	fmt.Fprintf(&b, "📈 <b>ROI:</b> %.2f%%", s.GetROI())
	return b.String()
}
