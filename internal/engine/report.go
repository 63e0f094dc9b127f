package engine

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

// WriteReport prints one row per offer followed by a summary line.
func WriteReport(w io.Writer, res *models.BatchResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Bookmaker", "Offer", "Status", "Boosted", "Fair", "Rating", "Min liq", "Max spread", "Publish", "Reasons")

	for i, o := range res.Offers {
		spread := "-"
		if o.Diagnostics.MaxSpreadPct != nil {
			spread = fmt.Sprintf("%.1f%%", *o.Diagnostics.MaxSpreadPct)
		}
		publish := "no"
		if o.Publishable {
			publish = "YES"
		}
		if err := table.Append(
			fmt.Sprintf("%d", i+1),
			o.Bookmaker,
			truncate(o.Title, 48),
			string(o.Status),
			odds(o.BoostedOdds),
			odds(o.FairOdds),
			odds(o.Rating),
			fmt.Sprintf("%.0f", o.Diagnostics.MinLiquidity),
			spread,
			publish,
			truncate(strings.Join(o.Reasons, "; "), 60),
		); err != nil {
			return fmt.Errorf("failed to append report row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	_, err := fmt.Fprintf(w, "  run %s: %d offers, %d publishable, %d skip records in %s\n",
		res.RunID, len(res.Offers), len(res.Publishable()), len(res.Failures),
		res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
	return err
}

func odds(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
