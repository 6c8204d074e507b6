package commands

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Liszten/kpiComp/internal/analysis"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleSeparator = "═══════════════════════════════════════════════════════════"
	separator       = "───────────────────────────────────────────────────────────"
)

// printSuccess prints a success message
func printSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// printInfo prints an info message
func printInfo(w io.Writer, message string) {
	fmt.Fprintf(w, "ℹ️  %s\n", message)
}

// printWarning prints a warning message
func printWarning(w io.Writer, message string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "⚠️  %s\n", message)
	fmt.Fprintln(w)
}

// printKeyValue prints key-value pairs
func printKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// printTableHeader prints a table header
func printTableHeader(w io.Writer, columns []string, widths []int) {
	printTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// printTableRow prints a table row
func printTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		if i < len(values)-1 {
			fmt.Fprintf(w, "%-*s  ", widths[i], val)
			continue
		}
		fmt.Fprint(w, val)
	}
	fmt.Fprintln(w)
}

// printReport renders an analysis report as a comparison table
func printReport(w io.Writer, report *analysis.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleSeparator)
	fmt.Fprintf(w, "  %s (%s)\n", report.CompanyName, report.Ticker)
	fmt.Fprintln(w, separator)
	printKeyValue(w, "Sector", report.Sector, 10)
	printKeyValue(w, "Industry", report.Industry, 10)
	printKeyValue(w, "Peers", peerSummary(report), 10)
	fmt.Fprintln(w, separator)

	widths := []int{26, 6, 12, 12, 12, 6}
	printTableHeader(w, []string{"KPI", "Weight", "Stock", "Sector", "Diff", "Score"}, widths)
	for _, row := range report.Comparison {
		score := "-"
		if row.Score.Combined != nil {
			score = fmt.Sprintf("%.3f", *row.Score.Combined)
		}
		printTableRow(w, []string{row.DisplayName, row.Weight, row.StockValue, row.SectorAvg, row.Difference, score}, widths)
	}

	result := report.Rating
	fmt.Fprintln(w, separator)
	printKeyValue(w, "Rating", fmt.Sprintf("%.1f / 10", result.OverallRating), 10)
	printKeyValue(w, "Absolute", fmt.Sprintf("%.1f", result.AbsoluteScore), 10)
	printKeyValue(w, "Relative", fmt.Sprintf("%.1f", result.RelativeScore), 10)
	printKeyValue(w, "Coverage", fmt.Sprintf("%d KPIs, weight %.2f (%s)", result.KPIsUsed, result.WeightUsed, result.Confidence), 10)
	fmt.Fprintln(w, doubleSeparator)

	if !result.Ratable() {
		printWarning(w, "No KPI data available; rating defaults to the 1.0 floor")
	}
}

func peerSummary(report *analysis.Report) string {
	summary := fmt.Sprintf("%d", report.SectorPeerCount)
	if report.PeersCached {
		summary += " (cached)"
	}
	return summary
}

// maskPassword masks the password in the database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxx")
	return strings.Replace(u.String(), ":xxx@", ":***@", 1)
}
