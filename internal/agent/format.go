package agent

import (
	"fmt"

	"github.com/ignite/outreach-monitor/internal/classifier"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatNumber renders n with thousands separators.
func formatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func severityIcon(s classifier.Severity) string {
	switch s {
	case classifier.Critical:
		return "🔴"
	case classifier.High:
		return "🟠"
	case classifier.Medium:
		return "🟡"
	default:
		return "🟢"
	}
}

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n"

// maxListed caps list sections of a report.
const maxListed = 10
