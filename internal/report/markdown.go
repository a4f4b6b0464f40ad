package report

import (
	"fmt"
	"strings"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
)

// renderMarkdown renders a Markdown report
func renderMarkdown(result *models.ScanResult) []byte {
	var sb strings.Builder

	sb.WriteString("# USBhound Scan Report\n\n")

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Scan ID | `%s` |\n", result.ScanID))
	sb.WriteString(fmt.Sprintf("| Scan Path | `%s` |\n", result.Root))
	sb.WriteString(fmt.Sprintf("| Status | %s |\n", result.Status))
	sb.WriteString(fmt.Sprintf("| Start Time | %s |\n", result.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", FormatDuration(result.Duration())))
	sb.WriteString(fmt.Sprintf("| Total Files | %d |\n", result.TotalFiles))
	sb.WriteString(fmt.Sprintf("| Scanned Files | %d |\n", result.ScannedFiles))
	sb.WriteString(fmt.Sprintf("| Skipped Files | %d |\n", result.SkippedFiles))
	sb.WriteString(fmt.Sprintf("| Archives Inspected | %d |\n", result.ArchivesInspected))
	sb.WriteString(fmt.Sprintf("| **Malicious** | **%d** |\n", len(result.MaliciousFiles)))
	sb.WriteString(fmt.Sprintf("| **Suspicious** | **%d** |\n", len(result.SuspiciousFiles)))
	sb.WriteString("\n")

	findings := Findings(result)
	if len(findings) == 0 {
		sb.WriteString("> ✅ **No threats detected**\n\n")
	} else {
		sb.WriteString("## Findings\n\n")
		sb.WriteString("| # | Category | File | Reason |\n")
		sb.WriteString("|---|----------|------|--------|\n")
		for i, f := range findings {
			sb.WriteString(fmt.Sprintf("| %d | %s %s | `%s` | %s |\n",
				i+1, categoryEmoji(f.Category), strings.ToUpper(f.Category.String()), f.ID, escapeTable(f.Reason)))
		}
		sb.WriteString("\n")
	}

	if skipped := Skipped(result); len(skipped) > 0 {
		sb.WriteString("## Skipped\n\n")
		for _, s := range skipped {
			sb.WriteString(fmt.Sprintf("- `%s`: %s\n", s.ID, s.Reason))
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String())
}

func categoryEmoji(c models.Category) string {
	switch c {
	case models.Malicious:
		return "🔴"
	case models.Suspicious:
		return "🟠"
	}
	return "🟢"
}

func escapeTable(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
