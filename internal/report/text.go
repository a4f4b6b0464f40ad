package report

import (
	"fmt"
	"strings"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
)

// renderText renders a plain text report
func renderText(result *models.ScanResult) []byte {
	var sb strings.Builder

	// Header
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString("  USBHOUND REMOVABLE MEDIA SCAN REPORT\n")
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n\n")

	// Summary
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Scan ID:          %s\n", result.ScanID))
	sb.WriteString(fmt.Sprintf("Scan Path:        %s\n", result.Root))
	sb.WriteString(fmt.Sprintf("Status:           %s\n", result.Status))
	sb.WriteString(fmt.Sprintf("Start Time:       %s\n", result.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("End Time:         %s\n", result.EndTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Duration:         %s\n", FormatDuration(result.Duration())))
	sb.WriteString(fmt.Sprintf("Total Files:      %d\n", result.TotalFiles))
	sb.WriteString(fmt.Sprintf("Scanned Files:    %d\n", result.ScannedFiles))
	sb.WriteString(fmt.Sprintf("Skipped Files:    %d\n", result.SkippedFiles))
	sb.WriteString(fmt.Sprintf("Archives:         %d\n", result.ArchivesInspected))
	sb.WriteString(fmt.Sprintf("Errors:           %d\n", result.Errors))
	sb.WriteString(fmt.Sprintf("MALICIOUS:        %d\n", len(result.MaliciousFiles)))
	sb.WriteString(fmt.Sprintf("SUSPICIOUS:       %d\n", len(result.SuspiciousFiles)))
	sb.WriteString("\n")

	if findings := Findings(result); len(findings) > 0 {
		sb.WriteString("FINDINGS\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		for i, f := range findings {
			sb.WriteString(fmt.Sprintf("[%d] %s\n", i+1, strings.ToUpper(f.Category.String())))
			sb.WriteString(fmt.Sprintf("    File:   %s\n", f.ID))
			sb.WriteString(fmt.Sprintf("    Reason: %s\n\n", f.Reason))
		}
	} else {
		sb.WriteString("No threats detected.\n\n")
	}

	if skipped := Skipped(result); len(skipped) > 0 {
		sb.WriteString("SKIPPED\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		for _, s := range skipped {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", s.ID, s.Reason))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("=", 79) + "\n")
	return []byte(sb.String())
}
