package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
	"go.uber.org/zap"
)

// Console styles
var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle        = lipgloss.NewStyle().Faint(true)
	maliciousStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	suspiciousStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	successStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	ruleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const consoleRule = "───────────────────────────────────────────────────────────────"

// FormatDuration formats duration to a human-readable string with max 2 decimal places
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		// Milliseconds
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		// Seconds
		return fmt.Sprintf("%.2fs", d.Seconds())
	} else if d < time.Hour {
		// Minutes and seconds
		mins := int(d.Minutes())
		secs := d.Seconds() - float64(mins*60)
		return fmt.Sprintf("%dm%.2fs", mins, secs)
	}
	// Hours, minutes and seconds
	hours := int(d.Hours())
	mins := int(d.Minutes()) - hours*60
	secs := d.Seconds() - float64(hours*3600) - float64(mins*60)
	return fmt.Sprintf("%dh%dm%.2fs", hours, mins, secs)
}

// Options selects the report format and destination
type Options struct {
	Format     string // "" or console, json, text/txt, md/markdown
	OutputFile string
}

// Generator generates scan reports in various formats
type Generator struct {
	opts   Options
	logger *zap.Logger
	out    io.Writer
}

// NewGenerator creates a new report generator
func NewGenerator(opts Options, logger *zap.Logger) *Generator {
	return &Generator{
		opts:   opts,
		logger: logger,
		out:    os.Stdout,
	}
}

// SetOutput redirects console output
func (g *Generator) SetOutput(w io.Writer) {
	g.out = w
}

// DefaultFileName returns the report file name used when none is configured
func DefaultFileName(format string, now time.Time) (string, error) {
	timestamp := now.Format("20060102-150405")
	switch format {
	case "json":
		return fmt.Sprintf("USBHOUND-REPORT-%s.json", timestamp), nil
	case "txt", "text":
		return fmt.Sprintf("USBHOUND-REPORT-%s.txt", timestamp), nil
	case "md", "markdown":
		return fmt.Sprintf("USBHOUND-REPORT-%s.md", timestamp), nil
	}
	return "", fmt.Errorf("unknown report format: %s", format)
}

// Generate writes the report and returns its absolute path. Console output
// returns an empty path.
func (g *Generator) Generate(result *models.ScanResult) (string, error) {
	format := strings.ToLower(g.opts.Format)
	outputFile := g.opts.OutputFile

	// If no format specified, print to console
	if format == "" || format == "console" {
		g.printConsole(result)
		return "", nil
	}

	// Generate default filename if not specified
	if outputFile == "" {
		name, err := DefaultFileName(format, time.Now())
		if err != nil {
			return "", err
		}
		outputFile = name
	}

	g.logger.Info("Generating report",
		zap.String("format", format),
		zap.String("output", outputFile))

	var data []byte
	var err error
	switch format {
	case "json":
		data, err = renderJSON(result)
	case "txt", "text":
		data = renderText(result)
	case "md", "markdown":
		data = renderMarkdown(result)
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}
	if err == nil {
		err = os.WriteFile(outputFile, data, 0644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	// Get absolute path
	absPath, _ := filepath.Abs(outputFile)
	return absPath, nil
}

// printConsole prints results with terminal styling
func (g *Generator) printConsole(result *models.ScanResult) {
	w := g.out
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("SCAN "+strings.ToUpper(strings.ReplaceAll(string(result.Status), "_", " "))))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s      %s\n", labelStyle.Render("Path:"), result.Root)
	fmt.Fprintf(w, "  %s     %d of %d scanned, %d skipped\n", labelStyle.Render("Files:"), result.ScannedFiles, result.TotalFiles, result.SkippedFiles)
	if result.ArchivesInspected > 0 {
		fmt.Fprintf(w, "  %s  %d\n", labelStyle.Render("Archives:"), result.ArchivesInspected)
	}
	if result.Errors > 0 {
		fmt.Fprintf(w, "  %s    %d\n", labelStyle.Render("Errors:"), result.Errors)
	}
	fmt.Fprintf(w, "  %s  %s\n", labelStyle.Render("Duration:"), FormatDuration(result.Duration()))
	fmt.Fprintln(w)

	if result.Findings() == 0 {
		fmt.Fprintf(w, "  %s\n\n", successStyle.Render("✓ No threats detected"))
		return
	}

	fmt.Fprintf(w, "  %s  %s\n\n",
		maliciousStyle.Render(fmt.Sprintf("MALICIOUS: %d", len(result.MaliciousFiles))),
		suspiciousStyle.Render(fmt.Sprintf("SUSPICIOUS: %d", len(result.SuspiciousFiles))))
	fmt.Fprintln(w, ruleStyle.Render(consoleRule))

	for i, f := range Findings(result) {
		style := suspiciousStyle
		if f.Category == models.Malicious {
			style = maliciousStyle
		}
		fmt.Fprintf(w, "\n  [%d] %s %s\n", i+1, style.Render(strings.ToUpper(f.Category.String())), f.ID)
		fmt.Fprintf(w, "      %s %s\n", labelStyle.Render("Reason:"), dimStyle.Render(f.Reason))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, ruleStyle.Render(consoleRule))
	fmt.Fprintln(w)
}

// Finding is one flagged identifier with the reason that decided its category
type Finding struct {
	ID       string          `json:"id"`
	Category models.Category `json:"category"`
	Reason   string          `json:"reason"`
}

// Findings lists malicious identifiers first, then suspicious ones, in scan order
func Findings(result *models.ScanResult) []Finding {
	findings := make([]Finding, 0, result.Findings())
	for _, id := range result.MaliciousFiles {
		findings = append(findings, Finding{ID: id, Category: models.Malicious, Reason: reasonFor(result, id, models.Malicious)})
	}
	for _, id := range result.SuspiciousFiles {
		findings = append(findings, Finding{ID: id, Category: models.Suspicious, Reason: reasonFor(result, id, models.Suspicious)})
	}
	return findings
}

// reasonFor returns the first recorded reason matching the listed category
func reasonFor(result *models.ScanResult, id string, category models.Category) string {
	for _, d := range result.DetectionDetails[id] {
		if d.Category == category && !d.Skipped {
			return d.Reason
		}
	}
	return ""
}

// Skipped lists identifiers that were not fully processed, sorted
func Skipped(result *models.ScanResult) []Finding {
	var skipped []Finding
	for id, details := range result.DetectionDetails {
		for _, d := range details {
			if d.Skipped {
				skipped = append(skipped, Finding{ID: id, Category: d.Category, Reason: d.Reason})
			}
		}
	}
	sort.Slice(skipped, func(i, j int) bool {
		if skipped[i].ID != skipped[j].ID {
			return skipped[i].ID < skipped[j].ID
		}
		return skipped[i].Reason < skipped[j].Reason
	})
	return skipped
}
