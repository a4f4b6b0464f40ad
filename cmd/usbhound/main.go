package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/classifier"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/config"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/core"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/detection"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/report"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/signatures"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	grayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
)

var (
	version    = "0.1.0"
	logger     = zap.NewNop()
	verbose    bool
	configFile string
)

// exitError carries a process exit code through cobra
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	rootCmd := &cobra.Command{
		Use:   "usbhound",
		Short: "USBhound - threat triage for removable media",
		Long: `Walks a mounted USB volume, classifies every file by name, hashes
high-risk files against known-bad digests and looks inside ZIP archives.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: $USBHOUND_CONFIG)")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(signaturesCmd())
	rootCmd.AddCommand(detectorsCmd())

	if err := rootCmd.Execute(); err != nil {
		code := 2
		if ee, ok := err.(*exitError); ok {
			code = ee.code
		}
		if code != 1 {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("Error:"), err)
		}
		os.Exit(code)
	}
}

// initLogger builds a development logger in verbose mode and an
// error-only JSON logger otherwise
func initLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
			Encoding:         "json",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    zap.NewProductionEncoderConfig(),
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// scanCmd creates the scan command
func scanCmd() *cobra.Command {
	var (
		maxSize      string
		archiveLimit string
		maxFindings  int
		exclude      []string
		skipHidden   bool
		sigPath      string
		reportFormat string
		outputFile   string
		noProgress   bool
		failOn       string
	)

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Scan a mounted volume or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			threshold, err := parseFailOn(failOn)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				logger.Error("Failed to load config", zap.Error(err))
				return err
			}

			// Override config with CLI flags
			flags := cmd.Flags()
			if flags.Changed("max-size") {
				cfg.MaxFileSize = maxSize
			}
			if flags.Changed("archive-limit") {
				cfg.ArchiveMaxUncompressed = archiveLimit
			}
			if flags.Changed("max-findings") {
				cfg.MaxFindings = maxFindings
			}
			if len(exclude) > 0 {
				cfg.Exclude = append(cfg.Exclude, exclude...)
			}
			if flags.Changed("skip-hidden") {
				cfg.SkipHidden = skipHidden
			}
			if sigPath != "" {
				cfg.SignaturesPath = sigPath
			}
			if reportFormat != "" {
				cfg.ReportFormat = reportFormat
			}
			if outputFile != "" {
				cfg.OutputFile = outputFile
			}

			scanner := core.NewScanner(cfg, logger)
			if err := scanner.Init(); err != nil {
				return err
			}

			printBanner(path)

			var bar *progressbar.ProgressBar
			if !noProgress {
				scanner.SetProgressCallback(func(phase string, current, total int, message string) {
					if phase != "scanning" {
						return
					}
					if bar == nil {
						bar = progressbar.NewOptions(total,
							progressbar.OptionSetWriter(os.Stderr),
							progressbar.OptionSetDescription("Scanning files"),
							progressbar.OptionShowCount(),
							progressbar.OptionSetPredictTime(true),
							progressbar.OptionFullWidth(),
							progressbar.OptionClearOnFinish(),
						)
					}
					_ = bar.Set(current)
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result := scanner.ScanTree(ctx, path)
			if bar != nil {
				_ = bar.Finish()
			}

			gen := report.NewGenerator(report.Options{
				Format:     cfg.ReportFormat,
				OutputFile: cfg.OutputFile,
			}, logger)
			reportPath, err := gen.Generate(result)
			if err != nil {
				logger.Error("Failed to generate report", zap.Error(err))
				return err
			}
			if reportPath != "" {
				fmt.Printf("  %s %s\n\n", grayStyle.Render("Report:"), accentStyle.Render(reportPath))
			}

			return exitStatus(result, threshold)
		},
	}

	cmd.Flags().StringVar(&maxSize, "max-size", "100M", "Skip files larger than this")
	cmd.Flags().StringVar(&archiveLimit, "archive-limit", "100M", "Maximum total uncompressed size to extract per archive")
	cmd.Flags().IntVar(&maxFindings, "max-findings", 100, "Stop after this many flagged files (0 = no limit)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Directory names to exclude (comma-separated)")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", false, "Skip hidden files and directories")
	cmd.Flags().StringVar(&sigPath, "signatures", "", "Directory of YAML signature files")
	cmd.Flags().StringVarP(&reportFormat, "report", "r", "", "Report format: json, text, md (default: console output)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().StringVar(&failOn, "fail-on", "malicious", "Exit with code 1 when findings reach: none, suspicious, malicious")

	return cmd
}

// parseFailOn maps the --fail-on value to a category threshold.
// Clean means never fail.
func parseFailOn(s string) (models.Category, error) {
	switch strings.ToLower(s) {
	case "none":
		return models.Clean, nil
	case "suspicious":
		return models.Suspicious, nil
	case "malicious":
		return models.Malicious, nil
	}
	return models.Clean, fmt.Errorf("--fail-on must be one of: none, suspicious, malicious (got: %s)", s)
}

// exitStatus turns a finished scan into the process outcome
func exitStatus(result *models.ScanResult, threshold models.Category) error {
	if result.Status == models.StatusFailed {
		return &exitError{code: 2, msg: fmt.Sprintf("scan of %s failed", result.Root)}
	}
	if threshold == models.Clean {
		return nil
	}
	if len(result.MaliciousFiles) > 0 ||
		(threshold == models.Suspicious && len(result.SuspiciousFiles) > 0) {
		return &exitError{code: 1, msg: "threats detected"}
	}
	return nil
}

// classifyCmd classifies names without touching the filesystem
func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <name>...",
		Short: "Classify file names with the name rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadClassifier()
			if err != nil {
				return err
			}
			for _, name := range args {
				res := c.Classify(name)
				line := fmt.Sprintf("%-10s %s", res.Category, name)
				if res.Flagged() {
					line += grayStyle.Render("  (" + res.Reason + ")")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

// loadClassifier builds the name classifier including configured signature files
func loadClassifier() (*classifier.Classifier, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	set, err := signatures.NewLoader(cfg.SignaturesPath).Load()
	if err != nil {
		return nil, err
	}
	tables := classifier.DefaultTables()
	tables.Extend(set.Names)
	return classifier.New(tables), nil
}

// signaturesCmd prints what the signature database holds
func signaturesCmd() *cobra.Command {
	var sigPath string
	cmd := &cobra.Command{
		Use:   "signatures",
		Short: "Show loaded hash signatures and name rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if sigPath != "" {
				cfg.SignaturesPath = sigPath
			}
			set, err := signatures.NewLoader(cfg.SignaturesPath).Load()
			if err != nil {
				return err
			}

			fmt.Println(bannerStyle.Render("HASH SIGNATURES"))
			for _, algo := range set.Hashes.Algorithms() {
				fmt.Printf("  %-8s %d\n", algo, set.Hashes.Count(algo))
			}
			fmt.Printf("  %-8s %d\n\n", "total", set.Hashes.Len())

			fmt.Println(bannerStyle.Render("SIGNATURE FILES"))
			if len(set.Files) == 0 {
				fmt.Println(grayStyle.Render("  built-in only"))
			}
			for _, f := range set.Files {
				fmt.Printf("  %s\n", f)
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().StringVar(&sigPath, "signatures", "", "Directory of YAML signature files")
	return cmd
}

// detectorsCmd lists the detection pipeline stages and their rule tables
func detectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detectors [list]",
		Short: "List detection stages and name rule tables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadClassifier()
			if err != nil {
				return err
			}

			fmt.Println(bannerStyle.Render("DETECTION STAGES"))
			fmt.Println("  ✓ name        name rules (malicious suffixes and terms, ransom notes, suspicious terms)")
			fmt.Println("  ✓ heuristic   script commands, script and APK sizes, executables in temp folders")
			fmt.Println("  ✓ hash        known-bad digests for high-risk extensions")
			fmt.Println("  ✓ archive     ZIP entry names and extracted members")
			fmt.Println()

			fmt.Println(bannerStyle.Render("HIGH-RISK EXTENSIONS"))
			fmt.Printf("  %s\n\n", strings.Join(detection.HighRiskExtensions(), " "))

			terms := c.Terms()
			keys := make([]string, 0, len(terms))
			for k := range terms {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			fmt.Println(bannerStyle.Render("NAME RULES"))
			for _, k := range keys {
				fmt.Printf("  %s %s\n", accentStyle.Render(fmt.Sprintf("%-22s", k)), grayStyle.Render(fmt.Sprintf("%d terms", len(terms[k]))))
				if verbose {
					fmt.Printf("      %s\n", strings.Join(terms[k], ", "))
				}
			}
			fmt.Println()
			return nil
		},
	}
}

// printBanner prints the startup banner
func printBanner(path string) {
	fmt.Println()
	fmt.Println(bannerStyle.Render("USBHOUND") + grayStyle.Render(" v"+version))
	fmt.Printf("  %s %s\n", grayStyle.Render("Scanning:"), path)
}
