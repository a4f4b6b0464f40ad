package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/filesystem"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/signatures"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "USBHOUND"

// Config represents the scanner configuration
type Config struct {
	// Scan settings
	MaxFileSize            string   `mapstructure:"max_file_size"`            // files above this are skipped
	ArchiveMaxUncompressed string   `mapstructure:"archive_max_uncompressed"` // zip-bomb guard
	MaxFindings            int      `mapstructure:"max_findings"`             // stop after this many flagged ids, 0 = no limit
	Exclude                []string `mapstructure:"exclude"`                  // directory names to skip
	SkipHidden             bool     `mapstructure:"skip_hidden"`              // skip hidden files and directories
	FollowSymlinks         bool     `mapstructure:"follow_symlinks"`          // follow symbolic links
	MaxIOPerSecond         int      `mapstructure:"max_io_per_second"`        // file open rate limit, 0 = unlimited
	SniffContent           bool     `mapstructure:"sniff_content"`            // hash files with executable magic too

	// Detection settings
	HashAlgorithms []string `mapstructure:"hash_algorithms"` // digests computed for high-risk files
	SignaturesPath string   `mapstructure:"signatures_path"` // directory of YAML signature files
	Heuristics     bool     `mapstructure:"heuristics"`      // location, size and script content rules

	// Extraction settings
	TempDir    string `mapstructure:"temp_dir"`    // parent of extraction directories
	TempPrefix string `mapstructure:"temp_prefix"` // extraction directory prefix

	// Report settings
	ReportFormat string `mapstructure:"report_format"` // console, json, text, md
	OutputFile   string `mapstructure:"output_file"`   // output file path
}

var reportFormats = map[string]bool{
	"": true, "console": true, "json": true, "text": true, "txt": true, "md": true, "markdown": true,
}

// LoadConfig loads configuration from defaults, an optional YAML file and
// environment variables. An empty configFile falls back to $USBHOUND_CONFIG.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("max_file_size", "100M")
	v.SetDefault("archive_max_uncompressed", "100M")
	v.SetDefault("max_findings", 100)
	v.SetDefault("exclude", []string{"System Volume Information"})
	v.SetDefault("skip_hidden", false)
	v.SetDefault("follow_symlinks", false)
	v.SetDefault("max_io_per_second", 0)
	v.SetDefault("sniff_content", true)
	v.SetDefault("hash_algorithms", []string{"md5", "sha256"})
	v.SetDefault("signatures_path", "")
	v.SetDefault("heuristics", true)
	v.SetDefault("temp_dir", "")
	v.SetDefault("temp_prefix", "usb_monitor_scan_")
	v.SetDefault("report_format", "")
	v.SetDefault("output_file", "")

	// Read environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MaxFileSizeBytes returns the per-file size ceiling in bytes, 0 when the
// value does not parse (Validate reports that)
func (c *Config) MaxFileSizeBytes() int64 {
	n, _ := filesystem.ParseSize(c.MaxFileSize)
	return n
}

// ArchiveLimitBytes returns the archive extraction cap in bytes, 0 when the
// value does not parse
func (c *Config) ArchiveLimitBytes() int64 {
	n, _ := filesystem.ParseSize(c.ArchiveMaxUncompressed)
	return n
}

func validateSize(key, value string) error {
	n, err := filesystem.ParseSize(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return nil
}

// Validate checks the configuration for values the scanner cannot work with
func (c *Config) Validate() error {
	var errs []error

	if err := validateSize("max_file_size", c.MaxFileSize); err != nil {
		errs = append(errs, err)
	}
	if err := validateSize("archive_max_uncompressed", c.ArchiveMaxUncompressed); err != nil {
		errs = append(errs, err)
	}
	if c.MaxFindings < 0 {
		errs = append(errs, fmt.Errorf("max_findings must not be negative, got %d", c.MaxFindings))
	}
	if c.MaxIOPerSecond < 0 {
		errs = append(errs, fmt.Errorf("max_io_per_second must not be negative, got %d", c.MaxIOPerSecond))
	}
	for _, algo := range c.HashAlgorithms {
		if !signatures.IsSupported(strings.ToLower(algo)) {
			errs = append(errs, fmt.Errorf("%w: %s", signatures.ErrUnsupportedAlgorithm, algo))
		}
	}
	if !reportFormats[strings.ToLower(c.ReportFormat)] {
		errs = append(errs, fmt.Errorf("unknown report format %q", c.ReportFormat))
	}

	return errors.Join(errs...)
}

// NormalizedHashAlgorithms returns the configured algorithms lowercased
func (c *Config) NormalizedHashAlgorithms() []string {
	algos := make([]string, 0, len(c.HashAlgorithms))
	for _, algo := range c.HashAlgorithms {
		algos = append(algos, strings.ToLower(strings.TrimSpace(algo)))
	}
	return algos
}

// WalkOptions returns the walker settings
func (c *Config) WalkOptions() filesystem.WalkOptions {
	return filesystem.WalkOptions{
		Exclude:        c.Exclude,
		SkipHidden:     c.SkipHidden,
		FollowSymlinks: c.FollowSymlinks,
		MaxIOPerSecond: c.MaxIOPerSecond,
	}
}
