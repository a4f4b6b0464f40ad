package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/filesystem"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/signatures"
)

func TestLoadConfig(t *testing.T) {
	// Test default config loading (without config file)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.MaxFileSize != "100M" {
		t.Errorf("Default max_file_size = %v, want %v", cfg.MaxFileSize, "100M")
	}
	if cfg.ArchiveLimitBytes() != 100*1024*1024 {
		t.Errorf("Default archive limit = %v, want %v", cfg.ArchiveLimitBytes(), 100*1024*1024)
	}
	if cfg.MaxFindings != 100 {
		t.Errorf("Default max_findings = %v, want %v", cfg.MaxFindings, 100)
	}
	if cfg.TempPrefix != "usb_monitor_scan_" {
		t.Errorf("Default temp_prefix = %v, want %v", cfg.TempPrefix, "usb_monitor_scan_")
	}
	if cfg.SkipHidden || cfg.FollowSymlinks {
		t.Errorf("Default skip_hidden/follow_symlinks = %v/%v, want false/false", cfg.SkipHidden, cfg.FollowSymlinks)
	}
	if !cfg.SniffContent {
		t.Errorf("Default sniff_content = %v, want true", cfg.SniffContent)
	}
	if !cfg.Heuristics {
		t.Errorf("Default heuristics = %v, want true", cfg.Heuristics)
	}
	if len(cfg.HashAlgorithms) != 2 {
		t.Errorf("Default hash_algorithms = %v, want [md5 sha256]", cfg.HashAlgorithms)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "System Volume Information" {
		t.Errorf("Default exclude = %v", cfg.Exclude)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("USBHOUND_MAX_FINDINGS", "5")
	t.Setenv("USBHOUND_SKIP_HIDDEN", "true")
	t.Setenv("USBHOUND_ARCHIVE_MAX_UNCOMPRESSED", "10M")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MaxFindings != 5 {
		t.Errorf("max_findings = %v, want 5", cfg.MaxFindings)
	}
	if !cfg.SkipHidden {
		t.Error("skip_hidden = false, want true")
	}
	if cfg.ArchiveLimitBytes() != 10*1024*1024 {
		t.Errorf("ArchiveLimitBytes() = %v, want %v", cfg.ArchiveLimitBytes(), 10*1024*1024)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usbhound.yaml")
	content := "max_file_size: 1M\nhash_algorithms: [sha1, blake3]\nexclude: [\"$RECYCLE.BIN\"]\nreport_format: json\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MaxFileSizeBytes() != 1024*1024 {
		t.Errorf("MaxFileSizeBytes() = %v, want %v", cfg.MaxFileSizeBytes(), 1024*1024)
	}
	if len(cfg.HashAlgorithms) != 2 || cfg.HashAlgorithms[1] != "blake3" {
		t.Errorf("hash_algorithms = %v, want [sha1 blake3]", cfg.HashAlgorithms)
	}
	if cfg.ReportFormat != "json" {
		t.Errorf("report_format = %v, want json", cfg.ReportFormat)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "$RECYCLE.BIN" {
		t.Errorf("exclude = %v", cfg.Exclude)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() with missing file expected error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			MaxFileSize:            "100M",
			ArchiveMaxUncompressed: "100M",
			MaxFindings:            100,
			HashAlgorithms:         []string{"MD5", "sha256"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"zero findings means unlimited", func(c *Config) { c.MaxFindings = 0 }, false},
		{"negative findings", func(c *Config) { c.MaxFindings = -1 }, true},
		{"bad file size", func(c *Config) { c.MaxFileSize = "lots" }, true},
		{"bad archive limit", func(c *Config) { c.ArchiveMaxUncompressed = "" }, true},
		{"file size with MB unit", func(c *Config) { c.MaxFileSize = "100MB" }, false},
		{"fractional file size", func(c *Config) { c.MaxFileSize = "1.5G" }, true},
		{"unknown size unit", func(c *Config) { c.MaxFileSize = "12x" }, true},
		{"zero archive limit", func(c *Config) { c.ArchiveMaxUncompressed = "0" }, true},
		{"negative rate", func(c *Config) { c.MaxIOPerSecond = -5 }, true},
		{"unknown report format", func(c *Config) { c.ReportFormat = "pdf" }, true},
		{"markdown report", func(c *Config) { c.ReportFormat = "md" }, false},
		{"unknown algorithm", func(c *Config) { c.HashAlgorithms = []string{"crc32"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	cfg := valid()
	cfg.MaxFileSize = "12x"
	if err := cfg.Validate(); !errors.Is(err, filesystem.ErrInvalidSize) {
		t.Errorf("Validate() error = %v, want %v", err, filesystem.ErrInvalidSize)
	}

	cfg = valid()
	cfg.MaxFileSize = "100MB"
	if got, want := cfg.MaxFileSizeBytes(), int64(100*1024*1024); got != want {
		t.Errorf("MaxFileSizeBytes() = %v, want %v", got, want)
	}

	cfg = valid()
	cfg.HashAlgorithms = []string{"crc32"}
	if err := cfg.Validate(); !errors.Is(err, signatures.ErrUnsupportedAlgorithm) {
		t.Errorf("Validate() error = %v, want %v", err, signatures.ErrUnsupportedAlgorithm)
	}
}

func TestNormalizedHashAlgorithms(t *testing.T) {
	cfg := &Config{HashAlgorithms: []string{" MD5", "Sha256 "}}
	got := cfg.NormalizedHashAlgorithms()
	if len(got) != 2 || got[0] != "md5" || got[1] != "sha256" {
		t.Errorf("NormalizedHashAlgorithms() = %v, want [md5 sha256]", got)
	}
}
