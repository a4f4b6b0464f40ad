package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/detection"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
	"go.uber.org/zap"
)

const (
	// DefaultMaxUncompressed is the zip-bomb guard: archives whose entries
	// declare this much data or more are never extracted
	DefaultMaxUncompressed int64 = 100 * 1024 * 1024
	// DefaultTempPrefix names extraction directories
	DefaultTempPrefix = "usb_monitor_scan_"
)

var archiveExtensions = map[string]bool{
	".zip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true, ".bz2": true,
}

// IsArchive reports whether name has a recognised archive extension
func IsArchive(name string) bool {
	return archiveExtensions[strings.ToLower(filepath.Ext(name))]
}

// Supported reports whether the archive can be opened. Only ZIP is.
func Supported(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

// MemberID builds the composite identifier of an archive member
func MemberID(archivePath, member string) string {
	return archivePath + ":" + member
}

// Options configures an Inspector
type Options struct {
	MaxUncompressed int64
	// MaxFindings stops recording once the result holds this many flagged ids; 0 = no limit
	MaxFindings int
	TempDir         string
	TempPrefix      string
}

// Outcome summarises what an inspection found
type Outcome struct {
	Malicious  bool
	Suspicious bool
	Extracted  bool
	Entries    int
	// LimitReached is set when inspection stopped at the findings limit
	LimitReached bool
}

func (o *Outcome) note(c models.Category) {
	switch c {
	case models.Malicious:
		o.Malicious = true
	case models.Suspicious:
		o.Suspicious = true
	}
}

// Inspector classifies ZIP archives by their own name, their entry names and,
// when small enough, by the extracted contents
type Inspector struct {
	evaluator *detection.Evaluator
	extractor Extractor
	opts      Options
	logger    *zap.Logger
}

// NewInspector creates a new archive inspector
func NewInspector(evaluator *detection.Evaluator, opts Options, logger *zap.Logger) *Inspector {
	if opts.MaxUncompressed <= 0 {
		opts.MaxUncompressed = DefaultMaxUncompressed
	}
	if opts.TempPrefix == "" {
		opts.TempPrefix = DefaultTempPrefix
	}
	return &Inspector{
		evaluator: evaluator,
		extractor: ZipExtractor{},
		opts:      opts,
		logger:    logger,
	}
}

// full reports whether result already holds the configured number of findings
func (i *Inspector) full(result *models.ScanResult) bool {
	return i.opts.MaxFindings > 0 && result.Findings() >= i.opts.MaxFindings
}

// SetExtractor replaces the extractor
func (i *Inspector) SetExtractor(e Extractor) {
	i.extractor = e
}

// Inspect runs the archive checks in order, stopping at the first one that
// settles the verdict. Findings are recorded into result. Inspect never fails;
// problems with the container itself make it suspicious.
func (i *Inspector) Inspect(ctx context.Context, path string, result *models.ScanResult) Outcome {
	var out Outcome

	// 1. the archive's own name
	own := i.evaluator.ClassifyName(filepath.Base(path))
	if own.Flagged() {
		i.logger.Debug("Archive name flagged, not opening", zap.String("path", path), zap.String("reason", own.Reason))
		result.Record(path, own.Detection())
		out.note(own.Category)
		return out
	}

	if !Supported(path) {
		return out
	}

	// 2. entry names, before anything is extracted
	zr, err := openZip(path)
	if err != nil {
		i.logger.Warn("Cannot open archive", zap.String("path", path), zap.Error(err))
		result.AddSuspicious(path, fmt.Sprintf("corrupted or unreadable archive: %v", err), models.SourceArchive)
		out.Suspicious = true
		return out
	}
	defer zr.Close()

	var (
		total     uint64
		encrypted bool
	)
	for _, f := range zr.File {
		if ctx.Err() != nil {
			return out
		}
		if i.full(result) {
			i.logger.Debug("Findings limit reached inside archive", zap.String("path", path))
			out.LimitReached = true
			return out
		}
		if isDirEntry(f) {
			continue
		}
		out.Entries++
		total += f.UncompressedSize64
		if isEncrypted(f) {
			encrypted = true
		}

		id := MemberID(path, f.Name)
		if _, err := checkEntryName(f.Name); err != nil {
			result.AddSuspicious(id, "entry path escapes the archive root", models.SourceArchive)
			out.Suspicious = true
			continue
		}

		res := i.evaluator.ClassifyName(f.Name)
		if res.Flagged() {
			result.Record(id, models.Detection{
				Category: res.Category,
				Reason:   fmt.Sprintf("archive entry name: %s", res.Reason),
				Source:   models.SourceName,
			})
			out.note(res.Category)
		}
	}

	if out.Malicious {
		i.logger.Debug("Malicious entry name, skipping extraction", zap.String("path", path))
		return out
	}
	if i.full(result) {
		out.LimitReached = true
		return out
	}
	if encrypted {
		result.AddSuspicious(path, "password-protected archive", models.SourceArchive)
		out.Suspicious = true
		return out
	}
	if out.Entries == 0 {
		return out
	}

	// 3. extraction, only below the size cap
	if total >= uint64(i.opts.MaxUncompressed) {
		i.logger.Info("Archive over extraction limit, classified by entry names only",
			zap.String("path", path),
			zap.Uint64("uncompressed", total),
			zap.Int64("limit", i.opts.MaxUncompressed))
		result.AddDetail(path, models.Detection{
			Category: models.Clean,
			Reason:   fmt.Sprintf("uncompressed size %d exceeds extraction limit %d", total, i.opts.MaxUncompressed),
			Source:   models.SourceArchive,
			Skipped:  true,
		})
		return out
	}

	i.extract(ctx, path, result, &out)
	return out
}

func (i *Inspector) extract(ctx context.Context, path string, result *models.ScanResult, out *Outcome) {
	dir, err := os.MkdirTemp(i.opts.TempDir, i.opts.TempPrefix)
	if err != nil {
		i.logger.Warn("Cannot create extraction directory", zap.String("path", path), zap.Error(err))
		result.NoteSkipped(path, fmt.Sprintf("extraction directory: %v", err))
		return
	}
	defer os.RemoveAll(dir)

	files, err := i.extractor.Extract(ctx, path, dir, i.opts.MaxUncompressed)
	out.Extracted = true

	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		if i.full(result) {
			out.LimitReached = true
			break
		}
		id := MemberID(path, f.Name)
		if f.Err != nil {
			i.logger.Warn("Archive member not extracted", zap.String("id", id), zap.Error(f.Err))
			result.NoteSkipped(id, fmt.Sprintf("member not extracted: %v", f.Err))
			result.AddFile(models.FileRecord{ID: id, Skipped: true})
			continue
		}
		v := i.evaluator.Evaluate(ctx, f.Path, f.Name)
		if v.HashErr != nil {
			result.NoteSkipped(id, fmt.Sprintf("hash check failed: %v", v.HashErr))
		}
		if v.Category != models.Clean {
			result.Record(id, v.Detection())
			out.note(v.Category)
		}
		result.AddFile(models.FileRecord{ID: id, Category: v.Category})
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		i.logger.Warn("Archive extraction failed", zap.String("path", path), zap.Error(err))
		reason := fmt.Sprintf("archive could not be extracted: %v", err)
		switch {
		case errors.Is(err, ErrExtractionLimit):
			reason = "archive expands beyond its declared size"
		case errors.Is(err, ErrEncrypted):
			reason = "password-protected archive"
		}
		result.AddSuspicious(path, reason, models.SourceArchive)
		out.Suspicious = true
	}
}
