package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/archive"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/classifier"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/config"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/detection"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/filesystem"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/signatures"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
	"go.uber.org/zap"
)

// ProgressCallback is called to report scan progress
type ProgressCallback func(phase string, current, total int, message string)

// Scanner is the scan orchestrator. One Scanner may run several scans; each
// ScanTree call owns its result exclusively.
type Scanner struct {
	config           *config.Config
	logger           *zap.Logger
	signatures       *signatures.Set
	classifier       *classifier.Classifier
	evaluator        *detection.Evaluator
	inspector        *archive.Inspector
	walker           *filesystem.Walker
	extractor        archive.Extractor
	progressCallback ProgressCallback
}

// NewScanner creates a new scanner instance
func NewScanner(cfg *config.Config, logger *zap.Logger) *Scanner {
	return &Scanner{
		config: cfg,
		logger: logger,
	}
}

// Init validates the configuration, loads signatures and builds the pipeline.
// ScanTree calls it on first use; call it explicitly before scanning from
// several goroutines.
func (s *Scanner) Init() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	loader := signatures.NewLoader(s.config.SignaturesPath)
	set, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load signatures: %w", err)
	}
	s.signatures = set

	tables := classifier.DefaultTables()
	tables.Extend(set.Names)
	s.classifier = classifier.New(tables)

	matcher, err := signatures.NewHashMatcher(set.Hashes, s.config.NormalizedHashAlgorithms())
	if err != nil {
		return fmt.Errorf("failed to create hash matcher: %w", err)
	}

	s.logger.Info("Loaded signatures",
		zap.Int("hashes", set.Hashes.Len()),
		zap.Int("name_terms", tables.Size()),
		zap.Int("files", len(set.Files)),
		zap.Strings("algorithms", matcher.Algorithms()))

	s.evaluator = detection.NewEvaluator(s.classifier, matcher, s.config.SniffContent, s.logger)
	if !s.config.Heuristics {
		s.evaluator.SetHeuristics(nil)
	}
	s.inspector = archive.NewInspector(s.evaluator, archive.Options{
		MaxUncompressed: s.config.ArchiveLimitBytes(),
		MaxFindings:     s.config.MaxFindings,
		TempDir:         s.config.TempDir,
		TempPrefix:      s.config.TempPrefix,
	}, s.logger)
	if s.extractor != nil {
		s.inspector.SetExtractor(s.extractor)
	}
	s.walker = filesystem.NewWalker(s.config.WalkOptions(), s.logger)

	return nil
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(cb ProgressCallback) {
	s.progressCallback = cb
}

// SetExtractor replaces the archive extractor
func (s *Scanner) SetExtractor(e archive.Extractor) {
	s.extractor = e
	if s.inspector != nil {
		s.inspector.SetExtractor(e)
	}
}

// Signatures returns the loaded signature set, nil before Init
func (s *Scanner) Signatures() *signatures.Set {
	return s.signatures
}

// Classifier returns the name classifier, nil before Init
func (s *Scanner) Classifier() *classifier.Classifier {
	return s.classifier
}

// reportProgress calls the progress callback if set
func (s *Scanner) reportProgress(phase string, current, total int, message string) {
	if s.progressCallback != nil {
		s.progressCallback(phase, current, total, message)
	}
}

// ScanTree walks root and classifies every regular file below it. It never
// fails: problems end up in the returned result, which is always finalized.
// Cancelling ctx stops the scan between files.
func (s *Scanner) ScanTree(ctx context.Context, root string) *models.ScanResult {
	result := models.NewScanResult(root)

	if s.evaluator == nil {
		if err := s.Init(); err != nil {
			s.logger.Error("Scanner initialization failed", zap.Error(err))
			return s.fail(result, err)
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		s.logger.Error("Cannot access scan root", zap.String("path", root), zap.Error(err))
		return s.fail(result, err)
	}
	if !info.IsDir() {
		return s.fail(result, fmt.Errorf("%s is not a directory", root))
	}

	s.logger.Info("Starting scan", zap.String("path", root), zap.String("scan_id", result.ScanID))

	// Count files first
	s.reportProgress("counting", 0, 0, "Counting files...")
	var files []*models.FileInfo
	walkErr := s.walker.Walk(ctx, root, func(fi *models.FileInfo) error {
		files = append(files, fi)
		return nil
	})
	result.TotalFiles = len(files)
	s.reportProgress("counting", len(files), len(files), fmt.Sprintf("Found %d files to scan", len(files)))

	if walkErr != nil {
		if isCancel(walkErr) {
			return s.finish(result, models.StatusCancelled)
		}
		s.logger.Warn("Walk stopped early", zap.String("path", root), zap.Error(walkErr))
		result.Errors++
		result.NoteSkipped(root, fmt.Sprintf("walk stopped early: %v", walkErr))
	}

	status := models.StatusCompleted
	for i, fi := range files {
		if ctx.Err() != nil {
			status = models.StatusCancelled
			break
		}
		if s.limitReached(result) {
			s.logger.Info("Findings limit reached, stopping scan",
				zap.Int("findings", result.Findings()),
				zap.Int("limit", s.config.MaxFindings))
			status = models.StatusLimitReached
			break
		}

		s.scanFile(ctx, fi, result)
		s.reportProgress("scanning", i+1, len(files), fi.Path)
	}

	// a single archive can cross the limit on its own
	if status == models.StatusCompleted && s.limitReached(result) {
		status = models.StatusLimitReached
	}

	return s.finish(result, status)
}

func (s *Scanner) limitReached(result *models.ScanResult) bool {
	return s.config.MaxFindings > 0 && result.Findings() >= s.config.MaxFindings
}

// scanFile runs the pipeline for one file. Panics are contained here so one
// bad file cannot abort the walk.
func (s *Scanner) scanFile(ctx context.Context, fi *models.FileInfo, result *models.ScanResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Unexpected failure while scanning file",
				zap.String("path", fi.Path),
				zap.Any("panic", r))
			result.Errors++
			result.SkippedFiles++
			result.NoteSkipped(fi.Path, fmt.Sprintf("unexpected error: %v", r))
			result.AddFile(models.FileRecord{ID: fi.Path, Skipped: true})
		}
	}()

	if maxSize := s.config.MaxFileSizeBytes(); fi.Size > maxSize {
		s.logger.Debug("File too large, skipping",
			zap.String("path", fi.Path),
			zap.Int64("size", fi.Size))
		result.SkippedFiles++
		result.NoteSkipped(fi.Path, fmt.Sprintf("file size %s exceeds limit %s",
			filesystem.FormatSize(fi.Size), filesystem.FormatSize(maxSize)))
		result.AddFile(models.FileRecord{ID: fi.Path, Skipped: true})
		return
	}

	if archive.Supported(fi.Name) {
		out := s.inspector.Inspect(ctx, fi.Path, result)
		result.ArchivesInspected++
		result.ScannedFiles++

		category := result.CategoryOf(fi.Path)
		if out.Malicious {
			category = models.Malicious
		} else if out.Suspicious {
			category = models.MaxCategory(category, models.Suspicious)
		}
		result.AddFile(models.FileRecord{ID: fi.Path, Category: category})
		return
	}

	if archive.IsArchive(fi.Name) {
		s.logger.Debug("Archive format not inspected, using name rules", zap.String("path", fi.Path))
	}

	v := s.evaluator.EvaluateIn(ctx, fi.Path, fi.Name, relativeDir(result.Root, fi.Path))
	if v.HashErr != nil {
		result.Errors++
		result.NoteSkipped(fi.Path, fmt.Sprintf("hash check skipped: %v", v.HashErr))
	}
	if v.Category != models.Clean {
		result.Record(fi.Path, v.Detection())
	}
	result.ScannedFiles++
	result.AddFile(models.FileRecord{ID: fi.Path, Category: v.Category})
}

// relativeDir is the slash-separated directory of path below root, "" at the top level
func relativeDir(root, path string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (s *Scanner) fail(result *models.ScanResult, err error) *models.ScanResult {
	result.Errors++
	result.NoteSkipped(result.Root, err.Error())
	return s.finish(result, models.StatusFailed)
}

func (s *Scanner) finish(result *models.ScanResult, status models.ScanStatus) *models.ScanResult {
	result.Finalize(status)
	s.logger.Info("Scan completed",
		zap.String("status", string(result.Status)),
		zap.Duration("duration", result.Duration()),
		zap.Int("files_scanned", result.ScannedFiles),
		zap.Int("malicious", len(result.MaliciousFiles)),
		zap.Int("suspicious", len(result.SuspiciousFiles)))
	return result
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
