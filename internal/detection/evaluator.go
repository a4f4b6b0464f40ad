package detection

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/classifier"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/filesystem"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/signatures"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
	"go.uber.org/zap"
)

// highRiskExtensions are executable-class extensions that trigger hash matching
var highRiskExtensions = map[string]bool{
	".exe": true, ".dll": true, ".sys": true, ".bat": true, ".cmd": true, ".com": true,
	".scr": true, ".pif": true, ".vbs": true, ".vbe": true, ".js": true, ".jse": true,
	".wsf": true, ".wsh": true, ".msc": true, ".jar": true, ".ps1": true, ".reg": true,
	".msi": true, ".msp": true, ".hta": true,
}

// IsHighRisk reports whether name carries an executable-class extension
func IsHighRisk(name string) bool {
	return highRiskExtensions[strings.ToLower(filepath.Ext(name))]
}

// HighRiskExtensions returns the executable-class extensions, sorted
func HighRiskExtensions() []string {
	exts := make([]string, 0, len(highRiskExtensions))
	for ext := range highRiskExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Verdict is the outcome of the per-file pipeline
type Verdict struct {
	Category models.Category
	Reason   string
	Source   models.Source
	HighRisk bool
	Hashed   bool
	Hash     signatures.Match
	// HashErr is set when the file could not be read for hashing.
	// The name verdict is kept in that case.
	HashErr error
}

// Detection converts the verdict into a detection record
func (v Verdict) Detection() models.Detection {
	return models.Detection{Category: v.Category, Reason: v.Reason, Source: v.Source}
}

// Evaluator runs the name classifier and, for high-risk files, the hash matcher
type Evaluator struct {
	classifier *classifier.Classifier
	matcher    *signatures.HashMatcher
	heuristics *Heuristics
	sniff      bool
	logger     *zap.Logger
}

// NewEvaluator creates a new per-file evaluator with the default heuristics.
// A nil matcher disables hashing.
func NewEvaluator(c *classifier.Classifier, m *signatures.HashMatcher, sniff bool, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		classifier: c,
		matcher:    m,
		heuristics: DefaultHeuristics(),
		sniff:      sniff,
		logger:     logger,
	}
}

// SetHeuristics replaces the heuristic rules; nil disables them
func (e *Evaluator) SetHeuristics(h *Heuristics) {
	e.heuristics = h
}

// Classifier returns the name classifier used by the evaluator
func (e *Evaluator) Classifier() *classifier.Classifier {
	return e.classifier
}

// ClassifyName runs only the name stage
func (e *Evaluator) ClassifyName(name string) classifier.Result {
	return e.classifier.Classify(name)
}

// Evaluate classifies the file at path. displayName is the name the rules see,
// which for archive members is the member name rather than the temp file name.
func (e *Evaluator) Evaluate(ctx context.Context, path, displayName string) Verdict {
	location := ""
	if i := strings.LastIndexAny(displayName, "/\\"); i >= 0 {
		location = displayName[:i]
	}
	return e.EvaluateIn(ctx, path, displayName, location)
}

// EvaluateIn is Evaluate with an explicit location, the directory of the file
// relative to the scanned root, which location rules look at.
func (e *Evaluator) EvaluateIn(ctx context.Context, path, displayName, location string) Verdict {
	name := e.classifier.Classify(displayName)
	v := Verdict{Category: name.Category, Reason: name.Reason}
	if name.Flagged() {
		v.Source = models.SourceName
	}

	if e.heuristics != nil && v.Category != models.Malicious {
		hit, err := e.heuristics.Check(path, displayName, location)
		if err != nil {
			e.logger.Debug("Heuristic check failed", zap.String("path", path), zap.Error(err))
		}
		if hit.Category > v.Category {
			v.Category = hit.Category
			v.Reason = hit.Reason
			v.Source = models.SourceHeuristic
		}
	}

	v.HighRisk = IsHighRisk(displayName)
	if !v.HighRisk && e.sniff {
		kind, err := filesystem.Sniff(path)
		if err != nil {
			e.logger.Debug("Content sniff failed", zap.String("path", path), zap.Error(err))
		} else if kind.Executable {
			v.HighRisk = true
		}
	}

	if !v.HighRisk || e.matcher == nil {
		return v
	}

	match, err := e.matcher.Match(ctx, path)
	if err != nil {
		v.HashErr = err
		e.logger.Warn("Hash check failed", zap.String("path", path), zap.Error(err))
		return v
	}
	v.Hashed = true
	v.Hash = match

	if match.Matched {
		v.Category = models.Malicious
		v.Source = models.SourceHash
		v.Reason = fmt.Sprintf("known malicious %s digest %s", match.Algorithm, match.Digest)
		if match.Name != "" {
			v.Reason += " (" + match.Name + ")"
		}
	}

	return v
}
