package classifier

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
)

// Result is the verdict for a single name
type Result struct {
	Category models.Category
	Reason   string
	Term     string
}

// Flagged reports whether the verdict is anything other than clean
func (r Result) Flagged() bool {
	return r.Category != models.Clean
}

// Detection converts the verdict into a detection record
func (r Result) Detection() models.Detection {
	return models.Detection{Category: r.Category, Reason: r.Reason, Source: models.SourceName}
}

// TermSet is a substring table backed by an Aho-Corasick automaton.
// Terms are lowercased; callers lowercase the text they match.
type TermSet struct {
	terms   []string
	matcher *ahocorasick.Matcher
}

// NewTermSet builds a substring table. Empty and duplicate terms are dropped.
func NewTermSet(terms []string) TermSet {
	terms = normalize(terms)
	if len(terms) == 0 {
		return TermSet{}
	}
	return TermSet{terms: terms, matcher: ahocorasick.NewStringMatcher(terms)}
}

// Terms returns the table entries in table order
func (ts TermSet) Terms() []string {
	return ts.terms
}

// First returns the earliest table entry contained in s
func (ts TermSet) First(s string) (string, bool) {
	if ts.matcher == nil {
		return "", false
	}
	hits := ts.matcher.MatchThreadSafe([]byte(s))
	if len(hits) == 0 {
		return "", false
	}
	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(ts.terms) {
			continue
		}
		if best == -1 || idx < best {
			best = idx
		}
	}
	if best == -1 {
		return "", false
	}
	return ts.terms[best], true
}

// Classifier maps file names to categories. It holds no mutable state and
// is safe for concurrent use.
type Classifier struct {
	tables               Tables
	maliciousSuffixes    []string
	maliciousSubstrings  TermSet
	maliciousNames       map[string]struct{}
	suspiciousSubstrings TermSet
	suspiciousNames      map[string]struct{}
	executableSuffixes   map[string]struct{}
}

// New builds a classifier from the given tables
func New(t Tables) *Classifier {
	return &Classifier{
		tables:               t,
		maliciousSuffixes:    normalize(t.MaliciousSuffixes),
		maliciousSubstrings:  NewTermSet(t.MaliciousSubstrings),
		maliciousNames:       toSet(t.MaliciousNames),
		suspiciousSubstrings: NewTermSet(t.SuspiciousSubstrings),
		suspiciousNames:      toSet(t.SuspiciousNames),
		executableSuffixes:   toSet(t.ExecutableSuffixes),
	}
}

// Tables returns the tables the classifier was built from
func (c *Classifier) Tables() Tables {
	return c.tables
}

// Classify returns the verdict for a file or archive member name.
// Malicious rules are checked before suspicious ones.
func (c *Classifier) Classify(name string) Result {
	lower := strings.ToLower(name)
	base := path.Base(strings.ReplaceAll(lower, "\\", "/"))

	for _, suffix := range c.maliciousSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return Result{Category: models.Malicious, Reason: fmt.Sprintf("ransomware extension %s", suffix), Term: suffix}
		}
	}
	if term, ok := c.maliciousSubstrings.First(lower); ok {
		return Result{Category: models.Malicious, Reason: fmt.Sprintf("malware name pattern %q", term), Term: term}
	}
	if _, ok := c.maliciousNames[base]; ok {
		return Result{Category: models.Malicious, Reason: fmt.Sprintf("known ransom note or dropper name %s", base), Term: base}
	}

	if _, ok := c.suspiciousNames[base]; ok {
		return Result{Category: models.Suspicious, Reason: fmt.Sprintf("suspicious file name %s", base), Term: base}
	}
	if term, ok := c.suspiciousSubstrings.First(lower); ok {
		return Result{Category: models.Suspicious, Reason: fmt.Sprintf("suspicious name pattern %q", term), Term: term}
	}
	if ext, ok := c.doubleExtension(base); ok {
		return Result{Category: models.Suspicious, Reason: fmt.Sprintf("double extension ending in %s", ext), Term: ext}
	}

	return Result{Category: models.Clean}
}

// doubleExtension reports names like "invoice.pdf.exe": an executable suffix
// preceded by another extension. Leading dots of hidden files do not count.
func (c *Classifier) doubleExtension(base string) (string, bool) {
	ext := path.Ext(base)
	if ext == "" {
		return "", false
	}
	if _, ok := c.executableSuffixes[ext]; !ok {
		return "", false
	}
	stem := strings.TrimLeft(strings.TrimSuffix(base, ext), ".")
	if !strings.Contains(stem, ".") {
		return "", false
	}
	return ext, true
}

var defaultClassifier = New(DefaultTables())

// Default returns the classifier built from the canonical tables
func Default() *Classifier {
	return defaultClassifier
}

// ClassifyName classifies a name with the canonical tables
func ClassifyName(name string) models.Category {
	return defaultClassifier.Classify(name).Category
}

func normalize(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}

func toSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, term := range normalize(terms) {
		set[term] = struct{}{}
	}
	return set
}

// Terms lists every term of every table, sorted, for display
func (c *Classifier) Terms() map[string][]string {
	out := map[string][]string{
		"malicious_suffixes":    sortedCopy(c.maliciousSuffixes),
		"malicious_substrings":  sortedCopy(c.maliciousSubstrings.terms),
		"malicious_names":       sortedKeys(c.maliciousNames),
		"suspicious_substrings": sortedCopy(c.suspiciousSubstrings.terms),
		"suspicious_names":      sortedKeys(c.suspiciousNames),
		"executable_suffixes":   sortedKeys(c.executableSuffixes),
	}
	return out
}

func sortedCopy(in []string) []string {
	out := clone(in)
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
