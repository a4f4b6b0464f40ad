package models

import (
	"fmt"
	"strings"
)

// Category is the classification verdict for a file or archive member.
// Values are ordered by severity so they can be compared directly.
type Category int

const (
	Clean Category = iota
	Suspicious
	Malicious
)

// String returns the lowercase category name
func (c Category) String() string {
	switch c {
	case Clean:
		return "clean"
	case Suspicious:
		return "suspicious"
	case Malicious:
		return "malicious"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// ParseCategory parses a category name (case-insensitive)
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clean", "safe":
		return Clean, nil
	case "suspicious":
		return Suspicious, nil
	case "malicious":
		return Malicious, nil
	}
	return Clean, fmt.Errorf("unknown category: %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MaxCategory returns the more severe of two categories
func MaxCategory(a, b Category) Category {
	if b > a {
		return b
	}
	return a
}

// Source identifies the rule family that produced a detection
type Source string

const (
	SourceName      Source = "name"
	SourceHash      Source = "hash"
	SourceHeuristic Source = "heuristic"
	SourceArchive   Source = "archive"
	SourceError     Source = "error"
)

// Detection explains why a file identifier was flagged or skipped
type Detection struct {
	Category Category `json:"category"`
	Reason   string   `json:"reason"`
	Source   Source   `json:"source,omitempty"`
	Skipped  bool     `json:"skipped,omitempty"`
}
