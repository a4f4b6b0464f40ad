package models

import "strings"

// HashSignature is a known-bad content digest
type HashSignature struct {
	Algorithm string `yaml:"algorithm" json:"algorithm"`
	Digest    string `yaml:"digest" json:"digest"`
	Name      string `yaml:"name" json:"name,omitempty"`
}

// Normalize lowercases the algorithm and digest and strips surrounding space
func (s *HashSignature) Normalize() {
	s.Algorithm = strings.ToLower(strings.TrimSpace(s.Algorithm))
	s.Digest = strings.ToLower(strings.TrimSpace(s.Digest))
}

// NameRules are additional name-classifier terms shipped in signature files
type NameRules struct {
	MaliciousSubstrings  []string `yaml:"malicious_substrings" json:"malicious_substrings,omitempty"`
	MaliciousSuffixes    []string `yaml:"malicious_suffixes" json:"malicious_suffixes,omitempty"`
	SuspiciousSubstrings []string `yaml:"suspicious_substrings" json:"suspicious_substrings,omitempty"`
}

// Merge appends the terms of other to r
func (r *NameRules) Merge(other NameRules) {
	r.MaliciousSubstrings = append(r.MaliciousSubstrings, other.MaliciousSubstrings...)
	r.MaliciousSuffixes = append(r.MaliciousSuffixes, other.MaliciousSuffixes...)
	r.SuspiciousSubstrings = append(r.SuspiciousSubstrings, other.SuspiciousSubstrings...)
}

// Empty reports whether r carries no terms
func (r NameRules) Empty() bool {
	return len(r.MaliciousSubstrings) == 0 && len(r.MaliciousSuffixes) == 0 && len(r.SuspiciousSubstrings) == 0
}
