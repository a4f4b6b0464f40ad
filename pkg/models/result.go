package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ScanStatus describes how a scan ended
type ScanStatus string

const (
	StatusInProgress   ScanStatus = "in_progress"
	StatusCompleted    ScanStatus = "completed"
	StatusCancelled    ScanStatus = "cancelled"
	StatusLimitReached ScanStatus = "limit_reached"
	StatusFailed       ScanStatus = "failed"
)

// ScanResult contains the outcome of one scan invocation.
// It is owned by the invocation that created it and becomes read-only after Finalize.
type ScanResult struct {
	ScanID    string     `json:"scan_id"`
	Root      string     `json:"root"`
	Status    ScanStatus `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`

	TotalFiles        int `json:"total_files"`
	ScannedFiles      int `json:"scanned_files"`
	SkippedFiles      int `json:"skipped_files"`
	ArchivesInspected int `json:"archives_inspected"`
	Errors            int `json:"errors"`

	MaliciousFiles   []string               `json:"malicious_files"`
	SuspiciousFiles  []string               `json:"suspicious_files"`
	DetectionDetails map[string][]Detection `json:"detection_details"`
	Files            []FileRecord           `json:"scanned_file_list,omitempty"`

	ScanDuration float64 `json:"scan_duration"` // seconds

	malicious  map[string]struct{}
	suspicious map[string]struct{}
	final      bool
}

// NewScanResult creates an in-progress result for the given root
func NewScanResult(root string) *ScanResult {
	return &ScanResult{
		ScanID:           newScanID(),
		Root:             root,
		Status:           StatusInProgress,
		StartTime:        time.Now(),
		MaliciousFiles:   []string{},
		SuspiciousFiles:  []string{},
		DetectionDetails: make(map[string][]Detection),
		malicious:        make(map[string]struct{}),
		suspicious:       make(map[string]struct{}),
	}
}

func newScanID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// Record routes a detection to the list that matches its category and stores the detail
func (r *ScanResult) Record(id string, d Detection) {
	switch d.Category {
	case Malicious:
		r.AddMalicious(id, d.Reason, d.Source)
	case Suspicious:
		r.AddSuspicious(id, d.Reason, d.Source)
	default:
		r.AddDetail(id, d)
	}
}

// AddMalicious flags id as malicious. An id previously listed as suspicious
// is moved so the two lists stay disjoint.
func (r *ScanResult) AddMalicious(id, reason string, source Source) {
	if r.final {
		return
	}
	r.AddDetail(id, Detection{Category: Malicious, Reason: reason, Source: source})
	if _, ok := r.malicious[id]; ok {
		return
	}
	if _, ok := r.suspicious[id]; ok {
		delete(r.suspicious, id)
		r.SuspiciousFiles = removeString(r.SuspiciousFiles, id)
	}
	r.malicious[id] = struct{}{}
	r.MaliciousFiles = append(r.MaliciousFiles, id)
}

// AddSuspicious flags id as suspicious unless it is already malicious
func (r *ScanResult) AddSuspicious(id, reason string, source Source) {
	if r.final {
		return
	}
	r.AddDetail(id, Detection{Category: Suspicious, Reason: reason, Source: source})
	if _, ok := r.malicious[id]; ok {
		return
	}
	if _, ok := r.suspicious[id]; ok {
		return
	}
	r.suspicious[id] = struct{}{}
	r.SuspiciousFiles = append(r.SuspiciousFiles, id)
}

// AddDetail appends a detection detail without touching the flagged lists
func (r *ScanResult) AddDetail(id string, d Detection) {
	if r.final {
		return
	}
	r.DetectionDetails[id] = append(r.DetectionDetails[id], d)
}

// NoteSkipped records that id could not be (fully) processed
func (r *ScanResult) NoteSkipped(id, reason string) {
	r.AddDetail(id, Detection{Category: Clean, Reason: reason, Source: SourceError, Skipped: true})
}

// AddFile appends a per-file status record
func (r *ScanResult) AddFile(rec FileRecord) {
	if r.final {
		return
	}
	r.Files = append(r.Files, rec)
}

// CategoryOf returns the flagged category of id, Clean when it is not listed
func (r *ScanResult) CategoryOf(id string) Category {
	if _, ok := r.malicious[id]; ok {
		return Malicious
	}
	if _, ok := r.suspicious[id]; ok {
		return Suspicious
	}
	return Clean
}

// Findings returns the combined number of malicious and suspicious identifiers
func (r *ScanResult) Findings() int {
	return len(r.MaliciousFiles) + len(r.SuspiciousFiles)
}

// Finalize stamps the end time and duration. Later mutations are ignored.
func (r *ScanResult) Finalize(status ScanStatus) {
	if r.final {
		return
	}
	r.Status = status
	r.EndTime = time.Now()
	r.ScanDuration = r.EndTime.Sub(r.StartTime).Seconds()
	if r.ScannedFiles > r.TotalFiles {
		r.TotalFiles = r.ScannedFiles
	}
	r.final = true
}

// IsFinal reports whether Finalize has been called
func (r *ScanResult) IsFinal() bool {
	return r.final
}

// Duration returns the scan duration as a time.Duration
func (r *ScanResult) Duration() time.Duration {
	return time.Duration(r.ScanDuration * float64(time.Second))
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
