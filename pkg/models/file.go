package models

import (
	"time"
)

// FileInfo contains basic file information collected by the walker
type FileInfo struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	IsDir     bool
	IsSymlink bool
	IsHidden  bool
}

// FileRecord is the per-file status entry kept in a scan result
type FileRecord struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Skipped  bool     `json:"skipped,omitempty"`
}
