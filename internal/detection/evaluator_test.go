package detection

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/classifier"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/signatures"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
	"go.uber.org/zap"
)

func newTestEvaluator(t *testing.T, sniff bool) *Evaluator {
	t.Helper()
	db := signatures.NewBuiltinDatabase()
	db.Seal()
	m, err := signatures.NewHashMatcher(db, []string{"md5"})
	if err != nil {
		t.Fatalf("NewHashMatcher() error = %v", err)
	}
	return NewEvaluator(classifier.Default(), m, sniff, zap.NewNop())
}

func TestIsHighRisk(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"setup.exe", true},
		{"SETUP.EXE", true},
		{"driver.sys", true},
		{"script.ps1", true},
		{"page.hta", true},
		{"invoice.pdf", false},
		{"ransom.locky", false},
		{"noext", false},
	}

	for _, tt := range tests {
		if got := IsHighRisk(tt.name); got != tt.want {
			t.Errorf("IsHighRisk(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	dir := t.TempDir()
	pe := make([]byte, 128)
	pe[0], pe[1] = 'M', 'Z'

	tests := []struct {
		name       string
		file       string
		content    []byte
		sniff      bool
		want       models.Category
		wantSource models.Source
		wantHashed bool
	}{
		{"clean document", "invoice.pdf", []byte("%PDF-1.4"), false, models.Clean, "", false},
		{"clean executable hashed", "setup.exe", []byte("hello world"), false, models.Clean, "", true},
		{"name suspicious, no hash match", "keygen.exe", []byte("hello world"), false, models.Suspicious, models.SourceName, true},
		{"hash match upgrades clean name", "setup.exe", []byte("password"), false, models.Malicious, models.SourceHash, true},
		{"hash match upgrades suspicious name", "crack.exe", []byte("123456"), false, models.Malicious, models.SourceHash, true},
		{"malicious name kept without match", "trojan.exe", []byte("hello world"), false, models.Malicious, models.SourceName, true},
		{"low risk extension not hashed", "notes.txt", []byte("password"), false, models.Clean, "", false},
		{"ransomware extension", "ransom.locky", []byte("x"), false, models.Malicious, models.SourceName, false},
		{"sniffed executable is hashed", "holiday.jpg", pe, true, models.Clean, "", true},
		{"sniffing disabled", "holiday.jpg", pe, false, models.Clean, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, tt.content, 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			v := newTestEvaluator(t, tt.sniff).Evaluate(context.Background(), path, tt.file)
			if v.Category != tt.want {
				t.Errorf("Category = %v, want %v (reason %q)", v.Category, tt.want, v.Reason)
			}
			if v.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", v.Source, tt.wantSource)
			}
			if v.Hashed != tt.wantHashed {
				t.Errorf("Hashed = %v, want %v", v.Hashed, tt.wantHashed)
			}
			if v.HashErr != nil {
				t.Errorf("HashErr = %v, want nil", v.HashErr)
			}
		})
	}
}

func TestEvaluator_UnreadableFallsBackToName(t *testing.T) {
	e := newTestEvaluator(t, true)
	missing := filepath.Join(t.TempDir(), "keygen.exe")

	v := e.Evaluate(context.Background(), missing, "keygen.exe")
	if v.HashErr == nil {
		t.Fatal("HashErr = nil, want read error")
	}
	if v.Category != models.Suspicious {
		t.Errorf("Category = %v, want suspicious from the name", v.Category)
	}
	if v.Hashed {
		t.Error("Hashed = true for an unreadable file")
	}
}

func TestEvaluator_DisplayName(t *testing.T) {
	e := newTestEvaluator(t, false)
	path := filepath.Join(t.TempDir(), "member-0001")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if v := e.Evaluate(context.Background(), path, "docs/WannaCry.exe"); v.Category != models.Malicious {
		t.Errorf("Category = %v, want malicious from display name", v.Category)
	}
}

func TestEvaluator_NoMatcher(t *testing.T) {
	e := NewEvaluator(classifier.Default(), nil, false, zap.NewNop())
	path := filepath.Join(t.TempDir(), "setup.exe")
	if err := os.WriteFile(path, []byte("password"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	v := e.Evaluate(context.Background(), path, "setup.exe")
	if v.Category != models.Clean || v.Hashed {
		t.Errorf("Evaluate() = %+v, want clean and not hashed", v)
	}
}
