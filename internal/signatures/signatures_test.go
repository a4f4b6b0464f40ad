package signatures

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestHashDatabase_Builtin(t *testing.T) {
	db := NewBuiltinDatabase()
	db.Seal()

	tests := []struct {
		algo   string
		digest string
		want   bool
	}{
		{"md5", "5f4dcc3b5aa765d61d8327deb882cf99", true},
		{"MD5", "E10ADC3949BA59ABBE56E057F20F883E", true},
		{"md5", "25f9e794323b453885f5181f1b624d0b", true},
		{"md5", "d41d8cd98f00b204e9800998ecf8427e", false},
		{"sha256", "5f4dcc3b5aa765d61d8327deb882cf99", false},
	}

	for _, tt := range tests {
		if got := db.Contains(tt.algo, tt.digest); got != tt.want {
			t.Errorf("Contains(%s, %s) = %v, want %v", tt.algo, tt.digest, got, tt.want)
		}
	}

	if db.Len() != 3 {
		t.Errorf("Len() = %d, want 3", db.Len())
	}
	if db.Count("md5") != 3 {
		t.Errorf("Count(md5) = %d, want 3", db.Count("md5"))
	}
}

func TestHashDatabase_Add(t *testing.T) {
	tests := []struct {
		name    string
		sig     models.HashSignature
		wantErr error
		ok      bool
	}{
		{"valid sha256", models.HashSignature{Algorithm: "sha256", Digest: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"}, nil, true},
		{"unknown algorithm", models.HashSignature{Algorithm: "crc32", Digest: "0d4a1185"}, ErrUnsupportedAlgorithm, false},
		{"not hex", models.HashSignature{Algorithm: "md5", Digest: "zz"}, nil, false},
		{"wrong length", models.HashSignature{Algorithm: "md5", Digest: "abcd"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := NewHashDatabase()
			err := db.Add(tt.sig)
			if tt.ok && err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("Add() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Add() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashDatabase_SealedAndUnsealed(t *testing.T) {
	db := NewHashDatabase()
	db.Seal()
	if db.Contains("md5", "5f4dcc3b5aa765d61d8327deb882cf99") {
		t.Error("empty sealed database reported a match")
	}

	sig := models.HashSignature{Algorithm: "md5", Digest: "5f4dcc3b5aa765d61d8327deb882cf99", Name: "sample"}
	if err := db.Add(sig); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !db.Contains("md5", sig.Digest) {
		t.Error("unsealed database missed an added digest")
	}
	db.Seal()
	got, ok := db.Lookup("md5", sig.Digest)
	if !ok || got.Name != "sample" {
		t.Errorf("Lookup() = %+v, %v, want sample", got, ok)
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hashes.yaml"), `
hashes:
  - algorithm: sha256
    digest: B94D27B9934D3E08A52E52D7DA7DABFAC484EFE37A5380EE9088F7ACE2EFCDE9
    name: hello-world-dropper
names:
  malicious_substrings: [emotet]
  malicious_suffixes: [.deadbolt]
`)
	writeFile(t, filepath.Join(dir, "nested", "names.yml"), `
names:
  suspicious_substrings: [payroll]
`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a signature file")

	set, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(set.Files) != 2 {
		t.Errorf("Files = %v, want 2 entries", set.Files)
	}
	if set.Hashes.Len() != 4 {
		t.Errorf("Hashes.Len() = %d, want 4", set.Hashes.Len())
	}
	if !set.Hashes.Contains("sha256", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9") {
		t.Error("loaded sha256 digest not found")
	}
	if len(set.Names.MaliciousSubstrings) != 1 || len(set.Names.MaliciousSuffixes) != 1 || len(set.Names.SuspiciousSubstrings) != 1 {
		t.Errorf("Names = %+v, want one term per table", set.Names)
	}
}

func TestLoader_MissingPath(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing")} {
		set, err := NewLoader(path).Load()
		if err != nil {
			t.Fatalf("Load(%q) error = %v", path, err)
		}
		if set.Hashes.Len() != len(builtinHashes) {
			t.Errorf("Load(%q) Hashes.Len() = %d, want %d", path, set.Hashes.Len(), len(builtinHashes))
		}
		if !set.Names.Empty() {
			t.Errorf("Load(%q) Names = %+v, want empty", path, set.Names)
		}
	}
}

func TestLoader_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.yaml"), "hashes:\n  - algorithm: crc32\n    digest: 0d4a1185\n")

	if _, err := NewLoader(dir).Load(); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("Load() error = %v, want %v", err, ErrUnsupportedAlgorithm)
	}

	writeFile(t, filepath.Join(dir, "bad.yaml"), "hashes: [\n")
	if _, err := NewLoader(dir).Load(); err == nil {
		t.Error("Load() expected YAML error")
	}
}

func TestHashMatcher_Match(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.exe")
	good := filepath.Join(dir, "good.exe")
	writeFile(t, bad, "password")
	writeFile(t, good, "hello world")

	db := NewBuiltinDatabase()
	db.Seal()
	m, err := NewHashMatcher(db, []string{"sha256", "blake3"})
	if err != nil {
		t.Fatalf("NewHashMatcher() error = %v", err)
	}
	if got := m.Algorithms(); len(got) != 3 {
		t.Errorf("Algorithms() = %v, want blake3, md5, sha256", got)
	}

	res, err := m.Match(context.Background(), bad)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !res.Matched || res.Algorithm != "md5" || res.Digest != "5f4dcc3b5aa765d61d8327deb882cf99" {
		t.Errorf("Match(bad) = %+v, want md5 match", res)
	}

	res, err = m.Match(context.Background(), good)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if res.Matched {
		t.Errorf("Match(good) = %+v, want no match", res)
	}
	if res.Digests["md5"] != "5eb63bbbe01eeed093cb22bb8f5acdc3" {
		t.Errorf("md5 = %s, want 5eb63bbbe01eeed093cb22bb8f5acdc3", res.Digests["md5"])
	}
	if res.Digests["sha256"] != "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9" {
		t.Errorf("sha256 = %s", res.Digests["sha256"])
	}
	if len(res.Digests["blake3"]) != 64 {
		t.Errorf("blake3 digest length = %d, want 64", len(res.Digests["blake3"]))
	}
}

func TestHashMatcher_Errors(t *testing.T) {
	db := NewBuiltinDatabase()
	db.Seal()

	if _, err := NewHashMatcher(db, []string{"crc32"}); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("NewHashMatcher(crc32) error = %v, want %v", err, ErrUnsupportedAlgorithm)
	}

	m, err := NewHashMatcher(db, nil)
	if err != nil {
		t.Fatalf("NewHashMatcher() error = %v", err)
	}
	if _, err := m.Match(context.Background(), filepath.Join(t.TempDir(), "vanished.exe")); err == nil {
		t.Error("Match() on missing file expected error")
	}

	path := filepath.Join(t.TempDir(), "file.exe")
	writeFile(t, path, "password")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Match(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("Match() with cancelled context error = %v, want %v", err, context.Canceled)
	}
}
