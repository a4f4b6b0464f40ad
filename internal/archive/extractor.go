package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsafeEntryPath is returned for entry names that would escape the extraction directory
	ErrUnsafeEntryPath = errors.New("unsafe archive entry path")
	// ErrExtractionLimit is returned when extracted data exceeds the configured limit
	// or an entry expands beyond the size declared in its header
	ErrExtractionLimit = errors.New("archive extraction limit exceeded")
	// ErrEncrypted is returned for password-protected entries
	ErrEncrypted = errors.New("archive entry is encrypted")
)

// ExtractedFile is one archive member handled by an Extractor
type ExtractedFile struct {
	Name string // member name inside the archive
	Path string // location on disk, empty when Err is set
	Size int64
	// Err is set when this member alone could not be written, for example
	// because its path collides with another member. Extraction continues.
	Err error
}

// Extractor writes the members of an archive into dir. It returns the files
// handled so far together with any error that stopped the extraction.
type Extractor interface {
	Extract(ctx context.Context, archivePath, dir string, limit int64) ([]ExtractedFile, error)
}

// ZipExtractor extracts ZIP archives
type ZipExtractor struct{}

// Extract implements Extractor. Unsafe entry names are skipped and never written.
func (ZipExtractor) Extract(ctx context.Context, archivePath, dir string, limit int64) ([]ExtractedFile, error) {
	zr, err := openZip(archivePath)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var (
		files   []ExtractedFile
		written int64
	)
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		if isDirEntry(f) {
			continue
		}
		if isEncrypted(f) {
			return files, fmt.Errorf("%w: %s", ErrEncrypted, f.Name)
		}
		dest, err := entryPath(dir, f.Name)
		if err != nil {
			continue
		}

		declared := int64(f.UncompressedSize64)
		if declared < 0 || declared > limit-written {
			return files, fmt.Errorf("extract %s: %w", f.Name, ErrExtractionLimit)
		}

		out, err := createEntryFile(dest)
		if err != nil {
			files = append(files, ExtractedFile{Name: f.Name, Err: err})
			continue
		}
		n, err := extractEntry(f, out, declared)
		written += n
		if err != nil {
			return files, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		files = append(files, ExtractedFile{Name: f.Name, Path: dest, Size: n})
	}

	return files, nil
}

func createEntryFile(dest string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
}

// extractEntry copies one entry into out and closes it
func extractEntry(f *zip.File, out *os.File, declared int64) (int64, error) {
	defer out.Close()

	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	// one byte past the declared size is enough to detect a lying header
	n, err := io.Copy(out, io.LimitReader(rc, declared+1))
	if err != nil {
		return n, err
	}
	if n > declared {
		return n, ErrExtractionLimit
	}
	return n, nil
}

// checkEntryName rejects absolute names and names that climb out of the archive root
func checkEntryName(name string) (string, error) {
	clean := strings.ReplaceAll(name, "\\", "/")
	if clean == "" || strings.HasPrefix(clean, "/") || !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeEntryPath, name)
	}
	return filepath.FromSlash(clean), nil
}

// entryPath maps an entry name to a location inside dir
func entryPath(dir, name string) (string, error) {
	rel, err := checkEntryName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, rel), nil
}

func openZip(path string) (*zip.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		// the reader is still usable; entry names are validated separately
		if errors.Is(err, zip.ErrInsecurePath) && zr != nil {
			return zr, nil
		}
		return nil, err
	}
	return zr, nil
}

func isDirEntry(f *zip.File) bool {
	return strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
}

// isEncrypted checks general purpose flag bit 0
func isEncrypted(f *zip.File) bool {
	return f.Flags&0x1 != 0
}
