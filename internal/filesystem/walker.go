package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WalkOptions controls which entries the walker reports
type WalkOptions struct {
	Exclude        []string
	SkipHidden     bool
	FollowSymlinks bool
	// MaxIOPerSecond throttles the rate at which files are handed out; 0 disables it
	MaxIOPerSecond int
}

// Walker walks the filesystem and finds files to scan
type Walker struct {
	opts    WalkOptions
	logger  *zap.Logger
	exclude map[string]bool
	limiter *rate.Limiter
}

// NewWalker creates a new filesystem walker
func NewWalker(opts WalkOptions, logger *zap.Logger) *Walker {
	// Build exclude map for fast lookup
	exclude := make(map[string]bool)
	for _, dir := range opts.Exclude {
		exclude[dir] = true
	}

	var limiter *rate.Limiter
	if opts.MaxIOPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.MaxIOPerSecond), opts.MaxIOPerSecond)
	}

	return &Walker{
		opts:    opts,
		logger:  logger,
		exclude: exclude,
		limiter: limiter,
	}
}

// Walk visits every regular file below root in lexical order. Unreadable
// directories are logged and skipped. Returning filepath.SkipAll from fn ends
// the walk without error.
func (w *Walker) Walk(ctx context.Context, root string, fn func(*models.FileInfo) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "walk", Path: root, Err: errors.New("not a directory")}
	}

	visited := make(map[string]bool)
	if real, err := filepath.EvalSymlinks(root); err == nil {
		visited[real] = true
	}

	stack := []string{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			w.logger.Warn("Error reading directory", zap.String("path", dir), zap.Error(err))
			continue
		}

		// Push subdirectories in reverse so they pop in lexical order
		var subdirs []string
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}

			path := filepath.Join(dir, entry.Name())
			fileInfo, isDir, ok := w.inspect(path, entry, visited)
			if !ok {
				continue
			}
			if isDir {
				subdirs = append(subdirs, path)
				continue
			}

			if w.limiter != nil {
				if err := w.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			if err := fn(fileInfo); err != nil {
				if errors.Is(err, filepath.SkipAll) {
					return nil
				}
				return err
			}
		}
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return nil
}

// inspect decides what to do with one directory entry
func (w *Walker) inspect(path string, entry fs.DirEntry, visited map[string]bool) (*models.FileInfo, bool, bool) {
	name := entry.Name()
	info, err := entry.Info()
	if err != nil {
		w.logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
		return nil, false, false
	}

	isSymlink := info.Mode()&os.ModeSymlink != 0
	if isSymlink {
		if !w.opts.FollowSymlinks {
			w.logger.Debug("Skipping symlink", zap.String("path", path))
			return nil, false, false
		}
		target, err := os.Stat(path)
		if err != nil {
			w.logger.Warn("Broken symlink", zap.String("path", path), zap.Error(err))
			return nil, false, false
		}
		info = target
	}

	hidden := isHidden(path, name)
	if hidden && w.opts.SkipHidden {
		w.logger.Debug("Skipping hidden entry", zap.String("path", path))
		return nil, false, false
	}

	if info.IsDir() {
		if w.exclude[name] {
			w.logger.Debug("Skipping excluded directory", zap.String("path", path))
			return nil, false, false
		}
		if real, err := filepath.EvalSymlinks(path); err == nil {
			if visited[real] {
				w.logger.Debug("Skipping already visited directory", zap.String("path", path))
				return nil, false, false
			}
			visited[real] = true
		}
		return nil, true, true
	}

	if !info.Mode().IsRegular() {
		w.logger.Debug("Skipping non-regular file", zap.String("path", path))
		return nil, false, false
	}

	return &models.FileInfo{
		Path:      path,
		Name:      name,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		IsSymlink: isSymlink,
		IsHidden:  hidden,
	}, false, true
}
