//go:build !windows

package filesystem

// isHidden checks if a file is hidden (dot prefix)
func isHidden(path, name string) bool {
	return len(name) > 0 && name[0] == '.'
}
