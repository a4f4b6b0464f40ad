//go:build windows

package filesystem

import (
	"syscall"
)

// isHidden checks the dot prefix and the hidden file attribute
func isHidden(path, name string) bool {
	if len(name) > 0 && name[0] == '.' {
		return true
	}
	p, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := syscall.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&syscall.FILE_ATTRIBUTE_HIDDEN != 0
}
