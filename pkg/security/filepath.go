package security

import "strings"

// ContainsUnsafePath reports whether a user supplied path (for example the
// SHOTTY_LOG_DIR override) contains parent directory segments or NUL bytes.
// Absolute paths are allowed.
func ContainsUnsafePath(path string) bool {
	if path == "" {
		return false
	}
	if strings.ContainsRune(path, 0) {
		return true
	}
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}
