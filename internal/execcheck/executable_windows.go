//go:build windows

package execcheck

import "os"

// isExecutableFile reports whether path is a regular file. Windows has no
// execute permission bit, so every regular file qualifies.
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
