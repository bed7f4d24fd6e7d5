//go:build !windows

package execcheck

import "os"

// isExecutableFile reports whether path is a regular file with the owner
// execute bit set. Symlinks are followed, as exec would follow them.
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o100 != 0
}
