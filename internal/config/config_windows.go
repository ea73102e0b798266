//go:build windows

package config

import (
	"os"
)

// openConfigFile opens the config file on Windows, where O_NOFOLLOW is
// unavailable; symlinks are rejected with an Lstat check instead.
func openConfigFile(path string) (*os.File, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, ErrSymlink
	}
	return os.Open(path)
}

// insecurePermissions is always false; Windows uses ACLs.
func insecurePermissions(_ os.FileMode) bool {
	return false
}

// checkFileOwnership on Windows is a no-op.
func checkFileOwnership(_ os.FileInfo) error {
	return nil
}
