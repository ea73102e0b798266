//go:build !windows

package vault

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fileLock is an exclusive advisory lock held for the lifetime of a session.
type fileLock struct {
	f *os.File
}

// acquireLock takes a non-blocking exclusive flock on path. A lock held by
// another process (or another open vault) yields ErrLocked.
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("vault: failed to lock data file: %w", err)
	}
	return &fileLock{f: f}, nil
}

func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	err := l.f.Close()
	l.f = nil
	return err
}

// insecurePermissions reports whether a file is readable or writable by
// group or others.
func insecurePermissions(info os.FileInfo) bool {
	return info.Mode().Perm()&0077 != 0
}

// availableBytes returns the space available to the current user on the
// filesystem holding dir.
func availableBytes(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("vault: failed to get disk stats: %w", err)
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
