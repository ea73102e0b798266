package vault

import (
	"fmt"
	"os"
	"path/filepath"
)

// minFreeSpace is the floor for the pre-write disk space check.
const minFreeSpace = 64 * 1024

// writeTemp writes data to a new temporary file next to path and returns
// its name. The file is synced and closed; the caller renames or removes it.
func writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return "", fmt.Errorf("vault: failed to create data directory: %w", err)
	}
	if err := checkDiskSpaceForWrite(dir, len(data)); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("vault: failed to create temp file: %w", err)
	}
	tempPath := f.Name()

	fail := func(err error) (string, error) {
		f.Close()
		os.Remove(tempPath)
		return "", err
	}

	if err := f.Chmod(FileMode); err != nil {
		return fail(fmt.Errorf("vault: failed to set temp file permissions: %w", err))
	}
	if _, err := f.Write(data); err != nil {
		return fail(fmt.Errorf("vault: failed to write temp file: %w", err))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("vault: failed to sync temp file: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("vault: failed to close temp file: %w", err)
	}
	return tempPath, nil
}

// writeFileAtomic replaces path with data via write-then-rename, so readers
// see either the old or the new content, never a partial write.
func writeFileAtomic(path string, data []byte) error {
	tempPath, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("vault: failed to replace data file: %w", err)
	}
	return nil
}

// checkDiskSpaceForWrite verifies sufficient disk space before a write.
// A failure to stat the filesystem does not block the write.
func checkDiskSpaceForWrite(dir string, dataSize int) error {
	available, err := availableBytes(dir)
	if err != nil {
		return nil
	}

	required := uint64(minFreeSpace)
	if uint64(dataSize)*2 > required {
		required = uint64(dataSize) * 2
	}
	if available < required {
		return fmt.Errorf("%w: only %d bytes available, need at least %d bytes",
			ErrInsufficientDisk, available, required)
	}
	return nil
}
