// Package config loads the optional pwkeep configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/forest6511/pwkeep/internal/logging"
	"github.com/forest6511/pwkeep/pkg/vault"
)

// FileName is the config file looked up in the data directory.
const FileName = "config.yaml"

// DefaultDirName is the data directory created under the user's home.
const DefaultDirName = ".pwkeep"

// Errors
var (
	ErrNotFound       = errors.New("config: file not found")
	ErrInsecure       = errors.New("config: file is writable by group or others")
	ErrSymlink        = errors.New("config: file is a symlink")
	ErrNotOwnedByUser = errors.New("config: file not owned by current user")
	ErrInvalid        = errors.New("config: invalid value")
)

// Config holds the user-adjustable settings.
type Config struct {
	// DataFile is the encrypted vault file. Relative paths are resolved
	// against the config file's directory.
	DataFile string `yaml:"data_file"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFile, when set, receives logs instead of stderr.
	LogFile string `yaml:"log_file"`
	// NoColor disables colored output.
	NoColor bool `yaml:"no_color"`
	// DigitAliases enables the q w e a s d menu shortcuts.
	DigitAliases bool `yaml:"digit_aliases"`
	// UnlockAttempts bounds master password prompts at startup.
	UnlockAttempts int `yaml:"unlock_attempts"`
}

// DefaultDir returns ~/.pwkeep.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// Default returns the settings used when no config file exists.
func Default(dir string) *Config {
	return &Config{
		DataFile:       filepath.Join(dir, vault.DefaultFileName),
		LogLevel:       "warn",
		DigitAliases:   true,
		UnlockAttempts: 3,
	}
}

// Load reads the config file at path over the defaults for its directory.
// A missing file yields the defaults. Symlinks, files writable by group
// or others, and files owned by another user are rejected.
func Load(path string) (*Config, error) {
	return LoadIn(path, filepath.Dir(path))
}

// LoadIn is Load with the default data file placed in dataDir instead of
// the config file's directory. Relative paths set in the file are still
// resolved against the config file's directory.
func LoadIn(path, dataDir string) (*Config, error) {
	dir := filepath.Dir(path)
	cfg := Default(dataDir)
	defaultDataFile := cfg.DataFile

	// 1. Open without following symlinks
	f, err := openConfigFile(path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	// 2. Use fstat on the opened file descriptor to avoid TOCTOU
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("config: failed to stat file: %w", err)
	}

	// 3. Check permissions
	if perm := info.Mode().Perm(); insecurePermissions(perm) {
		return nil, fmt.Errorf("%w: %o", ErrInsecure, perm)
	}

	// 4. Check ownership
	if err := checkFileOwnership(info); err != nil {
		return nil, err
	}

	// 5. Decode, rejecting unknown keys
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DataFile != defaultDataFile {
		cfg.DataFile = resolve(dir, cfg.DataFile)
	}
	if cfg.LogFile != "" {
		cfg.LogFile = resolve(dir, cfg.LogFile)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("%w: data_file cannot be empty", ErrInvalid)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	if c.UnlockAttempts < 1 {
		return fmt.Errorf("%w: unlock_attempts must be at least 1, got %d", ErrInvalid, c.UnlockAttempts)
	}
	return nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
