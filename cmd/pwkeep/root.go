package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/forest6511/pwkeep/internal/config"
	"github.com/forest6511/pwkeep/internal/logging"
	"github.com/forest6511/pwkeep/internal/navigator"
	"github.com/forest6511/pwkeep/internal/session"
	"github.com/forest6511/pwkeep/pkg/vault"
)

var (
	dataDir     string
	configPath  string
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "pwkeep",
	Short: "pwkeep is a local, encrypted account vault",
	Long: `An interactive password keeper storing every account in one encrypted file.

Menus are navigated by number. At any prompt, enter ` + "`" + ` to go back
one level or ` + "``" + ` to leave.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSession,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", "", "data directory (default ~/.pwkeep)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <dir>/config.yaml); without --dir the data file defaults to its directory")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
}

// app is an unlocked vault together with the terminal it is driven from.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	vault    *vault.Vault
	in       navigator.Input
	out      *navigator.TextRenderer
	closeLog func()
}

// openApp loads the configuration and unlocks the vault, creating it on
// first run.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(dataDir, configPath)
	if err != nil {
		return nil, err
	}
	if noColorFlag {
		cfg.NoColor = true
	}

	log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	stdout := cmd.OutOrStdout()
	a := &app{
		cfg:      cfg,
		log:      log,
		vault:    vault.New(cfg.DataFile, vault.WithLogger(log)),
		in:       navigator.NewTerminalInput(os.Stdin, stdout),
		out:      navigator.NewTextRenderer(stdout, cfg.NoColor),
		closeLog: closeLog,
	}
	busy := func(msg string) func() {
		return startSpinner(stdout, msg, term.IsTerminal(int(os.Stdout.Fd())), cfg.NoColor)
	}
	if err := unlock(a.vault, a.in, a.out, cfg.UnlockAttempts, busy); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close locks the vault and flushes the log.
func (a *app) Close() {
	if err := a.vault.Close(); err != nil {
		a.log.Warn("failed to close vault", "error", err)
	}
	a.closeLog()
}

func runSession(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	defer a.Close()
	a.log.Debug("session started", "accounts", a.vault.Len())

	s := session.New(a.vault, a.out, a.log)
	nav := navigator.New[session.Action](s, a.in, a.out, a.log)
	if !a.cfg.DigitAliases {
		nav.SetAliases(nil)
	}
	if err := nav.Run(cmd.Context(), s.Home()); err != nil {
		return fmt.Errorf("session ended: %w", err)
	}
	return nil
}

// loadConfig reads the config file. The data file defaults to dir when it
// is set, else to the config file's directory.
func loadConfig(dir, path string) (*config.Config, error) {
	if dir == "" {
		if path != "" {
			return config.Load(path)
		}
		d, err := config.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if path == "" {
		path = filepath.Join(dir, config.FileName)
	}
	return config.LoadIn(path, dir)
}

// newLogger writes to the configured log file, or to stderr.
func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return logging.New(stderr, level), func() {}, nil
	}
	log, closer, err := logging.Open(cfg.LogFile, level)
	if err != nil {
		return nil, nil, err
	}
	return log, func() { closer.Close() }, nil
}
