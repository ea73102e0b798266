package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forest6511/pwkeep/internal/cli"
	"github.com/forest6511/pwkeep/pkg/importer"
	"github.com/forest6511/pwkeep/pkg/vault"
)

var (
	importFrom   string
	importOnly   []string
	importDryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import accounts from another password manager",
	Long: `Import accounts from a 1Password CSV, Bitwarden JSON or LastPass CSV export.

Accounts whose name is already in the vault are skipped. Values without a
matching account field (URLs, notes, TOTP seeds) are stored as misc fields.

Examples:
  pwkeep import --from bitwarden export.json
  pwkeep import --from lastpass --only "git*" --dry-run export.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFrom, "from", "", "source format: 1password, bitwarden, lastpass")
	importCmd.Flags().StringSliceVar(&importOnly, "only", nil, "import only accounts whose name matches these patterns")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "list the accounts without importing them")
	_ = importCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	accounts, err := parseExport(args[0], importFrom, importOnly, stderr)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(stdout, "No accounts found in file")
		return nil
	}

	if importDryRun {
		fmt.Fprintf(stdout, "Would import %d account(s):\n", len(accounts))
		for _, acc := range accounts {
			fmt.Fprintf(stdout, "  %s\n", acc.Name)
		}
		return nil
	}

	a, err := openApp(cmd)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	defer a.Close()

	added, skipped, err := a.vault.ImportAccounts(accounts)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	for _, name := range skipped {
		fmt.Fprintf(stderr, "Skipped: %s (name already in use or invalid phone)\n", name)
	}
	fmt.Fprintf(stdout, "Imported %d account(s)\n", added)
	return nil
}

// parseExport reads and parses an export file, reporting parser warnings
// to w and keeping only accounts matched by patterns.
func parseExport(path, from string, patterns []string, w io.Writer) ([]*vault.Account, error) {
	source := importer.Source(strings.ToLower(from))
	parser, err := importer.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("invalid --from value %q: must be one of %v", from, importer.ValidSources())
	}

	data, err := readExportFile(path)
	if err != nil {
		return nil, err
	}
	result, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s file: %w", source, err)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(w, "Skipped: %s (%s)\n", s.OriginalName, s.Reason)
	}

	names := make([]string, len(result.Accounts))
	byName := make(map[string]*vault.Account, len(result.Accounts))
	for i, acc := range result.Accounts {
		names[i] = acc.Name
		byName[acc.Name] = acc
	}
	kept, err := cli.FilterNames(patterns, names)
	if err != nil {
		return nil, err
	}
	accounts := make([]*vault.Account, len(kept))
	for i, name := range kept {
		accounts[i] = byName[name]
	}
	return accounts, nil
}

// readExportFile reads an export file, refusing symlinks.
func readExportFile(path string) ([]byte, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to access file: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("security: refusing to read symlink: %s", absPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
