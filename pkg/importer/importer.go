// Package importer reads account exports from other password managers.
// Supported formats are 1Password CSV, Bitwarden JSON and LastPass CSV.
package importer

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/forest6511/pwkeep/pkg/vault"
)

// Source names an export format.
type Source string

const (
	Source1Password Source = "1password"
	SourceBitwarden Source = "bitwarden"
	SourceLastPass  Source = "lastpass"
)

// Misc keys used for values without a dedicated account field.
const (
	MiscURL    = "url"
	MiscNotes  = "notes"
	MiscTOTP   = "totp"
	MiscGroup  = "group"
	MiscTags   = "tags"
	MiscPhone  = "phone"
	MiscCustom = "custom_field"
)

// Result holds the accounts parsed from one export file.
type Result struct {
	Accounts []*vault.Account
	Warnings []string
	Skipped  []SkippedItem
}

// SkippedItem is an entry that produced no account.
type SkippedItem struct {
	OriginalName string
	Reason       string
}

// Parser turns export data into accounts.
type Parser interface {
	Parse(data []byte) (*Result, error)
	Source() Source
}

// GetParser returns the parser for source.
func GetParser(source Source) (Parser, error) {
	switch source {
	case Source1Password:
		return &OnePasswordParser{}, nil
	case SourceBitwarden:
		return &BitwardenParser{}, nil
	case SourceLastPass:
		return &LastPassParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported import source: %s", source)
	}
}

// ValidSources lists the accepted source names.
func ValidSources() []string {
	return []string{
		string(Source1Password),
		string(SourceBitwarden),
		string(SourceLastPass),
	}
}

func newResult() *Result {
	return &Result{
		Accounts: make([]*vault.Account, 0),
		Warnings: make([]string, 0),
		Skipped:  make([]SkippedItem, 0),
	}
}

// AccountName returns the normalised name, falling back to the URL's host
// and then to a numbered placeholder.
func AccountName(name, url string, counter *int) string {
	name = NormalizeValue(name)
	if name != "" {
		return name
	}
	if host := extractHostname(url); host != "" {
		return host
	}
	name = fmt.Sprintf("imported item %d", *counter)
	*counter++
	return name
}

// DeduplicateNames suffixes repeated names with " (2)", " (3)" and so on.
func DeduplicateNames(accounts []*vault.Account) {
	seen := make(map[string]int)
	for _, acc := range accounts {
		base := acc.Name
		n := seen[base]
		seen[base] = n + 1
		if n == 0 {
			continue
		}
		name := fmt.Sprintf("%s (%d)", base, n+1)
		for seen[name] > 0 {
			n++
			name = fmt.Sprintf("%s (%d)", base, n+1)
		}
		seen[name] = 1
		acc.Name = name
	}
}

// extractHostname returns the host part of a URL without "www.".
func extractHostname(urlStr string) string {
	urlStr = strings.TrimPrefix(urlStr, "https://")
	urlStr = strings.TrimPrefix(urlStr, "http://")
	if idx := strings.IndexAny(urlStr, "/?#"); idx != -1 {
		urlStr = urlStr[:idx]
	}
	if idx := strings.Index(urlStr, ":"); idx != -1 {
		urlStr = urlStr[:idx]
	}
	return strings.TrimPrefix(urlStr, "www.")
}

// DecodeHTMLEntities decodes the entities LastPass writes into exports.
func DecodeHTMLEntities(s string) string {
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&apos;", "'")
	return strings.ReplaceAll(s, "&amp;", "&")
}

// NormalizeValue trims whitespace and applies NFC.
func NormalizeValue(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// login fills the credential fields shared by all formats. A username that
// looks like an email address is also stored as the email.
func login(acc *vault.Account, username, password string) {
	acc.Username = username
	acc.Password = password
	if acc.Email == "" && strings.Contains(username, "@") {
		acc.Email = username
	}
}

// setPhone stores value as the phone number, or as a misc field when it
// is not a valid number.
func setPhone(acc *vault.Account, value string) {
	if value == "" {
		return
	}
	if vault.ValidPhone(value) {
		acc.Phone = value
		return
	}
	setMisc(acc, MiscPhone, value)
}

// setMisc stores non-empty values, suffixing the key when it is taken.
func setMisc(acc *vault.Account, key, value string) {
	if value == "" {
		return
	}
	if key == "" {
		key = MiscCustom
	}
	k := key
	for i := 2; ; i++ {
		if _, taken := acc.Misc[k]; !taken {
			break
		}
		k = fmt.Sprintf("%s_%d", key, i)
	}
	acc.Misc[k] = value
}

// hasData reports whether acc carries anything besides its name.
func hasData(acc *vault.Account) bool {
	return acc.Username != "" || acc.Password != "" || acc.Email != "" ||
		acc.Phone != "" || len(acc.Misc) > 0
}
