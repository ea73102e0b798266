package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/forest6511/pwkeep/pkg/vault"
)

// LastPassParser parses LastPass CSV exports:
// url,username,password,totp,extra,name,grouping,fav
type LastPassParser struct{}

const (
	lpColURL      = "url"
	lpColUsername = "username"
	lpColPassword = "password"
	lpColTOTP     = "totp"
	lpColExtra    = "extra"
	lpColName     = "name"
	lpColGrouping = "grouping"

	// lpSecureNoteURL marks secure notes.
	lpSecureNoteURL = "http://sn"
)

// Source returns SourceLastPass.
func (p *LastPassParser) Source() Source {
	return SourceLastPass
}

// Parse parses LastPass CSV data.
func (p *LastPassParser) Parse(data []byte) (*Result, error) {
	// LastPass uses lowercase column names
	return parseCSV(data, lpColName, strings.ToLower, p.parseRow)
}

func (p *LastPassParser) parseRow(get func(string) string, counter *int) (*vault.Account, string) {
	value := func(col string) string {
		return DecodeHTMLEntities(get(col))
	}

	url := value(lpColURL)
	if url == lpSecureNoteURL {
		url = ""
	}
	acc := vault.NewAccount(AccountName(value(lpColName), url, counter))
	login(acc, value(lpColUsername), value(lpColPassword))
	setMisc(acc, MiscTOTP, value(lpColTOTP))
	setMisc(acc, MiscNotes, value(lpColExtra))

	if !hasData(acc) {
		return nil, "skipped: no useful data"
	}
	setMisc(acc, MiscURL, url)
	// Nested groups are kept as written
	setMisc(acc, MiscGroup, value(lpColGrouping))
	return acc, ""
}

// rowFunc builds an account from one row; get returns a trimmed column value.
type rowFunc func(get func(col string) string, counter *int) (*vault.Account, string)

// parseCSV reads a header-addressed CSV export. canon maps header names to
// the parser's column constants.
func parseCSV(data []byte, required string, canon func(string) string, parseRow rowFunc) (*Result, error) {
	result := newResult()

	// Strip UTF-8 BOM if present
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true // Handle malformed exports
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[canon(strings.TrimSpace(col))] = i
	}
	if _, ok := colIndex[required]; !ok {
		return nil, fmt.Errorf("missing required column: %s", required)
	}

	counter := 1
	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: failed to parse: %v", rowNum, err))
			continue
		}
		if len(row) != len(header) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: column count mismatch (expected %d, got %d)",
					rowNum, len(header), len(row)))
			continue
		}

		get := func(col string) string {
			if idx, ok := colIndex[col]; ok {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		acc, warning := parseRow(get, &counter)
		if warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", rowNum, warning))
		}
		if acc != nil {
			result.Accounts = append(result.Accounts, acc)
		}
	}

	DeduplicateNames(result.Accounts)
	return result, nil
}
