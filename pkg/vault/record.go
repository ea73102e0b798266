package vault

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

// maxRecordSize bounds a single decoded line.
const maxRecordSize = 4 * 1024 * 1024

// encodeRecords serializes accounts as newline-separated JSON objects, one
// account per line, in the order given.
func encodeRecords(accounts []*Account) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, acc := range accounts {
		// Encode terminates each value with '\n'
		if err := enc.Encode(acc); err != nil {
			return nil, fmt.Errorf("vault: failed to encode account %q: %w", acc.Name, err)
		}
	}
	return buf.Bytes(), nil
}

// decodeRecords parses the plaintext produced by encodeRecords. Blank lines
// are skipped; a malformed line, an empty name or a repeated name makes the
// whole plaintext invalid.
func decodeRecords(plaintext []byte) ([]*Account, error) {
	accounts := []*Account{}
	seen := map[string]struct{}{}

	sc := bufio.NewScanner(bytes.NewReader(plaintext))
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		acc := &Account{}
		if err := json.Unmarshal(raw, acc); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupted, line, err)
		}
		if acc.Name == "" {
			return nil, fmt.Errorf("%w: line %d: empty account name", ErrCorrupted, line)
		}
		if _, dup := seen[acc.Name]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate account name", ErrCorrupted, line)
		}
		seen[acc.Name] = struct{}{}

		acc.normalize()
		accounts = append(accounts, acc)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return accounts, nil
}
