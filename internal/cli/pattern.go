// Package cli provides helpers shared by pwkeep subcommands.
package cli

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNoMatch is returned when a pattern selects no name.
var ErrNoMatch = errors.New("no account matches")

// MatchNames returns the names matching pattern, ignoring case. Patterns
// without glob characters (*?[) must equal a name.
func MatchNames(pattern string, names []string) ([]string, error) {
	lower := strings.ToLower(pattern)
	if _, err := path.Match(lower, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	glob := strings.ContainsAny(pattern, "*?[")

	var matches []string
	for _, name := range names {
		n := strings.ToLower(name)
		if !glob {
			if n == lower {
				matches = append(matches, name)
			}
			continue
		}
		if ok, _ := path.Match(lower, n); ok {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoMatch, pattern)
	}
	return matches, nil
}

// FilterNames keeps the names matched by any of patterns, in the order
// they appear in names. An empty pattern list keeps everything.
func FilterNames(patterns []string, names []string) ([]string, error) {
	if len(patterns) == 0 {
		return names, nil
	}
	keep := make(map[string]bool)
	for _, p := range patterns {
		matches, err := MatchNames(p, names)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			keep[m] = true
		}
	}

	result := make([]string, 0, len(keep))
	for _, n := range names {
		if keep[n] {
			result = append(result, n)
			delete(keep, n)
		}
	}
	return result, nil
}
