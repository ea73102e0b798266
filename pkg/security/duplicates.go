package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/forest6511/pwkeep/pkg/vault"
)

// ReuseGroup is a set of accounts sharing the same password.
type ReuseGroup struct {
	// AccountNames lists the accounts in vault order.
	AccountNames []string `json:"account_names"`
	// Count is the number of accounts in the group.
	Count int `json:"count"`
}

// FindReusedPasswords groups accounts whose passwords are equal.
// Uses HMAC-SHA256 with a session-local key for comparison, so no
// plaintext password is held in the grouping map.
// Returns groups sorted by count (most reused first); groups of equal
// size keep the order of their first account.
//
// Security properties:
// - HMAC with session-local key prevents offline guessing attacks
// - Hashes are computed per-session, never persisted
// - Values are normalized (trimmed whitespace, Unicode NFC)
func (c *Calculator) FindReusedPasswords(accounts []*vault.Account) ([]ReuseGroup, error) {
	key, err := c.sessionKey()
	if err != nil {
		return nil, err
	}

	var order []string
	groups := make(map[string][]string)
	for _, acc := range accounts {
		value := normalizeValue(acc.Password)
		if value == "" {
			continue
		}
		hash := computeValueHash(value, key)
		if _, ok := groups[hash]; !ok {
			order = append(order, hash)
		}
		groups[hash] = append(groups[hash], acc.Name)
	}

	result := []ReuseGroup{}
	for _, hash := range order {
		names := groups[hash]
		if len(names) <= 1 {
			continue
		}
		result = append(result, ReuseGroup{AccountNames: names, Count: len(names)})
	}

	slices.SortStableFunc(result, func(a, b ReuseGroup) int {
		return b.Count - a.Count
	})
	return result, nil
}

// FindWeakPasswords returns an issue for every account whose non-empty
// password rates as weak.
func (c *Calculator) FindWeakPasswords(accounts []*vault.Account) []SecurityIssue {
	issues := []SecurityIssue{}
	for _, acc := range accounts {
		if acc.Password == "" {
			continue
		}
		if CalculatePasswordStrength(acc.Password) != PasswordWeak {
			continue
		}
		issues = append(issues, SecurityIssue{
			Type:        IssueWeakPassword,
			Severity:    SeverityWarning,
			AccountName: acc.Name,
			Description: fmt.Sprintf("Password has insufficient strength (%s)", formatLength(acc.Password)),
			Suggestion:  "Use a longer password (14+ characters)",
		})
	}
	return issues
}

// sessionKey lazily creates the per-calculator HMAC key.
func (c *Calculator) sessionKey() ([]byte, error) {
	if c.hmacKey == nil {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("security: failed to generate session key: %w", err)
		}
		c.hmacKey = key
	}
	return c.hmacKey, nil
}

// computeValueHash computes HMAC-SHA256 of a value with the session key.
func computeValueHash(value string, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeValue trims surrounding whitespace and applies Unicode NFC.
func normalizeValue(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// formatLength returns a human-readable length description.
func formatLength(value string) string {
	n := len([]rune(value))
	if n == 1 {
		return "1 character"
	}
	return fmt.Sprintf("%d characters", n)
}
