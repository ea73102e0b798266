package security

import (
	"fmt"

	"github.com/forest6511/pwkeep/pkg/vault"
)

// SecurityScore represents the overall password health of a vault.
type SecurityScore struct {
	// Overall is the total score (0-100).
	Overall int `json:"overall"`
	// Components breaks down the score into categories.
	Components ScoreComponents `json:"components"`
	// Issues contains the detected security issues.
	Issues []SecurityIssue `json:"issues"`
	// Reused lists the groups of accounts sharing a password.
	Reused []ReuseGroup `json:"reused"`
	// Suggestions provides actionable recommendations.
	Suggestions []string `json:"suggestions"`
}

// ScoreComponents breaks down the security score into categories.
// Each component contributes up to 50 points (total: 100).
type ScoreComponents struct {
	// StrengthScore is based on average password strength (0-50).
	StrengthScore int `json:"strength"`
	// UniquenessScore is based on percentage of unique passwords (0-50).
	UniquenessScore int `json:"uniqueness"`
}

// IssueType identifies the type of security issue.
type IssueType string

const (
	// IssueWeakPassword indicates a password with insufficient strength.
	IssueWeakPassword IssueType = "weak"
	// IssueDuplicatePassword indicates a password reused across accounts.
	IssueDuplicatePassword IssueType = "duplicate"
	// IssueMissingPassword indicates an account without a password.
	IssueMissingPassword IssueType = "missing"
)

// Severity indicates the urgency of a security issue.
type Severity string

const (
	// SeverityWarning should be addressed soon.
	SeverityWarning Severity = "warning"
	// SeverityInfo is informational only.
	SeverityInfo Severity = "info"
)

// SecurityIssue represents a detected security problem.
type SecurityIssue struct {
	// Type identifies the category of issue.
	Type IssueType `json:"type"`
	// Severity indicates urgency.
	Severity Severity `json:"severity"`
	// AccountName is the affected account.
	AccountName string `json:"account_name,omitempty"`
	// AccountNames is used for duplicate issues (multiple accounts).
	AccountNames []string `json:"account_names,omitempty"`
	// Description explains the issue.
	Description string `json:"description"`
	// Suggestion provides remediation guidance.
	Suggestion string `json:"suggestion,omitempty"`
}

// AccountLister is the read side of the vault needed for scoring.
type AccountLister interface {
	Accounts() []*vault.Account
}

// Calculator computes password health for a vault.
type Calculator struct {
	accounts AccountLister
	hmacKey  []byte // Session-local key for reuse detection
}

// NewCalculator creates a new security calculator over the given accounts.
func NewCalculator(accounts AccountLister) *Calculator {
	return &Calculator{accounts: accounts}
}

// CalculateScore computes the full security score for the vault.
func (c *Calculator) CalculateScore() (*SecurityScore, error) {
	accounts := c.accounts.Accounts()

	strengthScore, weakIssues := c.calculateStrengthScore(accounts)
	uniquenessScore, reused, err := c.calculateUniquenessScore(accounts)
	if err != nil {
		return nil, err
	}

	issues := make([]SecurityIssue, 0, len(weakIssues)+len(reused))
	issues = append(issues, weakIssues...)
	for _, group := range reused {
		issues = append(issues, SecurityIssue{
			Type:         IssueDuplicatePassword,
			Severity:     SeverityWarning,
			AccountNames: group.AccountNames,
			Description:  fmt.Sprintf("%d accounts share the same password", group.Count),
			Suggestion:   "Use unique passwords for each account",
		})
	}
	for _, acc := range accounts {
		if acc.Password == "" {
			issues = append(issues, SecurityIssue{
				Type:        IssueMissingPassword,
				Severity:    SeverityInfo,
				AccountName: acc.Name,
				Description: "No password stored",
			})
		}
	}

	return &SecurityScore{
		Overall: strengthScore + uniquenessScore,
		Components: ScoreComponents{
			StrengthScore:   strengthScore,
			UniquenessScore: uniquenessScore,
		},
		Issues:      issues,
		Reused:      reused,
		Suggestions: generateSuggestions(issues),
	}, nil
}

// calculateStrengthScore averages password strength across accounts.
// Returns score (0-50) and weak password issues.
func (c *Calculator) calculateStrengthScore(accounts []*vault.Account) (int, []SecurityIssue) {
	totalPoints := 0
	passwordCount := 0
	for _, acc := range accounts {
		if acc.Password == "" {
			continue
		}
		passwordCount++
		totalPoints += CalculatePasswordStrength(acc.Password).Points()
	}

	issues := c.FindWeakPasswords(accounts)

	// No passwords: full score (N/A)
	if passwordCount == 0 {
		return 50, issues
	}

	score := totalPoints * 2 / passwordCount
	if score > 50 {
		score = 50
	}
	return score, issues
}

// calculateUniquenessScore evaluates password reuse across accounts.
// Returns score (0-50) and the reuse groups.
func (c *Calculator) calculateUniquenessScore(accounts []*vault.Account) (int, []ReuseGroup, error) {
	reused, err := c.FindReusedPasswords(accounts)
	if err != nil {
		return 0, nil, err
	}

	totalPasswords := 0
	for _, acc := range accounts {
		if normalizeValue(acc.Password) != "" {
			totalPasswords++
		}
	}

	// No passwords: full score (N/A)
	if totalPasswords == 0 {
		return 50, reused, nil
	}

	// Each group of n contributes a single unique value
	uniqueCount := totalPasswords
	for _, group := range reused {
		uniqueCount -= group.Count - 1
	}
	return uniqueCount * 50 / totalPasswords, reused, nil
}

// generateSuggestions creates actionable recommendations based on issues.
func generateSuggestions(issues []SecurityIssue) []string {
	suggestions := []string{}
	hasWeak := false
	hasDuplicate := false

	for _, issue := range issues {
		switch issue.Type {
		case IssueWeakPassword:
			hasWeak = true
		case IssueDuplicatePassword:
			hasDuplicate = true
		}
	}

	if hasWeak {
		suggestions = append(suggestions, "Update weak passwords with stronger alternatives (14+ characters)")
	}
	if hasDuplicate {
		suggestions = append(suggestions, "Replace reused passwords with unique values")
	}
	return suggestions
}
