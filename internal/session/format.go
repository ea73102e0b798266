package session

import (
	"fmt"
	"strings"

	"github.com/forest6511/pwkeep/pkg/security"
	"github.com/forest6511/pwkeep/pkg/vault"
)

const timeLayout = "2006-01-02 15:04"

func fieldLabel(f vault.Field) string {
	switch f {
	case vault.FieldAccountName:
		return "account name"
	case vault.FieldUsername:
		return "username"
	case vault.FieldEmail:
		return "email"
	case vault.FieldPassword:
		return "password"
	case vault.FieldPhone:
		return "phone"
	case vault.FieldLinkedAccounts:
		return "linked account"
	default:
		return f.String()
	}
}

// formatAccount renders every field of acc for the account view.
func formatAccount(acc *vault.Account) string {
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %-16s %s\n", label+":", value)
	}

	fmt.Fprintf(&b, "Account: %s\n", acc.Name)
	row("Username", acc.Username)
	row("Email", acc.Email)
	password := acc.Password
	if password != "" {
		password += fmt.Sprintf("  [%s]", security.CalculatePasswordStrength(acc.Password))
	}
	row("Password", password)
	row("Phone", acc.Phone)
	row("Linked accounts", strings.Join(acc.LinkedAccounts, ", "))
	if !acc.LastEdited.IsZero() {
		row("Last edited", acc.LastEdited.Local().Format(timeLayout))
	}
	if keys := acc.MiscKeys(); len(keys) > 0 {
		b.WriteString("  Misc:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "    %s:\n%s\n", k, indent(acc.Misc[k], "      "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatScore renders a health report.
func formatScore(score *security.SecurityScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Password health: %d/100 (strength %d/50, uniqueness %d/50)\n",
		score.Overall, score.Components.StrengthScore, score.Components.UniquenessScore)

	for _, issue := range score.Issues {
		switch {
		case issue.AccountName != "":
			fmt.Fprintf(&b, "  [%s] %s: %s\n", issue.Severity, issue.AccountName, issue.Description)
		default:
			fmt.Fprintf(&b, "  [%s] %s: %s\n", issue.Severity, strings.Join(issue.AccountNames, ", "), issue.Description)
		}
	}
	for _, s := range score.Suggestions {
		fmt.Fprintf(&b, "  - %s\n", s)
	}
	if len(score.Issues) == 0 {
		b.WriteString("  No issues found.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
