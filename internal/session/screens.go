package session

import (
	"fmt"
	"strings"

	"github.com/forest6511/pwkeep/internal/navigator"
	"github.com/forest6511/pwkeep/pkg/security"
	"github.com/forest6511/pwkeep/pkg/vault"
)

// Home returns the root menu.
func (s *Session) Home() *state {
	return navigator.NewState("Home",
		navigator.Choice("Search by account name", navigate(ScreenSearchByName, nil)),
		navigator.Choice("Add account", navigate(ScreenAddAccount, nil)),
		navigator.Choice("Search by email", listIndex(vault.FieldEmail)),
		navigator.Choice("Search by username", listIndex(vault.FieldUsername)),
		navigator.Choice("Search by password", listIndex(vault.FieldPassword)),
		navigator.Choice("Search by phone", listIndex(vault.FieldPhone)),
		navigator.Choice("Search by linked account", listIndex(vault.FieldLinkedAccounts)),
		navigator.Choice("Change master password", navigate(ScreenChangeSecret, nil)),
		navigator.Choice("Password health", Action{Kind: KindHealthReport}),
	)
}

func listIndex(field vault.Field) Action {
	return Action{Kind: KindListIndex, Field: field}
}

// screen builds the state for a KindNavigate action.
func (s *Session) screen(a Action) *state {
	acc := a.Account
	switch a.Screen {
	case ScreenSearchByName:
		return navigator.NewState("Search by account name (one character matches the first letter, empty lists all)",
			navigator.Text("Account name", Action{Kind: KindSearchByName}))
	case ScreenAddAccount:
		return navigator.NewState("Add account",
			navigator.Text("New account name", Action{Kind: KindAddAccount}))
	case ScreenChangeSecret:
		return navigator.NewState("Change master password",
			navigator.Secret("Current master password", Action{Kind: KindVerifySecret}))
	case ScreenRename:
		return navigator.NewState(fmt.Sprintf("Rename %q", acc.Name),
			navigator.Text("New account name", Action{Kind: KindRename, Account: acc}))
	case ScreenEditField:
		label := "New " + fieldLabel(a.Field)
		edit := Action{Kind: KindEditField, Field: a.Field, Account: acc}
		if a.Field == vault.FieldPassword {
			return navigator.NewState(fmt.Sprintf("Edit password of %q", acc.Name), navigator.Secret(label, edit))
		}
		return navigator.NewState(fmt.Sprintf("Edit %s of %q", fieldLabel(a.Field), acc.Name), navigator.Text(label, edit))
	case ScreenEditPhone:
		return navigator.NewState(fmt.Sprintf("Edit phone of %q (digits with an optional leading +)", acc.Name),
			navigator.Text("New phone", Action{Kind: KindEditPhone, Account: acc}))
	case ScreenLinks:
		return navigator.NewState(linksPrompt(acc),
			navigator.Text("Account name", Action{Kind: KindToggleLink, Account: acc}))
	case ScreenMisc:
		return navigator.NewState(miscPrompt(acc),
			navigator.Text("Field name", Action{Kind: KindChooseMisc, Account: acc}))
	case ScreenDelete:
		return navigator.NewState(fmt.Sprintf("Delete %q? This cannot be undone.", acc.Name),
			navigator.Text("1 = YES / enter = NO", Action{Kind: KindDelete, Account: acc}))
	default:
		return navigator.NewState[Action](fmt.Sprintf("Unknown screen %d.", a.Screen))
	}
}

// accountState is the account view with its edit menu.
func accountState(acc *vault.Account) *state {
	return navigator.NewState(formatAccount(acc),
		navigator.Choice("Edit name", navigate(ScreenRename, acc)),
		navigator.Choice("Edit username", navigateField(vault.FieldUsername, acc)),
		navigator.Choice("Edit email", navigateField(vault.FieldEmail, acc)),
		navigator.Choice("Edit password", navigateField(vault.FieldPassword, acc)),
		navigator.Choice("Edit phone", navigate(ScreenEditPhone, acc)),
		navigator.Choice("Edit linked accounts", navigate(ScreenLinks, acc)),
		navigator.Choice("Edit misc fields", navigate(ScreenMisc, acc)),
		navigator.Choice("Delete account", navigate(ScreenDelete, acc)),
		navigator.Choice("Home", Action{Kind: KindHome}),
	)
}

// accountViewOf returns the account shown by an account view state, or nil.
func accountViewOf(s *state) *vault.Account {
	if len(s.Options) == 0 {
		return nil
	}
	first := s.Options[0].Action
	if first.Kind != KindNavigate || first.Screen != ScreenRename {
		return nil
	}
	return first.Account
}

// resultsState lists accounts to open. A single result fast-forwards.
func resultsState(accounts []*vault.Account) *state {
	if len(accounts) == 0 {
		return navigator.NewState[Action]("No accounts found.")
	}
	opts := make([]navigator.Option[Action], len(accounts))
	for i, acc := range accounts {
		opts[i] = navigator.Choice(acc.Name, focus(acc))
	}
	return navigator.NewState(fmt.Sprintf("%d account(s) found", len(accounts)), opts...)
}

// indexState lists the distinct values of field.
func indexState(field vault.Field, values []string) *state {
	if len(values) == 0 {
		return navigator.NewState[Action](fmt.Sprintf("No %s stored.", fieldLabel(field)))
	}
	opts := make([]navigator.Option[Action], len(values))
	for i, v := range values {
		opts[i] = navigator.Choice(v, Action{Kind: KindListByValue, Field: field, Value: v})
	}
	return navigator.NewState(fmt.Sprintf("Select %s", fieldLabel(field)), opts...)
}

func miscValueState(acc *vault.Account, key string) *state {
	prompt := fmt.Sprintf("Misc field %q of %q", key, acc.Name)
	if current, ok := acc.Misc[key]; ok {
		prompt += "\nCurrent value:\n" + indent(current, "  ")
	}
	return navigator.NewState(prompt,
		navigator.Text("New value (empty deletes the field)", Action{Kind: KindEditMisc, Account: acc, Value: key}))
}

// healthState shows the score and offers the affected accounts.
func healthState(score *security.SecurityScore, store Store) *state {
	opts := []navigator.Option[Action]{}
	seen := map[string]bool{}
	byName := map[string]*vault.Account{}
	for _, acc := range store.Accounts() {
		byName[acc.Name] = acc
	}
	add := func(name string) {
		acc, ok := byName[name]
		if !ok || seen[name] {
			return
		}
		seen[name] = true
		opts = append(opts, navigator.Choice("Open "+name, focus(acc)))
	}
	for _, issue := range score.Issues {
		if issue.Type == security.IssueMissingPassword {
			continue
		}
		add(issue.AccountName)
		for _, name := range issue.AccountNames {
			add(name)
		}
	}
	if len(opts) == 0 {
		return navigator.NewState[Action](formatScore(score))
	}
	opts = append(opts, navigator.Choice("Home", Action{Kind: KindHome}))
	return navigator.NewState(formatScore(score), opts...)
}

func linksPrompt(acc *vault.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Linked accounts of %q: ", acc.Name)
	if len(acc.LinkedAccounts) == 0 {
		b.WriteString("(none)")
	} else {
		b.WriteString(strings.Join(acc.LinkedAccounts, ", "))
	}
	b.WriteString("\nEnter an unlinked account name to link it, or a linked one to unlink it.")
	return b.String()
}

func miscPrompt(acc *vault.Account) string {
	keys := acc.MiscKeys()
	if len(keys) == 0 {
		return fmt.Sprintf("Misc fields of %q: (none)\nEnter a field name to add it.", acc.Name)
	}
	return fmt.Sprintf("Misc fields of %q: %s\nEnter a field name to edit it, or a new one to add it.",
		acc.Name, strings.Join(keys, ", "))
}
