package session

import (
	"github.com/forest6511/pwkeep/pkg/vault"
)

// Kind enumerates the operations a menu option can trigger.
type Kind int

const (
	KindNavigate      Kind = iota // push Screen
	KindHome                      // truncate to the home menu
	KindSearchByName              // filter by account name with the input
	KindListIndex                 // list distinct values of Field
	KindListByValue               // list accounts whose Field equals Value
	KindFocus                     // open Account
	KindAddAccount                // create an account named by the input
	KindRename                    // rename Account
	KindEditField                 // set Field of Account
	KindEditPhone                 // set the phone of Account
	KindToggleLink                // link or unlink the input from Account
	KindChooseMisc                // pick the misc key to edit
	KindEditMisc                  // set misc key Value of Account
	KindDelete                    // delete Account when the input confirms
	KindVerifySecret              // check the current master secret
	KindNewSecret                 // take the new master secret
	KindConfirmSecret             // confirm against the pending secret in Value
	KindHealthReport              // show password health
)

var kindNames = [...]string{
	"navigate", "home", "search_by_name", "list_index", "list_by_value", "focus",
	"add_account", "rename", "edit_field", "edit_phone", "toggle_link",
	"choose_misc", "edit_misc", "delete", "verify_secret", "new_secret",
	"confirm_secret", "health_report",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Screen identifies a state pushed by KindNavigate.
type Screen int

const (
	ScreenSearchByName Screen = iota
	ScreenAddAccount
	ScreenChangeSecret
	ScreenRename
	ScreenEditField
	ScreenEditPhone
	ScreenLinks
	ScreenMisc
	ScreenDelete
)

// Action is the data bound to a navigator option. Which fields matter
// depends on Kind.
type Action struct {
	Kind    Kind
	Screen  Screen
	Field   vault.Field
	Account *vault.Account
	Value   string
}

func navigate(screen Screen, acc *vault.Account) Action {
	return Action{Kind: KindNavigate, Screen: screen, Account: acc}
}

func navigateField(field vault.Field, acc *vault.Account) Action {
	return Action{Kind: KindNavigate, Screen: ScreenEditField, Field: field, Account: acc}
}

func focus(acc *vault.Account) Action {
	return Action{Kind: KindFocus, Account: acc}
}
