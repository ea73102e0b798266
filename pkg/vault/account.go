package vault

import (
	"slices"
	"time"
)

// Field names an account attribute that can be edited or filtered on.
type Field int

const (
	FieldAccountName Field = iota
	FieldUsername
	FieldEmail
	FieldPassword
	FieldPhone
	FieldLinkedAccounts
)

// String returns the record key of the field.
func (f Field) String() string {
	switch f {
	case FieldAccountName:
		return "accountName"
	case FieldUsername:
		return "username"
	case FieldEmail:
		return "email"
	case FieldPassword:
		return "password"
	case FieldPhone:
		return "phone"
	case FieldLinkedAccounts:
		return "linkedAccounts"
	default:
		return "unknown"
	}
}

// Account is one credential record. Name is the identity key.
type Account struct {
	Name           string            `json:"accountName"`
	Username       string            `json:"username"`
	Email          string            `json:"email"`
	Password       string            `json:"password"`
	Phone          string            `json:"phone"`
	LinkedAccounts []string          `json:"linkedAccounts"`
	Misc           map[string]string `json:"misc"`
	LastEdited     time.Time         `json:"lastEdited"`
}

// NewAccount returns an account with freshly allocated, empty containers.
func NewAccount(name string) *Account {
	return &Account{
		Name:           name,
		LinkedAccounts: []string{},
		Misc:           map[string]string{},
	}
}

// IsLinkedTo reports whether name is among the account's linked accounts.
func (a *Account) IsLinkedTo(name string) bool {
	return slices.Contains(a.LinkedAccounts, name)
}

// MiscKeys returns the misc field names in sorted order.
func (a *Account) MiscKeys() []string {
	keys := make([]string, 0, len(a.Misc))
	for k := range a.Misc {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	c.LinkedAccounts = slices.Clone(a.LinkedAccounts)
	if c.LinkedAccounts == nil {
		c.LinkedAccounts = []string{}
	}
	c.Misc = make(map[string]string, len(a.Misc))
	for k, v := range a.Misc {
		c.Misc[k] = v
	}
	return &c
}

// normalize replaces nil containers left by decoding with empty ones.
func (a *Account) normalize() {
	if a.LinkedAccounts == nil {
		a.LinkedAccounts = []string{}
	}
	if a.Misc == nil {
		a.Misc = map[string]string{}
	}
}

// replaceLink rewrites oldName to newName, dropping the entry instead if
// newName is already linked. Reports whether anything changed.
func (a *Account) replaceLink(oldName, newName string) bool {
	i := slices.Index(a.LinkedAccounts, oldName)
	if i < 0 {
		return false
	}
	if slices.Contains(a.LinkedAccounts, newName) {
		a.LinkedAccounts = slices.Delete(a.LinkedAccounts, i, i+1)
	} else {
		a.LinkedAccounts[i] = newName
	}
	return true
}
