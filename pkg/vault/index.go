package vault

// Index holds the distinct values observed across all accounts, each once,
// in first-seen order. It is derived from the accounts and never stored.
type Index struct {
	Usernames      []string
	Emails         []string
	Passwords      []string
	Phones         []string
	LinkedAccounts []string
}

// Values returns the index list backing field.
func (ix Index) Values(field Field) []string {
	switch field {
	case FieldUsername:
		return ix.Usernames
	case FieldEmail:
		return ix.Emails
	case FieldPassword:
		return ix.Passwords
	case FieldPhone:
		return ix.Phones
	case FieldLinkedAccounts:
		return ix.LinkedAccounts
	default:
		return nil
	}
}

// distinct accumulates unique non-empty values in insertion order.
type distinct struct {
	seen   map[string]struct{}
	values []string
}

func newDistinct() *distinct {
	return &distinct{seen: map[string]struct{}{}, values: []string{}}
}

func (d *distinct) add(v string) {
	if v == "" {
		return
	}
	if _, ok := d.seen[v]; ok {
		return
	}
	d.seen[v] = struct{}{}
	d.values = append(d.values, v)
}

// buildIndex derives a fresh Index from accounts.
func buildIndex(accounts []*Account) Index {
	usernames, emails, passwords, phones, links :=
		newDistinct(), newDistinct(), newDistinct(), newDistinct(), newDistinct()

	for _, acc := range accounts {
		usernames.add(acc.Username)
		emails.add(acc.Email)
		passwords.add(acc.Password)
		phones.add(acc.Phone)
		for _, name := range acc.LinkedAccounts {
			links.add(name)
		}
	}

	return Index{
		Usernames:      usernames.values,
		Emails:         emails.values,
		Passwords:      passwords.values,
		Phones:         phones.values,
		LinkedAccounts: links.values,
	}
}
