package importer

import (
	"strings"

	"github.com/forest6511/pwkeep/pkg/vault"
)

// OnePasswordParser parses 1Password CSV exports:
// Title,Website,Username,Password,OTPAuth,Favorite,Archived,Tags,Notes
type OnePasswordParser struct{}

const (
	op1ColTitle    = "Title"
	op1ColWebsite  = "Website"
	op1ColUsername = "Username"
	op1ColPassword = "Password"
	op1ColOTPAuth  = "OTPAuth"
	op1ColArchived = "Archived"
	op1ColTags     = "Tags"
	op1ColNotes    = "Notes"
)

// Source returns Source1Password.
func (p *OnePasswordParser) Source() Source {
	return Source1Password
}

// Parse parses 1Password CSV data.
func (p *OnePasswordParser) Parse(data []byte) (*Result, error) {
	return parseCSV(data, op1ColTitle, func(s string) string { return s }, p.parseRow)
}

func (p *OnePasswordParser) parseRow(get func(string) string, counter *int) (*vault.Account, string) {
	website := get(op1ColWebsite)
	acc := vault.NewAccount(AccountName(get(op1ColTitle), website, counter))
	login(acc, get(op1ColUsername), get(op1ColPassword))
	setMisc(acc, MiscTOTP, get(op1ColOTPAuth))
	setMisc(acc, MiscNotes, get(op1ColNotes))

	if !hasData(acc) {
		return nil, "skipped: no useful data"
	}
	setMisc(acc, MiscURL, website)

	var tags []string
	for _, t := range strings.Split(get(op1ColTags), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	setMisc(acc, MiscTags, strings.Join(tags, ", "))

	var warning string
	if strings.EqualFold(get(op1ColArchived), "true") {
		warning = "imported archived item " + acc.Name
	}
	return acc, warning
}
