package importer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/forest6511/pwkeep/pkg/vault"
)

// BitwardenParser parses Bitwarden unencrypted JSON exports.
type BitwardenParser struct{}

// Bitwarden item types.
const (
	bitwardenTypeLogin      = 1
	bitwardenTypeSecureNote = 2
	bitwardenTypeCard       = 3
	bitwardenTypeIdentity   = 4
)

type bitwardenExport struct {
	Encrypted bool              `json:"encrypted"`
	Items     []bitwardenItem   `json:"items"`
	Folders   []bitwardenFolder `json:"folders"`
}

type bitwardenFolder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type bitwardenItem struct {
	Type     int                    `json:"type"`
	Name     string                 `json:"name"`
	Notes    string                 `json:"notes"`
	FolderID *string                `json:"folderId"`
	Login    *bitwardenLogin        `json:"login"`
	Card     *bitwardenCard         `json:"card"`
	Identity *bitwardenIdentity     `json:"identity"`
	Fields   []bitwardenCustomField `json:"fields"`
}

type bitwardenLogin struct {
	URIs     []bitwardenURI `json:"uris"`
	Username string         `json:"username"`
	Password string         `json:"password"`
	TOTP     string         `json:"totp"`
}

type bitwardenURI struct {
	URI string `json:"uri"`
}

type bitwardenCard struct {
	CardholderName string `json:"cardholderName"`
	Number         string `json:"number"`
	ExpMonth       string `json:"expMonth"`
	ExpYear        string `json:"expYear"`
	Code           string `json:"code"`
	Brand          string `json:"brand"`
}

type bitwardenIdentity struct {
	Title      string `json:"title"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Username   string `json:"username"`
	Company    string `json:"company"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address1   string `json:"address1"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type bitwardenCustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ErrEncryptedExport is returned for password-protected exports.
var ErrEncryptedExport = errors.New("bitwarden export is encrypted; export as unencrypted JSON")

// Source returns SourceBitwarden.
func (p *BitwardenParser) Source() Source {
	return SourceBitwarden
}

// Parse parses Bitwarden JSON data.
func (p *BitwardenParser) Parse(data []byte) (*Result, error) {
	var export bitwardenExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse Bitwarden JSON: %w", err)
	}
	if export.Encrypted {
		return nil, ErrEncryptedExport
	}

	folders := make(map[string]string)
	for _, f := range export.Folders {
		folders[f.ID] = f.Name
	}

	result := newResult()
	counter := 1
	for i := range export.Items {
		item := &export.Items[i]
		acc, warning := p.parseItem(item, folders, &counter)
		if warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("item %d (%s): %s", i+1, item.Name, warning))
		}
		if acc != nil {
			result.Accounts = append(result.Accounts, acc)
		} else if warning == "" {
			result.Skipped = append(result.Skipped, SkippedItem{
				OriginalName: item.Name,
				Reason:       "no useful data",
			})
		}
	}

	DeduplicateNames(result.Accounts)
	return result, nil
}

func (p *BitwardenParser) parseItem(item *bitwardenItem, folders map[string]string, counter *int) (*vault.Account, string) {
	var url string
	if item.Login != nil && len(item.Login.URIs) > 0 {
		url = item.Login.URIs[0].URI
	}
	acc := vault.NewAccount(AccountName(item.Name, url, counter))

	switch item.Type {
	case bitwardenTypeLogin:
		p.fillLogin(acc, item.Login)
	case bitwardenTypeSecureNote:
	case bitwardenTypeCard:
		p.fillCard(acc, item.Card)
	case bitwardenTypeIdentity:
		p.fillIdentity(acc, item.Identity)
	default:
		return nil, fmt.Sprintf("unsupported item type: %d", item.Type)
	}

	setMisc(acc, MiscNotes, item.Notes)
	for _, cf := range item.Fields {
		setMisc(acc, NormalizeValue(cf.Name), cf.Value)
	}
	if !hasData(acc) {
		return nil, ""
	}
	if item.FolderID != nil {
		setMisc(acc, MiscGroup, folders[*item.FolderID])
	}
	return acc, ""
}

func (p *BitwardenParser) fillLogin(acc *vault.Account, l *bitwardenLogin) {
	if l == nil {
		return
	}
	login(acc, l.Username, l.Password)
	setMisc(acc, MiscTOTP, l.TOTP)
	for _, u := range l.URIs {
		// Additional URIs become url_2, url_3, ...
		setMisc(acc, MiscURL, u.URI)
	}
}

func (p *BitwardenParser) fillCard(acc *vault.Account, c *bitwardenCard) {
	if c == nil {
		return
	}
	setMisc(acc, "cardholder_name", c.CardholderName)
	setMisc(acc, "number", c.Number)
	if c.ExpMonth != "" || c.ExpYear != "" {
		setMisc(acc, "expires", fmt.Sprintf("%s/%s", c.ExpMonth, c.ExpYear))
	}
	setMisc(acc, "cvv", c.Code)
	setMisc(acc, "brand", c.Brand)
}

func (p *BitwardenParser) fillIdentity(acc *vault.Account, id *bitwardenIdentity) {
	if id == nil {
		return
	}
	acc.Email = id.Email
	login(acc, id.Username, "")
	setPhone(acc, id.Phone)
	setMisc(acc, "title", id.Title)
	setMisc(acc, "first_name", id.FirstName)
	setMisc(acc, "last_name", id.LastName)
	setMisc(acc, "company", id.Company)
	setMisc(acc, "address", id.Address1)
	setMisc(acc, "city", id.City)
	setMisc(acc, "postal_code", id.PostalCode)
	setMisc(acc, "country", id.Country)
}
