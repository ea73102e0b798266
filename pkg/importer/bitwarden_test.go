package importer

import (
	"errors"
	"testing"
)

func TestBitwardenParser_Source(t *testing.T) {
	p := &BitwardenParser{}
	if p.Source() != SourceBitwarden {
		t.Errorf("Source() = %q, want %q", p.Source(), SourceBitwarden)
	}
}

func TestBitwardenParser_ParseLogin(t *testing.T) {
	data := `{
		"folders": [{"id": "f1", "name": "Work"}],
		"items": [{
			"type": 1,
			"name": "GitHub",
			"notes": "dev account",
			"folderId": "f1",
			"login": {
				"uris": [{"uri": "https://github.com"}, {"uri": "https://gist.github.com"}],
				"username": "octo",
				"password": "hunter2",
				"totp": "JBSWY3DP"
			},
			"fields": [{"name": "recovery", "value": "abcd", "type": 1}]
		}]
	}`

	result, err := (&BitwardenParser{}).Parse([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Accounts) != 1 {
		t.Fatalf("got %d accounts, want 1", len(result.Accounts))
	}

	a := result.Accounts[0]
	if a.Name != "GitHub" || a.Username != "octo" || a.Password != "hunter2" {
		t.Errorf("unexpected account: %+v", a)
	}
	want := map[string]string{
		"url":      "https://github.com",
		"url_2":    "https://gist.github.com",
		"totp":     "JBSWY3DP",
		"notes":    "dev account",
		"recovery": "abcd",
		"group":    "Work",
	}
	for k, v := range want {
		if a.Misc[k] != v {
			t.Errorf("Misc[%q] = %q, want %q", k, a.Misc[k], v)
		}
	}
}

func TestBitwardenParser_ParseIdentity(t *testing.T) {
	data := `{"items": [{
		"type": 4,
		"name": "Me",
		"identity": {
			"firstName": "Ada",
			"lastName": "Lovelace",
			"email": "ada@example.com",
			"phone": "+4420123456",
			"city": "London"
		}
	}]}`

	result, err := (&BitwardenParser{}).Parse([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := result.Accounts[0]
	if a.Email != "ada@example.com" {
		t.Errorf("Email = %q", a.Email)
	}
	if a.Phone != "+4420123456" {
		t.Errorf("Phone = %q", a.Phone)
	}
	if a.Misc["first_name"] != "Ada" || a.Misc["city"] != "London" {
		t.Errorf("unexpected misc: %v", a.Misc)
	}
}

func TestBitwardenParser_ParseCardAndNote(t *testing.T) {
	data := `{"items": [
		{"type": 3, "name": "Visa", "card": {"cardholderName": "A", "number": "4111", "expMonth": "12", "expYear": "2030", "code": "123"}},
		{"type": 2, "name": "Note", "notes": "secret note"},
		{"type": 2, "name": "Blank"}
	]}`

	result, err := (&BitwardenParser{}).Parse([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(result.Accounts))
	}
	card := result.Accounts[0]
	if card.Misc["number"] != "4111" || card.Misc["expires"] != "12/2030" || card.Misc["cvv"] != "123" {
		t.Errorf("unexpected card misc: %v", card.Misc)
	}
	if result.Accounts[1].Misc[MiscNotes] != "secret note" {
		t.Errorf("unexpected note misc: %v", result.Accounts[1].Misc)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].OriginalName != "Blank" {
		t.Errorf("Skipped = %v, want [Blank]", result.Skipped)
	}
}

func TestBitwardenParser_Errors(t *testing.T) {
	p := &BitwardenParser{}

	if _, err := p.Parse([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := p.Parse([]byte(`{"encrypted": true, "items": []}`)); !errors.Is(err, ErrEncryptedExport) {
		t.Errorf("expected ErrEncryptedExport, got %v", err)
	}

	result, err := p.Parse([]byte(`{"items": [{"type": 9, "name": "Odd"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Accounts) != 0 || len(result.Warnings) != 1 {
		t.Errorf("unsupported type: accounts=%d warnings=%v", len(result.Accounts), result.Warnings)
	}
}
