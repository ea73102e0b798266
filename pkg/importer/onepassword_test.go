package importer

import (
	"testing"
)

const opHeader = "Title,Website,Username,Password,OTPAuth,Favorite,Archived,Tags,Notes\n"

func TestOnePasswordParser_Source(t *testing.T) {
	p := &OnePasswordParser{}
	if p.Source() != Source1Password {
		t.Errorf("Source() = %q, want %q", p.Source(), Source1Password)
	}
}

func TestOnePasswordParser_Parse(t *testing.T) {
	data := opHeader +
		`GitHub,https://github.com,dev@example.com,s3cret,otpauth://totp/x,true,false,"work, code",my notes` + "\n" +
		`Old,https://old.example,olduser,oldpw,,false,true,,` + "\n" +
		`Empty,https://empty.example,,,,false,false,tag,` + "\n"

	result, err := (&OnePasswordParser{}).Parse([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(result.Accounts))
	}

	gh := result.Accounts[0]
	if gh.Name != "GitHub" || gh.Username != "dev@example.com" || gh.Password != "s3cret" {
		t.Errorf("unexpected account: %+v", gh)
	}
	if gh.Email != "dev@example.com" {
		t.Errorf("Email = %q", gh.Email)
	}
	if gh.Misc[MiscTags] != "work, code" {
		t.Errorf("tags = %q", gh.Misc[MiscTags])
	}
	if gh.Misc[MiscTOTP] != "otpauth://totp/x" || gh.Misc[MiscNotes] != "my notes" || gh.Misc[MiscURL] != "https://github.com" {
		t.Errorf("unexpected misc: %v", gh.Misc)
	}

	// One warning for the archived item, one for the empty item.
	if len(result.Warnings) != 2 {
		t.Errorf("got %d warnings, want 2: %v", len(result.Warnings), result.Warnings)
	}
}

func TestOnePasswordParser_MissingTitle(t *testing.T) {
	_, err := (&OnePasswordParser{}).Parse([]byte("Website,Username\nhttps://x,u\n"))
	if err == nil {
		t.Error("expected error for missing Title column")
	}
}

func TestOnePasswordParser_Deduplication(t *testing.T) {
	data := opHeader +
		"Bank,https://a,u1,p1,,false,false,,\n" +
		"Bank,https://b,u2,p2,,false,false,,\n" +
		"Bank,https://c,u3,p3,,false,false,,\n"

	result, err := (&OnePasswordParser{}).Parse([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Bank", "Bank (2)", "Bank (3)"}
	for i, a := range result.Accounts {
		if a.Name != want[i] {
			t.Errorf("accounts[%d].Name = %q, want %q", i, a.Name, want[i])
		}
	}
}
