package session

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest6511/pwkeep/internal/navigator"
	"github.com/forest6511/pwkeep/pkg/crypto"
	"github.com/forest6511/pwkeep/pkg/vault"
)

const testSecret = "master secret"

// Home menu positions
const (
	homeSearchName = "1"
	homeAdd        = "2"
	homeEmail      = "3"
	homeChange     = "8"
	homeHealth     = "9"
)

// Account view positions
const (
	viewRename   = "1"
	viewUsername = "2"
	viewPassword = "4"
	viewPhone    = "5"
	viewLinks    = "6"
	viewMisc     = "7"
	viewDelete   = "8"
	viewHome     = "9"
)

type scriptInput struct {
	lines  []string
	secret []bool
}

func (s *scriptInput) next(secret bool) (string, error) {
	s.secret = append(s.secret, secret)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptInput) ReadLine(string) (string, error)   { return s.next(false) }
func (s *scriptInput) ReadSecret(string) (string, error) { return s.next(true) }

type recorder struct {
	prompts []string
	menus   [][]string
	infos   []string
	errs    []error
}

func (r *recorder) Prompt(text string)   { r.prompts = append(r.prompts, text) }
func (r *recorder) Menu(labels []string) { r.menus = append(r.menus, labels) }
func (r *recorder) Info(text string)     { r.infos = append(r.infos, text) }
func (r *recorder) Error(err error)      { r.errs = append(r.errs, err) }

func (r *recorder) sawPrompt(prefix string) bool {
	for _, p := range r.prompts {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func newVault(t *testing.T) *vault.Vault {
	t.Helper()
	path := filepath.Join(t.TempDir(), vault.DefaultFileName)
	v := vault.New(path, vault.WithParams(crypto.Params{Salt: []byte("session-test"), Iterations: 1000}))
	require.ErrorIs(t, v.Load([]byte(testSecret)), vault.ErrFileMissing)
	require.NoError(t, v.Create([]byte(testSecret)))
	t.Cleanup(func() { v.Close() })
	return v
}

func run(t *testing.T, store Store, lines ...string) (*recorder, *scriptInput, error) {
	t.Helper()
	out := &recorder{}
	in := &scriptInput{lines: lines}
	s := New(store, out, nil)
	nav := navigator.New[Action](s, in, out, nil)
	err := nav.Run(context.Background(), s.Home())
	require.Empty(t, in.lines, "script not fully consumed")
	return out, in, err
}

func account(t *testing.T, v *vault.Vault, name string) *vault.Account {
	t.Helper()
	acc, ok := v.Account(name)
	require.True(t, ok, "account %q missing", name)
	return acc
}

func TestAddAndEditAccount(t *testing.T) {
	v := newVault(t)

	out, _, err := run(t, v,
		homeAdd, "github",
		viewUsername, "octo",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	assert.Empty(t, out.errs)
	assert.Equal(t, "octo", account(t, v, "github").Username)
	assert.True(t, out.sawPrompt("Account: github"))
	assert.Contains(t, out.infos, `Account "github" added.`)
}

func TestAddDuplicateIsReported(t *testing.T) {
	v := newVault(t)
	_, err := v.AddAccount("github")
	require.NoError(t, err)

	out, _, err := run(t, v,
		homeAdd, "github",
		navigator.BackSentinel,
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	require.Len(t, out.errs, 1)
	assert.ErrorIs(t, out.errs[0], vault.ErrDuplicateName)
	assert.Equal(t, 1, v.Len())
}

func TestAddEmptyNameGoesBack(t *testing.T) {
	v := newVault(t)

	out, _, err := run(t, v, homeAdd, "", navigator.ExitSentinel)
	require.NoError(t, err)
	assert.Empty(t, out.errs)
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, []string{"Home", "Add account", "Home"}, out.prompts)
}

func TestSearchByName(t *testing.T) {
	v := newVault(t)
	for _, n := range []string{"github", "gitlab", "mail"} {
		_, err := v.AddAccount(n)
		require.NoError(t, err)
	}

	out, _, err := run(t, v,
		homeSearchName, "g", "2", // two results, pick gitlab
		navigator.BackSentinel, // back to results
		navigator.BackSentinel, // back to search input
		"mail",                 // single result fast-forwards
		navigator.BackSentinel, // back to search input
		"zzz",                  // no results
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	assert.Empty(t, out.errs)
	assert.True(t, out.sawPrompt("2 account(s) found"))
	assert.True(t, out.sawPrompt("Account: gitlab"))
	assert.True(t, out.sawPrompt("Account: mail"))
	assert.True(t, out.sawPrompt("No accounts found."))
}

func TestSearchByIndex(t *testing.T) {
	v := newVault(t)
	a, _ := v.AddAccount("a")
	b, _ := v.AddAccount("b")
	require.NoError(t, v.EditField(a, vault.FieldEmail, "shared@example.com"))
	require.NoError(t, v.EditField(b, vault.FieldEmail, "shared@example.com"))

	out, _, err := run(t, v,
		homeEmail, // the only email value fast-forwards to the results
		"2",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	assert.True(t, out.sawPrompt("2 account(s) found"))
	assert.True(t, out.sawPrompt("Account: b"))
}

func TestSearchByEmptyIndex(t *testing.T) {
	v := newVault(t)
	out, _, err := run(t, v, homeEmail, navigator.ExitSentinel)
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "No email stored.", "Home"}, out.prompts)
}

func TestEditPhoneValidation(t *testing.T) {
	v := newVault(t)
	_, err := v.AddAccount("bank")
	require.NoError(t, err)

	out, _, err := run(t, v,
		homeSearchName, "bank",
		viewPhone, "91-234-567",
		"+6591234567",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	require.Len(t, out.errs, 1)
	assert.ErrorIs(t, out.errs[0], vault.ErrInvalidPhone)
	assert.Equal(t, "+6591234567", account(t, v, "bank").Phone)
}

func TestPasswordEditIsSecret(t *testing.T) {
	v := newVault(t)
	_, err := v.AddAccount("bank")
	require.NoError(t, err)

	_, in, err := run(t, v,
		homeSearchName, "bank",
		viewPassword, "s3cret-value",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	assert.Equal(t, "s3cret-value", account(t, v, "bank").Password)
	assert.Equal(t, []bool{false, false, false, true, false}, in.secret)
}

func TestToggleLink(t *testing.T) {
	v := newVault(t)
	for _, n := range []string{"a", "mail"} {
		_, err := v.AddAccount(n)
		require.NoError(t, err)
	}

	out, _, err := run(t, v,
		homeSearchName, "a",
		viewLinks, "mail",
		viewLinks, "nope",
		navigator.BackSentinel,
		viewLinks, "",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"mail"}, account(t, v, "a").LinkedAccounts)
	assert.False(t, account(t, v, "mail").IsLinkedTo("a"))
	assert.Contains(t, out.infos, `Linked "mail".`)
	require.Len(t, out.errs, 1)
	assert.ErrorIs(t, out.errs[0], vault.ErrLinkedAccountNotFound)

	_, _, err = run(t, v, homeSearchName, "a", viewLinks, "mail", navigator.ExitSentinel)
	require.NoError(t, err)
	assert.Empty(t, account(t, v, "a").LinkedAccounts)
}

func TestMiscFields(t *testing.T) {
	v := newVault(t)
	_, err := v.AddAccount("a")
	require.NoError(t, err)

	out, _, err := run(t, v,
		homeSearchName, "a",
		viewMisc, "note", "line one",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	assert.Empty(t, out.errs)
	assert.Equal(t, "line one", account(t, v, "a").Misc["note"])
	assert.True(t, out.sawPrompt("Account: a"))

	_, _, err = run(t, v,
		homeSearchName, "a",
		viewMisc, "note", "",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	assert.NotContains(t, account(t, v, "a").Misc, "note")
}

func TestRenamePropagatesThroughSession(t *testing.T) {
	v := newVault(t)
	a, _ := v.AddAccount("a")
	b, _ := v.AddAccount("b")
	_, err := v.ToggleLinkedAccount(b, "a")
	require.NoError(t, err)

	out, _, err := run(t, v,
		homeSearchName, "a",
		viewRename, "A2",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	assert.Empty(t, out.errs)
	assert.Equal(t, "A2", a.Name)
	assert.Equal(t, []string{"A2"}, b.LinkedAccounts)
	assert.True(t, out.sawPrompt("Account: A2"))
}

func TestRenameRelabelsResults(t *testing.T) {
	v := newVault(t)
	for _, n := range []string{"github", "gitlab"} {
		_, err := v.AddAccount(n)
		require.NoError(t, err)
	}

	out, _, err := run(t, v,
		homeSearchName, "git", "1", // two results, open github
		viewRename, "hub",
		navigator.BackSentinel, // back to the results
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	assert.Empty(t, out.errs)
	require.NotEmpty(t, out.menus)
	assert.Equal(t, []string{"hub", "gitlab"}, out.menus[len(out.menus)-1])
}

func TestRelabelLowerStates(t *testing.T) {
	v := newVault(t)
	a, _ := v.AddAccount("a")
	b, _ := v.AddAccount("b")
	c, _ := v.AddAccount("c")
	_, err := v.ToggleLinkedAccount(b, "a")
	require.NoError(t, err)

	var st navigator.Stack[Action]
	bView := accountState(b)
	links := indexState(vault.FieldLinkedAccounts, []string{"a", "c"})
	results := resultsState([]*vault.Account{a, c})
	health := navigator.NewState("score",
		navigator.Choice("Open a", focus(a)),
		navigator.Choice("Open c", focus(c)))
	st.Push(bView, links, results, health)

	require.NoError(t, v.RenameAccount(a, "A2"))
	relabel(&st, "a", "A2", v.Accounts())

	assert.Contains(t, bView.Prompt, "A2")
	assert.Equal(t, "A2", links.Options[0].Label)
	assert.Equal(t, "A2", links.Options[0].Action.Value)
	assert.Equal(t, "c", links.Options[1].Label)
	assert.Equal(t, "A2", results.Options[0].Label)
	assert.Equal(t, "c", results.Options[1].Label)
	assert.Equal(t, "Open A2", health.Options[0].Label)
	assert.Equal(t, "Open c", health.Options[1].Label)
}

func TestInvalidTextIsReported(t *testing.T) {
	v := newVault(t)
	_, err := v.AddAccount("bank")
	require.NoError(t, err)

	out, _, err := run(t, v,
		homeSearchName, "bank",
		viewUsername, "me\xff",
		navigator.BackSentinel,
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	require.Len(t, out.errs, 1)
	assert.ErrorIs(t, out.errs[0], vault.ErrInvalidText)
	assert.Empty(t, account(t, v, "bank").Username)
}

func TestDeleteConfirmation(t *testing.T) {
	v := newVault(t)
	_, err := v.AddAccount("x")
	require.NoError(t, err)

	out, _, err := run(t, v,
		homeSearchName, "x",
		viewDelete, "", // declined: back to the account view
		viewDelete, "1",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())
	assert.Contains(t, out.infos, `Account "x" deleted.`)
	assert.Equal(t, "Home", out.prompts[len(out.prompts)-1])
}

func TestViewHome(t *testing.T) {
	v := newVault(t)
	_, err := v.AddAccount("x")
	require.NoError(t, err)

	out, _, err := run(t, v, homeSearchName, "x", viewHome, navigator.ExitSentinel)
	require.NoError(t, err)
	assert.Equal(t, "Home", out.prompts[len(out.prompts)-1])
}

func TestChangeMasterSecret(t *testing.T) {
	v := newVault(t)

	out, in, err := run(t, v,
		homeChange, "wrong", testSecret, "new secret", "typo",
		homeChange, testSecret, "new secret", "new secret",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	require.Len(t, out.errs, 2)
	assert.ErrorIs(t, out.errs[0], ErrWrongSecret)
	assert.ErrorIs(t, out.errs[1], ErrSecretMismatch)
	assert.Contains(t, out.infos, "Master password changed.")
	assert.True(t, v.VerifySecret([]byte("new secret")))
	assert.Equal(t, []bool{false, true, true, true, true, false, true, true, true, false}, in.secret)
}

func TestHealthReport(t *testing.T) {
	v := newVault(t)
	for _, n := range []string{"a", "b", "c"} {
		_, err := v.AddAccount(n)
		require.NoError(t, err)
	}
	require.NoError(t, v.EditField(account(t, v, "a"), vault.FieldPassword, "hunter2"))
	require.NoError(t, v.EditField(account(t, v, "b"), vault.FieldPassword, "hunter2"))
	require.NoError(t, v.EditField(account(t, v, "c"), vault.FieldPassword, "correct horse battery staple"))

	out, _, err := run(t, v, homeHealth, "2", navigator.ExitSentinel)
	require.NoError(t, err)
	assert.True(t, out.sawPrompt("Password health: "))
	assert.True(t, out.sawPrompt("Account: b"))
}

func TestHealthReportNoIssues(t *testing.T) {
	v := newVault(t)
	out, _, err := run(t, v, homeHealth, navigator.ExitSentinel)
	require.NoError(t, err)
	require.Len(t, out.prompts, 3)
	assert.Contains(t, out.prompts[1], "No issues found.")
}

// flakySecretStore fails the first master secret changes.
type flakySecretStore struct {
	*vault.Vault
	failures int
}

func (f *flakySecretStore) ChangeMasterSecret(secret []byte) error {
	if f.failures > 0 {
		f.failures--
		return fmt.Errorf("%w: disk full", vault.ErrSecretChange)
	}
	return f.Vault.ChangeMasterSecret(secret)
}

func TestChangeMasterSecretFailureStaysOnConfirm(t *testing.T) {
	v := newVault(t)
	store := &flakySecretStore{Vault: v, failures: 1}

	out, in, err := run(t, store,
		homeChange, testSecret, "new secret",
		"new secret", // fails, the confirm prompt is asked again
		"new secret",
		navigator.ExitSentinel,
	)
	require.NoError(t, err)
	require.Len(t, out.errs, 1)
	assert.ErrorIs(t, out.errs[0], vault.ErrSecretChange)
	assert.Contains(t, out.infos, "Master password changed.")
	assert.True(t, v.VerifySecret([]byte("new secret")))
	assert.Equal(t, []bool{false, true, true, true, true, false}, in.secret)
	assert.Equal(t, "Home", out.prompts[len(out.prompts)-1])
}

// failingStore simulates a disk that stops accepting writes.
type failingStore struct {
	*vault.Vault
}

func (f failingStore) AddAccount(string) (*vault.Account, error) {
	return nil, fmt.Errorf("%w: disk full", vault.ErrPersist)
}

func TestPersistFailureIsFatal(t *testing.T) {
	v := newVault(t)

	out, _, err := run(t, failingStore{v}, homeAdd, "x")
	require.Error(t, err)
	assert.True(t, navigator.IsFatal(err))
	assert.ErrorIs(t, err, vault.ErrPersist)
	assert.Empty(t, out.errs)
}

func TestUnknownKind(t *testing.T) {
	s := New(newVault(t), &recorder{}, nil)
	err := s.Execute(context.Background(), &navigator.Stack[Action]{}, Action{Kind: Kind(99)}, "")
	assert.Error(t, err)
	assert.False(t, navigator.IsFatal(err))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "navigate", KindNavigate.String())
	assert.Equal(t, "health_report", KindHealthReport.String())
	assert.Equal(t, "unknown", Kind(-1).String())
}
