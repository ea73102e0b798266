// Package vault provides the encrypted account store behind pwkeep.
//
// A Vault holds every Account in memory, derives secondary indexes from
// them on demand and persists the whole collection to a single encrypted
// data file after every mutation. One process owns the data file at a
// time; a second Load on the same path fails with ErrLocked.
package vault

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/forest6511/pwkeep/pkg/crypto"
)

// Constants
const (
	DefaultFileName = "accounts.data"
	LockSuffix      = ".lock"
	FileMode        = 0600 // Owner read/write only
	DirMode         = 0700 // Owner read/write/execute only
)

// Errors
var (
	ErrFileMissing      = errors.New("vault: data file does not exist")
	ErrVaultExists      = errors.New("vault: data file already exists")
	ErrAuthentication   = errors.New("vault: invalid master secret or corrupted data file")
	ErrCorrupted        = errors.New("vault: data file is corrupted")
	ErrLocked           = errors.New("vault: data file is in use by another process")
	ErrNotLoaded        = errors.New("vault: vault is not loaded")
	ErrAlreadyLoaded    = errors.New("vault: vault is already loaded")
	ErrPersist          = errors.New("vault: failed to persist data file")
	ErrInsufficientDisk = errors.New("vault: insufficient disk space")
	ErrSecretChange     = errors.New("vault: master secret change failed")

	ErrDuplicateName         = errors.New("vault: account name already exists")
	ErrEmptyName             = errors.New("vault: account name cannot be empty")
	ErrEmptyInput            = errors.New("vault: input cannot be empty")
	ErrInvalidPhone          = errors.New(`vault: phone number may only contain digits and a leading "+"`)
	ErrLinkedAccountNotFound = errors.New("vault: account to be linked does not exist")
	ErrAccountNotFound       = errors.New("vault: account not found")
	ErrUnknownField          = errors.New("vault: unsupported field")
	ErrInvalidText           = errors.New("vault: value is not valid UTF-8 text")
)

// phonePattern accepts an optional leading '+' followed by decimal digits.
var phonePattern = regexp.MustCompile(`^\+?[0-9]+$`)

// ValidPhone reports whether s is an acceptable phone number.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// Option configures a Vault.
type Option func(*Vault)

// WithParams overrides the key derivation parameters.
func WithParams(p crypto.Params) Option {
	return func(v *Vault) { v.params = p }
}

// WithLogger sets the logger used for warnings and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(v *Vault) {
		if l != nil {
			v.log = l
		}
	}
}

// WithClock replaces time.Now for LastEdited stamps.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		if now != nil {
			v.now = now
		}
	}
}

// Vault manages the account collection and its data file.
type Vault struct {
	path     string        // Path to the encrypted data file
	params   crypto.Params // Key derivation parameters
	codec    *crypto.Codec // Cached key; nil while not loaded
	lock     *fileLock     // Single-writer lock on path+LockSuffix
	accounts []*Account    // Authoritative collection
	index    Index         // Derived from accounts
	log      *slog.Logger
	now      func() time.Time
}

// New creates an unloaded Vault for the data file at path.
func New(path string, opts ...Option) *Vault {
	v := &Vault{
		path:     path,
		params:   crypto.DefaultParams(),
		accounts: []*Account{},
		log:      slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Path returns the data file path.
func (v *Vault) Path() string {
	return v.path
}

// IsLoaded reports whether a master secret has been verified or established.
func (v *Vault) IsLoaded() bool {
	return v.codec != nil
}

// Load decrypts the data file with secret.
//
// ErrFileMissing means this is a first run: the lock is kept and the caller
// is expected to call Create with the new master secret. ErrAuthentication
// leaves the vault unloaded and its collection empty.
func (v *Vault) Load(secret []byte) error {
	if v.codec != nil {
		return ErrAlreadyLoaded
	}
	if err := v.ensureLock(); err != nil {
		return err
	}

	blob, err := os.ReadFile(v.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrFileMissing
		}
		return fmt.Errorf("vault: failed to read data file: %w", err)
	}
	v.warnInsecurePermissions()

	codec := crypto.NewCodec(secret, v.params)
	plaintext, err := codec.Decrypt(blob)
	if err != nil {
		codec.Wipe()
		if errors.Is(err, crypto.ErrAuthentication) {
			return ErrAuthentication
		}
		return fmt.Errorf("vault: failed to decrypt data file: %w", err)
	}
	defer crypto.SecureWipe(plaintext)

	accounts, err := decodeRecords(plaintext)
	if err != nil {
		codec.Wipe()
		return err
	}

	v.codec = codec
	v.accounts = accounts
	v.sortAccounts()
	v.index = buildIndex(v.accounts)
	v.log.Debug("vault loaded", "path", v.path, "accounts", len(v.accounts))
	return nil
}

// Create establishes secret as the master secret of a new, empty vault and
// writes the data file immediately.
func (v *Vault) Create(secret []byte) error {
	if v.codec != nil {
		return ErrAlreadyLoaded
	}
	if len(secret) == 0 {
		return ErrEmptyInput
	}
	if err := v.ensureLock(); err != nil {
		return err
	}
	if _, err := os.Stat(v.path); err == nil {
		return ErrVaultExists
	}

	v.codec = crypto.NewCodec(secret, v.params)
	v.accounts = []*Account{}
	if err := v.Save(); err != nil {
		v.codec.Wipe()
		v.codec = nil
		return err
	}
	v.log.Info("vault created", "path", v.path)
	return nil
}

// Close wipes the key, clears the collection and releases the lock.
func (v *Vault) Close() error {
	if v.codec != nil {
		v.codec.Wipe()
		v.codec = nil
	}
	v.accounts = []*Account{}
	v.index = Index{}

	err := v.lock.release()
	v.lock = nil
	if err != nil {
		return fmt.Errorf("vault: failed to release lock: %w", err)
	}
	return nil
}

// Save rebuilds the indexes, sorts the accounts by name and atomically
// rewrites the encrypted data file. Any failure wraps ErrPersist.
func (v *Vault) Save() error {
	if v.codec == nil {
		return ErrNotLoaded
	}

	v.sortAccounts()
	v.index = buildIndex(v.accounts)

	plaintext, err := encodeRecords(v.accounts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	defer crypto.SecureWipe(plaintext)

	blob, err := v.codec.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := writeFileAtomic(v.path, blob); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	v.log.Debug("vault saved", "accounts", len(v.accounts))
	return nil
}

// Accounts returns the accounts in name order. The slice is a copy; the
// accounts are shared and identify records for the mutation methods.
func (v *Vault) Accounts() []*Account {
	return slices.Clone(v.accounts)
}

// Len returns the number of accounts.
func (v *Vault) Len() int {
	return len(v.accounts)
}

// Index rebuilds and returns the distinct-value indexes.
func (v *Vault) Index() Index {
	v.index = buildIndex(v.accounts)
	return v.index
}

// Account looks an account up by name.
func (v *Vault) Account(name string) (*Account, bool) {
	name = normalizeName(name)
	for _, acc := range v.accounts {
		if acc.Name == name {
			return acc, true
		}
	}
	return nil, false
}

// Contains reports whether acc is a record of this vault.
func (v *Vault) Contains(acc *Account) bool {
	return slices.Contains(v.accounts, acc)
}

// CheckNameExists reports whether an account is named name.
func (v *Vault) CheckNameExists(name string) bool {
	_, ok := v.Account(name)
	return ok
}

// VerifySecret reports whether secret is the current master secret.
func (v *Vault) VerifySecret(secret []byte) bool {
	if v.codec == nil {
		return false
	}
	return v.codec.Matches(secret)
}

// FilterByField returns the accounts matching keyword on field, in name order.
//
// For FieldAccountName an empty keyword matches everything, a single
// character matches the first character of the name and anything longer
// matches as a substring; all comparisons are case-sensitive. Scalar fields
// compare for equality and FieldLinkedAccounts tests membership.
func (v *Vault) FilterByField(field Field, keyword string) ([]*Account, error) {
	if v.codec == nil {
		return nil, ErrNotLoaded
	}

	var match func(*Account) bool
	switch field {
	case FieldAccountName:
		keyword = norm.NFC.String(keyword)
		switch len([]rune(keyword)) {
		case 0:
			match = func(*Account) bool { return true }
		case 1:
			match = func(a *Account) bool { return strings.HasPrefix(a.Name, keyword) }
		default:
			match = func(a *Account) bool { return strings.Contains(a.Name, keyword) }
		}
	case FieldUsername:
		match = func(a *Account) bool { return a.Username == keyword }
	case FieldEmail:
		match = func(a *Account) bool { return a.Email == keyword }
	case FieldPassword:
		match = func(a *Account) bool { return a.Password == keyword }
	case FieldPhone:
		match = func(a *Account) bool { return a.Phone == keyword }
	case FieldLinkedAccounts:
		name := normalizeName(keyword)
		match = func(a *Account) bool { return a.IsLinkedTo(name) }
	default:
		return nil, ErrUnknownField
	}

	result := []*Account{}
	for _, acc := range v.accounts {
		if match(acc) {
			result = append(result, acc)
		}
	}
	return result, nil
}

// AddAccount creates and persists an account named name.
func (v *Vault) AddAccount(name string) (*Account, error) {
	if v.codec == nil {
		return nil, ErrNotLoaded
	}
	if err := checkText(name); err != nil {
		return nil, err
	}
	name = normalizeName(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if v.CheckNameExists(name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	acc := NewAccount(name)
	acc.LastEdited = v.now()
	v.accounts = append(v.accounts, acc)
	if err := v.Save(); err != nil {
		return nil, err
	}
	return acc, nil
}

// ImportAccounts adds copies of accs in one save. Accounts with an empty
// or already used name, an invalid phone number or a value that is not
// valid UTF-8 are skipped and their names returned.
func (v *Vault) ImportAccounts(accs []*Account) (int, []string, error) {
	if v.codec == nil {
		return 0, nil, ErrNotLoaded
	}
	var skipped []string
	added := 0
	for _, a := range accs {
		if checkAccountText(a) != nil {
			skipped = append(skipped, a.Name)
			continue
		}
		acc := a.Clone()
		acc.Name = normalizeName(acc.Name)
		if acc.Name == "" || v.CheckNameExists(acc.Name) ||
			(acc.Phone != "" && !phonePattern.MatchString(acc.Phone)) {
			skipped = append(skipped, a.Name)
			continue
		}
		acc.LastEdited = v.now()
		v.accounts = append(v.accounts, acc)
		added++
	}
	if added == 0 {
		return 0, skipped, nil
	}
	if err := v.Save(); err != nil {
		return 0, skipped, err
	}
	v.log.Info("accounts imported", "count", added, "skipped", len(skipped))
	return added, skipped, nil
}

// DeleteAccount removes acc. Links to its name held by other accounts are
// left in place.
func (v *Vault) DeleteAccount(acc *Account) error {
	if v.codec == nil {
		return ErrNotLoaded
	}
	i := slices.Index(v.accounts, acc)
	if i < 0 {
		return ErrAccountNotFound
	}
	v.accounts = slices.Delete(v.accounts, i, i+1)
	return v.Save()
}

// RenameAccount renames acc and rewrites every link to the old name.
// Renaming an account to its current name does nothing.
func (v *Vault) RenameAccount(acc *Account, newName string) error {
	if err := v.requireAccount(acc); err != nil {
		return err
	}
	if err := checkText(newName); err != nil {
		return err
	}
	newName = normalizeName(newName)
	if newName == "" {
		return ErrEmptyName
	}
	if newName == acc.Name {
		return nil
	}
	if v.CheckNameExists(newName) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}

	oldName := acc.Name
	now := v.now()
	acc.Name = newName
	acc.LastEdited = now
	for _, other := range v.accounts {
		if other.replaceLink(oldName, newName) {
			other.LastEdited = now
		}
	}
	return v.Save()
}

// EditField sets one of the free-text fields username, email or password.
func (v *Vault) EditField(acc *Account, field Field, value string) error {
	if err := v.requireAccount(acc); err != nil {
		return err
	}
	if err := checkText(value); err != nil {
		return err
	}
	switch field {
	case FieldUsername:
		acc.Username = value
	case FieldEmail:
		acc.Email = value
	case FieldPassword:
		acc.Password = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	acc.LastEdited = v.now()
	return v.Save()
}

// EditPhone sets the phone number after validating its format. On error
// the account is left unchanged.
func (v *Vault) EditPhone(acc *Account, value string) error {
	if err := v.requireAccount(acc); err != nil {
		return err
	}
	if value == "" {
		return ErrEmptyInput
	}
	if err := checkText(value); err != nil {
		return err
	}
	if !phonePattern.MatchString(value) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, value)
	}
	acc.Phone = value
	acc.LastEdited = v.now()
	return v.Save()
}

// ToggleLinkedAccount unlinks other from acc if it is linked, otherwise
// links it provided an account of that name exists. The reverse link is
// never touched. It reports whether other is linked afterwards.
func (v *Vault) ToggleLinkedAccount(acc *Account, other string) (bool, error) {
	if err := v.requireAccount(acc); err != nil {
		return false, err
	}
	if err := checkText(other); err != nil {
		return false, err
	}
	other = normalizeName(other)
	if other == "" {
		return false, ErrEmptyInput
	}

	var linked bool
	if i := slices.Index(acc.LinkedAccounts, other); i >= 0 {
		acc.LinkedAccounts = slices.Delete(acc.LinkedAccounts, i, i+1)
	} else {
		if !v.CheckNameExists(other) {
			return false, fmt.Errorf("%w: %q", ErrLinkedAccountNotFound, other)
		}
		acc.LinkedAccounts = append(acc.LinkedAccounts, other)
		linked = true
	}
	acc.LastEdited = v.now()
	return linked, v.Save()
}

// EditMiscField upserts a misc entry, or deletes it when value is empty.
func (v *Vault) EditMiscField(acc *Account, key, value string) error {
	if err := v.requireAccount(acc); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyInput
	}
	if err := checkText(key, value); err != nil {
		return err
	}
	if value == "" {
		if _, ok := acc.Misc[key]; !ok {
			return nil
		}
		delete(acc.Misc, key)
	} else {
		acc.Misc[key] = value
	}
	acc.LastEdited = v.now()
	return v.Save()
}

// ChangeMasterSecret re-encrypts the vault under newSecret.
//
// The new file is written to a temporary path and decrypted back before it
// atomically replaces the data file. No copy encrypted under the old secret
// is left behind. The in-memory key is swapped only after the replace
// succeeded, so on failure the old secret still opens both the memory
// state and the file.
func (v *Vault) ChangeMasterSecret(newSecret []byte) error {
	if v.codec == nil {
		return ErrNotLoaded
	}
	if len(newSecret) == 0 {
		return ErrEmptyInput
	}

	newCodec := crypto.NewCodec(newSecret, v.params)
	fail := func(err error) error {
		newCodec.Wipe()
		return fmt.Errorf("%w: %w", ErrSecretChange, err)
	}

	v.sortAccounts()
	v.index = buildIndex(v.accounts)
	plaintext, err := encodeRecords(v.accounts)
	if err != nil {
		return fail(err)
	}
	defer crypto.SecureWipe(plaintext)

	blob, err := newCodec.Encrypt(plaintext)
	if err != nil {
		return fail(err)
	}
	tempPath, err := writeTemp(v.path, blob)
	if err != nil {
		return fail(err)
	}

	if err := verifyWritten(tempPath, newCodec, plaintext); err != nil {
		os.Remove(tempPath)
		return fail(err)
	}

	if err := os.Rename(tempPath, v.path); err != nil {
		os.Remove(tempPath)
		return fail(fmt.Errorf("vault: failed to replace data file: %w", err))
	}

	v.codec.Wipe()
	v.codec = newCodec
	v.log.Info("master secret changed")
	return nil
}

// verifyWritten checks that path decrypts to want under codec.
func verifyWritten(path string, codec *crypto.Codec, want []byte) error {
	written, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("vault: failed to read back temp file: %w", err)
	}
	got, err := codec.Decrypt(written)
	if err != nil {
		return fmt.Errorf("vault: temp file does not decrypt: %w", err)
	}
	defer crypto.SecureWipe(got)
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: temp file content mismatch", ErrCorrupted)
	}
	return nil
}

// checkText rejects values that are not valid UTF-8. Records are stored as
// JSON, which would replace invalid bytes with U+FFFD on save.
func checkText(values ...string) error {
	for _, s := range values {
		if !utf8.ValidString(s) {
			return fmt.Errorf("%w: %q", ErrInvalidText, s)
		}
	}
	return nil
}

// checkAccountText applies checkText to every string field of acc.
func checkAccountText(acc *Account) error {
	values := []string{acc.Name, acc.Username, acc.Email, acc.Password, acc.Phone}
	values = append(values, acc.LinkedAccounts...)
	for k, val := range acc.Misc {
		values = append(values, k, val)
	}
	return checkText(values...)
}

func (v *Vault) requireAccount(acc *Account) error {
	if v.codec == nil {
		return ErrNotLoaded
	}
	if acc == nil || !v.Contains(acc) {
		return ErrAccountNotFound
	}
	return nil
}

// sortAccounts orders accounts by name, ordinal and case-sensitive.
func (v *Vault) sortAccounts() {
	slices.SortStableFunc(v.accounts, func(a, b *Account) int {
		return strings.Compare(a.Name, b.Name)
	})
}

func (v *Vault) ensureLock() error {
	if v.lock != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(v.path), DirMode); err != nil {
		return fmt.Errorf("vault: failed to create data directory: %w", err)
	}
	lock, err := acquireLock(v.path + LockSuffix)
	if err != nil {
		return err
	}
	v.lock = lock
	return nil
}

// warnInsecurePermissions logs when the data file is accessible to group
// or others. Advisory only.
func (v *Vault) warnInsecurePermissions() {
	info, err := os.Stat(v.path)
	if err != nil {
		return
	}
	if insecurePermissions(info) {
		v.log.Warn("data file has insecure permissions",
			"path", v.path, "perm", fmt.Sprintf("%04o", info.Mode().Perm()), "expected", "0600")
	}
}

// normalizeName trims surrounding whitespace and applies Unicode NFC so
// that visually identical names compare equal.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
