// Package session binds navigator menus to vault operations.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/forest6511/pwkeep/internal/navigator"
	"github.com/forest6511/pwkeep/pkg/security"
	"github.com/forest6511/pwkeep/pkg/vault"
)

// Store is the vault surface the session drives.
type Store interface {
	Accounts() []*vault.Account
	Index() vault.Index
	FilterByField(field vault.Field, keyword string) ([]*vault.Account, error)
	AddAccount(name string) (*vault.Account, error)
	DeleteAccount(acc *vault.Account) error
	RenameAccount(acc *vault.Account, newName string) error
	EditField(acc *vault.Account, field vault.Field, value string) error
	EditPhone(acc *vault.Account, value string) error
	ToggleLinkedAccount(acc *vault.Account, other string) (bool, error)
	EditMiscField(acc *vault.Account, key, value string) error
	VerifySecret(secret []byte) bool
	ChangeMasterSecret(newSecret []byte) error
}

// Errors
var (
	ErrWrongSecret    = errors.New("session: incorrect master password")
	ErrSecretMismatch = errors.New("session: passwords do not match")
)

type (
	stack = navigator.Stack[Action]
	state = navigator.State[Action]
)

// Session executes Actions against a Store.
type Session struct {
	store Store
	out   navigator.Renderer
	log   *slog.Logger
}

// New creates a Session. out receives confirmation messages.
func New(store Store, out navigator.Renderer, log *slog.Logger) *Session {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Session{store: store, out: out, log: log}
}

// Execute implements navigator.Executor.
func (s *Session) Execute(ctx context.Context, st *stack, action Action, input string) error {
	s.log.Debug("execute", "kind", action.Kind)

	err := s.dispatch(ctx, st, action, input)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, vault.ErrPersist):
		s.log.Error("failed to persist vault", "kind", action.Kind, "error", err)
		return navigator.Fatal(err)
	case errors.Is(err, vault.ErrEmptyInput):
		return navigator.ErrEmptyInput
	default:
		return err
	}
}

func (s *Session) dispatch(_ context.Context, st *stack, a Action, input string) error {
	switch a.Kind {
	case KindNavigate:
		st.Push(s.screen(a))
		return nil

	case KindHome:
		st.Truncate(1)
		return nil

	case KindSearchByName:
		accounts, err := s.store.FilterByField(vault.FieldAccountName, input)
		if err != nil {
			return err
		}
		st.Push(resultsState(accounts))
		return nil

	case KindListIndex:
		st.Push(indexState(a.Field, s.store.Index().Values(a.Field)))
		return nil

	case KindListByValue:
		accounts, err := s.store.FilterByField(a.Field, a.Value)
		if err != nil {
			return err
		}
		st.Push(resultsState(accounts))
		return nil

	case KindFocus:
		st.Push(accountState(a.Account))
		return nil

	case KindAddAccount:
		if input == "" {
			return navigator.ErrEmptyInput
		}
		acc, err := s.store.AddAccount(input)
		if err != nil {
			return err
		}
		s.out.Info(fmt.Sprintf("Account %q added.", acc.Name))
		st.Pop()
		st.Push(accountState(acc))
		return nil

	case KindRename:
		if input == "" {
			return navigator.ErrEmptyInput
		}
		oldName := a.Account.Name
		if err := s.store.RenameAccount(a.Account, input); err != nil {
			return err
		}
		refocus(st, a.Account, 2)
		relabel(st, oldName, a.Account.Name, s.store.Accounts())
		return nil

	case KindEditField:
		if input == "" {
			return navigator.ErrEmptyInput
		}
		if err := s.store.EditField(a.Account, a.Field, input); err != nil {
			return err
		}
		refocus(st, a.Account, 2)
		return nil

	case KindEditPhone:
		if err := s.store.EditPhone(a.Account, input); err != nil {
			return err
		}
		refocus(st, a.Account, 2)
		return nil

	case KindToggleLink:
		linked, err := s.store.ToggleLinkedAccount(a.Account, input)
		if err != nil {
			return err
		}
		if linked {
			s.out.Info(fmt.Sprintf("Linked %q.", input))
		} else {
			s.out.Info(fmt.Sprintf("Unlinked %q.", input))
		}
		refocus(st, a.Account, 2)
		return nil

	case KindChooseMisc:
		if input == "" {
			return navigator.ErrEmptyInput
		}
		st.Push(miscValueState(a.Account, input))
		return nil

	case KindEditMisc:
		if err := s.store.EditMiscField(a.Account, a.Value, input); err != nil {
			return err
		}
		refocus(st, a.Account, 3)
		return nil

	case KindDelete:
		if input != "1" {
			return navigator.ErrEmptyInput
		}
		name := a.Account.Name
		if err := s.store.DeleteAccount(a.Account); err != nil {
			return err
		}
		s.out.Info(fmt.Sprintf("Account %q deleted.", name))
		st.Truncate(1)
		return nil

	case KindVerifySecret:
		if input == "" {
			return navigator.ErrEmptyInput
		}
		if !s.store.VerifySecret([]byte(input)) {
			return ErrWrongSecret
		}
		st.Pop()
		st.Push(navigator.NewState("",
			navigator.Secret("New master password", Action{Kind: KindNewSecret})))
		return nil

	case KindNewSecret:
		if input == "" {
			return navigator.ErrEmptyInput
		}
		st.Pop()
		st.Push(navigator.NewState("",
			navigator.Secret("Confirm new master password", Action{Kind: KindConfirmSecret, Value: input})))
		return nil

	case KindConfirmSecret:
		if input != a.Value {
			s.out.Error(ErrSecretMismatch)
			st.Truncate(1)
			return nil
		}
		// On failure the confirm prompt stays current so the change can be retried.
		if err := s.store.ChangeMasterSecret([]byte(input)); err != nil {
			s.log.Warn("master secret change failed", "error", err)
			return err
		}
		s.out.Info("Master password changed.")
		st.Truncate(1)
		return nil

	case KindHealthReport:
		score, err := security.NewCalculator(s.store).CalculateScore()
		if err != nil {
			return err
		}
		st.Push(healthState(score, s.store))
		return nil

	default:
		return fmt.Errorf("session: unknown action kind %d", a.Kind)
	}
}

// refocus drops the account view and the depth-1 edit states above it,
// then pushes a freshly rendered view of acc.
func refocus(st *stack, acc *vault.Account, depth int) {
	st.PopN(depth)
	st.Push(accountState(acc))
}

// relabel rewrites states left on the stack that still show oldName:
// result and health entries, linked-account index entries and the
// views of accounts whose links were renamed.
func relabel(st *stack, oldName, newName string, accounts []*vault.Account) {
	if oldName == newName {
		return
	}
	linksTo := make(map[*vault.Account]bool)
	for _, acc := range accounts {
		if acc.IsLinkedTo(newName) {
			linksTo[acc] = true
		}
	}

	st.Each(func(s *state) {
		if acc := accountViewOf(s); acc != nil && (linksTo[acc] || acc.Name == newName) {
			*s = *accountState(acc)
			return
		}
		for i := range s.Options {
			opt := &s.Options[i]
			switch {
			case opt.Action.Kind == KindFocus && strings.HasSuffix(opt.Label, oldName):
				if opt.Action.Account != nil && opt.Action.Account.Name == newName {
					opt.Label = strings.TrimSuffix(opt.Label, oldName) + newName
				}
			case opt.Action.Kind == KindListByValue && opt.Action.Field == vault.FieldLinkedAccounts &&
				opt.Action.Value == oldName:
				opt.Action.Value = newName
				opt.Label = newName
			}
		}
	})
}
