package main

import (
	"errors"
	"fmt"

	"github.com/forest6511/pwkeep/internal/navigator"
	"github.com/forest6511/pwkeep/pkg/vault"
)

var errPasswordMismatch = errors.New("passwords do not match")

// busyFunc shows progress for a slow step; the returned func ends it.
type busyFunc func(msg string) (done func())

// unlock prompts for the master password until the vault loads. When the
// data file does not exist yet the entered password becomes the master
// password of a new, empty vault once confirmed.
func unlock(v *vault.Vault, in navigator.Input, out navigator.Renderer, attempts int, busy busyFunc) error {
	for attempt := 1; attempt <= attempts; attempt++ {
		secret, err := in.ReadSecret("Master password: ")
		if err != nil {
			return err
		}

		done := busy("Unlocking vault...")
		err = v.Load([]byte(secret))
		done()

		switch {
		case err == nil:
			return nil
		case errors.Is(err, vault.ErrFileMissing):
			err := setup(v, in, out, secret, busy)
			if err == nil {
				return nil
			}
			if !errors.Is(err, errPasswordMismatch) && !errors.Is(err, vault.ErrEmptyInput) {
				return err
			}
			out.Error(err)
		case errors.Is(err, vault.ErrAuthentication):
			out.Error(err)
		default:
			return err
		}
	}
	return fmt.Errorf("%w: giving up after %d attempts", vault.ErrAuthentication, attempts)
}

// setup creates the vault after confirming the first-run password.
func setup(v *vault.Vault, in navigator.Input, out navigator.Renderer, secret string, busy busyFunc) error {
	out.Info(fmt.Sprintf("No vault found at %s. The password you entered will become the master password.", v.Path()))
	confirm, err := in.ReadSecret("Confirm master password: ")
	if err != nil {
		return err
	}
	if confirm != secret {
		return errPasswordMismatch
	}

	done := busy("Creating vault...")
	err = v.Create([]byte(secret))
	done()
	if err != nil {
		return err
	}
	out.Info("Vault created.")
	return nil
}
