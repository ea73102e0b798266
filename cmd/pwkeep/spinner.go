package main

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// startSpinner shows message with a spinner on w while key derivation
// runs. Disabled when w is not a terminal.
func startSpinner(w io.Writer, message string, enabled, noColor bool) func() {
	if !enabled {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	if !noColor {
		// Ignore color errors - continue without colored spinner if it fails.
		_ = s.Color("cyan")
	}
	s.Start()
	return s.Stop
}
