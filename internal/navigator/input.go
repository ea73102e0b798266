package navigator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Input reads lines from the user. ReadSecret must not echo.
// Both return io.EOF once input is exhausted.
type Input interface {
	ReadLine(prompt string) (string, error)
	ReadSecret(prompt string) (string, error)
}

// TerminalInput reads from a file, switching the terminal to no-echo mode
// for secrets. When the file is not a terminal secrets are read as plain
// lines so piped input keeps working.
type TerminalInput struct {
	reader       *bufio.Reader
	out          io.Writer
	fd           int
	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

// NewTerminalInput reads from in and writes prompts to out.
func NewTerminalInput(in *os.File, out io.Writer) *TerminalInput {
	return &TerminalInput{
		reader:       bufio.NewReader(in),
		out:          out,
		fd:           int(in.Fd()),
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
	}
}

// NewReaderInput reads from an arbitrary reader; secrets are echoed.
func NewReaderInput(r io.Reader, out io.Writer) *TerminalInput {
	return &TerminalInput{
		reader:     bufio.NewReader(r),
		out:        out,
		fd:         -1,
		isTerminal: func(int) bool { return false },
	}
}

// ReadLine prints prompt and returns the next line without its terminator.
func (t *TerminalInput) ReadLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadSecret prints prompt and reads a line with echo disabled.
func (t *TerminalInput) ReadSecret(prompt string) (string, error) {
	if !t.isTerminal(t.fd) {
		return t.ReadLine(prompt)
	}

	fmt.Fprint(t.out, prompt)
	b, err := t.readPassword(t.fd)
	fmt.Fprintln(t.out) // ReadPassword swallows the newline
	if err != nil {
		return "", err
	}
	secret := string(b)
	for i := range b {
		b[i] = 0
	}
	return secret, nil
}
