package navigator

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderInputReadLine(t *testing.T) {
	var out bytes.Buffer
	in := NewReaderInput(strings.NewReader("first\r\nsecond\nlast"), &out)

	line, err := in.ReadLine("name: ")
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = in.ReadLine("")
	require.NoError(t, err)
	assert.Equal(t, "second", line)

	line, err = in.ReadLine("")
	require.NoError(t, err)
	assert.Equal(t, "last", line, "a final line without newline is returned")

	_, err = in.ReadLine("")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "name: ", out.String())
}

func TestReaderInputSecretFallsBackToLine(t *testing.T) {
	in := NewReaderInput(strings.NewReader("s3cret\n"), io.Discard)
	secret, err := in.ReadSecret("pw: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)
}

func TestTerminalSecretUsesPasswordReader(t *testing.T) {
	var out bytes.Buffer
	buf := []byte("hunter2")
	in := &TerminalInput{
		out:          &out,
		fd:           7,
		isTerminal:   func(fd int) bool { return fd == 7 },
		readPassword: func(int) ([]byte, error) { return buf, nil },
	}

	secret, err := in.ReadSecret("pw: ")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)
	assert.Equal(t, "pw: \n", out.String())
	assert.Equal(t, make([]byte, 7), buf, "raw buffer is wiped")

	in.readPassword = func(int) ([]byte, error) { return nil, errors.New("tty gone") }
	_, err = in.ReadSecret("pw: ")
	assert.Error(t, err)
}

func TestTextRenderer(t *testing.T) {
	var out bytes.Buffer
	r := NewTextRenderer(&out, true)

	r.Prompt("Home\n")
	r.Menu([]string{"Search", "Add"})
	r.Info("Saved")
	r.Error(errors.New("boom"))

	assert.Equal(t, "Home\n  1. Search\n  2. Add\nSaved\n✗ boom\n", out.String())
}
