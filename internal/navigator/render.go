package navigator

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Renderer presents states and messages to the user.
type Renderer interface {
	Prompt(text string)
	Menu(labels []string)
	Info(text string)
	Error(err error)
}

// TextRenderer writes plain or colored text to a writer.
type TextRenderer struct {
	w      io.Writer
	prompt *color.Color
	index  *color.Color
	info   *color.Color
	err    *color.Color
}

// NewTextRenderer returns a renderer writing to w. Color is also off
// whenever fatih/color detects a non-terminal or NO_COLOR.
func NewTextRenderer(w io.Writer, noColor bool) *TextRenderer {
	r := &TextRenderer{
		w:      w,
		prompt: color.New(color.Bold),
		index:  color.New(color.FgCyan),
		info:   color.New(color.FgGreen),
		err:    color.New(color.FgRed),
	}
	if noColor {
		for _, c := range []*color.Color{r.prompt, r.index, r.info, r.err} {
			c.DisableColor()
		}
	}
	return r
}

// Prompt writes a state's prompt followed by a newline.
func (r *TextRenderer) Prompt(text string) {
	r.prompt.Fprintln(r.w, strings.TrimRight(text, "\n"))
}

// Menu writes labels as a numbered list starting at 1.
func (r *TextRenderer) Menu(labels []string) {
	for i, label := range labels {
		fmt.Fprintf(r.w, "  %s %s\n", r.index.Sprintf("%d.", i+1), label)
	}
}

// Info writes a confirmation message.
func (r *TextRenderer) Info(text string) {
	r.info.Fprintln(r.w, text)
}

// Error writes a recoverable error.
func (r *TextRenderer) Error(err error) {
	r.err.Fprintln(r.w, "✗ "+err.Error())
}
