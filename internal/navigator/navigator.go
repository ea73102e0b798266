// Package navigator implements a stack-based interactive menu session.
//
// A Navigator repeatedly takes the State on top of a Stack, renders it,
// reads a line of input and hands the selected Option's action to an
// Executor. The package knows nothing about what actions mean; A is any
// value type the Executor understands.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Sentinel inputs, checked before anything else on every read.
const (
	BackSentinel = "`"  // pop one state
	ExitSentinel = "``" // clear the stack
)

// menuPrompt is shown when reading a numbered selection.
const menuPrompt = "> "

// DefaultAliases maps the keys around WASD to menu positions 4-9 so a
// hand on the left of the keyboard can reach every common entry.
var DefaultAliases = map[string]string{
	"q": "4", "w": "5", "e": "6",
	"a": "7", "s": "8", "d": "9",
}

// Executor interprets action values. It may push states onto stack or
// otherwise manipulate it. Returning ErrEmptyInput from a text option
// acts as "back"; a Fatal error ends Run; other errors are reported.
type Executor[A any] interface {
	Execute(ctx context.Context, stack *Stack[A], action A, input string) error
}

// Navigator drives the read-eval loop over a Stack of States.
type Navigator[A any] struct {
	exec    Executor[A]
	in      Input
	out     Renderer
	stack   *Stack[A]
	aliases map[string]string
	log     *slog.Logger
}

// New creates a Navigator with DefaultAliases.
func New[A any](exec Executor[A], in Input, out Renderer, log *slog.Logger) *Navigator[A] {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Navigator[A]{
		exec:    exec,
		in:      in,
		out:     out,
		stack:   &Stack[A]{},
		aliases: DefaultAliases,
		log:     log,
	}
}

// SetAliases replaces the key aliases for numbered menus. nil disables them.
func (n *Navigator[A]) SetAliases(aliases map[string]string) {
	n.aliases = aliases
}

// Stack returns the navigator's stack.
func (n *Navigator[A]) Stack() *Stack[A] {
	return n.stack
}

// Run pushes root and steps until the stack is empty. End of input ends
// the session without error; a Fatal action error is returned as is.
func (n *Navigator[A]) Run(ctx context.Context, root *State[A]) error {
	n.stack.Clear()
	n.stack.Push(root)

	for n.stack.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.Step(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				n.log.Debug("input closed, ending session")
				n.stack.Clear()
				return nil
			}
			return err
		}
	}
	return nil
}

// Step performs one transition on the current state. It returns only
// input errors and Fatal action errors; anything else is rendered.
func (n *Navigator[A]) Step(ctx context.Context) error {
	state, ok := n.stack.Top()
	if !ok {
		return nil
	}
	if state.Prompt != "" {
		n.out.Prompt(state.Prompt)
	}

	switch len(state.Options) {
	case 0:
		n.stack.Pop()
		return nil

	case 1:
		opt := state.Options[0]
		if !opt.TextInput {
			// Single choice: fast-forward
			n.stack.Pop()
			return n.execute(ctx, opt.Action, "")
		}

		line, err := n.read(opt)
		if err != nil {
			return err
		}
		if n.sentinel(line) {
			return nil
		}
		err = n.exec.Execute(ctx, n.stack, opt.Action, line)
		if errors.Is(err, ErrEmptyInput) {
			if top, ok := n.stack.Top(); ok && top == state {
				n.stack.Pop()
			}
			return nil
		}
		return n.report(err)

	default:
		labels := make([]string, len(state.Options))
		for i, opt := range state.Options {
			labels[i] = opt.Label
		}
		n.out.Menu(labels)

		line, err := n.in.ReadLine(menuPrompt)
		if err != nil {
			return err
		}
		if n.sentinel(line) {
			return nil
		}
		i, err := n.selection(line, len(state.Options))
		if err != nil {
			n.out.Error(err)
			return nil
		}
		return n.execute(ctx, state.Options[i].Action, "")
	}
}

func (n *Navigator[A]) read(opt Option[A]) (string, error) {
	prompt := opt.Label
	if prompt != "" && !strings.HasSuffix(prompt, " ") {
		prompt += ": "
	}
	if opt.SecretInput {
		return n.in.ReadSecret(prompt)
	}
	return n.in.ReadLine(prompt)
}

// sentinel applies the back and exit inputs, reporting whether line was one.
func (n *Navigator[A]) sentinel(line string) bool {
	switch line {
	case BackSentinel:
		n.stack.Pop()
		return true
	case ExitSentinel:
		n.stack.Clear()
		return true
	}
	return false
}

// selection resolves a menu input to a zero-based option index.
func (n *Navigator[A]) selection(line string, count int) (int, error) {
	line = strings.TrimSpace(line)
	if alias, ok := n.aliases[line]; ok {
		line = alias
	}
	if line == "" || strings.TrimLeft(line, "0123456789") != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInput, line)
	}
	choice, err := strconv.Atoi(line)
	if err != nil || choice < 1 || choice > count {
		return 0, fmt.Errorf("%w: %s (choose 1-%d)", ErrOutOfRange, line, count)
	}
	return choice - 1, nil
}

func (n *Navigator[A]) execute(ctx context.Context, action A, input string) error {
	return n.report(n.exec.Execute(ctx, n.stack, action, input))
}

// report renders recoverable errors and passes fatal ones through.
func (n *Navigator[A]) report(err error) error {
	switch {
	case err == nil:
		return nil
	case IsFatal(err):
		return err
	case errors.Is(err, ErrEmptyInput):
		return nil
	default:
		n.out.Error(err)
		return nil
	}
}
