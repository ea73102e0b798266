package navigator

// Option is one entry of a State: a label bound to an action value.
// TextInput options take a line of free text instead of being chosen
// from a numbered list; SecretInput options read it without echo.
type Option[A any] struct {
	Label       string
	Action      A
	TextInput   bool
	SecretInput bool
}

// Choice returns a numbered-menu option.
func Choice[A any](label string, action A) Option[A] {
	return Option[A]{Label: label, Action: action}
}

// Text returns a free-text option.
func Text[A any](label string, action A) Option[A] {
	return Option[A]{Label: label, Action: action, TextInput: true}
}

// Secret returns a free-text option whose input is not echoed.
func Secret[A any](label string, action A) Option[A] {
	return Option[A]{Label: label, Action: action, TextInput: true, SecretInput: true}
}

// State is a menu node: a prompt and its ordered options.
type State[A any] struct {
	Prompt  string
	Options []Option[A]
}

// NewState builds a State.
func NewState[A any](prompt string, options ...Option[A]) *State[A] {
	return &State[A]{Prompt: prompt, Options: options}
}
