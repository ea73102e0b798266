package navigator

// Stack is the ordered sequence of States; the last element is current.
type Stack[A any] struct {
	states []*State[A]
}

// Push appends states in order, so the last one becomes current.
func (s *Stack[A]) Push(states ...*State[A]) {
	s.states = append(s.states, states...)
}

// Pop removes and returns the current state.
func (s *Stack[A]) Pop() (*State[A], bool) {
	if len(s.states) == 0 {
		return nil, false
	}
	top := s.states[len(s.states)-1]
	s.states[len(s.states)-1] = nil
	s.states = s.states[:len(s.states)-1]
	return top, true
}

// PopN removes up to n states.
func (s *Stack[A]) PopN(n int) {
	for ; n > 0; n-- {
		if _, ok := s.Pop(); !ok {
			return
		}
	}
}

// Top returns the current state without removing it.
func (s *Stack[A]) Top() (*State[A], bool) {
	if len(s.states) == 0 {
		return nil, false
	}
	return s.states[len(s.states)-1], true
}

// Len returns the stack depth.
func (s *Stack[A]) Len() int {
	return len(s.states)
}

// Truncate pops down to depth; Truncate(1) returns to the root state.
func (s *Stack[A]) Truncate(depth int) {
	if depth < 0 {
		depth = 0
	}
	if depth < len(s.states) {
		s.PopN(len(s.states) - depth)
	}
}

// Clear empties the stack, which ends the session.
func (s *Stack[A]) Clear() {
	s.Truncate(0)
}

// Each calls fn for every state from the root upwards. fn may modify the
// state in place but must not push or pop.
func (s *Stack[A]) Each(fn func(*State[A])) {
	for _, st := range s.states {
		fn(st)
	}
}
