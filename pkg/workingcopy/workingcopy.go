// Package workingcopy provides the clone-apply-commit-or-discard helper
// spec section 9 calls out by name: try a batch of mutations against a
// scratch copy of a state and either adopt the result or throw it away
// without ever exposing a half-applied state to a reader. pkg/account uses
// it; the entity layer clones and rolls back its state by hand.
package workingcopy

// WorkingCopy holds a committed base value and a mutable scratch copy
// derived from it. CloneFn must produce a deep-enough copy that mutating
// Current never aliases into Base.
type WorkingCopy[State any] struct {
	base    State
	current State
	cloneFn func(State) State
}

// New starts a working copy rooted at base.
func New[State any](base State, cloneFn func(State) State) *WorkingCopy[State] {
	return &WorkingCopy[State]{base: base, current: cloneFn(base), cloneFn: cloneFn}
}

// Current returns the scratch copy mutations should be applied to.
func (w *WorkingCopy[State]) Current() State { return w.current }

// Commit adopts the scratch copy as the new base and returns it.
func (w *WorkingCopy[State]) Commit() State {
	w.base = w.current
	return w.base
}

// Discard throws away any mutation made to Current and re-derives a fresh
// scratch copy from the last committed base.
func (w *WorkingCopy[State]) Discard() {
	w.current = w.cloneFn(w.base)
}

// Base returns the last committed value without going through Current.
func (w *WorkingCopy[State]) Base() State { return w.base }
