package confirm

import (
	"errors"
	"sync"
)

// Gate is a two-step commit for destructive or identity-affecting actions:
// the first Submit arms the gate without executing anything, a subsequent
// Confirm runs the armed action exactly once, and Cancel discards it.
type Gate struct {
	mu     sync.Mutex
	armed  func() error
	onDone func(err error)
}

type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting-confirmation"
)

var ErrNothingArmed = errors.New("confirm: no action awaiting confirmation")

func NewGate() *Gate {
	return &Gate{}
}

// Submit arms action and moves the gate to awaiting-confirmation. The action
// does not execute. onDone, when non-nil, runs after a later Confirm with the
// action's result; it is where callers hook sign-out-after-change side
// effects. Submitting while already armed replaces the armed action.
func (g *Gate) Submit(action func() error, onDone func(err error)) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = action
	g.onDone = onDone
	return StateAwaiting
}

// Confirm executes the armed action and resets the gate regardless of the
// action's outcome.
func (g *Gate) Confirm() error {
	g.mu.Lock()
	action := g.armed
	onDone := g.onDone
	g.armed = nil
	g.onDone = nil
	g.mu.Unlock()

	if action == nil {
		return ErrNothingArmed
	}
	err := action()
	if onDone != nil {
		onDone(err)
	}
	return err
}

// Cancel discards the armed action with no side effect.
func (g *Gate) Cancel() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = nil
	g.onDone = nil
	return StateIdle
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.armed != nil {
		return StateAwaiting
	}
	return StateIdle
}
