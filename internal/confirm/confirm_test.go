package confirm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitDoesNotExecute(t *testing.T) {
	g := NewGate()
	calls := 0

	state := g.Submit(func() error { calls++; return nil }, nil)

	assert.Equal(t, StateAwaiting, state)
	assert.Equal(t, StateAwaiting, g.State())
	assert.Equal(t, 0, calls)
}

func TestConfirmExecutesExactlyOnce(t *testing.T) {
	g := NewGate()
	calls := 0
	g.Submit(func() error { calls++; return nil }, nil)

	require.NoError(t, g.Confirm())
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateIdle, g.State())

	// second confirm has nothing armed
	assert.ErrorIs(t, g.Confirm(), ErrNothingArmed)
	assert.Equal(t, 1, calls)
}

func TestCancelDiscardsAction(t *testing.T) {
	g := NewGate()
	calls := 0
	g.Submit(func() error { calls++; return nil }, nil)

	state := g.Cancel()

	assert.Equal(t, StateIdle, state)
	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, g.Confirm(), ErrNothingArmed)
}

func TestGateResetsEvenWhenActionFails(t *testing.T) {
	g := NewGate()
	boom := errors.New("boom")
	g.Submit(func() error { return boom }, nil)

	assert.ErrorIs(t, g.Confirm(), boom)
	assert.Equal(t, StateIdle, g.State())
}

func TestOnDoneReceivesActionResult(t *testing.T) {
	g := NewGate()
	var got error
	boom := errors.New("boom")
	g.Submit(func() error { return boom }, func(err error) { got = err })

	_ = g.Confirm()
	assert.ErrorIs(t, got, boom)

	g.Submit(func() error { return nil }, func(err error) { got = err })
	require.NoError(t, g.Confirm())
	assert.NoError(t, got)
}
