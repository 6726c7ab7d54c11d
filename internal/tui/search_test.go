package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/limitcycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idle(dynamo.Canceller, dynamo.Progress) (limitcycle.Result, error) {
	return limitcycle.Result{}, nil
}

func TestStopKeySetsCanceller(t *testing.T) {
	m := NewSearchModel("search", 10, idle)
	stop := m.Canceller()
	assert.False(t, stop.Poll())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	assert.Nil(t, cmd)
	assert.True(t, stop.Poll())
	assert.Contains(t, next.(SearchModel).View(), "stopping")
}

func TestProgressAndDone(t *testing.T) {
	m := NewSearchModel("search", 4, idle)

	next, cmd := m.Update(progressMsg(2))
	require.NotNil(t, cmd)
	m = next.(SearchModel)
	assert.Contains(t, m.View(), "2/4")

	res := limitcycle.Result{Cycles: []limitcycle.Cycle{{X: 1}}}
	next, cmd = m.Update(doneMsg{res: res})
	require.NotNil(t, cmd)
	m = next.(SearchModel)
	got, err := m.Result()
	require.NoError(t, err)
	assert.Len(t, got.Cycles, 1)
	assert.Contains(t, m.View(), "cycles")

	next, _ = m.Update(doneMsg{err: errors.New("boom")})
	assert.Contains(t, next.(SearchModel).View(), "boom")
}

func TestStartDeliversThroughChannel(t *testing.T) {
	m := NewSearchModel("search", 3, func(c dynamo.Canceller, p dynamo.Progress) (limitcycle.Result, error) {
		p.Report(1)
		return limitcycle.Result{Aborted: c.Poll()}, nil
	})
	assert.Nil(t, m.start())
	assert.Equal(t, progressMsg(1), m.wait())
	done, ok := m.wait().(doneMsg)
	require.True(t, ok)
	assert.False(t, done.res.Aborted)
}
