// Package tui runs a limit cycle search behind a bubbletea progress view. A
// key press turns into the stop request the search polls for.
package tui

import (
	"fmt"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/limitcycle"
	"github.com/san-kum/polysphere/internal/render"
)

const barWidth = 40

// SearchFunc runs the search with the given collaborators.
type SearchFunc func(dynamo.Canceller, dynamo.Progress) (limitcycle.Result, error)

type progressMsg int

type doneMsg struct {
	res limitcycle.Result
	err error
}

type SearchModel struct {
	title    string
	total    int
	done     int
	run      SearchFunc
	stop     *atomic.Bool
	updates  chan tea.Msg
	stopping bool
	finished bool
	res      limitcycle.Result
	err      error
}

// NewSearchModel prepares a search over total grid points.
func NewSearchModel(title string, total int, run SearchFunc) SearchModel {
	return SearchModel{
		title:   title,
		total:   total,
		run:     run,
		stop:    &atomic.Bool{},
		updates: make(chan tea.Msg, 16),
	}
}

// Canceller reports the stop request made from the keyboard.
func (m SearchModel) Canceller() dynamo.Canceller {
	return dynamo.CancelFunc(m.stop.Load)
}

func (m SearchModel) progress() dynamo.Progress {
	return dynamo.ProgressFunc(func(n int) {
		select {
		case m.updates <- progressMsg(n):
		default:
		}
	})
}

func (m SearchModel) Init() tea.Cmd {
	return tea.Batch(m.start, m.wait)
}

func (m SearchModel) start() tea.Msg {
	res, err := m.run(m.Canceller(), m.progress())
	m.updates <- doneMsg{res: res, err: err}
	return nil
}

func (m SearchModel) wait() tea.Msg {
	return <-m.updates
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "s", "q", "esc", "ctrl+c":
			m.stop.Store(true)
			m.stopping = true
		}
		return m, nil
	case progressMsg:
		m.done = int(msg)
		return m, m.wait
	case doneMsg:
		m.finished = true
		m.res, m.err = msg.res, msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m SearchModel) View() string {
	var b strings.Builder
	b.WriteString(render.Title.Render(m.title))
	b.WriteString("\n\n")

	frac := 0.0
	if m.total > 0 {
		frac = float64(m.done) / float64(m.total)
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * barWidth)
	bar := render.Good.Render(strings.Repeat("█", filled)) + render.Hint.Render(strings.Repeat("░", barWidth-filled))
	fmt.Fprintf(&b, "%s %s\n", bar, render.Value.Render(fmt.Sprintf("%d/%d", m.done, m.total)))

	switch {
	case m.finished && m.err != nil:
		b.WriteString(render.Warn.Render("error: " + m.err.Error()))
	case m.finished && m.res.Aborted:
		b.WriteString(render.Warn.Render("stopped"))
	case m.finished:
		b.WriteString(render.KeyValue("cycles", fmt.Sprint(len(m.res.Cycles))))
	case m.stopping:
		b.WriteString(render.Warn.Render("stopping..."))
	default:
		b.WriteString(render.Hint.Render("s: stop search"))
	}
	b.WriteString("\n")
	return render.Panel.Render(b.String())
}

// Result is the outcome once the model finished.
func (m SearchModel) Result() (limitcycle.Result, error) {
	return m.res, m.err
}

// RunSearch shows the progress view until the search returns.
func RunSearch(title string, total int, run SearchFunc) (limitcycle.Result, error) {
	final, err := tea.NewProgram(NewSearchModel(title, total, run)).Run()
	if err != nil {
		return limitcycle.Result{}, err
	}
	return final.(SearchModel).Result()
}
