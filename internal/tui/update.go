package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tkirkland/SLIT/internal/installer"
)

// Init satisfies tea.Model; the program is driven entirely by external
// messages.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		return m.applyEvent(installer.Event(msg)), nil
	case DoneMsg:
		m.finished = true
		if m.err == nil {
			m.err = msg.Err
		}
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.finished = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) applyEvent(ev installer.Event) Model {
	idx := ev.PhaseIndex - 1
	if idx < 0 || idx >= len(m.states) {
		return m
	}

	switch ev.Kind {
	case installer.EventPhaseStarted:
		m.current = idx
		m.states[idx] = phaseRunning
		m.step = ""
	case installer.EventStepDone:
		m.step = ev.Step
		m.stepCount++
	case installer.EventPhaseCompleted:
		m.states[idx] = phaseDone
	case installer.EventPhaseFailed:
		m.states[idx] = phaseFailed
		m.err = ev.Err
	}
	return m
}
