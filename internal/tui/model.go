// Package tui renders installation progress as a Bubbletea program. The
// orchestrator's observer forwards events into the program; a plain
// line-writer fallback covers non-interactive output.
package tui

import (
	"github.com/charmbracelet/bubbles/progress"

	"github.com/tkirkland/SLIT/internal/installer"
)

// EventMsg wraps an orchestrator progress event.
type EventMsg installer.Event

// DoneMsg reports the end of the installation run.
type DoneMsg struct {
	Err error
}

// phaseState tracks one phase's lifecycle for rendering.
type phaseState int

const (
	phasePending phaseState = iota
	phaseRunning
	phaseDone
	phaseFailed
)

// Model is the Bubbletea state for the installation progress view.
type Model struct {
	dryRun bool

	phases    []string
	states    []phaseState
	current   int
	step      string
	stepCount int

	bar      progress.Model
	finished bool
	err      error
}

// NewModel constructs the progress model for a five-phase run.
func NewModel(dryRun bool) Model {
	names := []string{
		installer.PhaseSystemPreparation,
		installer.PhasePartitioning,
		installer.PhaseSystemInstallation,
		installer.PhaseBootloaderConfiguration,
		installer.PhaseSystemConfiguration,
	}

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30

	return Model{
		dryRun:  dryRun,
		phases:  names,
		states:  make([]phaseState, len(names)),
		current: -1,
		bar:     bar,
	}
}

// Err returns the terminal error once the run finished.
func (m Model) Err() error {
	return m.err
}

func (m Model) completedPhases() int {
	n := 0
	for _, s := range m.states {
		if s == phaseDone {
			n++
		}
	}
	return n
}
