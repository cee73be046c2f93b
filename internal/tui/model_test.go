package tui

import (
	"bytes"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/tkirkland/SLIT/internal/installer"
)

func eventMsg(kind installer.EventKind, phase string, index int) EventMsg {
	return EventMsg(installer.Event{Kind: kind, Phase: phase, PhaseIndex: index, PhaseCount: 5})
}

func TestModelTracksPhaseLifecycle(t *testing.T) {
	t.Parallel()

	m := NewModel(false)
	require.Equal(t, 0, m.completedPhases())

	next, _ := m.Update(eventMsg(installer.EventPhaseStarted, installer.PhaseSystemPreparation, 1))
	m = next.(Model)
	require.Equal(t, phaseRunning, m.states[0])

	next, _ = m.Update(eventMsg(installer.EventPhaseCompleted, installer.PhaseSystemPreparation, 1))
	m = next.(Model)
	require.Equal(t, phaseDone, m.states[0])
	require.Equal(t, 1, m.completedPhases())
}

func TestModelRecordsFailure(t *testing.T) {
	t.Parallel()

	m := NewModel(false)
	ev := installer.Event{
		Kind:       installer.EventPhaseFailed,
		Phase:      installer.PhasePartitioning,
		PhaseIndex: 2,
		PhaseCount: 5,
		Err:        fmt.Errorf("mkfs failed"),
	}
	next, _ := m.Update(EventMsg(ev))
	m = next.(Model)
	require.Equal(t, phaseFailed, m.states[1])
	require.EqualError(t, m.Err(), "mkfs failed")
}

func TestModelQuitsOnDone(t *testing.T) {
	t.Parallel()

	m := NewModel(true)
	next, cmd := m.Update(DoneMsg{})
	m = next.(Model)
	require.True(t, m.finished)
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
}

func TestViewShowsDryRunBanner(t *testing.T) {
	t.Parallel()

	m := NewModel(true)
	next, _ := m.Update(DoneMsg{})
	view := next.(Model).View()
	require.Contains(t, view, "dry-run")
	require.Contains(t, view, "no changes were made")
}

func TestPlainObserver(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := Plain{W: &buf, DryRun: true}

	p.Observe(installer.Event{Kind: installer.EventPhaseStarted, Phase: installer.PhasePartitioning, PhaseIndex: 2, PhaseCount: 5})
	p.Observe(installer.Event{Kind: installer.EventStepDone, Phase: installer.PhasePartitioning, PhaseIndex: 2, PhaseCount: 5, Step: "create GPT partition table"})
	p.Observe(installer.Event{Kind: installer.EventPhaseCompleted, Phase: installer.PhasePartitioning, PhaseIndex: 2, PhaseCount: 5})

	out := buf.String()
	require.Contains(t, out, "[dry-run] --- Phase 2 of 5: Partitioning ---")
	require.Contains(t, out, "create GPT partition table")
	require.Contains(t, out, "Partitioning completed")
}
