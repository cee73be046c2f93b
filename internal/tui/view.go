package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	title := titleStyle.Render("SLIT installer")
	if m.dryRun {
		title += " " + dryRunStyle.Render("[dry-run]")
	}
	sections = append(sections, title)

	ratio := float64(m.completedPhases()) / float64(len(m.phases))
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d", m.completedPhases(), len(m.phases)))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Left, label, " ", m.bar.ViewAs(ratio)))

	for i, name := range m.phases {
		icon, style := phaseIcon(m.states[i])
		sections = append(sections, fmt.Sprintf(" %s %s", icon, style.Render(name)))
		if i == m.current && m.states[i] == phaseRunning && m.step != "" {
			sections = append(sections, stepStyle.Render(m.step))
		}
	}

	if m.finished {
		if m.err != nil {
			sections = append(sections, failureStyle.Render("Installation failed: "+m.err.Error()))
		} else if m.dryRun {
			sections = append(sections, successStyle.Render("Dry run complete, no changes were made"))
		} else {
			sections = append(sections, successStyle.Render("Installation complete"))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func phaseIcon(s phaseState) (string, lipgloss.Style) {
	switch s {
	case phaseRunning:
		return "▶", runningStyle
	case phaseDone:
		return "✓", successStyle
	case phaseFailed:
		return "✗", failureStyle
	default:
		return "·", pendingStyle
	}
}
