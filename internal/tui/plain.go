package tui

import (
	"fmt"
	"io"

	"github.com/tkirkland/SLIT/internal/installer"
)

// Plain writes progress as plain lines for non-interactive output.
type Plain struct {
	W      io.Writer
	DryRun bool
}

// Observe implements installer.Observer.
func (p Plain) Observe(ev installer.Event) {
	prefix := ""
	if p.DryRun {
		prefix = "[dry-run] "
	}

	switch ev.Kind {
	case installer.EventPhaseStarted:
		fmt.Fprintf(p.W, "%s--- Phase %d of %d: %s ---\n", prefix, ev.PhaseIndex, ev.PhaseCount, ev.Phase)
	case installer.EventStepDone:
		fmt.Fprintf(p.W, "%s  %s\n", prefix, ev.Step)
	case installer.EventPhaseCompleted:
		fmt.Fprintf(p.W, "%s%s completed\n", prefix, ev.Phase)
	case installer.EventPhaseFailed:
		fmt.Fprintf(p.W, "%s%s FAILED: %v\n", prefix, ev.Phase, ev.Err)
	}
}
