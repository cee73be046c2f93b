package installer

import (
	"context"
	"strings"
	"time"

	"github.com/tkirkland/SLIT/internal/config"
	"github.com/tkirkland/SLIT/internal/efi"
	"github.com/tkirkland/SLIT/internal/execute"
	"github.com/tkirkland/SLIT/internal/hardware"
	"github.com/tkirkland/SLIT/internal/logger"
)

// InstallRoot is where the target filesystem is assembled.
const InstallRoot = "/target"

const (
	stepTimeout = 2 * time.Minute
	longTimeout = 30 * time.Minute
)

// EventKind discriminates progress events.
type EventKind int

const (
	EventPhaseStarted EventKind = iota
	EventStepDone
	EventPhaseCompleted
	EventPhaseFailed
)

// Event is one progress notification. Observers run synchronously between
// steps and must not block or reach back into the orchestrator.
type Event struct {
	Kind       EventKind
	Phase      string
	PhaseIndex int
	PhaseCount int
	Step       string
	Err        error
}

// Observer receives progress events. A nil observer is valid.
type Observer func(Event)

// Context is the state shared by the phases of one installation run. The
// configuration is a validated snapshot; phases read it and never write it.
type Context struct {
	Config *config.SystemConfig
	Exec   *execute.Executor
	Boot   *efi.Manager
	Log    *logger.Logger

	Target      hardware.Drive
	InstallRoot string

	// RAMMiB reports installed memory. Injected so tests and dry-run
	// never read /proc/meminfo.
	RAMMiB func() (int, error)

	// RemoveForeign lists boot ids of non-target-drive entries the user
	// explicitly asked to remove during reconciliation.
	RemoveForeign []string

	// Populated as phases progress.
	ESP        string
	Root       string
	SwapMiB    int
	Before     []efi.Entry
	Reconciled *efi.Report

	phase      string
	phaseIndex int
	phaseCount int
	observer   Observer
}

func (ic *Context) notify(kind EventKind, step string, err error) {
	if ic.observer == nil {
		return
	}
	ic.observer(Event{
		Kind:       kind,
		Phase:      ic.phase,
		PhaseIndex: ic.phaseIndex,
		PhaseCount: ic.phaseCount,
		Step:       step,
		Err:        err,
	})
}

// step runs one boundary command with success checking and reports it to
// the observer. Cancellation is honored between steps, never mid-command.
func (ic *Context) step(ctx context.Context, description, command string) error {
	return ic.stepTimed(ctx, description, command, stepTimeout)
}

func (ic *Context) stepTimed(ctx context.Context, description, command string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := ic.Exec.Run(ctx, execute.Spec{
		Command:      command,
		Description:  description,
		CheckSuccess: true,
		Timeout:      timeout,
	})
	if err != nil {
		return err
	}
	ic.notify(EventStepDone, description, nil)
	return nil
}

// bestEffort runs a command whose failure must not abort the phase.
func (ic *Context) bestEffort(ctx context.Context, description, command string) {
	if ctx.Err() != nil {
		return
	}
	res, err := ic.Exec.Run(ctx, execute.Spec{
		Command:     command,
		Description: description,
		Timeout:     stepTimeout,
	})
	if err != nil || !res.Success {
		ic.Log.WithFields(map[string]any{"command": command}).Warn(description + " failed, continuing")
	}
}

// writeFile places content at path on the target through the boundary,
// so dry-run writes nothing.
func (ic *Context) writeFile(ctx context.Context, description, path, content string, mode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := ic.Exec.Run(ctx, execute.Spec{
		Command:      "tee " + path,
		Description:  description,
		CheckSuccess: true,
		Timeout:      stepTimeout,
		Stdin:        content,
	})
	if err != nil {
		return err
	}
	if mode != "" {
		if _, err := ic.Exec.Run(ctx, execute.Spec{
			Command:      "chmod " + mode + " " + path,
			Description:  "set permissions on " + path,
			CheckSuccess: true,
			Timeout:      stepTimeout,
		}); err != nil {
			return err
		}
	}
	ic.notify(EventStepDone, description, nil)
	return nil
}

// capture runs a command and returns its trimmed stdout.
func (ic *Context) capture(ctx context.Context, description, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := ic.Exec.Run(ctx, execute.Spec{
		Command:       command,
		Description:   description,
		CaptureOutput: true,
		CheckSuccess:  true,
		Timeout:       stepTimeout,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (ic *Context) chroot(command string) string {
	return "chroot " + ic.InstallRoot + " " + command
}
