package installer

import (
	"context"

	"github.com/tkirkland/SLIT/internal/config"
	"github.com/tkirkland/SLIT/internal/efi"
	"github.com/tkirkland/SLIT/internal/execute"
	"github.com/tkirkland/SLIT/internal/hardware"
	"github.com/tkirkland/SLIT/internal/logger"
	"github.com/tkirkland/SLIT/pkg/errors"
)

// Orchestrator drives the five installation phases in strict order. A
// phase failure runs that phase's cleanup and ends the run; later phases
// never execute after a failure.
type Orchestrator struct {
	exec     *execute.Executor
	boot     *efi.Manager
	log      *logger.Logger
	observer Observer

	// RemoveForeign lists boot ids of non-target-drive EFI entries the
	// user explicitly approved for removal during reconciliation.
	RemoveForeign []string

	phases     []Phase
	ramMiB     func() (int, error)
	reconciled *efi.Report
}

// New creates an Orchestrator. The observer may be nil.
func New(exec *execute.Executor, boot *efi.Manager, log *logger.Logger, observer Observer) *Orchestrator {
	o := &Orchestrator{
		exec:     exec,
		boot:     boot,
		log:      log,
		observer: observer,
		phases:   phases(),
		ramMiB:   detectRAMMiB,
	}
	if exec.DryRun {
		// Simulated hardware: 4 GiB of RAM.
		o.ramMiB = func() (int, error) { return 4096, nil }
	}
	return o
}

// SetObserver wires the progress observer used by the next Run.
func (o *Orchestrator) SetObserver(observer Observer) {
	o.observer = observer
}

// Reconciled returns the boot entry reconciliation report of the last
// Run, or nil when reconciliation never ran.
func (o *Orchestrator) Reconciled() *efi.Report {
	return o.reconciled
}

// Run installs onto the target drive using the validated configuration.
// The configuration is treated as an immutable snapshot for the whole
// run. Cancellation is cooperative: it is honored between steps and
// follows the same cleanup path as a failure.
func (o *Orchestrator) Run(ctx context.Context, cfg *config.SystemConfig, target hardware.Drive) error {
	ic := &Context{
		Config:        cfg,
		Exec:          o.exec,
		Boot:          o.boot,
		Log:           o.log,
		Target:        target,
		InstallRoot:   InstallRoot,
		RAMMiB:        o.ramMiB,
		RemoveForeign: o.RemoveForeign,
		phaseCount:    len(o.phases),
		observer:      o.observer,
	}

	var lock *driveLock
	defer func() { lock.release() }()
	defer func() { o.reconciled = ic.Reconciled }()

	for i, phase := range o.phases {
		ic.phase = phase.Name()
		ic.phaseIndex = i + 1

		if err := ctx.Err(); err != nil {
			o.log.WithFields(map[string]any{"phase": phase.Name()}).Warn("installation cancelled")
			phase.Cleanup(context.WithoutCancel(ctx), ic)
			ic.notify(EventPhaseFailed, "", err)
			return errors.NewPhaseError(phase.Name(), err)
		}

		if phase.Name() == PhasePartitioning && lock == nil && !o.exec.DryRun {
			l, err := acquireDriveLock(target.Path)
			if err != nil {
				ic.notify(EventPhaseFailed, "", err)
				return errors.NewPhaseError(phase.Name(), err)
			}
			lock = l
		}

		o.log.WithFields(map[string]any{"phase": phase.Name(), "index": i + 1}).Info("phase starting")
		ic.notify(EventPhaseStarted, "", nil)

		if err := phase.Execute(ctx, ic); err != nil {
			o.log.WithFields(map[string]any{"phase": phase.Name()}).Error(err, "phase failed")
			phase.Cleanup(context.WithoutCancel(ctx), ic)
			ic.notify(EventPhaseFailed, "", err)
			return errors.NewPhaseError(phase.Name(), err)
		}

		o.log.WithFields(map[string]any{"phase": phase.Name()}).Info("phase complete")
		ic.notify(EventPhaseCompleted, "", nil)
	}

	return nil
}
