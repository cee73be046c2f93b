package installer

import (
	"context"
	"strings"
	"time"
)

// requiredPackages are the host tools the later phases shell out to.
var requiredPackages = []string{"parted", "gdisk", "dosfstools", "e2fsprogs"}

// systemPreparation verifies the machine can be installed at all: UEFI
// boot mode, a working network, and the partitioning toolchain. It also
// snapshots the firmware boot entries so reconciliation can diff against
// the pre-install state.
type systemPreparation struct{}

func (systemPreparation) Name() string { return PhaseSystemPreparation }

func (systemPreparation) Execute(ctx context.Context, ic *Context) error {
	if err := ic.step(ctx, "verify UEFI boot mode", "test -d /sys/firmware/efi"); err != nil {
		return err
	}
	if err := ic.step(ctx, "verify network connectivity", "ping -c 1 8.8.8.8"); err != nil {
		return err
	}
	if err := ic.stepTimed(ctx, "update package database", "apt-get -qq update", 10*time.Minute); err != nil {
		return err
	}
	install := "apt-get -qq install -y " + strings.Join(requiredPackages, " ")
	if err := ic.stepTimed(ctx, "install required packages", install, 10*time.Minute); err != nil {
		return err
	}

	before, err := ic.Boot.Snapshot(ctx, "")
	if err != nil {
		return err
	}
	ic.Before = before
	ic.notify(EventStepDone, "snapshot firmware boot entries", nil)
	return nil
}

func (systemPreparation) Cleanup(ctx context.Context, ic *Context) {
	// Nothing destructive happened yet.
	ic.Log.Debug("system preparation cleanup: nothing to undo")
}
