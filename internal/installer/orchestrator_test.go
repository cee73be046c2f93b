package installer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tkirkland/SLIT/internal/config"
	"github.com/tkirkland/SLIT/internal/efi"
	"github.com/tkirkland/SLIT/internal/execute"
	"github.com/tkirkland/SLIT/internal/hardware"
	"github.com/tkirkland/SLIT/pkg/errors"
)

func testConfig() *config.SystemConfig {
	return &config.SystemConfig{
		TargetDrive: "/dev/nvme0n1",
		Locale:      "en_US.UTF-8",
		Timezone:    "America/New_York",
		Username:    "kdeuser",
		Hostname:    "slit-system",
		SwapSize:    "auto",
		Filesystem:  "ext4",
		Network:     config.NetworkConfig{Mode: config.NetworkDHCP, Interface: "eth0"},
	}
}

func testDrive() hardware.Drive {
	return hardware.Drive{Path: "/dev/nvme0n1", SizeGB: 500, Model: "Test NVMe"}
}

func dryRunOrchestrator(observer Observer) *Orchestrator {
	exec := execute.New(true, nil)
	return New(exec, efi.NewManager(exec, nil), nil, observer)
}

func TestRunDryRunCompletesAllPhases(t *testing.T) {
	t.Parallel()

	var started, completed []string
	steps := 0
	o := dryRunOrchestrator(func(ev Event) {
		switch ev.Kind {
		case EventPhaseStarted:
			started = append(started, ev.Phase)
		case EventPhaseCompleted:
			completed = append(completed, ev.Phase)
		case EventStepDone:
			steps++
		case EventPhaseFailed:
			t.Errorf("unexpected phase failure: %v", ev.Err)
		}
	})

	err := o.Run(context.Background(), testConfig(), testDrive())
	require.NoError(t, err)

	order := []string{
		PhaseSystemPreparation,
		PhasePartitioning,
		PhaseSystemInstallation,
		PhaseBootloaderConfiguration,
		PhaseSystemConfiguration,
	}
	require.Equal(t, order, started)
	require.Equal(t, order, completed)
	require.Positive(t, steps)
}

func TestRunDryRunSwapForFourGiB(t *testing.T) {
	t.Parallel()

	// Simulated hardware reports 4 GiB of RAM, which mirrors into swap.
	exec := execute.New(true, nil)
	ic := &Context{
		Config:      testConfig(),
		Exec:        exec,
		Boot:        efi.NewManager(exec, nil),
		Target:      testDrive(),
		InstallRoot: InstallRoot,
		RAMMiB:      func() (int, error) { return 4096, nil },
	}

	err := systemInstallation{}.Execute(context.Background(), ic)
	require.NoError(t, err)
	require.Equal(t, 4096, ic.SwapMiB)
}

func TestRunSwapOverrideWins(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.SwapSize = "2G"

	exec := execute.New(true, nil)
	ic := &Context{
		Config:      cfg,
		Exec:        exec,
		Boot:        efi.NewManager(exec, nil),
		Target:      testDrive(),
		InstallRoot: InstallRoot,
		RAMMiB:      func() (int, error) { return 16384, nil },
	}

	err := systemInstallation{}.Execute(context.Background(), ic)
	require.NoError(t, err)
	require.Equal(t, 2048, ic.SwapMiB)
}

type stubPhase struct {
	name  string
	fail  bool
	calls *[]string
}

func (p stubPhase) Name() string { return p.name }

func (p stubPhase) Execute(ctx context.Context, ic *Context) error {
	*p.calls = append(*p.calls, "execute:"+p.name)
	if p.fail {
		return errors.NewInstallerError("boom", "induced failure", nil)
	}
	return nil
}

func (p stubPhase) Cleanup(ctx context.Context, ic *Context) {
	*p.calls = append(*p.calls, "cleanup:"+p.name)
}

func TestRunStopsAtFirstFailingPhase(t *testing.T) {
	t.Parallel()

	var calls []string
	o := dryRunOrchestrator(nil)
	o.phases = []Phase{
		stubPhase{name: "first", calls: &calls},
		stubPhase{name: "second", fail: true, calls: &calls},
		stubPhase{name: "third", calls: &calls},
	}

	err := o.Run(context.Background(), testConfig(), testDrive())
	require.Error(t, err)

	var phaseErr *errors.PhaseError
	require.ErrorAs(t, err, &phaseErr)
	require.Equal(t, "second", phaseErr.Phase)

	// Only the failing phase's cleanup runs, and nothing after it.
	require.Equal(t, []string{"execute:first", "execute:second", "cleanup:second"}, calls)
}

func TestRunCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	var calls []string
	o := dryRunOrchestrator(nil)
	o.phases = []Phase{stubPhase{name: "first", calls: &calls}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.Run(ctx, testConfig(), testDrive())
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	// Cancellation follows the failure path: cleanup runs, execute never does.
	require.Equal(t, []string{"cleanup:first"}, calls)
}

func TestPhaseNamesAndOrder(t *testing.T) {
	t.Parallel()

	got := phases()
	require.Len(t, got, 5)
	require.Equal(t, PhaseSystemPreparation, got[0].Name())
	require.Equal(t, PhasePartitioning, got[1].Name())
	require.Equal(t, PhaseSystemInstallation, got[2].Name())
	require.Equal(t, PhaseBootloaderConfiguration, got[3].Name())
	require.Equal(t, PhaseSystemConfiguration, got[4].Name())
}

func TestRunDryRunExposesReconcileReport(t *testing.T) {
	t.Parallel()

	o := dryRunOrchestrator(nil)
	require.Nil(t, o.Reconciled())

	err := o.Run(context.Background(), testConfig(), testDrive())
	require.NoError(t, err)

	report := o.Reconciled()
	require.NotNil(t, report)
	require.Empty(t, report.Removed)
	require.Empty(t, report.Flagged)
}
