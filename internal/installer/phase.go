package installer

import "context"

// Phase names in execution order.
const (
	PhaseSystemPreparation       = "SystemPreparation"
	PhasePartitioning            = "Partitioning"
	PhaseSystemInstallation      = "SystemInstallation"
	PhaseBootloaderConfiguration = "BootloaderConfiguration"
	PhaseSystemConfiguration     = "SystemConfiguration"
)

// Phase is one stage of the installation. Execute performs the stage's
// steps in order; Cleanup undoes its partial effects after a failure or
// cancellation and is best-effort (failures are logged, never returned).
type Phase interface {
	Name() string
	Execute(ctx context.Context, ic *Context) error
	Cleanup(ctx context.Context, ic *Context)
}

// phases returns the closed, ordered phase set. There is no skipping and
// no reordering; a phase runs only after its predecessor succeeded.
func phases() []Phase {
	return []Phase{
		systemPreparation{},
		partitioning{},
		systemInstallation{},
		bootloaderConfiguration{},
		systemConfiguration{},
	}
}
