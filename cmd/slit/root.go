package main

import (
	"github.com/spf13/cobra"

	"github.com/tkirkland/SLIT/internal/config"
)

type rootFlags struct {
	dryRun        bool
	force         bool
	verbose       bool
	configPath    string
	logPath       string
	removeEntries []string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "slit",
		Short:         "SLIT installs KDE Neon unattended on UEFI/NVMe machines",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare invocation runs the installation.
			return runInstall(cmd, flags)
		},
	}

	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Simulate the installation without touching the system")
	cmd.PersistentFlags().BoolVar(&flags.force, "force", false, "Allow selecting a drive with Windows detected (still asks for confirmation)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultPath, "Path to the installation configuration")
	cmd.PersistentFlags().StringVar(&flags.logPath, "log-path", ".", "Directory for the per-run log file")
	cmd.PersistentFlags().StringSliceVar(&flags.removeEntries, "remove-boot-entry", nil, "Boot id of a foreign-drive EFI entry to remove during reconciliation (repeatable)")

	cmd.AddCommand(newInstallCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
