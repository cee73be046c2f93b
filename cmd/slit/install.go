package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tkirkland/SLIT/internal/config"
	"github.com/tkirkland/SLIT/internal/efi"
	"github.com/tkirkland/SLIT/internal/execute"
	"github.com/tkirkland/SLIT/internal/hardware"
	"github.com/tkirkland/SLIT/internal/installer"
	"github.com/tkirkland/SLIT/internal/logger"
	"github.com/tkirkland/SLIT/internal/prompt"
	"github.com/tkirkland/SLIT/internal/tui"
	sliterrors "github.com/tkirkland/SLIT/pkg/errors"
)

func newInstallCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Run the five-phase installation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, flags)
		},
	}
}

func runInstall(cmd *cobra.Command, flags *rootFlags) error {
	level := "info"
	if flags.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true, LogDir: flags.logPath})
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer log.Close()

	exec := execute.New(flags.dryRun, log)
	prompter := prompt.New()

	cfg, err := loadOrCreateConfig(cmd, flags, exec, prompter, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	inspector := hardware.NewInspector(exec, log)
	drives, err := inspector.EnumerateDrives(ctx)
	if err != nil {
		return err
	}

	selection, err := inspector.SelectDrive(drives, cfg.TargetDrive, flags.force)
	if err != nil {
		return err
	}
	target := *selection.Drive

	if selection.NeedsConfirmation {
		fmt.Fprintf(cmd.OutOrStdout(), "WARNING: %s appears to contain a Windows installation (%s confidence).\n",
			target.Path, target.Windows.Confidence)
		ok, err := prompter.Confirm("Erase this drive anyway", false)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("installation aborted: target drive not confirmed")
		}
	}

	// Persist the chosen drive as a hint for the next run. Enumeration
	// stays authoritative.
	if cfg.TargetDrive != target.Path && !flags.dryRun {
		cfg.TargetDrive = target.Path
		if err := config.Save(cfg, flags.configPath); err != nil {
			log.Warn("could not persist target drive hint")
		}
	}

	boot := efi.NewManager(exec, log)
	orch := installer.New(exec, boot, log, nil)
	orch.RemoveForeign = flags.removeEntries

	if term.IsTerminal(int(os.Stdout.Fd())) {
		err = runWithTUI(ctx, orch, cfg, target, flags.dryRun)
	} else {
		plain := tui.Plain{W: cmd.OutOrStdout(), DryRun: flags.dryRun}
		orch.SetObserver(plain.Observe)
		err = orch.Run(ctx, cfg, target)
	}
	if err != nil {
		var ierr *sliterrors.InstallerError
		if errors.As(err, &ierr) && ierr.UserMessage != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), ierr.UserFacing())
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Installation failed. Full log: %s\n", log.Path())
		return err
	}

	printFlagged(cmd.OutOrStdout(), orch.Reconciled())

	if flags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "Dry run completed, no changes were made.")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Installation completed successfully.")
	}
	return nil
}

// printFlagged lists foreign-drive boot entries that reconciliation left
// in place, so the user can decide whether to remove them on a later run.
func printFlagged(w io.Writer, report *efi.Report) {
	if report == nil || len(report.Flagged) == 0 {
		return
	}
	fmt.Fprintln(w, "Boot entries on other drives were left untouched:")
	for _, entry := range report.Flagged {
		fmt.Fprintf(w, "  Boot%s  %s (drive %s)\n", entry.BootID, entry.Name, entry.Drive)
	}
	fmt.Fprintln(w, "Re-run with --remove-boot-entry <id> to delete one of them.")
}

func runWithTUI(ctx context.Context, orch *installer.Orchestrator, cfg *config.SystemConfig, target hardware.Drive, dryRun bool) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(tui.NewModel(dryRun))
	orch.SetObserver(func(ev installer.Event) {
		prog.Send(tui.EventMsg(ev))
	})

	done := make(chan error, 1)
	go func() {
		err := orch.Run(runCtx, cfg, target)
		done <- err
		prog.Send(tui.DoneMsg{Err: err})
	}()

	if _, err := prog.Run(); err != nil {
		cancel()
		<-done
		return err
	}
	cancel()
	return <-done
}

// loadOrCreateConfig loads the configuration, walking the user through
// corruption recovery or first-time setup when needed.
func loadOrCreateConfig(cmd *cobra.Command, flags *rootFlags, exec *execute.Executor, prompter config.Prompter, log *logger.Logger) (*config.SystemConfig, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(flags.configPath)
	if err == nil {
		return cfg, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(cmd.OutOrStdout(), "No configuration at %s, starting first-time setup.\n", flags.configPath)
		return createConfig(ctx, flags, exec, prompter, log)
	}

	var verrs sliterrors.ValidationErrors
	if errors.As(err, &verrs) {
		fmt.Fprintln(cmd.ErrOrStderr(), verrs.Error())
		logValidationErrors(log, flags.configPath, verrs)
		if !verrs.HasCorruption() {
			return nil, fmt.Errorf("configuration invalid, fix %s and retry", flags.configPath)
		}

		ok, perr := prompter.Confirm("Configuration file is corrupted. Delete it and start over", false)
		if perr != nil {
			return nil, perr
		}
		if !ok {
			return nil, fmt.Errorf("corrupted configuration kept at %s", flags.configPath)
		}
		if rerr := os.Remove(flags.configPath); rerr != nil {
			return nil, fmt.Errorf("delete corrupted configuration: %w", rerr)
		}
		return createConfig(ctx, flags, exec, prompter, log)
	}

	return nil, err
}

func createConfig(ctx context.Context, flags *rootFlags, exec *execute.Executor, prompter config.Prompter, log *logger.Logger) (*config.SystemConfig, error) {
	defaults := config.DetectDefaults(ctx, exec)
	cfg, err := config.Edit(defaults, prompter)
	if err != nil {
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		logValidationErrors(log, flags.configPath, errs)
		return nil, errs
	}
	if err := config.Save(cfg, flags.configPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logValidationErrors records every collected configuration problem in the
// per-run log, one entry per field, so a failed run can be reconstructed
// from the log file alone.
func logValidationErrors(log *logger.Logger, path string, verrs sliterrors.ValidationErrors) {
	for _, verr := range verrs {
		log.WithFields(map[string]any{
			"config":   path,
			"field":    verr.Field,
			"value":    verr.Value,
			"expected": verr.Expected,
			"corrupt":  verr.Corrupt,
		}).Error(nil, verr.Message)
	}
}
