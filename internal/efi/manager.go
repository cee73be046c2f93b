package efi

import (
	"context"
	"strings"
	"time"

	"github.com/tkirkland/SLIT/internal/execute"
	"github.com/tkirkland/SLIT/internal/logger"
)

const commandTimeout = 15 * time.Second

// Manager reads and reconciles firmware boot entries through efibootmgr.
type Manager struct {
	exec *execute.Executor
	log  *logger.Logger
}

func NewManager(exec *execute.Executor, log *logger.Logger) *Manager {
	return &Manager{exec: exec, log: log}
}

// Snapshot captures the current firmware boot entries. A non-empty
// filter keeps only entries whose name contains it (case-insensitive).
// Each entry's owning drive is resolved from its GPT partition UUID;
// entries that cannot be resolved keep DriveUnknown.
func (m *Manager) Snapshot(ctx context.Context, filter string) ([]Entry, error) {
	if m.exec.DryRun {
		return nil, nil
	}

	res, err := m.exec.Run(ctx, execute.Spec{
		Command:       "efibootmgr -v",
		Description:   "list firmware boot entries",
		CaptureOutput: true,
		Timeout:       commandTimeout,
	})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		// No entries, or no efivars support. Treat as empty.
		return nil, nil
	}

	entries := parseEntries(res.Stdout)
	for i := range entries {
		entries[i].Drive = m.resolveDrive(ctx, entries[i].DevicePath)
	}

	if filter == "" {
		return entries, nil
	}
	needle := strings.ToLower(filter)
	filtered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (m *Manager) resolveDrive(ctx context.Context, devicePath string) string {
	uuid := partUUID(devicePath)
	if uuid == "" {
		return DriveUnknown
	}

	res, err := m.exec.Run(ctx, execute.Spec{
		Command:       "blkid -o device -t PARTUUID=" + uuid,
		Description:   "resolve partition UUID " + uuid,
		CaptureOutput: true,
		Timeout:       commandTimeout,
	})
	if err != nil || !res.Success {
		return DriveUnknown
	}

	drive := driveOfPartition(strings.TrimSpace(res.Stdout))
	if drive == "" {
		return DriveUnknown
	}
	return drive
}

// Report summarizes one reconciliation pass.
type Report struct {
	Removed []Entry
	Kept    []Entry
	Flagged []Entry
}

// Reconcile takes a fresh snapshot and diffs it against the entries
// captured before installation. Stale KDE entries on the target drive,
// meaning KDE entries that already existed before the install, are
// removed so repeated installs do not accumulate duplicates. The entry
// the bootloader just registered is new and is kept. KDE entries on
// other drives are flagged and removed only when their boot id appears
// in removeForeign. Entries on an unresolved drive are never removed.
func (m *Manager) Reconcile(ctx context.Context, targetDrive string, before []Entry, removeForeign []string) (*Report, error) {
	after, err := m.Snapshot(ctx, "")
	if err != nil {
		return nil, err
	}

	report := planReconcile(after, targetDrive, before, removeForeign)
	for _, e := range report.Removed {
		if err := m.remove(ctx, e); err != nil {
			return report, err
		}
	}

	m.log.WithFields(map[string]any{
		"removed": len(report.Removed),
		"kept":    len(report.Kept),
		"flagged": len(report.Flagged),
	}).Info("boot entry reconciliation complete")
	return report, nil
}

// planReconcile sorts the KDE entries of a fresh snapshot into removal,
// keep and flag buckets without touching the firmware.
func planReconcile(after []Entry, targetDrive string, before []Entry, removeForeign []string) *Report {
	preexisting := make(map[string]bool, len(before))
	for _, e := range before {
		preexisting[e.BootID] = true
	}
	foreign := make(map[string]bool, len(removeForeign))
	for _, id := range removeForeign {
		foreign[strings.ToUpper(id)] = true
	}

	report := &Report{}
	for _, e := range after {
		if !e.IsKDE {
			continue
		}
		switch {
		case e.Drive == DriveUnknown:
			report.Flagged = append(report.Flagged, e)
		case e.Drive == targetDrive && preexisting[e.BootID]:
			report.Removed = append(report.Removed, e)
		case e.Drive == targetDrive:
			report.Kept = append(report.Kept, e)
		case foreign[e.BootID]:
			report.Removed = append(report.Removed, e)
		default:
			report.Flagged = append(report.Flagged, e)
		}
	}
	return report
}

func (m *Manager) remove(ctx context.Context, e Entry) error {
	m.log.WithFields(map[string]any{"entry": e.String(), "drive": e.Drive}).Info("removing boot entry")
	_, err := m.exec.Run(ctx, execute.Spec{
		Command:      "efibootmgr -b " + e.BootID + " -B",
		Description:  "remove boot entry " + e.BootID,
		CheckSuccess: true,
		Timeout:      commandTimeout,
	})
	return err
}
