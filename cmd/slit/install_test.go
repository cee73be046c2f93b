package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tkirkland/SLIT/internal/config"
	"github.com/tkirkland/SLIT/internal/efi"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	cfg := &config.SystemConfig{
		TargetDrive: "/dev/nvme0n1",
		Locale:      "en_US.UTF-8",
		Timezone:    "America/New_York",
		Username:    "kdeuser",
		Hostname:    "slit-system",
		SwapSize:    "auto",
		Filesystem:  "ext4",
		Network:     config.NetworkConfig{Mode: config.NetworkDHCP, Interface: "eth0"},
	}
	path := filepath.Join(t.TempDir(), "install.conf")
	require.NoError(t, config.Save(cfg, path))
	return path
}

func TestInstallDryRunCompletesCleanly(t *testing.T) {
	t.Parallel()

	cfgPath := writeTestConfig(t)
	logDir := t.TempDir()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"install", "--dry-run", "--config", cfgPath, "--log-path", logDir})

	require.NoError(t, cmd.Execute())

	text := out.String()
	require.Contains(t, text, "Phase 1 of 5: SystemPreparation")
	require.Contains(t, text, "Phase 5 of 5: SystemConfiguration")
	require.Contains(t, text, "Dry run completed")
}

func TestInstallInvalidConfigShowsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := &config.SystemConfig{
		Locale:     "bogus",
		Timezone:   "nowhere",
		Username:   "Root",
		Hostname:   "slit-system",
		Filesystem: "ext4",
		Network:    config.NetworkConfig{Mode: config.NetworkDHCP},
	}
	path := filepath.Join(t.TempDir(), "install.conf")
	require.NoError(t, config.Save(cfg, path))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"install", "--dry-run", "--config", path, "--log-path", t.TempDir()})

	require.Error(t, cmd.Execute())

	// Every invalid field is reported together, before any phase runs.
	text := out.String()
	require.Contains(t, text, "locale")
	require.Contains(t, text, "timezone")
	require.Contains(t, text, "username")
	require.NotContains(t, text, "Phase 1")
}

func TestInstallInvalidConfigWritesErrorsToLog(t *testing.T) {
	t.Parallel()

	cfg := &config.SystemConfig{
		Locale:     "bogus",
		Timezone:   "nowhere",
		Username:   "Root",
		Hostname:   "slit-system",
		Filesystem: "ext4",
		Network:    config.NetworkConfig{Mode: config.NetworkDHCP},
	}
	path := filepath.Join(t.TempDir(), "install.conf")
	require.NoError(t, config.Save(cfg, path))
	logDir := t.TempDir()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"install", "--dry-run", "--config", path, "--log-path", logDir})

	require.Error(t, cmd.Execute())

	// The per-run log records every failing field, not just stderr.
	logs, err := filepath.Glob(filepath.Join(logDir, "slit-*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)

	data, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	text := string(data)
	require.Contains(t, text, "locale")
	require.Contains(t, text, "timezone")
	require.Contains(t, text, "username")
	require.Contains(t, text, "expected")
}

func TestInstallDryRunWithRemovalListCompletes(t *testing.T) {
	t.Parallel()

	cfgPath := writeTestConfig(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"install", "--dry-run", "--config", cfgPath,
		"--log-path", t.TempDir(), "--remove-boot-entry", "0003", "--remove-boot-entry", "000A"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "Dry run completed")
}

func TestPrintFlagged(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printFlagged(&out, nil)
	require.Empty(t, out.String())

	printFlagged(&out, &efi.Report{})
	require.Empty(t, out.String())

	printFlagged(&out, &efi.Report{Flagged: []efi.Entry{
		{BootID: "0003", Name: "neon (old disk)", Drive: "/dev/nvme1n1"},
	}})
	text := out.String()
	require.Contains(t, text, "Boot0003")
	require.Contains(t, text, "/dev/nvme1n1")
	require.Contains(t, text, "--remove-boot-entry")
}
