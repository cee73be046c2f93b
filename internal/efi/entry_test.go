package efi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleListing = "BootCurrent: 0001\n" +
	"Timeout: 1 seconds\n" +
	"BootOrder: 0001,0000,0002\n" +
	"Boot0000* Windows Boot Manager\tHD(1,GPT,9a3c1e22-0b51-4f8e-9d0a-1c2b3d4e5f60,0x800,0x32000)/File(\\EFI\\Microsoft\\Boot\\bootmgfw.efi)\n" +
	"Boot0001* KDE Neon\tHD(1,GPT,4f2a9b10-7c6d-4e5f-8a9b-0c1d2e3f4a5b,0x800,0x100000)/File(\\EFI\\KDE Neon\\grubx64.efi)\n" +
	"Boot0002* UEFI: PXE IPv4\tPciRoot(0x0)/Pci(0x1c,0x4)/MAC(aabbccddeeff,0)\n" +
	"Boot0003  kde neon (stale)\tHD(1,GPT,4f2a9b10-7c6d-4e5f-8a9b-0c1d2e3f4a5b,0x800,0x100000)/File(\\EFI\\KDE Neon\\grubx64.efi)\n"

func TestParseEntries(t *testing.T) {
	t.Parallel()

	entries := parseEntries(sampleListing)
	require.Len(t, entries, 4)

	windows := entries[0]
	require.Equal(t, "0000", windows.BootID)
	require.Equal(t, "Windows Boot Manager", windows.Name)
	require.True(t, windows.IsWindows)
	require.False(t, windows.IsKDE)
	require.Contains(t, windows.DevicePath, "bootmgfw.efi")

	kde := entries[1]
	require.Equal(t, "0001", kde.BootID)
	require.Equal(t, "KDE Neon", kde.Name)
	require.True(t, kde.IsKDE)
	require.False(t, kde.IsWindows)
	require.Equal(t, DriveUnknown, kde.Drive)

	pxe := entries[2]
	require.Equal(t, "UEFI: PXE IPv4", pxe.Name)
	require.False(t, pxe.IsKDE)
	require.False(t, pxe.IsWindows)

	// Inactive entries (no asterisk) still parse, and classification
	// ignores label case.
	stale := entries[3]
	require.Equal(t, "0003", stale.BootID)
	require.True(t, stale.IsKDE)
}

func TestParseEntriesEmptyOutput(t *testing.T) {
	t.Parallel()

	require.Empty(t, parseEntries(""))
	require.Empty(t, parseEntries("BootOrder: 0000\nTimeout: 1 seconds\n"))
}

func TestPartUUID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		devicePath string
		want       string
	}{
		{
			name:       "gpt hard drive node",
			devicePath: `HD(1,GPT,4F2A9B10-7C6D-4E5F-8A9B-0C1D2E3F4A5B,0x800,0x100000)/File(\EFI\KDE Neon\grubx64.efi)`,
			want:       "4f2a9b10-7c6d-4e5f-8a9b-0c1d2e3f4a5b",
		},
		{
			name:       "network boot path",
			devicePath: "PciRoot(0x0)/Pci(0x1c,0x4)/MAC(aabbccddeeff,0)",
			want:       "",
		},
		{
			name:       "empty path",
			devicePath: "",
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, partUUID(tt.devicePath))
		})
	}
}

func TestDriveOfPartition(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/dev/nvme0n1", driveOfPartition("/dev/nvme0n1p1"))
	require.Equal(t, "/dev/nvme1n1", driveOfPartition("/dev/nvme1n1p12"))
	require.Equal(t, "", driveOfPartition("/dev/sda1"))
	require.Equal(t, "", driveOfPartition("/dev/nvme0n1"))
	require.Equal(t, "", driveOfPartition(""))
}
