package hardware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoreDetection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		methods    []string
		confidence string
		hasWindows bool
	}{
		{"no signals", nil, ConfidenceLow, false},
		{"lone boot entry is weak", []string{MethodEFIEntry}, ConfidenceLow, false},
		{"lone hibernation file is weak", []string{MethodHibernation}, ConfidenceLow, false},
		{"lone ntfs is medium", []string{MethodNTFS}, ConfidenceMedium, true},
		{"lone registry hives is medium", []string{MethodRegistry}, ConfidenceMedium, true},
		{"lone windows directory is medium", []string{MethodWindowsDir}, ConfidenceMedium, true},
		{"two signals are high", []string{MethodEFIEntry, MethodNTFS}, ConfidenceHigh, true},
		{"two weak signals are high", []string{MethodEFIEntry, MethodHibernation}, ConfidenceHigh, true},
		{"all signals are high", []string{MethodEFIEntry, MethodNTFS, MethodWindowsDir, MethodRegistry, MethodHibernation}, ConfidenceHigh, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			confidence, hasWindows := scoreDetection(tc.methods)
			require.Equal(t, tc.confidence, confidence)
			require.Equal(t, tc.hasWindows, hasWindows)
		})
	}
}

func TestWindowsVersionFromEntries(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Windows 11", windowsVersionFromEntries([]string{"Boot0001* Windows 11 Boot Manager"}))
	require.Equal(t, "Windows (version unknown)", windowsVersionFromEntries([]string{"Boot0001* Windows Boot Manager"}))
	require.Equal(t, "Windows (version unknown)", windowsVersionFromEntries(nil))
}
