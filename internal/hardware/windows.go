package hardware

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/tkirkland/SLIT/internal/execute"
)

// Confidence tiers for Windows detection. Automatic safety behavior keys
// off these, never off a single opaque boolean.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Detection method identifiers, split into strong (filesystem-level
// evidence) and weak (circumstantial) signals.
const (
	MethodEFIEntry    = "efi-boot-entry"
	MethodNTFS        = "ntfs-partition"
	MethodWindowsDir  = "windows-directory"
	MethodRegistry    = "registry-hives"
	MethodHibernation = "hibernation-file"
)

var strongMethods = map[string]struct{}{
	MethodNTFS:       {},
	MethodWindowsDir: {},
	MethodRegistry:   {},
}

// WindowsDetection is the outcome of the multi-signal Windows scan on a
// single drive. Derived per enumeration, never persisted.
type WindowsDetection struct {
	HasWindows  bool
	Confidence  string
	Methods     []string
	Version     string
	BootEntries []string
}

// scoreDetection maps the set of agreeing signals to a confidence tier:
// two or more independent methods mean high, exactly one strong method
// means medium, and a lone weak signal means low. HasWindows holds for
// medium and high only.
func scoreDetection(methods []string) (string, bool) {
	if len(methods) == 0 {
		return ConfidenceLow, false
	}
	if len(methods) >= 2 {
		return ConfidenceHigh, true
	}
	if _, strong := strongMethods[methods[0]]; strong {
		return ConfidenceMedium, true
	}
	return ConfidenceLow, false
}

// DetectWindows runs every independent detection method against the drive
// and combines the agreeing signals into a confidence tier. Individual
// probe failures degrade the scan, they never abort it.
func (i *Inspector) DetectWindows(ctx context.Context, drive *Drive) WindowsDetection {
	if i.exec.DryRun {
		// Simulated drives carry their detection result already.
		return drive.Windows
	}

	var methods []string

	bootEntries := i.windowsBootEntries(ctx, drive.Path)
	if len(bootEntries) > 0 {
		methods = append(methods, MethodEFIEntry)
	}

	ntfsParts := i.ntfsPartitions(ctx, drive)
	if len(ntfsParts) > 0 {
		methods = append(methods, MethodNTFS)
		methods = append(methods, i.inspectNTFS(ctx, ntfsParts)...)
	}

	confidence, hasWindows := scoreDetection(methods)

	det := WindowsDetection{
		HasWindows:  hasWindows,
		Confidence:  confidence,
		Methods:     methods,
		BootEntries: bootEntries,
	}
	if hasWindows {
		det.Version = windowsVersionFromEntries(bootEntries)
	}
	return det
}

// windowsBootEntries returns firmware entry labels that look like Windows
// and reference the given drive.
func (i *Inspector) windowsBootEntries(ctx context.Context, drivePath string) []string {
	res, err := i.exec.Run(ctx, execute.Spec{
		Command:       "efibootmgr -v",
		Description:   "Scanning firmware boot entries for Windows",
		CaptureOutput: true,
		Timeout:       probeTimeout,
	})
	if err != nil || !res.Success {
		return nil
	}

	device := path.Base(drivePath)
	var entries []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "windows") && !strings.Contains(lower, "microsoft") {
			continue
		}
		if strings.Contains(line, device) || !strings.Contains(line, "/dev/") {
			entries = append(entries, strings.TrimSpace(line))
		}
	}
	return entries
}

// ntfsPartitions lists the drive's partitions carrying an NTFS signature.
func (i *Inspector) ntfsPartitions(ctx context.Context, drive *Drive) []string {
	var parts []string
	for _, part := range drive.Partitions {
		res, err := i.exec.Run(ctx, execute.Spec{
			Command:       fmt.Sprintf("blkid -o value -s TYPE %s", part),
			Description:   fmt.Sprintf("Probing filesystem type of %s", part),
			CaptureOutput: true,
			Timeout:       probeTimeout,
		})
		if err != nil || !res.Success {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(res.Stdout), "ntfs") {
			parts = append(parts, part)
		}
	}
	return parts
}

// inspectNTFS mounts each NTFS partition read-only and looks for the
// Windows directory tree, registry hives, and a hibernation file. The
// mount is always released, probe results notwithstanding.
func (i *Inspector) inspectNTFS(ctx context.Context, partitions []string) []string {
	found := map[string]bool{}

	for _, part := range partitions {
		mnt := "/run/slit/probe"
		steps := []execute.Spec{
			{Command: "mkdir -p " + mnt, Description: "Creating probe mount point"},
			{Command: fmt.Sprintf("mount -o ro %s %s", part, mnt), Description: fmt.Sprintf("Mounting %s read-only", part)},
		}
		mounted := true
		for _, spec := range steps {
			spec.Timeout = probeTimeout
			if res, err := i.exec.Run(ctx, spec); err != nil || !res.Success {
				mounted = false
				break
			}
		}
		if !mounted {
			continue
		}

		checks := map[string]string{
			MethodWindowsDir:  fmt.Sprintf("test -d %s/Windows/System32", mnt),
			MethodRegistry:    fmt.Sprintf("test -f %s/Windows/System32/config/SOFTWARE", mnt),
			MethodHibernation: fmt.Sprintf("test -f %s/hiberfil.sys", mnt),
		}
		for method, command := range checks {
			res, err := i.exec.Run(ctx, execute.Spec{
				Command:     command,
				Description: "Checking for " + method,
				Timeout:     probeTimeout,
			})
			if err == nil && res.Success {
				found[method] = true
			}
		}

		i.exec.Run(ctx, execute.Spec{ //nolint:errcheck
			Command:     "umount " + mnt,
			Description: fmt.Sprintf("Unmounting probe of %s", part),
			Timeout:     probeTimeout,
		})
	}

	// Deterministic method order for stable confidence scoring and logs.
	var methods []string
	for _, m := range []string{MethodWindowsDir, MethodRegistry, MethodHibernation} {
		if found[m] {
			methods = append(methods, m)
		}
	}
	return methods
}

func windowsVersionFromEntries(entries []string) string {
	for _, entry := range entries {
		lower := strings.ToLower(entry)
		for _, version := range []string{"11", "10"} {
			if strings.Contains(lower, "windows "+version) {
				return "Windows " + version
			}
		}
	}
	return "Windows (version unknown)"
}
