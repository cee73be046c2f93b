package hardware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tkirkland/SLIT/internal/execute"
	"github.com/tkirkland/SLIT/internal/logger"
	sliterrors "github.com/tkirkland/SLIT/pkg/errors"
)

const probeTimeout = 10 * time.Second

// Inspector enumerates storage hardware and applies the dual-boot safety
// gate. All probing goes through the command boundary; in dry-run mode a
// fixed simulated drive set stands in for real hardware so the state
// machine can exercise every path without touching the system.
type Inspector struct {
	exec *execute.Executor
	log  *logger.Logger
}

// NewInspector creates an Inspector on top of the command boundary.
func NewInspector(exec *execute.Executor, log *logger.Logger) *Inspector {
	return &Inspector{exec: exec, log: log}
}

// EnumerateDrives lists internal NVMe drives. Removable and external
// media are excluded unconditionally; no flag overrides that. Each call
// probes hardware fresh, including the per-drive Windows scan.
func (i *Inspector) EnumerateDrives(ctx context.Context) ([]Drive, error) {
	if i.exec.DryRun {
		return i.simulatedDrives(), nil
	}

	res, err := i.exec.Run(ctx, execute.Spec{
		Command:       "lsblk -dpno NAME,SIZE,MODEL,TYPE,RM",
		Description:   "Enumerating storage drives",
		CaptureOutput: true,
		CheckSuccess:  true,
		Timeout:       probeTimeout,
	})
	if err != nil {
		return nil, sliterrors.NewHardwareError("drive enumeration failed", err)
	}

	var drives []Drive
	for _, line := range strings.Split(res.Stdout, "\n") {
		drive, ok := parseLsblkLine(line)
		if !ok {
			continue
		}
		if drive.Removable {
			continue
		}
		if !nvmeDrivePattern.MatchString(drive.Path) {
			continue
		}

		drive.Partitions = i.listPartitions(ctx, drive.Path)
		drive.Windows = i.DetectWindows(ctx, &drive)
		drives = append(drives, drive)
	}

	i.log.WithFields(map[string]any{"count": len(drives)}).Info("drive enumeration complete")
	return drives, nil
}

// parseLsblkLine parses one `lsblk -dpno NAME,SIZE,MODEL,TYPE,RM` row.
// MODEL may contain spaces; TYPE and RM are the final two columns.
func parseLsblkLine(line string) (Drive, bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Drive{}, false
	}

	rm := fields[len(fields)-1]
	devType := fields[len(fields)-2]
	if devType != "disk" {
		return Drive{}, false
	}

	model := ""
	if len(fields) > 4 {
		model = strings.Join(fields[2:len(fields)-2], " ")
	}

	return Drive{
		Path:      fields[0],
		SizeGB:    parseSizeGB(fields[1]),
		Model:     model,
		Removable: rm == "1",
	}, true
}

func (i *Inspector) listPartitions(ctx context.Context, drivePath string) []string {
	res, err := i.exec.Run(ctx, execute.Spec{
		Command:       "lsblk -pno NAME,TYPE " + drivePath,
		Description:   fmt.Sprintf("Listing partitions of %s", drivePath),
		CaptureOutput: true,
		Timeout:       probeTimeout,
	})
	if err != nil || !res.Success {
		return nil
	}

	var parts []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "part" {
			parts = append(parts, fields[0])
		}
	}
	return parts
}

// simulatedDrives is the dry-run stand-in for hardware probing: one clean
// NVMe target and one carrying a high-confidence Windows installation, so
// both selection paths stay exercisable.
func (i *Inspector) simulatedDrives() []Drive {
	return []Drive{
		{
			Path:   "/dev/nvme0n1",
			SizeGB: 500,
			Model:  "Samsung SSD 980 500GB",
			Windows: WindowsDetection{
				Confidence: ConfidenceLow,
			},
		},
		{
			Path:   "/dev/nvme1n1",
			SizeGB: 1000,
			Model:  "WD Black SN750 1TB",
			Windows: WindowsDetection{
				HasWindows: true,
				Confidence: ConfidenceHigh,
				Methods:    []string{MethodNTFS, MethodEFIEntry},
				Version:    "Windows 11",
				BootEntries: []string{
					"Boot0001* Windows Boot Manager",
				},
			},
		},
	}
}

// Selection is the outcome of drive selection. NeedsConfirmation is set
// when a Windows drive was admitted under force; the caller must obtain
// an explicit confirmation before using it.
type Selection struct {
	Drive             *Drive
	NeedsConfirmation bool
}

// SelectDrive picks the installation target. Drives with a detected
// Windows installation are hidden unless force is set, and even then the
// selection demands downstream confirmation. No eligible drive is a
// terminal error, never silently retried.
func (i *Inspector) SelectDrive(drives []Drive, preferred string, force bool) (*Selection, error) {
	var eligible []*Drive
	hidden := 0
	for idx := range drives {
		d := &drives[idx]
		if !d.Suitable() {
			continue
		}
		if d.Windows.HasWindows && !force {
			hidden++
			continue
		}
		eligible = append(eligible, d)
	}

	if len(eligible) == 0 {
		msg := "no eligible drives found"
		if hidden > 0 {
			msg = fmt.Sprintf("no eligible drives found (%d hidden due to detected Windows installations; use --force to include them)", hidden)
		}
		return nil, sliterrors.NewHardwareError(msg, nil)
	}

	chosen := eligible[0]
	if preferred != "" {
		found := false
		for _, d := range eligible {
			if d.Path == preferred {
				chosen = d
				found = true
				break
			}
		}
		if !found {
			i.log.WithFields(map[string]any{"drive": preferred}).Warn("configured drive not eligible, ignoring hint")
		}
	}

	return &Selection{
		Drive:             chosen,
		NeedsConfirmation: chosen.Windows.HasWindows,
	}, nil
}
