package hardware

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinDriveGB is the smallest drive the installer will consider.
const MinDriveGB = 20

// Drive is a point-in-time snapshot of one storage device. Snapshots are
// rebuilt on every enumeration; they are never cached across phases.
type Drive struct {
	Path       string
	SizeGB     int
	Model      string
	Removable  bool
	Windows    WindowsDetection
	Partitions []string
}

// Suitable reports whether the drive can hold an installation at all,
// ignoring the Windows safety gate.
func (d Drive) Suitable() bool {
	return !d.Removable && d.SizeGB >= MinDriveGB
}

func (d Drive) String() string {
	var status []string
	if d.Windows.HasWindows {
		status = append(status, "Windows detected")
	}
	if d.Removable {
		status = append(status, "removable")
	}
	s := fmt.Sprintf("%s: %s - %dGB", d.Path, d.Model, d.SizeGB)
	if len(status) > 0 {
		s += " (" + strings.Join(status, ", ") + ")"
	}
	return s
}

// PartitionPath returns the device node of the numbered partition using
// NVMe naming (p suffix).
func (d Drive) PartitionPath(number int) string {
	return fmt.Sprintf("%sp%d", d.Path, number)
}

var nvmeDrivePattern = regexp.MustCompile(`^/dev/nvme\d+n\d+$`)

var sizePattern = regexp.MustCompile(`^([\d.]+)([KMGT]?)$`)

// parseSizeGB converts an lsblk human-readable size like "500G" or "1.5T"
// to whole gigabytes.
func parseSizeGB(size string) int {
	m := sizePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(size)))
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch m[2] {
	case "T":
		return int(value * 1000)
	case "G":
		return int(value)
	case "M":
		return int(value / 1000)
	case "K":
		return int(value / 1e6)
	default:
		return int(value / 1e9)
	}
}
