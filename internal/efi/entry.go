package efi

import (
	"regexp"
	"strings"
)

// DriveUnknown marks an entry whose device path could not be resolved to
// a drive. Unknown entries are never auto-removed.
const DriveUnknown = "unknown"

// Entry is a snapshot of one firmware boot entry. Entry lists are
// immutable once taken; reconciliation diffs two lists, it never mutates
// one in place.
type Entry struct {
	BootID     string
	Name       string
	DevicePath string
	Drive      string
	IsWindows  bool
	IsKDE      bool
}

func (e Entry) String() string {
	return "Boot" + e.BootID + ": " + e.Name
}

var (
	entryPattern     = regexp.MustCompile(`^Boot([0-9A-Fa-f]{4})\*?\s+(.+)$`)
	partUUIDPattern  = regexp.MustCompile(`HD\(\d+,GPT,([0-9a-fA-F-]{36})`)
	partitionPattern = regexp.MustCompile(`^(/dev/nvme\d+n\d+)p\d+$`)
)

// parseEntries parses `efibootmgr -v` output into entries. The verbose
// listing separates the label from the firmware device path with a tab.
func parseEntries(output string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(output, "\n") {
		m := entryPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}

		rest := m[2]
		name := rest
		devicePath := ""
		if idx := strings.IndexByte(rest, '\t'); idx >= 0 {
			name = strings.TrimSpace(rest[:idx])
			devicePath = strings.TrimSpace(rest[idx+1:])
		}

		lower := strings.ToLower(name)
		entries = append(entries, Entry{
			BootID:     strings.ToUpper(m[1]),
			Name:       name,
			DevicePath: devicePath,
			Drive:      DriveUnknown,
			IsWindows:  strings.Contains(lower, "windows") || strings.Contains(lower, "microsoft"),
			IsKDE:      strings.Contains(lower, "kde") || strings.Contains(lower, "neon"),
		})
	}
	return entries
}

// partUUID extracts the GPT partition UUID from a firmware device path,
// or "" when the path has no GPT hard-drive node.
func partUUID(devicePath string) string {
	m := partUUIDPattern.FindStringSubmatch(devicePath)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// driveOfPartition strips the partition suffix from an NVMe partition
// device node, returning "" for anything it does not recognize.
func driveOfPartition(partition string) string {
	m := partitionPattern.FindStringSubmatch(partition)
	if m == nil {
		return ""
	}
	return m[1]
}
