package installer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Swap sizing tiers in MiB. Boundaries are inclusive: exactly 2 GiB of
// RAM doubles, exactly 8 GiB mirrors, exactly 32 GiB caps at 8 GiB.
const (
	swapDoubleBelowMiB = 2048
	swapMirrorBelowMiB = 8192
	swapCapBelowMiB    = 32768
	swapCapMiB         = 8192
	swapLargeMiB       = 4096
)

// SwapSizeMiB computes the swap file size for the given RAM size.
func SwapSizeMiB(ramMiB int) int {
	switch {
	case ramMiB <= swapDoubleBelowMiB:
		return 2 * ramMiB
	case ramMiB <= swapMirrorBelowMiB:
		return ramMiB
	case ramMiB <= swapCapBelowMiB:
		return swapCapMiB
	default:
		return swapLargeMiB
	}
}

// parseSwapOverride converts an explicit swap_size value like "4G" or
// "512M" to MiB. "auto" and "" defer to the RAM-based policy.
func parseSwapOverride(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "auto") {
		return 0, false
	}
	unit := value[len(value)-1]
	n, err := strconv.Atoi(value[:len(value)-1])
	if err != nil || n <= 0 {
		return 0, false
	}
	switch unit {
	case 'G', 'g':
		return n * 1024, true
	case 'M', 'm':
		return n, true
	case 'K', 'k':
		return n / 1024, true
	default:
		return 0, false
	}
}

// detectRAMMiB reads installed memory from /proc/meminfo.
func detectRAMMiB() (int, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ramFromMeminfo(f)
}

func ramFromMeminfo(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "MemTotal:" {
			kb, err := strconv.Atoi(fields[1])
			if err != nil {
				return 0, fmt.Errorf("parse MemTotal: %w", err)
			}
			return kb / 1024, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("MemTotal not found in meminfo")
}
