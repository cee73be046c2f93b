package config

import (
	"context"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/tkirkland/SLIT/internal/execute"
)

// Fallbacks used when auto-detection finds nothing usable.
const (
	FallbackLocale    = "en_US.UTF-8"
	FallbackTimezone  = "America/New_York"
	FallbackInterface = "eth0"
)

const detectTimeout = 5 * time.Second

var (
	routeDevPattern = regexp.MustCompile(`\bdev\s+(\S+)`)
	linkNamePattern = regexp.MustCompile(`(?m)^\d+:\s+([^:@\s]+)`)
)

// DetectLocale returns the running environment's locale when it matches
// the supported format, falling back to a fixed default. It never fails.
func DetectLocale() string {
	for _, name := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if value := os.Getenv(name); localePattern.MatchString(value) {
			return value
		}
	}
	return FallbackLocale
}

// DetectTimezone reads the live system's timezone, preferring
// /etc/timezone and falling back to timedatectl, then a fixed default.
func DetectTimezone(ctx context.Context, exec *execute.Executor) string {
	if data, err := os.ReadFile("/etc/timezone"); err == nil {
		if tz := strings.TrimSpace(string(data)); timezonePattern.MatchString(tz) {
			return tz
		}
	}

	res, err := exec.Run(ctx, execute.Spec{
		Command:       "timedatectl show --property=Timezone --value",
		Description:   "Detecting system timezone",
		CaptureOutput: true,
		Timeout:       detectTimeout,
	})
	if err == nil && res.Success {
		if tz := strings.TrimSpace(res.Stdout); timezonePattern.MatchString(tz) {
			return tz
		}
	}
	return FallbackTimezone
}

// DetectPrimaryInterface finds the interface carrying the default route,
// falling back to the first non-loopback link, then a fixed default.
func DetectPrimaryInterface(ctx context.Context, exec *execute.Executor) string {
	res, err := exec.Run(ctx, execute.Spec{
		Command:       "ip route show default",
		Description:   "Detecting default route interface",
		CaptureOutput: true,
		Timeout:       detectTimeout,
	})
	if err == nil && res.Success {
		if m := routeDevPattern.FindStringSubmatch(res.Stdout); m != nil {
			return m[1]
		}
	}

	res, err = exec.Run(ctx, execute.Spec{
		Command:       "ip -o link show",
		Description:   "Listing network links",
		CaptureOutput: true,
		Timeout:       detectTimeout,
	})
	if err == nil && res.Success {
		for _, m := range linkNamePattern.FindAllStringSubmatch(res.Stdout, -1) {
			if name := m[1]; name != "lo" {
				return name
			}
		}
	}
	return FallbackInterface
}

// DetectDefaults assembles a configuration pre-populated with best-effort
// detected values, ready for interactive completion.
func DetectDefaults(ctx context.Context, exec *execute.Executor) *SystemConfig {
	return &SystemConfig{
		Locale:     DetectLocale(),
		Timezone:   DetectTimezone(ctx, exec),
		SwapSize:   "auto",
		Filesystem: "ext4",
		Network: NetworkConfig{
			Mode:      NetworkDHCP,
			Interface: DetectPrimaryInterface(ctx, exec),
		},
	}
}
