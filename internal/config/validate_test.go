package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	sliterrors "github.com/tkirkland/SLIT/pkg/errors"
)

func validConfig() *SystemConfig {
	return &SystemConfig{
		TargetDrive: "/dev/nvme0n1",
		Locale:      "en_US.UTF-8",
		Timezone:    "America/New_York",
		Username:    "kdeuser",
		Hostname:    "slit-system",
		SwapSize:    "auto",
		Filesystem:  "ext4",
		Network:     NetworkConfig{Mode: NetworkDHCP, Interface: "eth0"},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	t.Parallel()

	require.Empty(t, Validate(validConfig()))
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Locale = "english"
	cfg.Username = "root"
	cfg.Hostname = ""

	errs := Validate(cfg)
	require.GreaterOrEqual(t, len(errs), 3)

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	require.True(t, fields["locale"])
	require.True(t, fields["username"])
	require.True(t, fields["hostname"])
}

func TestValidateFieldFormats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*SystemConfig)
		field  string
	}{
		{"locale without encoding", func(c *SystemConfig) { c.Locale = "en_US" }, "locale"},
		{"timezone without area", func(c *SystemConfig) { c.Timezone = "UTC" }, "timezone"},
		{"username starting with digit", func(c *SystemConfig) { c.Username = "1user" }, "username"},
		{"username starting uppercase", func(c *SystemConfig) { c.Username = "User" }, "username"},
		{"reserved username", func(c *SystemConfig) { c.Username = "daemon" }, "username"},
		{"sata drive path rejected", func(c *SystemConfig) { c.TargetDrive = "/dev/sda" }, "target_drive"},
		{"partition instead of drive", func(c *SystemConfig) { c.TargetDrive = "/dev/nvme0n1p1" }, "target_drive"},
		{"unsupported filesystem", func(c *SystemConfig) { c.Filesystem = "btrfs" }, "filesystem"},
		{"bad swap size", func(c *SystemConfig) { c.SwapSize = "lots" }, "swap_size"},
		{"unknown network mode", func(c *SystemConfig) { c.Network.Mode = "wifi" }, "network.mode"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(cfg)

			errs := Validate(cfg)
			require.NotEmpty(t, errs)

			found := false
			for _, e := range errs {
				if e.Field == tc.field {
					found = true
				}
			}
			require.True(t, found, "expected an error on field %s, got %v", tc.field, errs)
		})
	}
}

func TestValidateStaticNetworkAllOrNothing(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Network = NetworkConfig{Mode: NetworkStatic, Interface: "eth0", Address: "192.168.1.50"}

	errs := Validate(cfg)
	fields := map[string]int{}
	for _, e := range errs {
		fields[e.Field]++
	}
	require.NotZero(t, fields["network.netmask"])
	require.NotZero(t, fields["network.gateway"])
	require.NotZero(t, fields["network.dns"])
}

func TestValidateStaticFieldsRejectedUnderDHCP(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Network.Gateway = "192.168.1.1"

	errs := Validate(cfg)
	require.Len(t, errs, 1)
	require.Equal(t, "network.gateway", errs[0].Field)
}

func TestValidateCompleteStaticConfig(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Network = NetworkConfig{
		Mode:      NetworkStatic,
		Interface: "enp3s0",
		Address:   "192.168.1.50",
		Netmask:   "255.255.255.0",
		Gateway:   "192.168.1.1",
		DNS:       "8.8.8.8,8.8.4.4",
	}
	require.Empty(t, Validate(cfg))
}

func TestValidateBadDNSServerListed(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Network = NetworkConfig{
		Mode:      NetworkStatic,
		Interface: "eth0",
		Address:   "192.168.1.50",
		Netmask:   "255.255.255.0",
		Gateway:   "192.168.1.1",
		DNS:       "8.8.8.8,not-an-ip",
	}

	errs := Validate(cfg)
	require.Len(t, errs, 1)
	require.Equal(t, "network.dns", errs[0].Field)
	require.Contains(t, errs[0].Message, "not-an-ip")
}

func TestValidateNilConfig(t *testing.T) {
	t.Parallel()

	errs := Validate(nil)
	require.Error(t, errs.OrNil())
	var verrs sliterrors.ValidationErrors
	require.ErrorAs(t, errs.OrNil(), &verrs)
}
