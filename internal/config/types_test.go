package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSystemdNetworkDHCP(t *testing.T) {
	t.Parallel()

	n := NetworkConfig{Mode: NetworkDHCP, Interface: "enp3s0"}
	unit := n.SystemdNetwork()

	require.Contains(t, unit, "[Match]\nName=enp3s0")
	require.Contains(t, unit, "DHCP=yes")
	require.NotContains(t, unit, "Address=")
}

func TestSystemdNetworkStatic(t *testing.T) {
	t.Parallel()

	n := NetworkConfig{
		Mode:          NetworkStatic,
		Interface:     "eth0",
		Address:       "192.168.1.50",
		Netmask:       "255.255.255.128",
		Gateway:       "192.168.1.1",
		DNS:           "8.8.8.8, 8.8.4.4",
		SearchDomains: "lan.example",
	}
	unit := n.SystemdNetwork()

	require.Contains(t, unit, "Address=192.168.1.50/25")
	require.Contains(t, unit, "Gateway=192.168.1.1")
	require.Contains(t, unit, "DNS=8.8.8.8")
	require.Contains(t, unit, "DNS=8.8.4.4")
	require.Contains(t, unit, "Domains=lan.example")
}

func TestSystemdNetworkDefaultsInterface(t *testing.T) {
	t.Parallel()

	n := NetworkConfig{Mode: NetworkManual}
	require.Contains(t, n.SystemdNetwork(), "Name=eth0")
}

func TestNetmaskToCIDR(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"255.255.255.0":   "24",
		"255.255.0.0":     "16",
		"255.0.0.0":       "8",
		"255.255.255.252": "30",
		"garbage":         "24",
	}
	for netmask, want := range cases {
		require.Equal(t, want, netmaskToCIDR(netmask), netmask)
	}
}
