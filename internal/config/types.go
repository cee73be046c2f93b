package config

import (
	"fmt"
	"strings"
)

// Network modes accepted in the configuration file.
const (
	NetworkDHCP   = "dhcp"
	NetworkStatic = "static"
	NetworkManual = "manual"
)

// MinRequiredFields is the smallest number of top-level keys a readable
// configuration file can carry. Anything below this is treated as a
// truncated (corrupt) file, never as a partially-loaded configuration.
const MinRequiredFields = 6

// SystemConfig is the full installation configuration. It is validated
// before any phase runs and treated as an immutable snapshot afterwards.
type SystemConfig struct {
	TargetDrive  string        `yaml:"target_drive,omitempty" validate:"omitempty,drive_path"`
	Locale       string        `yaml:"locale" validate:"required,locale"`
	Timezone     string        `yaml:"timezone" validate:"required,timezone"`
	UserFullName string        `yaml:"user_fullname,omitempty"`
	Username     string        `yaml:"username" validate:"required,unix_username"`
	Hostname     string        `yaml:"hostname" validate:"required,hostname_rfc1123"`
	SwapSize     string        `yaml:"swap_size,omitempty" validate:"omitempty,swap_size"`
	Filesystem   string        `yaml:"filesystem" validate:"required,oneof=ext4"`
	Network      NetworkConfig `yaml:"network"`
	PasswordHash string        `yaml:"password_hash,omitempty"`
	SudoNoPasswd bool          `yaml:"sudo_nopasswd"`
}

// NetworkConfig describes how the installed system brings up networking.
// In static mode, address, netmask, gateway, and DNS are required together.
type NetworkConfig struct {
	Mode          string `yaml:"mode" validate:"required,oneof=dhcp static manual"`
	Interface     string `yaml:"interface,omitempty"`
	Address       string `yaml:"address,omitempty" validate:"omitempty,ip4_addr"`
	Netmask       string `yaml:"netmask,omitempty" validate:"omitempty,netmask"`
	Gateway       string `yaml:"gateway,omitempty" validate:"omitempty,ip4_addr"`
	DNS           string `yaml:"dns,omitempty"`
	SearchDomains string `yaml:"search_domains,omitempty"`
}

// SystemdNetwork renders the configuration as a systemd-networkd unit.
func (n NetworkConfig) SystemdNetwork() string {
	iface := n.Interface
	if iface == "" {
		iface = "eth0"
	}

	lines := []string{"[Match]", "Name=" + iface, "", "[Network]"}

	switch n.Mode {
	case NetworkStatic:
		lines = append(lines,
			fmt.Sprintf("Address=%s/%s", n.Address, netmaskToCIDR(n.Netmask)),
			"Gateway="+n.Gateway,
		)
		for _, server := range splitList(n.DNS) {
			lines = append(lines, "DNS="+server)
		}
	default:
		lines = append(lines, "DHCP=yes")
	}

	if n.SearchDomains != "" {
		lines = append(lines, "Domains="+strings.Join(splitList(n.SearchDomains), " "))
	}

	return strings.Join(lines, "\n") + "\n"
}

var cidrByNetmask = map[string]string{
	"255.0.0.0":       "8",
	"255.255.0.0":     "16",
	"255.255.255.0":   "24",
	"255.255.255.128": "25",
	"255.255.255.192": "26",
	"255.255.255.224": "27",
	"255.255.255.240": "28",
	"255.255.255.248": "29",
	"255.255.255.252": "30",
}

func netmaskToCIDR(netmask string) string {
	if prefix, ok := cidrByNetmask[netmask]; ok {
		return prefix
	}
	return "24"
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
