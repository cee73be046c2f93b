package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tkirkland/SLIT/internal/config"
	sliterrors "github.com/tkirkland/SLIT/pkg/errors"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the installation configuration",
	}
	cmd.AddCommand(newConfigShowCmd(flags))
	return cmd
}

func newConfigShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print a redacted configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				var verrs sliterrors.ValidationErrors
				if errors.As(err, &verrs) {
					fmt.Fprintln(cmd.ErrOrStderr(), verrs.Error())
				}
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderConfig(cfg))
			return nil
		},
	}
}

// renderConfig prints every field except the credential hash, which is
// never shown.
func renderConfig(cfg *config.SystemConfig) string {
	var b strings.Builder
	write := func(key, value string) {
		fmt.Fprintf(&b, "%-16s %s\n", key+":", value)
	}

	write("target_drive", orUnset(cfg.TargetDrive))
	write("locale", cfg.Locale)
	write("timezone", cfg.Timezone)
	write("user_fullname", orUnset(cfg.UserFullName))
	write("username", cfg.Username)
	write("hostname", cfg.Hostname)
	write("swap_size", orUnset(cfg.SwapSize))
	write("filesystem", cfg.Filesystem)
	write("sudo_nopasswd", fmt.Sprintf("%t", cfg.SudoNoPasswd))

	password := "(not set)"
	if cfg.PasswordHash != "" {
		password = "(set, hidden)"
	}
	write("password", password)

	write("network.mode", cfg.Network.Mode)
	write("network.iface", orUnset(cfg.Network.Interface))
	if cfg.Network.Mode == config.NetworkStatic {
		write("network.address", cfg.Network.Address)
		write("network.netmask", cfg.Network.Netmask)
		write("network.gateway", cfg.Network.Gateway)
		write("network.dns", cfg.Network.DNS)
	}
	if cfg.Network.SearchDomains != "" {
		write("network.search", cfg.Network.SearchDomains)
	}
	return b.String()
}

func orUnset(value string) string {
	if value == "" {
		return "(unset)"
	}
	return value
}
