package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	sliterrors "github.com/tkirkland/SLIT/pkg/errors"
)

// DefaultPath is where the installer persists its configuration.
const DefaultPath = "install.conf"

// Load reads, integrity-checks, parses, and validates a configuration
// file. All failing checks of a pass are returned together as
// errors.ValidationErrors; a structurally damaged file is reported with
// corruption flags so the caller may offer deletion. Load itself never
// deletes anything.
func Load(path string) (*SystemConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}

	if err := checkIntegrity(path, data).OrNil(); err != nil {
		return nil, err
	}

	var cfg SystemConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, sliterrors.ValidationErrors{
			sliterrors.NewCorruptionError("config_file", fmt.Sprintf("not a parseable configuration: %v", err)),
		}
	}

	if err := Validate(&cfg).OrNil(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// checkIntegrity is the structural pass: it rejects empty, binary, and
// truncated files before any field-level validation runs.
func checkIntegrity(path string, data []byte) sliterrors.ValidationErrors {
	var errs sliterrors.ValidationErrors

	if len(bytes.TrimSpace(data)) == 0 {
		return append(errs, sliterrors.NewCorruptionError("config_file", "configuration file is empty"))
	}

	if bytes.ContainsRune(data, 0) || !utf8.Valid(data) {
		return append(errs, sliterrors.NewCorruptionError("config_file", "configuration file contains binary data"))
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return append(errs, sliterrors.NewCorruptionError("config_file", fmt.Sprintf("malformed configuration: %v", err)))
	}

	if keys := topLevelKeyCount(&doc); keys < MinRequiredFields {
		errs = append(errs, sliterrors.NewCorruptionError("config_file",
			fmt.Sprintf("configuration appears truncated: %d of at least %d fields present in %s",
				keys, MinRequiredFields, filepath.Base(path))))
	}

	return errs
}

func topLevelKeyCount(doc *yaml.Node) int {
	if doc == nil || len(doc.Content) == 0 {
		return 0
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return 0
	}
	return len(mapping.Content) / 2
}

// Save serializes the configuration with a stable key layout, writes it to
// a temporary file in the destination directory, restricts it to the
// owner, and atomically replaces the target. A partial file is never left
// in place of a previous one.
func Save(cfg *SystemConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serialize configuration: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".install.conf.*")
	if err != nil {
		return fmt.Errorf("create temporary configuration: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write configuration: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("restrict configuration permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close configuration: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace configuration: %w", err)
	}
	return nil
}

// Prompter supplies the interactive answers Edit needs. Production code
// wires a terminal prompter; tests substitute scripted answers.
type Prompter interface {
	// Input prompts for a free-form value, offering current as default.
	Input(label, current string) (string, error)
	// Confirm prompts a yes/no question, offering current as default.
	Confirm(label string, current bool) (bool, error)
	// PasswordHash prompts for a new credential and returns its hash, or
	// "" to keep the existing one.
	PasswordHash(label string) (string, error)
}

// Edit re-runs every configuration prompt with the current value
// pre-filled and returns the resulting configuration. Accepting every
// default reproduces the original configuration exactly.
func Edit(cfg *SystemConfig, p Prompter) (*SystemConfig, error) {
	out := *cfg

	var err error
	if out.Locale, err = p.Input("System locale", cfg.Locale); err != nil {
		return nil, err
	}
	if out.Timezone, err = p.Input("System timezone", cfg.Timezone); err != nil {
		return nil, err
	}
	if out.UserFullName, err = p.Input("User full name", cfg.UserFullName); err != nil {
		return nil, err
	}
	if out.Username, err = p.Input("Username", cfg.Username); err != nil {
		return nil, err
	}
	if out.SudoNoPasswd, err = p.Confirm("Passwordless sudo", cfg.SudoNoPasswd); err != nil {
		return nil, err
	}
	if out.Hostname, err = p.Input("Hostname", cfg.Hostname); err != nil {
		return nil, err
	}
	if out.SwapSize, err = p.Input("Swap size", cfg.SwapSize); err != nil {
		return nil, err
	}

	if out.Network.Mode, err = p.Input("Network mode (dhcp/static/manual)", cfg.Network.Mode); err != nil {
		return nil, err
	}
	if out.Network.Interface, err = p.Input("Network interface", cfg.Network.Interface); err != nil {
		return nil, err
	}
	if out.Network.Mode == NetworkStatic {
		if out.Network.Address, err = p.Input("IP address", cfg.Network.Address); err != nil {
			return nil, err
		}
		if out.Network.Netmask, err = p.Input("Netmask", cfg.Network.Netmask); err != nil {
			return nil, err
		}
		if out.Network.Gateway, err = p.Input("Gateway", cfg.Network.Gateway); err != nil {
			return nil, err
		}
		if out.Network.DNS, err = p.Input("DNS servers", cfg.Network.DNS); err != nil {
			return nil, err
		}
	} else {
		out.Network.Address = ""
		out.Network.Netmask = ""
		out.Network.Gateway = ""
		out.Network.DNS = ""
	}
	if out.Network.SearchDomains, err = p.Input("Search domains", cfg.Network.SearchDomains); err != nil {
		return nil, err
	}

	hash, err := p.PasswordHash("User password (empty keeps current)")
	if err != nil {
		return nil, err
	}
	if hash != "" {
		out.PasswordHash = hash
	}

	if err := Validate(&out).OrNil(); err != nil {
		return nil, err
	}
	return &out, nil
}
