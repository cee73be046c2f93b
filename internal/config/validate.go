package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	sliterrors "github.com/tkirkland/SLIT/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	localePattern   = regexp.MustCompile(`^[a-z]{2}_[A-Z]{2}\.UTF-8$`)
	timezonePattern = regexp.MustCompile(`^[A-Z][A-Za-z_]*(/[A-Z][A-Za-z_-]*)+$`)
	usernamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
	drivePattern    = regexp.MustCompile(`^/dev/nvme\d+n\d+$`)
	swapPattern     = regexp.MustCompile(`^\d+[KMG]$`)
)

// reservedUsernames are account names the installer refuses to create.
var reservedUsernames = map[string]struct{}{
	"root": {}, "bin": {}, "daemon": {}, "adm": {}, "lp": {}, "sync": {},
	"shutdown": {}, "halt": {}, "mail": {}, "news": {}, "uucp": {},
	"operator": {}, "games": {}, "ftp": {}, "nobody": {}, "sshd": {},
	"messagebus": {}, "systemd-network": {}, "systemd-resolve": {},
	"systemd-timesync": {}, "systemd-coredump": {}, "systemd-oom": {},
	"polkitd": {}, "rtkit": {}, "pulse": {}, "gdm": {}, "avahi": {},
	"colord": {}, "saned": {}, "flatpak": {}, "geoclue": {}, "qemu": {},
	"kvm": {}, "render": {}, "pipewire": {}, "tcpdump": {}, "postfix": {},
	"test": {}, "guest": {}, "admin": {}, "administrator": {},
	"user": {}, "default": {},
}

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
			return localePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
			return timezonePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("unix_username", func(fl validator.FieldLevel) bool {
			name := fl.Field().String()
			if len(name) == 0 || len(name) > 32 {
				return false
			}
			if !usernamePattern.MatchString(name) {
				return false
			}
			_, reserved := reservedUsernames[strings.ToLower(name)]
			return !reserved
		})

		_ = v.RegisterValidation("drive_path", func(fl validator.FieldLevel) bool {
			return drivePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("netmask", func(fl validator.FieldLevel) bool {
			_, ok := cidrByNetmask[fl.Field().String()]
			return ok
		})

		_ = v.RegisterValidation("swap_size", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			if strings.EqualFold(value, "auto") {
				return true
			}
			if !swapPattern.MatchString(strings.ToUpper(value)) {
				return false
			}
			n, err := strconv.Atoi(value[:len(value)-1])
			if err != nil {
				return false
			}
			switch strings.ToUpper(value[len(value)-1:]) {
			case "K":
				return n >= 1024 && n <= 64*1024*1024
			case "M":
				return n >= 1 && n <= 64*1024
			default:
				return n >= 1 && n <= 64
			}
		})

		validateInst = v
	})

	return validateInst
}

// expectedFormats maps a validation tag to the human description included
// in field errors.
var expectedFormats = map[string]string{
	"required":         "a non-empty value",
	"locale":           "xx_YY.UTF-8 (e.g. en_US.UTF-8)",
	"timezone":         "Area/Location (e.g. America/New_York)",
	"unix_username":    "lowercase letter first, then letters, digits, _ or -, not a reserved name",
	"hostname_rfc1123": "letters, digits, and hyphens, 1-63 characters per label",
	"drive_path":       "NVMe device path (e.g. /dev/nvme0n1)",
	"ip4_addr":         "IPv4 address (e.g. 192.168.1.100)",
	"netmask":          "dotted netmask (e.g. 255.255.255.0)",
	"swap_size":        `"auto" or size with unit (e.g. 4G)`,
	"oneof":            "one of the permitted values",
}

// Validate runs the required-field pass and the format/cross-field pass
// over a parsed configuration. Every failing check is accumulated; the
// caller receives all problems of the run together.
func Validate(cfg *SystemConfig) sliterrors.ValidationErrors {
	var errs sliterrors.ValidationErrors
	if cfg == nil {
		return append(errs, sliterrors.NewValidationError("config", "", "a configuration", "configuration is nil"))
	}

	// Pass: required-field presence and field formats via struct tags. The
	// validator reports every failing field, not just the first.
	if err := validatorInstance().Struct(cfg); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				errs = append(errs, convertFieldError(fe))
			}
		} else {
			errs = append(errs, sliterrors.NewValidationError("config", "", "", err.Error()))
		}
	}

	// Pass: cross-field consistency.
	errs = append(errs, validateNetworkConsistency(&cfg.Network)...)

	return errs
}

// validateNetworkConsistency enforces the static-mode all-or-nothing rule:
// static requires address, netmask, gateway, and DNS together, and those
// fields are meaningless under any other mode.
func validateNetworkConsistency(n *NetworkConfig) sliterrors.ValidationErrors {
	var errs sliterrors.ValidationErrors

	staticFields := []struct {
		name, value, expected string
	}{
		{"network.address", n.Address, expectedFormats["ip4_addr"]},
		{"network.netmask", n.Netmask, expectedFormats["netmask"]},
		{"network.gateway", n.Gateway, expectedFormats["ip4_addr"]},
		{"network.dns", n.DNS, "comma-separated IPv4 addresses"},
	}

	if n.Mode == NetworkStatic {
		for _, f := range staticFields {
			if strings.TrimSpace(f.value) == "" {
				errs = append(errs, sliterrors.NewValidationError(
					f.name, f.value, f.expected,
					"required when network mode is static"))
			}
		}
		for _, server := range splitList(n.DNS) {
			if err := validatorInstance().Var(server, "ip4_addr"); err != nil {
				errs = append(errs, sliterrors.NewValidationError(
					"network.dns", server, expectedFormats["ip4_addr"],
					fmt.Sprintf("invalid DNS server %q", server)))
			}
		}
		return errs
	}

	for _, f := range staticFields {
		if strings.TrimSpace(f.value) != "" {
			errs = append(errs, sliterrors.NewValidationError(
				f.name, f.value, "empty unless network mode is static",
				fmt.Sprintf("only valid with static mode (mode is %q)", n.Mode)))
		}
	}
	return errs
}

func convertFieldError(fe validator.FieldError) *sliterrors.ValidationError {
	field := yamlishFieldName(fe)
	expected := expectedFormats[fe.Tag()]
	if expected == "" {
		expected = fe.Tag()
	}

	msg := fmt.Sprintf("invalid value for %s", field)
	if fe.Tag() == "required" {
		msg = fmt.Sprintf("%s is required", field)
	}

	return sliterrors.NewValidationError(field, fmt.Sprint(fe.Value()), expected, msg)
}

func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:] // drop the SystemConfig prefix
	}
	lowered := make([]string, 0, len(parts))
	for _, part := range parts {
		lowered = append(lowered, toSnake(part))
	}
	return strings.Join(lowered, ".")
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := rune(name[i-1])
				if prev >= 'a' && prev <= 'z' {
					b.WriteByte('_')
				}
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
