package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tkirkland/SLIT/internal/execute"
)

// livePackages exist only on the install media and have no business on
// the installed system.
var livePackages = []string{"casper", "calamares", "neon-live"}

// AddonDir holds optional post-install scripts run at the end of system
// configuration. Each failure is logged and skipped; addons never abort
// an installation.
const AddonDir = "/etc/slit/addons"

// systemConfiguration finishes the installed system: locale, timezone,
// hostname, networking, the first user account, live package cleanup, and
// addon scripts. It ends by releasing every mount the earlier phases made.
type systemConfiguration struct{}

func (systemConfiguration) Name() string { return PhaseSystemConfiguration }

func (p systemConfiguration) Execute(ctx context.Context, ic *Context) error {
	if err := p.configureLocale(ctx, ic); err != nil {
		return err
	}
	if err := p.configureHostname(ctx, ic); err != nil {
		return err
	}
	if err := p.configureNetwork(ctx, ic); err != nil {
		return err
	}
	if err := p.createUser(ctx, ic); err != nil {
		return err
	}
	if err := p.cleanupPackages(ctx, ic); err != nil {
		return err
	}
	p.runAddons(ctx, ic)

	unmountChroot(ctx, ic)
	ic.bestEffort(ctx, "disable swap file", "swapoff "+ic.InstallRoot+"/swapfile")
	unmountPartitions(ctx, ic)
	ic.notify(EventStepDone, "release target filesystems", nil)
	return nil
}

func (systemConfiguration) configureLocale(ctx context.Context, ic *Context) error {
	cfg := ic.Config
	steps := []struct {
		description string
		command     string
	}{
		{"generate locale", ic.chroot("locale-gen " + cfg.Locale)},
		{"set default locale", ic.chroot("update-locale LANG=" + cfg.Locale)},
		{"link localtime", ic.chroot(fmt.Sprintf("ln -sf /usr/share/zoneinfo/%s /etc/localtime", cfg.Timezone))},
	}
	for _, s := range steps {
		if err := ic.step(ctx, s.description, s.command); err != nil {
			return err
		}
	}
	return ic.writeFile(ctx, "write timezone", ic.InstallRoot+"/etc/timezone", cfg.Timezone+"\n", "0644")
}

func (systemConfiguration) configureHostname(ctx context.Context, ic *Context) error {
	host := ic.Config.Hostname
	if err := ic.writeFile(ctx, "write hostname", ic.InstallRoot+"/etc/hostname", host+"\n", "0644"); err != nil {
		return err
	}
	hosts := fmt.Sprintf("127.0.0.1 localhost\n127.0.1.1 %s\n\n::1 localhost ip6-localhost ip6-loopback\n", host)
	return ic.writeFile(ctx, "write hosts file", ic.InstallRoot+"/etc/hosts", hosts, "0644")
}

func (systemConfiguration) configureNetwork(ctx context.Context, ic *Context) error {
	network := ic.Config.Network
	iface := network.Interface
	if iface == "" {
		iface = "eth0"
	}

	unit := fmt.Sprintf("%s/etc/systemd/network/10-%s.network", ic.InstallRoot, iface)
	if err := ic.writeFile(ctx, "write network unit", unit, network.SystemdNetwork(), "0644"); err != nil {
		return err
	}
	return ic.step(ctx, "enable systemd-networkd", ic.chroot("systemctl enable systemd-networkd"))
}

func (systemConfiguration) createUser(ctx context.Context, ic *Context) error {
	cfg := ic.Config

	useradd := fmt.Sprintf("useradd -m -s /bin/bash -G sudo %s", cfg.Username)
	if cfg.UserFullName != "" {
		useradd = fmt.Sprintf("useradd -m -s /bin/bash -G sudo -c '%s' %s", cfg.UserFullName, cfg.Username)
	}
	if err := ic.step(ctx, "create user account", ic.chroot(useradd)); err != nil {
		return err
	}

	// The credential is already hashed; chpasswd -e consumes it as-is.
	if cfg.PasswordHash != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := ic.Exec.Run(ctx, execute.Spec{
			Command:      ic.chroot("chpasswd -e"),
			Description:  "set user credential",
			CheckSuccess: true,
			Timeout:      stepTimeout,
			Stdin:        cfg.Username + ":" + cfg.PasswordHash + "\n",
		}); err != nil {
			return err
		}
		ic.notify(EventStepDone, "set user credential", nil)
	}

	if cfg.SudoNoPasswd {
		dropIn := fmt.Sprintf("%s ALL=(ALL) NOPASSWD: ALL\n", cfg.Username)
		path := fmt.Sprintf("%s/etc/sudoers.d/90-%s", ic.InstallRoot, cfg.Username)
		if err := ic.writeFile(ctx, "write passwordless sudo drop-in", path, dropIn, "0440"); err != nil {
			return err
		}
	}
	return nil
}

func (systemConfiguration) cleanupPackages(ctx context.Context, ic *Context) error {
	purge := ic.chroot("apt-get -qq purge -y " + strings.Join(livePackages, " "))
	if err := ic.stepTimed(ctx, "remove live system packages", purge, 10*time.Minute); err != nil {
		return err
	}
	return ic.stepTimed(ctx, "remove orphaned packages", ic.chroot("apt-get -qq autoremove -y"), 10*time.Minute)
}

// runAddons executes optional post-install scripts in name order. Addon
// failures are the one place the installer logs and moves on.
func (systemConfiguration) runAddons(ctx context.Context, ic *Context) {
	entries, err := os.ReadDir(AddonDir)
	if err != nil {
		ic.Log.Debug("no addon scripts found")
		return
	}

	var scripts []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sh") {
			scripts = append(scripts, filepath.Join(AddonDir, entry.Name()))
		}
	}
	sort.Strings(scripts)

	for _, script := range scripts {
		if ctx.Err() != nil {
			return
		}
		ic.Log.WithFields(map[string]any{"script": script}).Info("running addon script")
		ic.bestEffort(ctx, "addon script "+filepath.Base(script),
			fmt.Sprintf("SLIT_TARGET=%s bash %s", ic.InstallRoot, script))
		ic.notify(EventStepDone, "addon script "+filepath.Base(script), nil)
	}
}

func (systemConfiguration) Cleanup(ctx context.Context, ic *Context) {
	unmountChroot(ctx, ic)
	ic.bestEffort(ctx, "disable swap file", "swapoff "+ic.InstallRoot+"/swapfile")
	unmountPartitions(ctx, ic)
}
