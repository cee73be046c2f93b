package installer

import (
	"context"
	"fmt"
	"time"
)

const bootloaderID = "KDE Neon"

// chrootBinds lists the special filesystems a working chroot needs, in
// mount order. Unmounting walks the list in reverse.
var chrootBinds = []string{"/proc", "/sys", "/dev", "/run"}

// bootloaderConfiguration sets up a chroot on the target, installs GRUB
// for UEFI, writes the filesystem table, and reconciles firmware boot
// entries against the pre-install snapshot.
type bootloaderConfiguration struct{}

func (bootloaderConfiguration) Name() string { return PhaseBootloaderConfiguration }

func (p bootloaderConfiguration) Execute(ctx context.Context, ic *Context) error {
	if err := p.setupChroot(ctx, ic); err != nil {
		return err
	}
	if err := p.installGrub(ctx, ic); err != nil {
		return err
	}
	if err := p.writeFstab(ctx, ic); err != nil {
		return err
	}

	report, err := ic.Boot.Reconcile(ctx, ic.Target.Path, ic.Before, ic.RemoveForeign)
	if err != nil {
		return err
	}
	ic.Reconciled = report
	ic.notify(EventStepDone, "reconcile firmware boot entries", nil)
	return nil
}

func (bootloaderConfiguration) setupChroot(ctx context.Context, ic *Context) error {
	root := ic.InstallRoot
	for _, src := range chrootBinds {
		if err := ic.step(ctx, "bind "+src, fmt.Sprintf("mount --bind %s %s%s", src, root, src)); err != nil {
			return err
		}
	}

	steps := []struct {
		description string
		command     string
	}{
		{"bind /dev/pts", fmt.Sprintf("mount --bind /dev/pts %s/dev/pts", root)},
		{"mount tmpfs on /tmp", fmt.Sprintf("mount -t tmpfs tmpfs %s/tmp", root)},
		{"set /tmp permissions", fmt.Sprintf("chmod 1777 %s/tmp", root)},
		{"bind EFI variables", fmt.Sprintf("mount --bind /sys/firmware/efi/efivars %s/sys/firmware/efi/efivars", root)},
	}
	for _, s := range steps {
		if err := ic.step(ctx, s.description, s.command); err != nil {
			return err
		}
	}
	return nil
}

func (bootloaderConfiguration) installGrub(ctx context.Context, ic *Context) error {
	install := ic.chroot(fmt.Sprintf(
		"grub-install --target=x86_64-efi --efi-directory=/boot/efi --bootloader-id='%s' %s",
		bootloaderID, ic.Target.Path,
	))
	if err := ic.stepTimed(ctx, "install GRUB bootloader", install, 10*time.Minute); err != nil {
		return err
	}
	return ic.stepTimed(ctx, "generate GRUB configuration", ic.chroot("update-grub"), 10*time.Minute)
}

func (bootloaderConfiguration) writeFstab(ctx context.Context, ic *Context) error {
	rootUUID, err := ic.capture(ctx, "read root partition UUID", "blkid -s UUID -o value "+ic.Root)
	if err != nil {
		return err
	}
	espUUID, err := ic.capture(ctx, "read EFI partition UUID", "blkid -s UUID -o value "+ic.ESP)
	if err != nil {
		return err
	}

	fstab := fmt.Sprintf(
		"# /etc/fstab: static file system information.\n"+
			"UUID=%s / %s errors=remount-ro 0 1\n"+
			"UUID=%s /boot/efi vfat umask=0077 0 1\n"+
			"/swapfile none swap sw 0 0\n",
		rootUUID, ic.Config.Filesystem, espUUID,
	)
	return ic.writeFile(ctx, "write filesystem table", ic.InstallRoot+"/etc/fstab", fstab, "0644")
}

func (bootloaderConfiguration) Cleanup(ctx context.Context, ic *Context) {
	unmountChroot(ctx, ic)
	ic.bestEffort(ctx, "disable swap file", "swapoff "+ic.InstallRoot+"/swapfile")
	unmountPartitions(ctx, ic)
}

// unmountChroot releases the chroot special filesystems in reverse mount
// order.
func unmountChroot(ctx context.Context, ic *Context) {
	root := ic.InstallRoot
	ic.bestEffort(ctx, "unbind EFI variables", fmt.Sprintf("umount %s/sys/firmware/efi/efivars", root))
	ic.bestEffort(ctx, "unmount /tmp tmpfs", fmt.Sprintf("umount %s/tmp", root))
	ic.bestEffort(ctx, "unbind /dev/pts", fmt.Sprintf("umount %s/dev/pts", root))
	for i := len(chrootBinds) - 1; i >= 0; i-- {
		ic.bestEffort(ctx, "unbind "+chrootBinds[i], fmt.Sprintf("umount %s%s", root, chrootBinds[i]))
	}
}
