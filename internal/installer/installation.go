package installer

import (
	"context"
	"fmt"
)

// Live image locations on KDE Neon install media.
const (
	casperDir   = "/cdrom/casper"
	squashImage = casperDir + "/filesystem.squashfs"
	sourceMount = "/run/slit/source"
)

// systemInstallation mounts the fresh partitions, copies the live system
// image onto the root filesystem, and creates the swap file.
type systemInstallation struct{}

func (systemInstallation) Name() string { return PhaseSystemInstallation }

func (p systemInstallation) Execute(ctx context.Context, ic *Context) error {
	root := ic.InstallRoot

	mounts := []struct {
		description string
		command     string
	}{
		{"create installation root", "mkdir -p " + root},
		{"mount root partition", fmt.Sprintf("mount %s %s", ic.Target.PartitionPath(2), root)},
		{"create EFI mount point", "mkdir -p " + root + "/boot/efi"},
		{"mount EFI partition", fmt.Sprintf("mount %s %s/boot/efi", ic.Target.PartitionPath(1), root)},
	}
	for _, s := range mounts {
		if err := ic.step(ctx, s.description, s.command); err != nil {
			return err
		}
	}

	if err := p.copySystem(ctx, ic); err != nil {
		return err
	}
	if err := p.createSwap(ctx, ic); err != nil {
		return err
	}
	return p.installKernel(ctx, ic)
}

func (systemInstallation) copySystem(ctx context.Context, ic *Context) error {
	if err := ic.step(ctx, "create image mount point", "mkdir -p "+sourceMount); err != nil {
		return err
	}
	if err := ic.step(ctx, "mount live system image", fmt.Sprintf("mount -o loop,ro %s %s", squashImage, sourceMount)); err != nil {
		return err
	}
	copyCmd := fmt.Sprintf("rsync -aHAX --numeric-ids %s/ %s/", sourceMount, ic.InstallRoot)
	if err := ic.stepTimed(ctx, "copy system files", copyCmd, longTimeout); err != nil {
		ic.bestEffort(ctx, "unmount live system image", "umount "+sourceMount)
		return err
	}
	return ic.step(ctx, "unmount live system image", "umount "+sourceMount)
}

func (systemInstallation) createSwap(ctx context.Context, ic *Context) error {
	size, ok := parseSwapOverride(ic.Config.SwapSize)
	if !ok {
		ram, err := ic.RAMMiB()
		if err != nil {
			return err
		}
		size = SwapSizeMiB(ram)
	}
	ic.SwapMiB = size

	swapfile := ic.InstallRoot + "/swapfile"
	steps := []struct {
		description string
		command     string
	}{
		{"create swap file", fmt.Sprintf("fallocate -l %dM %s", size, swapfile)},
		{"set swap file permissions", "chmod 600 " + swapfile},
		{"format swap file", "mkswap " + swapfile},
		{"enable swap file", "swapon " + swapfile},
	}
	for _, s := range steps {
		if err := ic.step(ctx, s.description, s.command); err != nil {
			return err
		}
	}
	return nil
}

func (systemInstallation) installKernel(ctx context.Context, ic *Context) error {
	boot := ic.InstallRoot + "/boot"
	if err := ic.step(ctx, "install kernel image", fmt.Sprintf("cp %s/vmlinuz %s/vmlinuz", casperDir, boot)); err != nil {
		return err
	}
	return ic.step(ctx, "install initrd image", fmt.Sprintf("cp %s/initrd %s/initrd.img", casperDir, boot))
}

func (systemInstallation) Cleanup(ctx context.Context, ic *Context) {
	ic.bestEffort(ctx, "disable swap file", "swapoff "+ic.InstallRoot+"/swapfile")
	ic.bestEffort(ctx, "unmount live system image", "umount "+sourceMount)
	unmountPartitions(ctx, ic)
}

// unmountPartitions releases the target filesystems, EFI first.
func unmountPartitions(ctx context.Context, ic *Context) {
	ic.bestEffort(ctx, "unmount EFI partition", "umount "+ic.InstallRoot+"/boot/efi")
	ic.bestEffort(ctx, "unmount root partition", "umount "+ic.InstallRoot)
}
