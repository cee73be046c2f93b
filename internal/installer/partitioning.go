package installer

import (
	"context"
	"fmt"
)

// ESP layout: 1MiB start keeps the partition aligned, 512MiB is plenty
// for the bootloader. Root takes the rest of the disk.
const (
	espStart = "1MiB"
	espEnd   = "513MiB"
)

// partitioning wipes the target drive and lays down a GPT table with an
// EFI system partition and an ext4 root. This is the first destructive
// phase.
type partitioning struct{}

func (partitioning) Name() string { return PhasePartitioning }

func (partitioning) Execute(ctx context.Context, ic *Context) error {
	drive := ic.Target.Path

	// Anything still mounted from a previous attempt must let go first.
	ic.bestEffort(ctx, "unmount existing partitions", fmt.Sprintf("umount %sp* 2>/dev/null || true", drive))

	steps := []struct {
		description string
		command     string
	}{
		{"create GPT partition table", fmt.Sprintf("parted -s %s mklabel gpt", drive)},
		{"create EFI system partition", fmt.Sprintf("parted -s %s mkpart primary fat32 %s %s", drive, espStart, espEnd)},
		{"set EFI system partition flag", fmt.Sprintf("parted -s %s set 1 esp on", drive)},
		{"create root partition", fmt.Sprintf("parted -s %s mkpart primary ext4 %s 100%%", drive, espEnd)},
		{"refresh partition table", "partprobe " + drive},
		{"format EFI partition", "mkfs.fat -F32 -n EFI " + ic.Target.PartitionPath(1)},
		{"format root partition", "mkfs.ext4 -F -L ROOT " + ic.Target.PartitionPath(2)},
	}
	for _, s := range steps {
		if err := ic.step(ctx, s.description, s.command); err != nil {
			return err
		}
	}

	ic.ESP = ic.Target.PartitionPath(1)
	ic.Root = ic.Target.PartitionPath(2)
	return nil
}

func (partitioning) Cleanup(ctx context.Context, ic *Context) {
	// The table may be half-written. Make sure the kernel's view is
	// current so a retry does not race stale device nodes.
	ic.bestEffort(ctx, "refresh partition table after failure", "partprobe "+ic.Target.Path)
}
