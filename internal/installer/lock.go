package installer

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/tkirkland/SLIT/pkg/errors"
)

// driveLock is an exclusive advisory lock on the target device node. It
// keeps a second installer instance off the drive for the duration of the
// destructive phases.
type driveLock struct {
	f *os.File
}

func acquireDriveLock(device string) (*driveLock, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		ierr := errors.NewInstallerError("drive_open", "cannot open target drive "+device, err)
		ierr.Context = map[string]any{"device": device}
		return nil, ierr
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		ierr := errors.NewInstallerError("drive_locked", "target drive "+device+" is locked by another process", err)
		ierr.Context = map[string]any{"device": device}
		// The condition clears once the other holder exits.
		ierr.Recoverable = true
		ierr.UserMessage = "Another installer appears to be using " + device + ". Stop it and try again."
		return nil, ierr
	}
	return &driveLock{f: f}, nil
}

func (l *driveLock) release() {
	if l == nil || l.f == nil {
		return
	}
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	_ = l.f.Close()
	l.f = nil
}
