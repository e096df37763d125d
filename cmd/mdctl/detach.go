package main

import (
	"context"
	"errors"
	"strings"

	"github.com/containerd/log"
	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"

	"github.com/spin-stack/mdconfig/internal/cleanup"
	"github.com/spin-stack/mdconfig/internal/config"
	"github.com/spin-stack/mdconfig/pkg/md"
)

// detach waits up to the configured timeout for the disk to become idle and
// then forces it off.
func detach(ctx context.Context, dev *md.Device, cfg *config.Device) error {
	logged := false
	var err error
	cleanup.Do(ctx, cfg.Detach.Timeout, func(ctx context.Context) {
		err = cleanup.Poll(ctx, cfg.Detach.Interval, dev.TryDestroy, func(err error) bool {
			if !errors.Is(err, unix.EBUSY) {
				return false
			}
			if !logged {
				logged = true
				logBusy(ctx, dev)
			}
			return true
		})
	})
	if err == nil {
		log.G(ctx).WithField("device", dev.Name()).Info("Detached memory disk")
		return nil
	}

	log.G(ctx).WithError(err).WithField("device", dev.Name()).Warn("Forcing detach")
	return dev.Close()
}

// logBusy reports mounts that keep dev busy.
func logBusy(ctx context.Context, dev *md.Device) {
	mounts, err := mountinfo.GetMounts(func(m *mountinfo.Info) (skip, stop bool) {
		return !strings.HasPrefix(m.Source, dev.Path()), false
	})
	if err != nil {
		log.G(ctx).WithError(err).Debug("failed to read mount table")
	}
	if len(mounts) == 0 {
		log.G(ctx).WithField("device", dev.Name()).Info("Device busy, waiting for it to be closed")
		return
	}
	for _, m := range mounts {
		log.G(ctx).WithFields(log.Fields{
			"device":     dev.Name(),
			"source":     m.Source,
			"mountpoint": m.Mountpoint,
		}).Info("Device busy, still mounted")
	}
}
