// Package md manages FreeBSD md(4) memory disks.
//
// A memory disk is configured with a Builder, chosen by backing store, and
// attached with Create:
//
//	dev, err := md.NewSwap(1 << 20).Label("scratch").Reserve(true).Create()
//	if err != nil {
//		return err
//	}
//	defer dev.Release(&err)
//
// The returned Device owns the kernel attachment. TryDestroy detaches it only
// if no other process holds it open. Release and Close detach it forcibly.
// Release is meant to be deferred directly so that it can tell whether the
// enclosing function is already failing, and hands detach failures to the
// builder's CleanupPolicy.
//
// Each operation opens the md control node, issues a single ioctl and closes
// the node again. Kernel failures are returned wrapping the unix.Errno, so
// callers match them with errors.Is(err, unix.EBUSY) and similar.
package md
