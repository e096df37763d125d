package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/containerd/log"
	"github.com/urfave/cli/v2"
)

var holdCommand = &cli.Command{
	Name:   "hold",
	Usage:  "Attach a disk, print it, and detach it on SIGINT or SIGTERM",
	Flags:  deviceFlags,
	Action: hold,
}

func hold(cliCtx *cli.Context) (err error) {
	ctx := cliCtx.Context

	cfg, err := loadDevice(cliCtx)
	if err != nil {
		return err
	}
	dev, err := attach(cfg)
	if err != nil {
		return err
	}
	defer dev.Release(&err)

	info, err := dev.Info()
	if err != nil {
		return err
	}
	printDevices(cliCtx.App.Writer, info)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	log.G(ctx).WithField("device", dev.Path()).Info("Holding memory disk")
	sig := <-sigCh
	log.G(ctx).WithField("signal", sig).Info("Received shutdown signal")

	return detach(ctx, dev, cfg)
}
