package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/containerd/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/spin-stack/mdconfig/pkg/md"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Attach a disk, run a command with it, then detach it",
	ArgsUsage: "-- COMMAND [ARG...]",
	Flags:     deviceFlags,
	Action:    run,
}

// commandEnv describes dev to the child process.
func commandEnv(dev *md.Device) []string {
	return append(os.Environ(),
		"MD_DEVICE="+dev.Path(),
		"MD_NAME="+dev.Name(),
		"MD_UNIT="+strconv.FormatUint(uint64(dev.Unit()), 10),
	)
}

func run(cliCtx *cli.Context) (err error) {
	ctx := cliCtx.Context
	args := cliCtx.Args().Slice()
	if len(args) == 0 {
		return cli.Exit("run: missing command", 2)
	}

	cfg, err := loadDevice(cliCtx)
	if err != nil {
		return err
	}
	dev, err := attach(cfg)
	if err != nil {
		return err
	}
	defer dev.Release(&err)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = commandEnv(dev)

	// Signals go to the child; the disk outlives it.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := cmd.Start(); err != nil {
		return errors.Join(fmt.Errorf("failed to start %s: %w", args[0], err), detach(ctx, dev, cfg))
	}
	log.G(ctx).WithFields(log.Fields{
		"device":  dev.Path(),
		"command": args[0],
		"pid":     cmd.Process.Pid,
	}).Debug("Started command")

	var g errgroup.Group
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return cmd.Wait()
	})
	g.Go(func() error {
		for {
			select {
			case sig := <-sigCh:
				log.G(ctx).WithField("signal", sig).Debug("Forwarding signal")
				_ = cmd.Process.Signal(sig)
			case <-done:
				return nil
			}
		}
	})
	waitErr := g.Wait()

	if err := detach(ctx, dev, cfg); err != nil {
		return errors.Join(waitErr, err)
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return cli.Exit("", exitErr.ExitCode())
	}
	return waitErr
}
