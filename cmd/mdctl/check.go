package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/spin-stack/mdconfig/internal/preflight"
)

var checkCommand = &cli.Command{
	Name:  "check",
	Usage: "Verify that the md(4) driver is available",
	Action: func(cliCtx *cli.Context) error {
		if err := preflight.Check(); err != nil {
			return fmt.Errorf("preflight check failed: %w", err)
		}
		release, err := preflight.Release()
		if err != nil {
			return err
		}
		w := cliCtx.App.Writer
		fmt.Fprintf(w, "FreeBSD %s\n", release)
		for _, f := range []preflight.Feature{preflight.MustDealloc, preflight.OptionReporting} {
			state := "unavailable"
			if f.Supports(release) {
				state = "available"
			}
			fmt.Fprintf(w, "%-17s %s (FreeBSD %s+)\n", f.Name, state, f.MinRelease)
		}
		return nil
	},
}
