package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/spin-stack/mdconfig/internal/config"
	"github.com/spin-stack/mdconfig/pkg/md"
)

// deviceFlags configure the disk attached by hold and run. Unset flags fall
// back to the --config file and MDCTL_* environment.
var deviceFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML file describing the disk",
		EnvVars: []string{"MDCTL_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "type",
		Aliases: []string{"t"},
		Usage:   "Backing store (malloc, swap, null, vnode)",
	},
	&cli.StringFlag{
		Name:    "size",
		Aliases: []string{"s"},
		Usage:   "Disk size, e.g. 64MiB; defaults to the file size for vnode disks",
	},
	&cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Backing file for vnode disks",
	},
	&cli.UintFlag{
		Name:  "sector-size",
		Usage: "Sector size in bytes",
	},
	&cli.IntFlag{
		Name:  "heads",
		Usage: "Synthetic heads per cylinder (needs --sectors)",
	},
	&cli.IntFlag{
		Name:  "sectors",
		Usage: "Synthetic sectors per track (needs --heads)",
	},
	&cli.StringFlag{
		Name:    "label",
		Aliases: []string{"L"},
		Usage:   `Disk label, or "auto" to generate one`,
	},
	&cli.UintFlag{
		Name:    "unit",
		Aliases: []string{"u"},
		Usage:   "Request a specific unit number",
	},
	&cli.StringSliceFlag{
		Name:    "option",
		Aliases: []string{"o"},
		Usage:   "Set an option (async, cache, compress, mustdealloc, readonly, reserve, verify); prefix with no to clear",
	},
	&cli.DurationFlag{
		Name:  "detach-timeout",
		Usage: "How long to wait for a busy disk before forcing detach",
	},
}

// loadDevice merges the configuration sources for the current command.
func loadDevice(cliCtx *cli.Context) (*config.Device, error) {
	cfg, err := config.Load(cliCtx.String("config"))
	if err != nil {
		return nil, err
	}

	if cliCtx.IsSet("type") {
		cfg.Type = cliCtx.String("type")
	}
	if cliCtx.IsSet("size") {
		cfg.Size = cliCtx.String("size")
	}
	if cliCtx.IsSet("file") {
		cfg.File = cliCtx.String("file")
		if !cliCtx.IsSet("type") {
			cfg.Type = md.KindFile.String()
		}
	}
	if cliCtx.IsSet("sector-size") {
		cfg.SectorSize = uint32(cliCtx.Uint("sector-size"))
	}
	if cliCtx.IsSet("heads") {
		cfg.Heads = int32(cliCtx.Int("heads"))
	}
	if cliCtx.IsSet("sectors") {
		cfg.Sectors = int32(cliCtx.Int("sectors"))
	}
	if cliCtx.IsSet("label") {
		cfg.Label = cliCtx.String("label")
	}
	if cliCtx.IsSet("unit") {
		cfg.Unit = strconv.FormatUint(uint64(cliCtx.Uint("unit")), 10)
	}
	if cliCtx.IsSet("option") {
		cfg.Options = append(cfg.Options, cliCtx.StringSlice("option")...)
	}
	if cliCtx.IsSet("detach-timeout") {
		cfg.Detach.Timeout = cliCtx.Duration("detach-timeout")
	}
	return cfg, nil
}

func generateLabel() string {
	return "mdctl-" + uuid.NewString()
}

// attach creates the disk described by cfg. The device reports detach
// failures at scope end as errors rather than panicking.
func attach(cfg *config.Device) (*md.Device, error) {
	b, err := cfg.Builder(generateLabel)
	if err != nil {
		return nil, err
	}
	dev, err := b.CleanupPolicy(md.LenientCleanup{}).Create()
	if err != nil {
		return nil, fmt.Errorf("failed to attach disk: %w", err)
	}
	return dev, nil
}
