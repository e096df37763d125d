package main

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/spin-stack/mdconfig/pkg/md"
)

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printDevices writes one row per disk, in the columns mdconfig -lv uses.
func printDevices(w io.Writer, infos ...*md.Info) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Unit", "Type", "Size", "File", "Label", "Options"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, info := range infos {
		table.Append([]string{
			info.Name,
			strconv.FormatUint(uint64(info.Unit), 10),
			info.Kind.String(),
			humanize.IBytes(uint64(info.Size)),
			orDash(info.File),
			orDash(info.Label),
			info.Options.String(),
		})
	}
	table.Render()
}
