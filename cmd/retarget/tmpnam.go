package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/wippyai/retarget/shim"
)

func tmpnamCommand() *cli.Command {
	return &cli.Command{
		Name:      "tmpnam",
		Usage:     "Print the temporary file name for a slot",
		ArgsUsage: "<slot>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("tmpnam requires exactly one <slot> argument", 2)
			}
			slot, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid slot %q", c.Args().First()), 2)
			}
			fmt.Fprintln(c.App.Writer, shim.TempName(slot))
			return nil
		},
	}
}
