package main

import (
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v2"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "retarget %s\n", version)
			if info, ok := debug.ReadBuildInfo(); ok {
				fmt.Fprintf(c.App.Writer, "go %s\n", info.GoVersion)
				for _, dep := range info.Deps {
					if dep.Path == "github.com/tetratelabs/wazero" {
						fmt.Fprintf(c.App.Writer, "wazero %s\n", dep.Version)
					}
				}
			}
			return nil
		},
	}
}
