package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/wippyai/retarget/host"
)

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "List the hooks a guest module imports",
		ArgsUsage: "<file.wasm>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("inspect requires exactly one <file.wasm> argument", 2)
			}
			wasm, err := os.ReadFile(c.Args().First())
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			imp, err := host.Inspect(c.Context, wasm)
			if err != nil {
				return err
			}

			var b strings.Builder
			b.WriteString(titleStyle.Render("imports " + host.ModuleName))
			b.WriteString("\n\n")
			for _, name := range imp.Hooks {
				b.WriteString(symbolStyle.Render(name))
				b.WriteString(onStyle.Render("served"))
				b.WriteByte('\n')
			}
			for _, name := range imp.Missing {
				b.WriteString(symbolStyle.Render(name))
				b.WriteString(offStyle.Render("missing"))
				b.WriteByte('\n')
			}
			fmt.Fprint(c.App.Writer, b.String())
			return imp.Err()
		},
	}
}
