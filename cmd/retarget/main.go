// Package main provides the retarget CLI.
//
// Usage:
//
//	retarget <command> [options]
//
// The run command executes a WebAssembly guest built against the C
// runtime and exits with the guest's exit code.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// version is set via ldflags at build time.
var version = "dev"

func newApp() *cli.App {
	return &cli.App{
		Name:           "retarget",
		Usage:          "Run C runtime guests with console and filesystem I/O redirected",
		Version:        version,
		ExitErrHandler: exitErrHandler,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging to stderr",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			inspectCommand(),
			profileCommand(),
			tmpnamCommand(),
			versionCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
