package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/wippyai/retarget/host"
	"github.com/wippyai/retarget/profile"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Width(14)

	symbolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Width(32)

	onStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	offStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show the feature set of a build profile",
		Flags: []cli.Flag{
			profileFlag,
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List builtin board profiles",
			},
			&cli.BoolFlag{
				Name:  "symbols",
				Usage: "Also print every defined symbol",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("list") {
				for _, name := range profile.Builtins() {
					fmt.Fprintln(c.App.Writer, name)
				}
				return nil
			}
			p, err := profile.Resolve(c.String("profile"))
			if err != nil {
				return err
			}
			renderProfile(c.App.Writer, p, c.Bool("symbols"))
			return nil
		},
	}
}

func onOff(v bool) string {
	if v {
		return onStyle.Render("on")
	}
	return offStyle.Render("off")
}

func renderProfile(w io.Writer, p *profile.Profile, symbols bool) {
	f := p.Features()

	var b strings.Builder
	b.WriteString(titleStyle.Render("profile " + p.Name))
	b.WriteString("\n\n")

	row := func(label, sym, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(symbolStyle.Render(sym))
		b.WriteString(value)
		b.WriteByte('\n')
	}
	row("filesystem", profile.SymFilesystem, onOff(f.Filesystem))
	row("console", profile.SymConsole, onOff(f.Console))
	row("device", profile.SymDevice, onOff(f.Device))
	row("posix", profile.SymPOSIX, onOff(f.POSIX))
	b.WriteByte('\n')

	row("stdout", "", onOff(f.ConsoleOutput()))
	row("stdin", "", onOff(f.ConsoleInput()))
	row("files", "", onOff(f.Filesystem))
	b.WriteByte('\n')

	row("console buf", profile.SymConsoleBuf, strconv.Itoa(p.ConsoleBufSize()))
	row("console dev", profile.SymConsoleDevice, p.ConsoleDeviceName())
	maxOpen := "unbounded"
	if n := p.MaxOpen(); n > 0 {
		maxOpen = strconv.Itoa(n)
	}
	row("max open", profile.SymMaxOpen, maxOpen)

	if symbols {
		b.WriteByte('\n')
		for _, sym := range p.Symbols() {
			v, _ := p.Value(sym)
			row("", sym, v)
		}
	}

	b.WriteByte('\n')
	hooks := host.New(nil).Exports()
	b.WriteString(helpStyle.Render(fmt.Sprintf("%d hooks in %q: %s", len(hooks), host.ModuleName, strings.Join(hooks, " "))))
	b.WriteByte('\n')
	if !f.ConsoleOutput() {
		b.WriteString(helpStyle.Render("stdout and stderr are discarded in this build"))
		b.WriteByte('\n')
	}

	fmt.Fprint(w, b.String())
}
