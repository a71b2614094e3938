package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/wippyai/retarget/abi"
	"github.com/wippyai/retarget/console"
	"github.com/wippyai/retarget/fsys"
	"github.com/wippyai/retarget/fsys/dirfs"
	"github.com/wippyai/retarget/fsys/memfs"
	"github.com/wippyai/retarget/fsys/sqlitefs"
	"github.com/wippyai/retarget/host"
	"github.com/wippyai/retarget/profile"
	"github.com/wippyai/retarget/shim"
)

var profileFlag = &cli.StringFlag{
	Name:    "profile",
	Aliases: []string{"p"},
	Usage:   "Builtin board name or path to an rtconfig.h / YAML profile",
	EnvVars: []string{"RETARGET_PROFILE"},
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a guest module",
		ArgsUsage: "<file.wasm>",
		Flags: []cli.Flag{
			profileFlag,
			&cli.StringFlag{
				Name:  "root",
				Usage: "Serve files from this host directory",
			},
			&cli.StringFlag{
				Name:  "sqlite",
				Usage: "Serve files from this SQLite database",
			},
			&cli.IntFlag{
				Name:  "cache-size",
				Usage: "Path cache entries for --sqlite",
				Value: sqlitefs.DefaultCacheSize,
			},
			&cli.StringFlag{
				Name:  "stdin",
				Usage: "Stdin data (default: the process's stdin)",
			},
			&cli.StringFlag{
				Name:  "entry",
				Usage: "Entry function (default: _start, then main)",
			},
			&cli.UintFlag{
				Name:  "memory-pages",
				Usage: "Guest memory limit in 64KB pages",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("run requires exactly one <file.wasm> argument", 2)
	}
	if c.IsSet("root") && c.IsSet("sqlite") {
		return cli.Exit("--root and --sqlite are mutually exclusive", 2)
	}

	logger := newLogger(c.App.ErrWriter, c.Bool("verbose"))
	defer logger.Sync()
	installLogger(logger)

	ctx := c.Context
	wasm, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	p, err := profile.Resolve(c.String("profile"))
	if err != nil {
		return err
	}

	store, err := openStore(ctx, c)
	if err != nil {
		return err
	}

	var in io.Reader
	if c.IsSet("stdin") {
		in = strings.NewReader(c.String("stdin"))
	}
	sess := newSession(p, store, in, c.App.Writer)
	defer sess.close(logger)

	logger.Debug("starting guest",
		zap.String("profile", p.Name),
		zap.Bool("filesystem", sess.sys.Shim().HasFilesystem()),
		zap.Bool("console", sess.sys.Shim().HasConsoleOutput()),
		zap.Bool("line_buffered", sess.lines != nil))
	if sess.term != nil {
		logger.Debug("console attached to process stdio",
			zap.Bool("stdin_tty", sess.term.InputIsTerminal()),
			zap.Bool("stdout_tty", sess.term.OutputIsTerminal()))
	}

	code, err := host.Run(ctx, wasm, sess.sys, &host.Config{
		Entry:            c.String("entry"),
		MemoryLimitPages: uint32(c.Uint("memory-pages")),
		Name:             "guest",
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return cli.Exit("", int(code))
	}
	return nil
}

func openStore(ctx context.Context, c *cli.Context) (fsys.Store, error) {
	switch {
	case c.IsSet("root"):
		return dirfs.Open(c.String("root"))
	case c.IsSet("sqlite"):
		return sqlitefs.Open(ctx, c.String("sqlite"), sqlitefs.Options{CacheSize: c.Int("cache-size")})
	}
	return memfs.New(), nil
}

// session wires one profile's collaborators into an abi.Sys.
type session struct {
	sys   *abi.Sys
	fs    *fsys.Descriptors
	lines *console.LineBuffered
	term  *console.Terminal
}

func newSession(p *profile.Profile, store fsys.Store, in io.Reader, out io.Writer) *session {
	s := &session{fs: fsys.New(store, fsys.Options{MaxOpen: p.MaxOpen()})}

	var dev console.Device
	f, isFile := out.(*os.File)
	switch {
	case in == nil && isFile:
		s.term = console.NewTerminal(os.Stdin, f)
		dev = s.term
	case in == nil:
		dev = console.NewStream(os.Stdin, out)
	default:
		dev = console.NewStream(in, out)
	}

	// Output redirected away from a terminal is written through.
	lineBuffered := s.term == nil || s.term.OutputIsTerminal()
	if p.Features().POSIX && lineBuffered {
		s.lines = console.NewLineBuffered(dev, p.ConsoleBufSize())
		dev = s.lines
	}

	s.sys = abi.New(shim.New(shim.Config{
		Features: p.Features(),
		Console:  dev,
		FS:       s.fs,
		Exit:     host.ExitGuest,
	}))
	return s
}

func (s *session) flush() error {
	if s.lines == nil {
		return nil
	}
	return s.lines.Flush()
}

func (s *session) close(logger *zap.Logger) {
	if err := s.flush(); err != nil {
		logger.Warn("console flush failed", zap.Error(err))
	}
	if n := s.fs.OpenCount(); n > 0 {
		logger.Debug("guest left descriptors open", zap.Int("count", n))
		for _, f := range s.fs.OpenFiles() {
			logger.Debug("closing descriptor", zap.Int("fd", f.FD), zap.String("name", f.Name))
		}
	}
	if err := s.fs.Shutdown(); err != nil && !errors.Is(err, os.ErrClosed) {
		logger.Warn("filesystem shutdown failed", zap.Error(err))
	}
}
