package shim

import (
	"fmt"
	"os"
	"strings"

	"github.com/wippyai/retarget/console"
	rerrors "github.com/wippyai/retarget/errors"
	"github.com/wippyai/retarget/fsys"
	"github.com/wippyai/retarget/profile"
)

// Handle is a logical file handle as the runtime sees it.
type Handle int32

const (
	Stdin  Handle = 0
	Stdout Handle = 1
	Stderr Handle = 2
)

// Stream names the runtime uses to open the console.
const (
	StdinName  = "STDIN"
	StdoutName = "STDOUT"
	StderrName = "STDERR"
)

// IsConsole reports whether h is one of the three standard streams.
func (h Handle) IsConsole() bool {
	return Stdin <= h && h <= Stderr
}

func (h Handle) String() string {
	switch h {
	case Stdin:
		return StdinName
	case Stdout:
		return StdoutName
	case Stderr:
		return StderrName
	}
	return fmt.Sprintf("fd %d", int32(h))
}

// ErrConsoleNotReady matches reads attempted before the console is configured.
var ErrConsoleNotReady = rerrors.ErrNotReady

// OpenMode is the runtime's open intent.
type OpenMode uint32

const (
	OpenRead   OpenMode = 0
	OpenWrite  OpenMode = 1 << 0
	OpenAppend OpenMode = 1 << 1
	OpenPlus   OpenMode = 1 << 2
	OpenBinary OpenMode = 1 << 3
)

// Flags translates m to the filesystem's native flags.
// Write takes precedence over append; binary is ignored.
func (m OpenMode) Flags() fsys.Flag {
	var f fsys.Flag
	if m&OpenPlus != 0 {
		f = fsys.O_RDWR
	}
	switch {
	case m&OpenWrite != 0:
		if f == fsys.O_RDONLY {
			f = fsys.O_WRONLY
		}
		f |= fsys.O_TRUNC | fsys.O_CREAT
	case m&OpenAppend != 0:
		if f == fsys.O_RDONLY {
			f = fsys.O_WRONLY
		}
		f |= fsys.O_APPEND | fsys.O_CREAT
	}
	return f
}

// ParseMode parses an fopen mode string such as "r", "wb" or "a+".
func ParseMode(s string) (OpenMode, error) {
	if s == "" {
		return 0, rerrors.InvalidInput(rerrors.PhaseOpen, "empty mode")
	}
	var m OpenMode
	switch s[0] {
	case 'r':
	case 'w':
		m = OpenWrite
	case 'a':
		m = OpenAppend
	default:
		return 0, rerrors.InvalidInput(rerrors.PhaseOpen, "invalid mode "+s)
	}
	for _, c := range s[1:] {
		switch c {
		case '+':
			m |= OpenPlus
		case 'b':
			m |= OpenBinary
		default:
			return 0, rerrors.InvalidInput(rerrors.PhaseOpen, "invalid mode "+s)
		}
	}
	return m, nil
}

func (m OpenMode) String() string {
	var b strings.Builder
	switch {
	case m&OpenWrite != 0:
		b.WriteByte('w')
	case m&OpenAppend != 0:
		b.WriteByte('a')
	default:
		b.WriteByte('r')
	}
	if m&OpenBinary != 0 {
		b.WriteByte('b')
	}
	if m&OpenPlus != 0 {
		b.WriteByte('+')
	}
	return b.String()
}

// Config holds the feature set and collaborators of a build.
type Config struct {
	Features profile.Features

	// Console is the console device, nil when the build has none.
	Console console.Device

	// FS is the filesystem, nil when the build has none.
	FS fsys.FileSystem

	// Exit terminates the program and must not return. Defaults to os.Exit.
	Exit func(code int)
}

// Shim dispatches runtime I/O hooks. It is safe for concurrent use as
// long as its collaborators are.
type Shim struct {
	output console.Device // nil: writes to stdout/stderr are discarded
	input  console.Device // nil: stdin is unavailable
	chars  console.Device // nil: PutChar is a no-op
	fs     fsys.FileSystem
	exit   func(int)
}

// New resolves cfg into a Shim. Collaborators whose feature is absent
// are dropped here and never consulted.
func New(cfg Config) *Shim {
	s := &Shim{exit: cfg.Exit}
	if s.exit == nil {
		s.exit = os.Exit
	}
	f := cfg.Features
	if cfg.Console != nil {
		if f.ConsoleOutput() {
			s.output = cfg.Console
		}
		if f.ConsoleInput() {
			s.input = cfg.Console
		}
		if f.Console {
			s.chars = cfg.Console
		}
	}
	if f.Filesystem && cfg.FS != nil {
		s.fs = cfg.FS
	}
	return s
}

// HasFilesystem reports whether file handles are served.
func (s *Shim) HasFilesystem() bool {
	return s.fs != nil
}

// HasConsoleOutput reports whether stdout and stderr reach a device.
func (s *Shim) HasConsoleOutput() bool {
	return s.output != nil
}

// HasConsoleInput reports whether stdin reads from a device.
func (s *Shim) HasConsoleInput() bool {
	return s.input != nil
}
