// Package profile loads build profiles: the flat table of configuration
// symbols a firmware image is compiled with.
//
// A profile is read from an rtconfig.h style header (one #define per
// symbol) or from YAML. The feature toggles that select which I/O
// collaborators exist are derived from it once, at construction time of
// the shim.
package profile

import (
	"sort"
	"strconv"
	"strings"
)

// Symbols the I/O layer consumes.
const (
	SymFilesystem    = "RT_USING_DFS"
	SymConsole       = "RT_USING_CONSOLE"
	SymDevice        = "RT_USING_DEVICE"
	SymPOSIX         = "RT_USING_POSIX"
	SymConsoleBuf    = "RT_CONSOLEBUF_SIZE"
	SymConsoleDevice = "RT_CONSOLE_DEVICE_NAME"
	SymNameMax       = "RT_NAME_MAX"
	SymMaxOpen       = "DFS_FD_MAX"
)

// DefaultConsoleBufSize applies when RT_CONSOLEBUF_SIZE is absent.
const DefaultConsoleBufSize = 128

// Profile is a named set of defined symbols with optional values.
type Profile struct {
	defines map[string]string
	Name    string
}

// New creates an empty profile.
func New(name string) *Profile {
	return &Profile{Name: name, defines: make(map[string]string)}
}

// Define sets sym, with an empty value for flag-style symbols.
func (p *Profile) Define(sym, value string) {
	p.defines[sym] = value
}

// Undefine removes sym.
func (p *Profile) Undefine(sym string) {
	delete(p.defines, sym)
}

// Defined reports whether sym is defined.
func (p *Profile) Defined(sym string) bool {
	_, ok := p.defines[sym]
	return ok
}

// Value returns the raw value of sym.
func (p *Profile) Value(sym string) (string, bool) {
	v, ok := p.defines[sym]
	return v, ok
}

// Int returns sym as an integer (decimal, hex or octal), or def.
func (p *Profile) Int(sym string, def int) int {
	v, ok := p.defines[sym]
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 0, 64)
	if err != nil {
		return def
	}
	return int(n)
}

// String returns sym with surrounding double quotes removed, or def.
func (p *Profile) String(sym, def string) string {
	v, ok := p.defines[sym]
	if !ok {
		return def
	}
	if u, err := strconv.Unquote(v); err == nil {
		return u
	}
	return v
}

// Symbols returns every defined symbol in sorted order.
func (p *Profile) Symbols() []string {
	syms := make([]string, 0, len(p.defines))
	for s := range p.defines {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}

// Len returns the number of defined symbols.
func (p *Profile) Len() int {
	return len(p.defines)
}

// Features returns the I/O feature toggles.
func (p *Profile) Features() Features {
	return Features{
		Filesystem: p.Defined(SymFilesystem),
		Console:    p.Defined(SymConsole),
		Device:     p.Defined(SymDevice),
		POSIX:      p.Defined(SymPOSIX),
	}
}

// ConsoleBufSize returns RT_CONSOLEBUF_SIZE.
func (p *Profile) ConsoleBufSize() int {
	n := p.Int(SymConsoleBuf, DefaultConsoleBufSize)
	if n <= 0 {
		return DefaultConsoleBufSize
	}
	return n
}

// ConsoleDeviceName returns RT_CONSOLE_DEVICE_NAME.
func (p *Profile) ConsoleDeviceName() string {
	return p.String(SymConsoleDevice, "")
}

// NameMax returns RT_NAME_MAX.
func (p *Profile) NameMax() int {
	return p.Int(SymNameMax, 8)
}

// MaxOpen returns DFS_FD_MAX, zero when unbounded.
func (p *Profile) MaxOpen() int {
	return p.Int(SymMaxOpen, 0)
}

// Features selects which I/O collaborators are linked into an image.
type Features struct {
	Filesystem bool
	Console    bool
	Device     bool
	POSIX      bool
}

// ConsoleOutput reports whether console writes reach a device.
func (f Features) ConsoleOutput() bool {
	return f.Console && f.Device
}

// ConsoleInput reports whether console reads are available.
func (f Features) ConsoleInput() bool {
	return f.POSIX
}
