package console

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// Terminal is a Stream attached to the process's own files.
type Terminal struct {
	*Stream
	in, out   *os.File
	inIsTerm  int32 // -1 = unchecked, 0 = no, 1 = yes
	outIsTerm int32
}

// NewTerminal attaches in and out. Nil files fall back to os.Stdin and
// os.Stdout.
func NewTerminal(in, out *os.File) *Terminal {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{
		Stream:    NewStream(in, out),
		in:        in,
		out:       out,
		inIsTerm:  -1,
		outIsTerm: -1,
	}
}

func isTerminal(f *os.File, cached *int32) bool {
	if v := atomic.LoadInt32(cached); v >= 0 {
		return v == 1
	}
	result := term.IsTerminal(int(f.Fd()))
	if result {
		atomic.StoreInt32(cached, 1)
	} else {
		atomic.StoreInt32(cached, 0)
	}
	return result
}

// InputIsTerminal reports whether input comes from an interactive terminal.
func (t *Terminal) InputIsTerminal() bool {
	return isTerminal(t.in, &t.inIsTerm)
}

// OutputIsTerminal reports whether output goes to an interactive terminal.
func (t *Terminal) OutputIsTerminal() bool {
	return isTerminal(t.out, &t.outIsTerm)
}
