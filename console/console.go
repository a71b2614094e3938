package console

import (
	"bufio"
	"io"
	"sync"
	"sync/atomic"
)

// Device is the console collaborator contract.
type Device interface {
	// Write emits p to the console and reports how many bytes it accepted.
	Write(p []byte) (int, error)
	// ReadByte returns the next input byte, or io.EOF when none remain.
	ReadByte() (byte, error)
	// Configured reports whether the console has been initialized.
	Configured() bool
}

// Stream is a Device over a reader and a writer.
// Writes are serialized; a nil reader yields io.EOF, a nil writer
// discards.
type Stream struct {
	in         *bufio.Reader
	out        io.Writer
	wmu        sync.Mutex
	rmu        sync.Mutex
	configured atomic.Bool
}

var _ Device = (*Stream)(nil)

// NewStream creates a configured stream device.
func NewStream(in io.Reader, out io.Writer) *Stream {
	s := &Stream{out: out}
	if in != nil {
		s.in = bufio.NewReader(in)
	}
	s.configured.Store(true)
	return s
}

// Write writes p to the output.
func (s *Stream) Write(p []byte) (int, error) {
	if s.out == nil {
		return len(p), nil
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.out.Write(p)
}

// ReadByte reads one byte of input.
func (s *Stream) ReadByte() (byte, error) {
	if s.in == nil {
		return 0, io.EOF
	}
	s.rmu.Lock()
	defer s.rmu.Unlock()
	return s.in.ReadByte()
}

// Configured reports whether the stream is attached.
func (s *Stream) Configured() bool {
	return s.configured.Load()
}

// SetConfigured marks the stream attached or detached.
func (s *Stream) SetConfigured(v bool) {
	s.configured.Store(v)
}
