package abi

import (
	"context"
	"errors"
	"io"

	rerrors "github.com/wippyai/retarget/errors"
	"github.com/wippyai/retarget/shim"
)

// Runtime open-mode bits.
const (
	OpenR    int32 = 0
	OpenB    int32 = 1
	OpenPlus int32 = 2
	OpenW    int32 = 4
	OpenA    int32 = 8
)

const (
	// Failure is the generic error result.
	Failure int32 = -1

	// EOFFlag marks a short read caused by end of file.
	EOFFlag uint32 = 0x80000000
)

// Mode converts runtime open bits to a shim open mode.
func Mode(openmode int32) shim.OpenMode {
	var m shim.OpenMode
	if openmode&OpenB != 0 {
		m |= shim.OpenBinary
	}
	if openmode&OpenPlus != 0 {
		m |= shim.OpenPlus
	}
	if openmode&OpenW != 0 {
		m |= shim.OpenWrite
	}
	if openmode&OpenA != 0 {
		m |= shim.OpenAppend
	}
	return m
}

// Sys exposes a Shim through the runtime calling convention.
type Sys struct {
	shim *shim.Shim
}

// New wraps s.
func New(s *shim.Shim) *Sys {
	return &Sys{shim: s}
}

// Shim returns the wrapped shim.
func (s *Sys) Shim() *shim.Shim {
	return s.shim
}

// Open returns a handle for name, or -1.
func (s *Sys) Open(ctx context.Context, name string, openmode int32) int32 {
	h, err := s.shim.Open(ctx, name, Mode(openmode))
	if err != nil {
		return Failure
	}
	return int32(h)
}

// Close returns 0 on success and -1 on failure.
func (s *Sys) Close(ctx context.Context, fh int32) int32 {
	if err := s.shim.Close(ctx, shim.Handle(fh)); err != nil {
		return Failure
	}
	return 0
}

// Read fills buf and returns the number of bytes not read. The mode
// argument is historical and ignored.
func (s *Sys) Read(ctx context.Context, fh int32, buf []byte, _ int32) int32 {
	n, err := s.shim.Read(ctx, shim.Handle(fh), buf)
	remaining := uint32(len(buf) - n)
	switch {
	case err == nil:
		return int32(remaining)
	case errors.Is(err, io.EOF):
		return int32(remaining | EOFFlag)
	case errors.Is(err, rerrors.ErrNoFilesystem):
		return 0
	case errors.Is(err, shim.ErrConsoleNotReady):
		return int32(len(buf))
	}
	return Failure
}

// Write sends buf and returns the number of bytes not written. The mode
// argument is historical and ignored.
func (s *Sys) Write(ctx context.Context, fh int32, buf []byte, _ int32) int32 {
	n, err := s.shim.Write(ctx, shim.Handle(fh), buf)
	switch {
	case err == nil:
		return int32(len(buf) - n)
	case errors.Is(err, rerrors.ErrNoFilesystem):
		return 0
	}
	return Failure
}

// Seek moves fh to the absolute offset pos. It returns the new offset,
// or a negative value on failure.
func (s *Sys) Seek(ctx context.Context, fh int32, pos int64) int64 {
	off, err := s.shim.Seek(ctx, shim.Handle(fh), pos)
	if err != nil {
		return int64(Failure)
	}
	return off
}

// Flen returns the length of fh, or -1.
func (s *Sys) Flen(ctx context.Context, fh int32) int64 {
	size, err := s.shim.Len(ctx, shim.Handle(fh))
	if err != nil {
		return int64(Failure)
	}
	return size
}

// Istty returns 1 for the console handles and 0 otherwise.
func (s *Sys) Istty(fh int32) int32 {
	if s.shim.IsTTY(shim.Handle(fh)) {
		return 1
	}
	return 0
}

// Tmpnam writes the temporary name for fileno into dst, truncated to
// len(dst)-1 bytes and NUL terminated. It always returns 1.
func (s *Sys) Tmpnam(dst []byte, fileno int32) int32 {
	if len(dst) == 0 {
		return 1
	}
	n := copy(dst[:len(dst)-1], shim.TempName(int(fileno)))
	dst[n] = 0
	return 1
}

// CommandString reports that no command line is available.
func (s *Sys) CommandString() []byte {
	return nil
}

// Exit terminates the program. It does not return.
func (s *Sys) Exit(code int32) {
	s.shim.Exit(int(code))
}

// TTYWrch writes the low byte of ch to the console.
func (s *Sys) TTYWrch(ch int32) {
	s.shim.PutChar(byte(ch))
}

// Remove deletes path, returning 0 on success and -1 on failure.
func (s *Sys) Remove(ctx context.Context, path string) int32 {
	if err := s.shim.Remove(ctx, path); err != nil {
		return Failure
	}
	return 0
}

// Fputc writes c to the console and returns 1.
func (s *Sys) Fputc(c int32) int32 {
	s.shim.PutChar(byte(c))
	return 1
}

// Fgetc returns the next console byte, or -1.
func (s *Sys) Fgetc() int32 {
	c, err := s.shim.GetChar()
	if err != nil {
		return Failure
	}
	return int32(c)
}
