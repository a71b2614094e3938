package shim

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	rerrors "github.com/wippyai/retarget/errors"
)

// Open resolves name to a handle. The three stream names map to the
// console handles for any mode; other names go to the filesystem.
func (s *Shim) Open(ctx context.Context, name string, mode OpenMode) (Handle, error) {
	switch name {
	case StdinName:
		return Stdin, nil
	case StdoutName:
		return Stdout, nil
	case StderrName:
		return Stderr, nil
	}

	if s.fs == nil {
		return -1, rerrors.NoFilesystem(rerrors.PhaseOpen)
	}

	flag := mode.Flags()
	fd, err := s.fs.Open(ctx, name, flag)
	if err != nil {
		Logger().Debug("open failed", zap.String("path", name), zap.Stringer("flag", flag), zap.Error(err))
		return -1, rerrors.Delegate(rerrors.PhaseOpen, name, err)
	}
	if fd < 0 || Handle(fd).IsConsole() {
		return -1, rerrors.New(rerrors.PhaseOpen, rerrors.KindDelegate).
			Target(name).
			Value(fd).
			Detail("filesystem returned reserved descriptor %d", fd).
			Build()
	}
	return Handle(fd), nil
}

// Read fills p from h. At end of file it returns the bytes read so far
// together with io.EOF.
func (s *Shim) Read(ctx context.Context, h Handle, p []byte) (int, error) {
	switch {
	case h < 0:
		return 0, rerrors.InvalidHandle(rerrors.PhaseRead, int(h))
	case h == Stdin:
		return s.readConsole(p)
	case h.IsConsole():
		return 0, rerrors.WrongDirection(rerrors.PhaseRead, int(h), h.String())
	case s.fs == nil:
		return 0, rerrors.NoFilesystem(rerrors.PhaseRead)
	}

	n, err := s.fs.Read(ctx, int(h), p)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		Logger().Debug("read failed", zap.Int32("fd", int32(h)), zap.Error(err))
		return n, rerrors.DelegateHandle(rerrors.PhaseRead, int(h), err)
	}
	return n, nil
}

// readConsole reads until p is full, a newline is stored, or input runs out.
func (s *Shim) readConsole(p []byte) (int, error) {
	if s.input == nil {
		return 0, rerrors.Unsupported(rerrors.PhaseRead, "no console input in this build")
	}
	if !s.input.Configured() {
		Logger().Warn("console read before the console is initialized")
		return 0, rerrors.NotReady(rerrors.PhaseRead, StdinName)
	}

	n := 0
	for n < len(p) {
		c, err := s.input.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			if errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, rerrors.DelegateHandle(rerrors.PhaseRead, int(Stdin), err)
		}
		p[n] = c
		n++
		if c == '\n' {
			break
		}
	}
	return n, nil
}

// Write sends p to h and returns the number of bytes accepted.
// Without a console device, stream output is discarded as written.
func (s *Shim) Write(ctx context.Context, h Handle, p []byte) (int, error) {
	switch {
	case h < 0:
		return 0, rerrors.InvalidHandle(rerrors.PhaseWrite, int(h))
	case h == Stdin:
		if len(p) == 0 {
			return 0, nil
		}
		return 0, rerrors.WrongDirection(rerrors.PhaseWrite, int(h), h.String())
	case h.IsConsole():
		return s.writeConsole(h, p)
	case s.fs == nil:
		return 0, rerrors.NoFilesystem(rerrors.PhaseWrite)
	}

	n, err := s.fs.Write(ctx, int(h), p)
	if err != nil {
		Logger().Debug("write failed", zap.Int32("fd", int32(h)), zap.Error(err))
		return n, rerrors.DelegateHandle(rerrors.PhaseWrite, int(h), err)
	}
	return n, nil
}

func (s *Shim) writeConsole(h Handle, p []byte) (int, error) {
	if s.output == nil {
		return len(p), nil
	}
	if !s.output.Configured() {
		Logger().Warn("console write before the console is initialized", zap.Stringer("stream", h))
		return len(p), nil
	}
	n, err := s.output.Write(p)
	if err != nil {
		return n, rerrors.DelegateHandle(rerrors.PhaseWrite, int(h), err)
	}
	return n, nil
}

// Seek moves h to the absolute offset pos and returns the new offset.
func (s *Shim) Seek(ctx context.Context, h Handle, pos int64) (int64, error) {
	if h < 0 || h.IsConsole() {
		return -1, rerrors.InvalidHandle(rerrors.PhaseSeek, int(h))
	}
	if s.fs == nil {
		return -1, rerrors.NoFilesystem(rerrors.PhaseSeek)
	}
	off, err := s.fs.Seek(ctx, int(h), pos)
	if err != nil {
		return -1, rerrors.DelegateHandle(rerrors.PhaseSeek, int(h), err)
	}
	return off, nil
}

// Len returns the current length of the file behind h.
func (s *Shim) Len(ctx context.Context, h Handle) (int64, error) {
	if h < 0 || h.IsConsole() {
		return -1, rerrors.InvalidHandle(rerrors.PhaseLength, int(h))
	}
	if s.fs == nil {
		return -1, rerrors.NoFilesystem(rerrors.PhaseLength)
	}
	st, err := s.fs.Stat(ctx, int(h))
	if err != nil {
		return -1, rerrors.DelegateHandle(rerrors.PhaseLength, int(h), err)
	}
	return st.Size, nil
}

// Close releases h. Handles up to Stderr, negative ones included, and
// builds without a filesystem succeed without doing anything.
func (s *Shim) Close(ctx context.Context, h Handle) error {
	if h <= Stderr || s.fs == nil {
		return nil
	}
	if err := s.fs.Close(ctx, int(h)); err != nil {
		return rerrors.DelegateHandle(rerrors.PhaseClose, int(h), err)
	}
	return nil
}

// IsTTY reports whether h is interactive, which holds exactly for the
// console handles.
func (s *Shim) IsTTY(h Handle) bool {
	return h.IsConsole()
}

// Remove deletes the file at path.
func (s *Shim) Remove(ctx context.Context, path string) error {
	if s.fs == nil {
		return rerrors.NoFilesystem(rerrors.PhaseRemove)
	}
	if err := s.fs.Unlink(ctx, path); err != nil {
		return rerrors.Delegate(rerrors.PhaseRemove, path, err)
	}
	return nil
}
