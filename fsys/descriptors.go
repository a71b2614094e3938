package fsys

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	rerrors "github.com/wippyai/retarget/errors"
	"github.com/wippyai/retarget/resource"
)

// FirstDescriptor is the lowest descriptor Descriptors hands out.
const FirstDescriptor = 3

// Options configures a Descriptors table.
type Options struct {
	// MaxOpen caps the number of simultaneously open files. Zero is unbounded.
	MaxOpen int
}

// Descriptors implements FileSystem over a Store.
// Thread-safe; per-file ordering is up to the Store.
type Descriptors struct {
	store Store
	table *resource.Table[File]
}

var _ FileSystem = (*Descriptors)(nil)

// New creates a descriptor table over store.
func New(store Store, opts Options) *Descriptors {
	d := &Descriptors{
		store: store,
		table: resource.NewTable[File](FirstDescriptor, opts.MaxOpen),
	}
	d.table.Subscribe(descriptorLog{})
	return d
}

type descriptorLog struct{}

func (descriptorLog) OnResourceEvent(e resource.Event) {
	switch e.Type {
	case resource.EventCreated:
		Logger().Debug("descriptor opened", zap.Int("fd", int(e.Handle)))
	case resource.EventRemoved:
		Logger().Debug("descriptor released", zap.Int("fd", int(e.Handle)))
	}
}

// Open opens path in the store and allocates a descriptor for it.
func (d *Descriptors) Open(ctx context.Context, path string, flag Flag) (int, error) {
	f, err := d.store.OpenFile(ctx, path, flag)
	if err != nil {
		return -1, err
	}
	fd, err := d.table.Insert(f)
	if err != nil {
		f.Close()
		return -1, rerrors.Wrap(rerrors.PhaseOpen, rerrors.KindDelegate, err, "no free descriptor")
	}
	return int(fd), nil
}

func (d *Descriptors) file(phase rerrors.Phase, fd int) (File, error) {
	f, ok := d.table.Get(resource.Handle(fd))
	if !ok {
		return nil, rerrors.InvalidHandle(phase, fd)
	}
	return f, nil
}

// contextReader binds a call's context to a ContextFile.
type contextReader struct {
	ctx context.Context
	f   ContextFile
}

func (r contextReader) Read(p []byte) (int, error) {
	return r.f.ReadContext(r.ctx, p)
}

// Read reads from the descriptor's current offset.
// A short read at end of file reports io.EOF.
func (d *Descriptors) Read(ctx context.Context, fd int, p []byte) (int, error) {
	f, err := d.file(rerrors.PhaseRead, fd)
	if err != nil {
		return 0, err
	}
	var r io.Reader = f
	if cf, ok := f.(ContextFile); ok {
		r = contextReader{ctx: ctx, f: cf}
	}
	n, err := io.ReadFull(r, p)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, io.EOF
	default:
		return n, err
	}
}

// Write writes at the descriptor's current offset.
func (d *Descriptors) Write(ctx context.Context, fd int, p []byte) (int, error) {
	f, err := d.file(rerrors.PhaseWrite, fd)
	if err != nil {
		return 0, err
	}
	if cf, ok := f.(ContextFile); ok {
		return cf.WriteContext(ctx, p)
	}
	return f.Write(p)
}

// Seek moves to offset from the start of the file.
func (d *Descriptors) Seek(ctx context.Context, fd int, offset int64) (int64, error) {
	f, err := d.file(rerrors.PhaseSeek, fd)
	if err != nil {
		return -1, err
	}
	if cf, ok := f.(ContextFile); ok {
		return cf.SeekContext(ctx, offset, io.SeekStart)
	}
	return f.Seek(offset, io.SeekStart)
}

// Close releases the descriptor and closes the file.
func (d *Descriptors) Close(_ context.Context, fd int) error {
	f, ok := d.table.Remove(resource.Handle(fd))
	if !ok {
		return rerrors.InvalidHandle(rerrors.PhaseClose, fd)
	}
	return f.Close()
}

// Stat returns the status of the open file.
func (d *Descriptors) Stat(ctx context.Context, fd int) (Stat, error) {
	f, err := d.file(rerrors.PhaseLength, fd)
	if err != nil {
		return Stat{}, err
	}
	if cf, ok := f.(ContextFile); ok {
		return cf.StatContext(ctx)
	}
	return f.Stat()
}

// Unlink removes path from the store.
func (d *Descriptors) Unlink(ctx context.Context, path string) error {
	return d.store.Remove(ctx, path)
}

// OpenCount returns the number of open descriptors.
func (d *Descriptors) OpenCount() int {
	return d.table.Len()
}

// OpenFiles returns the names of open files by descriptor, in ascending
// descriptor order.
func (d *Descriptors) OpenFiles() []OpenFile {
	var open []OpenFile
	d.table.Each(func(h resource.Handle, f File) bool {
		of := OpenFile{FD: int(h)}
		if st, err := f.Stat(); err == nil {
			of.Name = st.Name
		}
		open = append(open, of)
		return true
	})
	return open
}

// OpenFile describes one open descriptor.
type OpenFile struct {
	FD   int
	Name string
}

// Shutdown closes every open file and the store if it is an io.Closer.
func (d *Descriptors) Shutdown() error {
	err := d.table.Close()
	if c, ok := d.store.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
