package fsys

import (
	"context"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

// Flag is the filesystem layer's native open-mode bitmask.
type Flag uint32

const (
	O_RDONLY Flag = 0
	O_WRONLY Flag = 1 << 0
	O_RDWR   Flag = 1 << 1
	O_CREAT  Flag = 1 << 2
	O_TRUNC  Flag = 1 << 3
	O_APPEND Flag = 1 << 4

	accessMask = O_WRONLY | O_RDWR
)

// Has reports whether every bit of x is set in f.
func (f Flag) Has(x Flag) bool {
	return f&x == x
}

// Readable reports whether the access mode permits reads.
func (f Flag) Readable() bool {
	return f&accessMask != O_WRONLY
}

// Writable reports whether the access mode permits writes.
func (f Flag) Writable() bool {
	return f&accessMask != O_RDONLY
}

// OS converts f to the flags accepted by os.OpenFile.
func (f Flag) OS() int {
	var flag int
	switch f & accessMask {
	case O_WRONLY:
		flag = os.O_WRONLY
	case O_RDWR:
		flag = os.O_RDWR
	default:
		flag = os.O_RDONLY
	}
	if f.Has(O_CREAT) {
		flag |= os.O_CREATE
	}
	if f.Has(O_TRUNC) {
		flag |= os.O_TRUNC
	}
	if f.Has(O_APPEND) {
		flag |= os.O_APPEND
	}
	return flag
}

func (f Flag) String() string {
	var parts []string
	switch f & accessMask {
	case O_WRONLY:
		parts = append(parts, "O_WRONLY")
	case O_RDWR:
		parts = append(parts, "O_RDWR")
	default:
		parts = append(parts, "O_RDONLY")
	}
	if f.Has(O_CREAT) {
		parts = append(parts, "O_CREAT")
	}
	if f.Has(O_TRUNC) {
		parts = append(parts, "O_TRUNC")
	}
	if f.Has(O_APPEND) {
		parts = append(parts, "O_APPEND")
	}
	return strings.Join(parts, "|")
}

// Stat is the status of an open file.
type Stat struct {
	ModTime time.Time
	Name    string
	Size    int64
	Mode    fs.FileMode
}

// FileSystem is the collaborator contract the shim calls into.
// Descriptors returned by Open are never below 3.
type FileSystem interface {
	Open(ctx context.Context, path string, flag Flag) (int, error)
	// Read returns io.EOF alongside a short count at end of file.
	Read(ctx context.Context, fd int, p []byte) (int, error)
	Write(ctx context.Context, fd int, p []byte) (int, error)
	// Seek moves to an absolute offset from the start of the file.
	Seek(ctx context.Context, fd int, offset int64) (int64, error)
	Close(ctx context.Context, fd int) error
	Stat(ctx context.Context, fd int) (Stat, error)
	Unlink(ctx context.Context, path string) error
}

// File is an open file inside a Store.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Stat() (Stat, error)
}

// ContextFile is a File whose I/O honors a per-call context.
// Descriptors uses these methods when a Store's files provide them.
type ContextFile interface {
	File
	ReadContext(ctx context.Context, p []byte) (int, error)
	WriteContext(ctx context.Context, p []byte) (int, error)
	SeekContext(ctx context.Context, offset int64, whence int) (int64, error)
	StatContext(ctx context.Context) (Stat, error)
}

// Store opens and removes files by path.
type Store interface {
	OpenFile(ctx context.Context, name string, flag Flag) (File, error)
	Remove(ctx context.Context, name string) error
}
