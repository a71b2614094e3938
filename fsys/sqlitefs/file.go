package sqlitefs

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"io/fs"
	"path"
	"time"

	rerrors "github.com/wippyai/retarget/errors"
	"github.com/wippyai/retarget/fsys"
)

// file is an open row. The plain io methods run with a background
// context; Descriptors calls the Context variants.
type file struct {
	store  *FS
	path   string
	ino    int64
	offset int64
	flag   fsys.Flag
	closed bool
}

func notExist(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fs.ErrNotExist
	}
	return err
}

var _ fsys.ContextFile = (*file)(nil)

func (f *file) Read(p []byte) (int, error) {
	return f.ReadContext(context.Background(), p)
}

func (f *file) Write(p []byte) (int, error) {
	return f.WriteContext(context.Background(), p)
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	return f.SeekContext(context.Background(), offset, whence)
}

func (f *file) Stat() (fsys.Stat, error) {
	return f.StatContext(context.Background())
}

func (f *file) ReadContext(ctx context.Context, p []byte) (int, error) {
	if f.closed {
		return 0, rerrors.Closed(rerrors.PhaseRead, f.path)
	}
	if !f.flag.Readable() {
		return 0, fs.ErrPermission
	}
	if len(p) == 0 {
		return 0, nil
	}

	var chunk []byte
	err := f.store.db.QueryRowContext(ctx, readRange, f.offset+1, len(p), f.ino).Scan(&chunk)
	if err != nil {
		return 0, notExist(err)
	}
	if len(chunk) == 0 {
		return 0, io.EOF
	}
	n := copy(p, chunk)
	f.offset += int64(n)
	return n, nil
}

func (f *file) WriteContext(ctx context.Context, p []byte) (int, error) {
	if f.closed {
		return 0, rerrors.Closed(rerrors.PhaseWrite, f.path)
	}
	if !f.flag.Writable() {
		return 0, fs.ErrPermission
	}

	var content []byte
	if err := f.store.db.QueryRowContext(ctx, readContent, f.ino).Scan(&content); err != nil {
		return 0, notExist(err)
	}

	if f.flag.Has(fsys.O_APPEND) {
		f.offset = int64(len(content))
	}
	end := f.offset + int64(len(p))
	if end > int64(len(content)) {
		grown := make([]byte, end)
		copy(grown, content)
		content = grown
	}
	copy(content[f.offset:], p)

	if _, err := f.store.db.ExecContext(ctx, writeContent, content, time.Now().UnixNano(), f.ino); err != nil {
		return 0, err
	}
	f.offset = end
	return len(p), nil
}

func (f *file) SeekContext(ctx context.Context, offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, rerrors.Closed(rerrors.PhaseSeek, f.path)
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.offset
	case io.SeekEnd:
		if err := f.store.db.QueryRowContext(ctx, fileLength, f.ino).Scan(&base); err != nil {
			return 0, notExist(err)
		}
	default:
		return 0, fs.ErrInvalid
	}
	if base+offset < 0 {
		return 0, fs.ErrInvalid
	}
	f.offset = base + offset
	return f.offset, nil
}

func (f *file) Close() error {
	if f.closed {
		return rerrors.Closed(rerrors.PhaseClose, f.path)
	}
	f.closed = true
	return nil
}

func (f *file) StatContext(ctx context.Context) (fsys.Stat, error) {
	var (
		p     string
		size  int64
		mtime int64
	)
	if err := f.store.db.QueryRowContext(ctx, statFile, f.ino).Scan(&p, &size, &mtime); err != nil {
		return fsys.Stat{}, notExist(err)
	}
	return fsys.Stat{
		Name:    path.Base(p),
		Size:    size,
		Mode:    0o644,
		ModTime: time.Unix(0, mtime),
	}, nil
}
