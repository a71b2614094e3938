// Package memfs is an in-memory fsys.Store.
package memfs

import (
	"context"
	"io"
	"io/fs"
	"path"
	"sync"
	"time"

	rerrors "github.com/wippyai/retarget/errors"
	"github.com/wippyai/retarget/fsys"
)

var _ fsys.Store = (*FS)(nil)

// FS holds files in memory keyed by cleaned absolute path.
type FS struct {
	files map[string]*node
	mu    sync.RWMutex
}

type node struct {
	modTime time.Time
	name    string
	content []byte
	mu      sync.RWMutex
}

// New creates an empty in-memory store.
func New() *FS {
	return &FS{files: make(map[string]*node)}
}

func clean(name string) string {
	return path.Clean("/" + name)
}

// WriteFile creates or replaces a file.
func (m *FS) WriteFile(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := clean(name)
	m.files[p] = &node{
		name:    path.Base(p),
		content: append([]byte(nil), data...),
		modTime: time.Now(),
	}
}

// ReadFile returns a copy of a file's content.
func (m *FS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	n, ok := m.files[clean(name)]
	m.mu.RUnlock()
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]byte(nil), n.content...), nil
}

// OpenFile opens or creates a file according to flag.
func (m *FS) OpenFile(_ context.Context, name string, flag fsys.Flag) (fsys.File, error) {
	p := clean(name)
	if p == "/" {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	m.mu.Lock()
	n, ok := m.files[p]
	if !ok {
		if !flag.Has(fsys.O_CREAT) {
			m.mu.Unlock()
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		n = &node{name: path.Base(p), modTime: time.Now()}
		m.files[p] = n
	}
	m.mu.Unlock()

	if flag.Has(fsys.O_TRUNC) && flag.Writable() {
		n.mu.Lock()
		n.content = n.content[:0]
		n.modTime = time.Now()
		n.mu.Unlock()
	}

	return &file{node: n, path: p, flag: flag}, nil
}

// Remove deletes a file. Open handles keep their content.
func (m *FS) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := clean(name)
	if _, ok := m.files[p]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, p)
	return nil
}

// file is one open handle. mu guards its offset and closed state and is
// taken before the node lock.
type file struct {
	node   *node
	path   string
	offset int64
	flag   fsys.Flag
	closed bool
	mu     sync.Mutex
}

func (f *file) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, rerrors.Closed(rerrors.PhaseRead, f.path)
	}
	if !f.flag.Readable() {
		return 0, fs.ErrPermission
	}

	f.node.mu.RLock()
	defer f.node.mu.RUnlock()

	if f.offset >= int64(len(f.node.content)) {
		return 0, io.EOF
	}
	n := copy(p, f.node.content[f.offset:])
	f.offset += int64(n)
	return n, nil
}

func (f *file) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, rerrors.Closed(rerrors.PhaseWrite, f.path)
	}
	if !f.flag.Writable() {
		return 0, fs.ErrPermission
	}

	f.node.mu.Lock()
	defer f.node.mu.Unlock()

	if f.flag.Has(fsys.O_APPEND) {
		f.offset = int64(len(f.node.content))
	}
	end := f.offset + int64(len(p))
	if end > int64(len(f.node.content)) {
		grown := make([]byte, end)
		copy(grown, f.node.content)
		f.node.content = grown
	}
	copy(f.node.content[f.offset:], p)
	f.offset = end
	f.node.modTime = time.Now()
	return len(p), nil
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, rerrors.Closed(rerrors.PhaseSeek, f.path)
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.offset
	case io.SeekEnd:
		f.node.mu.RLock()
		base = int64(len(f.node.content))
		f.node.mu.RUnlock()
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
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return rerrors.Closed(rerrors.PhaseClose, f.path)
	}
	f.closed = true
	return nil
}

func (f *file) Stat() (fsys.Stat, error) {
	f.node.mu.RLock()
	defer f.node.mu.RUnlock()

	return fsys.Stat{
		Name:    f.node.name,
		Size:    int64(len(f.node.content)),
		Mode:    0o644,
		ModTime: f.node.modTime,
	}, nil
}
