// Package dirfs is an fsys.Store confined to a host directory.
package dirfs

import (
	"context"
	"os"
	"strings"

	"github.com/wippyai/retarget/fsys"
)

var _ fsys.Store = (*FS)(nil)

// FS opens files beneath a root directory. Paths cannot escape it.
type FS struct {
	root *os.Root
	perm os.FileMode
}

// Open roots a store at dir.
func Open(dir string) (*FS, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	return &FS{root: root, perm: 0o644}, nil
}

func rel(name string) string {
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "."
	}
	return name
}

// OpenFile opens name relative to the root.
func (d *FS) OpenFile(_ context.Context, name string, flag fsys.Flag) (fsys.File, error) {
	f, err := d.root.OpenFile(rel(name), flag.OS(), d.perm)
	if err != nil {
		return nil, err
	}
	return &file{File: f}, nil
}

// Remove unlinks name relative to the root.
func (d *FS) Remove(_ context.Context, name string) error {
	return d.root.Remove(rel(name))
}

// Close releases the root directory.
func (d *FS) Close() error {
	return d.root.Close()
}

type file struct {
	*os.File
}

func (f *file) Stat() (fsys.Stat, error) {
	info, err := f.File.Stat()
	if err != nil {
		return fsys.Stat{}, err
	}
	return fsys.Stat{
		Name:    info.Name(),
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}, nil
}
