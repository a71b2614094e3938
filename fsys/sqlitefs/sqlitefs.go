// Package sqlitefs is an fsys.Store persisting files in a SQLite database.
//
// Each file is one row holding its whole content; the store targets the
// small log and configuration files firmware writes. Path lookups go
// through an LRU cache of path to inode.
package sqlitefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/wippyai/retarget/fsys"
)

// DefaultCacheSize is the default number of cached path lookups.
const DefaultCacheSize = 256

var _ fsys.Store = (*FS)(nil)

// Options configures a SQLite store.
type Options struct {
	// CacheSize is the number of path lookups kept in the LRU cache.
	CacheSize int
}

// CacheStats reports path cache effectiveness.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// FS stores files in a SQLite database.
type FS struct {
	db     *sql.DB
	cache  *lru.Cache[string, int64]
	hits   atomic.Int64
	misses atomic.Int64
}

// Open opens or creates the database at dsn.
func Open(ctx context.Context, dsn string, opts Options) (*FS, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createFileTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	cache, err := lru.New[string, int64](opts.CacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &FS{db: db, cache: cache}, nil
}

func clean(name string) string {
	return path.Clean("/" + name)
}

func (s *FS) lookup(ctx context.Context, p string) (int64, error) {
	if ino, ok := s.cache.Get(p); ok {
		s.hits.Add(1)
		return ino, nil
	}
	s.misses.Add(1)

	var ino int64
	err := s.db.QueryRowContext(ctx, lookupIno, p).Scan(&ino)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fs.ErrNotExist
	}
	if err != nil {
		return 0, err
	}
	s.cache.Add(p, ino)
	return ino, nil
}

// OpenFile opens or creates a file according to flag.
func (s *FS) OpenFile(ctx context.Context, name string, flag fsys.Flag) (fsys.File, error) {
	p := clean(name)
	if p == "/" {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	if flag.Has(fsys.O_CREAT) {
		if _, err := s.db.ExecContext(ctx, insertFile, p, time.Now().UnixNano()); err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
	}

	ino, err := s.lookup(ctx, p)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	if flag.Has(fsys.O_TRUNC) && flag.Writable() {
		if _, err := s.db.ExecContext(ctx, truncateFile, time.Now().UnixNano(), ino); err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
	}

	return &file{store: s, ino: ino, path: p, flag: flag}, nil
}

// Remove deletes a file.
func (s *FS) Remove(ctx context.Context, name string) error {
	p := clean(name)
	res, err := s.db.ExecContext(ctx, deleteFile, p)
	if err != nil {
		return &fs.PathError{Op: "remove", Path: name, Err: err}
	}
	s.cache.Remove(p)
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	return nil
}

// CacheStats returns path cache statistics.
func (s *FS) CacheStats() CacheStats {
	return CacheStats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Entries: s.cache.Len(),
	}
}

// Close closes the database.
func (s *FS) Close() error {
	s.cache.Purge()
	return s.db.Close()
}
