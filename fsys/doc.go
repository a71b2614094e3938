// Package fsys defines the filesystem collaborator the I/O shim delegates
// to, the native open flags it speaks, and Descriptors, an implementation
// that hands out integer descriptors over any file Store.
//
// Stores live in sub-packages:
//
//	fsys/memfs     in-memory files
//	fsys/dirfs     a host directory confined with os.Root
//	fsys/sqlitefs  files persisted in a SQLite database
//
// Files that implement ContextFile receive the context of each call.
//
// Descriptors start at 3; 0, 1 and 2 belong to the console streams and are
// never returned by Open.
package fsys
