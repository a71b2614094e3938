// Package resource provides descriptor handle management for file stores.
//
// A Table maps small non-negative integer handles to Go values. Handles
// are allocated upward from a configurable base so that a range below the
// base stays reserved for the caller (the console streams 0, 1 and 2 in
// this module). Released handles are reused before the table grows.
//
//	table := resource.NewTable[*os.File](3, 0)
//
//	// Insert a value, get a handle
//	fd, err := table.Insert(f)
//
//	// Retrieve value by handle
//	f, ok := table.Get(fd)
//
//	// Remove and get value; the caller closes it
//	f, ok := table.Remove(fd)
//
// # Observers
//
// Register observers to track handle lifecycle events:
//
//	table.Subscribe(observer)
//
// # Cleanup
//
// Remove never closes the value. Close releases every remaining value that
// implements io.Closer and stops accepting inserts.
package resource
