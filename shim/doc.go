// Package shim redirects the C runtime's low-level I/O hooks to the
// kernel's console and filesystem.
//
// The runtime names its three standard streams by path ("STDIN",
// "STDOUT", "STDERR") and expects logical handles 0, 1 and 2 for them.
// Every other handle belongs to the filesystem collaborator. A Shim is
// built once from a feature set and the collaborators present in the
// build; absent capabilities are dropped at construction so each call
// only dispatches on the handle.
//
// Operations report the natural Go result (bytes transferred, error).
// The runtime's inverted counts and sentinels live in package abi.
package shim
