// Package retarget serves the low-level I/O hooks of an embedded C runtime
// (armlibc style _sys_open, _sys_read, _sys_write, ...) to WebAssembly
// guests, redirecting console streams to a character device and named
// files to a pluggable filesystem.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	retarget/
//	├── profile/     Build profiles: rtconfig.h / YAML symbols to features
//	├── console/     Character devices: streams, terminals, line buffering
//	├── fsys/        Descriptor table over a Store (memfs, dirfs, sqlitefs)
//	├── shim/        Handle routing, open modes and console semantics
//	├── abi/         Inverted-count ABI results on top of the shim
//	├── host/        wazero host module "env" and guest runner
//	├── resource/    Generic handle table used by fsys
//	├── errors/      Structured error types (Phase, Kind)
//	└── cmd/retarget CLI
//
// # Quick Start
//
// Run a guest against an in-memory filesystem:
//
//	p, _ := profile.Resolve("sim")
//	s := abi.New(shim.New(shim.Config{
//	    Features: p.Features(),
//	    Console:  console.NewStream(os.Stdin, os.Stdout),
//	    FS:       fsys.New(memfs.New(), fsys.Options{MaxOpen: p.MaxOpen()}),
//	    Exit:     host.ExitGuest,
//	}))
//
//	code, err := host.Run(ctx, wasmBytes, s, nil)
//
// # Result Conventions
//
// Read and write hooks return the number of bytes NOT transferred, so 0
// means complete success. A short read at end of file also sets the top
// bit of the result. Failures return -1.
//
// # Thread Safety
//
// Descriptors and console streams are safe for concurrent use. A guest
// instance is driven by a single goroutine.
package retarget
