// Package console provides console devices for the I/O shim: the
// character stream of the interactive terminal, independent of any
// filesystem.
//
// Stream adapts any reader/writer pair, LineBuffered holds output until a
// newline or a full buffer the way a POSIX stdio console does, and
// Terminal attaches the process's own stdin and stdout.
package console
