// Package abi adapts a shim.Shim to the calling convention of the C
// runtime's retarget hooks.
//
// Transfers report the number of bytes NOT moved, so zero means complete
// success. A read cut short by end of file additionally sets the top bit
// (EOFFlag). Failures are -1. Open modes arrive as the runtime's OPEN_*
// bits and are translated here.
package abi
