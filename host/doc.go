// Package host exports the retarget hooks to WebAssembly guests.
//
// A guest built against the C runtime imports the hooks from the "env"
// module: _sys_open, _sys_read, _sys_write and friends. Host instantiates
// that module in a wazero runtime and serves each call from an abi.Sys,
// reading names and buffers straight out of the guest's linear memory.
//
// Run is the one-shot entry point: it builds a runtime, links the host
// module, and calls the guest's entry function, turning _sys_exit into
// an exit code.
package host
