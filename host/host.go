package host

import (
	"bytes"
	"context"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/retarget/abi"
	rerrors "github.com/wippyai/retarget/errors"
)

// ModuleName is the import module guests link the hooks from.
const ModuleName = "env"

// maxPath bounds the NUL-terminated strings read from guest memory.
const maxPath = 4096

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// Host serves guest hook calls from an abi.Sys.
type Host struct {
	sys *abi.Sys
}

// New creates a host over s.
func New(s *abi.Sys) *Host {
	return &Host{sys: s}
}

type function struct {
	name    string
	fn      api.GoModuleFunc
	params  []api.ValueType
	names   []string
	results []api.ValueType
}

func (h *Host) functions() []function {
	return []function{
		{"_sys_open", h.sysOpen, []api.ValueType{i32, i32}, []string{"name", "openmode"}, []api.ValueType{i32}},
		{"_sys_close", h.sysClose, []api.ValueType{i32}, []string{"fh"}, []api.ValueType{i32}},
		{"_sys_read", h.sysRead, []api.ValueType{i32, i32, i32, i32}, []string{"fh", "buf", "len", "mode"}, []api.ValueType{i32}},
		{"_sys_write", h.sysWrite, []api.ValueType{i32, i32, i32, i32}, []string{"fh", "buf", "len", "mode"}, []api.ValueType{i32}},
		{"_sys_seek", h.sysSeek, []api.ValueType{i32, i32}, []string{"fh", "pos"}, []api.ValueType{i32}},
		{"_sys_flen", h.sysFlen, []api.ValueType{i32}, []string{"fh"}, []api.ValueType{i64}},
		{"_sys_istty", h.sysIstty, []api.ValueType{i32}, []string{"fh"}, []api.ValueType{i32}},
		{"_sys_tmpnam", h.sysTmpnam, []api.ValueType{i32, i32, i32}, []string{"name", "fileno", "maxlength"}, []api.ValueType{i32}},
		{"_sys_exit", h.sysExit, []api.ValueType{i32}, []string{"return_code"}, nil},
		{"_sys_command_string", h.sysCommandString, []api.ValueType{i32, i32}, []string{"cmd", "len"}, []api.ValueType{i32}},
		{"_ttywrch", h.ttywrch, []api.ValueType{i32}, []string{"ch"}, nil},
		{"remove", h.remove, []api.ValueType{i32}, []string{"filename"}, []api.ValueType{i32}},
		{"fputc", h.fputc, []api.ValueType{i32, i32}, []string{"c", "f"}, []api.ValueType{i32}},
		{"fgetc", h.fgetc, []api.ValueType{i32}, []string{"f"}, []api.ValueType{i32}},
	}
}

// Exports lists the function names the host module provides.
func (h *Host) Exports() []string {
	funcs := h.functions()
	names := make([]string, len(funcs))
	for i, f := range funcs {
		names[i] = f.name
	}
	return names
}

// Instantiate registers the host module in r.
func (h *Host) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(ModuleName)
	for _, f := range h.functions() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			WithParameterNames(f.names...).
			Export(f.name)
	}
	return builder.Instantiate(ctx)
}

// ExitGuest is a shim exit handler for code running inside a guest. It
// unwinds the guest call with a *sys.ExitError carrying code.
func ExitGuest(code int) {
	panic(sys.NewExitError(uint32(code)))
}

// readCString reads a NUL-terminated string at ptr.
func readCString(mem api.Memory, ptr uint32) (string, bool) {
	if mem == nil || ptr >= mem.Size() {
		return "", false
	}
	n := mem.Size() - ptr
	if n > maxPath {
		n = maxPath
	}
	buf, ok := mem.Read(ptr, n)
	if !ok {
		return "", false
	}
	i := bytes.IndexByte(buf, 0)
	if i < 0 {
		return "", false
	}
	return string(buf[:i]), true
}

// view returns the guest memory range [ptr, ptr+n) without copying.
func view(mem api.Memory, ptr, n uint32) ([]byte, bool) {
	if mem == nil {
		return nil, false
	}
	return mem.Read(ptr, n)
}

// outOfBounds logs and returns the error for a guest range outside memory.
func outOfBounds(fn string, ptr, n uint32) error {
	err := rerrors.OutOfBounds(rerrors.PhaseHost, fn, int64(ptr), int64(n))
	Logger().Debug("guest pointer out of bounds", zap.Error(err))
	return err
}

func (h *Host) sysOpen(ctx context.Context, m api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	name, ok := readCString(m.Memory(), ptr)
	if !ok {
		outOfBounds("_sys_open", ptr, 0)
		stack[0] = api.EncodeI32(abi.Failure)
		return
	}
	stack[0] = api.EncodeI32(h.sys.Open(ctx, name, api.DecodeI32(stack[1])))
}

func (h *Host) sysClose(ctx context.Context, _ api.Module, stack []uint64) {
	stack[0] = api.EncodeI32(h.sys.Close(ctx, api.DecodeI32(stack[0])))
}

func (h *Host) sysRead(ctx context.Context, m api.Module, stack []uint64) {
	fh := api.DecodeI32(stack[0])
	ptr, n := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
	buf, ok := view(m.Memory(), ptr, n)
	if !ok {
		outOfBounds("_sys_read", ptr, n)
		stack[0] = api.EncodeI32(abi.Failure)
		return
	}
	stack[0] = api.EncodeI32(h.sys.Read(ctx, fh, buf, api.DecodeI32(stack[3])))
}

func (h *Host) sysWrite(ctx context.Context, m api.Module, stack []uint64) {
	fh := api.DecodeI32(stack[0])
	ptr, n := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
	buf, ok := view(m.Memory(), ptr, n)
	if !ok {
		outOfBounds("_sys_write", ptr, n)
		stack[0] = api.EncodeI32(abi.Failure)
		return
	}
	stack[0] = api.EncodeI32(h.sys.Write(ctx, fh, buf, api.DecodeI32(stack[3])))
}

func (h *Host) sysSeek(ctx context.Context, _ api.Module, stack []uint64) {
	off := h.sys.Seek(ctx, api.DecodeI32(stack[0]), int64(api.DecodeI32(stack[1])))
	if off > math.MaxInt32 {
		off = int64(abi.Failure)
	}
	stack[0] = api.EncodeI32(int32(off))
}

func (h *Host) sysFlen(ctx context.Context, _ api.Module, stack []uint64) {
	stack[0] = api.EncodeI64(h.sys.Flen(ctx, api.DecodeI32(stack[0])))
}

func (h *Host) sysIstty(_ context.Context, _ api.Module, stack []uint64) {
	stack[0] = api.EncodeI32(h.sys.Istty(api.DecodeI32(stack[0])))
}

func (h *Host) sysTmpnam(_ context.Context, m api.Module, stack []uint64) {
	ptr, n := api.DecodeU32(stack[0]), api.DecodeU32(stack[2])
	dst, ok := view(m.Memory(), ptr, n)
	if !ok {
		outOfBounds("_sys_tmpnam", ptr, n)
		stack[0] = api.EncodeI32(abi.Failure)
		return
	}
	stack[0] = api.EncodeI32(h.sys.Tmpnam(dst, api.DecodeI32(stack[1])))
}

func (h *Host) sysExit(ctx context.Context, m api.Module, stack []uint64) {
	code := api.DecodeI32(stack[0])
	Logger().Debug("guest exit", zap.Int32("code", code))
	_ = m.CloseWithExitCode(ctx, uint32(code))
	h.sys.Exit(code)
}

func (h *Host) sysCommandString(_ context.Context, m api.Module, stack []uint64) {
	cmd := h.sys.CommandString()
	if cmd == nil {
		stack[0] = 0
		return
	}
	ptr, n := api.DecodeU32(stack[0]), api.DecodeI32(stack[1])
	if n <= 0 {
		stack[0] = 0
		return
	}
	dst, ok := view(m.Memory(), ptr, uint32(n))
	if !ok {
		stack[0] = 0
		return
	}
	c := copy(dst[:len(dst)-1], cmd)
	dst[c] = 0
	stack[0] = api.EncodeU32(ptr)
}

func (h *Host) ttywrch(_ context.Context, _ api.Module, stack []uint64) {
	h.sys.TTYWrch(api.DecodeI32(stack[0]))
}

func (h *Host) remove(ctx context.Context, m api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	path, ok := readCString(m.Memory(), ptr)
	if !ok {
		outOfBounds("remove", ptr, 0)
		stack[0] = api.EncodeI32(abi.Failure)
		return
	}
	stack[0] = api.EncodeI32(h.sys.Remove(ctx, path))
}

func (h *Host) fputc(_ context.Context, _ api.Module, stack []uint64) {
	stack[0] = api.EncodeI32(h.sys.Fputc(api.DecodeI32(stack[0])))
}

func (h *Host) fgetc(_ context.Context, _ api.Module, stack []uint64) {
	stack[0] = api.EncodeI32(h.sys.Fgetc())
}
