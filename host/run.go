package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/retarget/abi"
)

// Config holds guest run configuration.
type Config struct {
	// MemoryLimitPages caps guest memory in 64KB pages. 0 keeps the
	// wazero default.
	MemoryLimitPages uint32

	// Entry is the function to call. Empty tries "_start", then "main".
	Entry string

	// Name is the guest module name.
	Name string
}

var defaultEntries = []string{"_start", "main"}

// Run instantiates wasm against the hooks served by s, calls its entry
// function and returns the guest's exit code.
//
// The shim behind s should use ExitGuest as its exit handler so that
// _sys_exit unwinds the guest instead of the host process.
func Run(ctx context.Context, wasm []byte, s *abi.Sys, cfg *Config) (uint32, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	defer r.Close(ctx)

	if _, err := New(s).Instantiate(ctx, r); err != nil {
		return 0, fmt.Errorf("instantiate host module: %w", err)
	}

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		return 0, fmt.Errorf("compile failed: %w", err)
	}
	if err := imports(compiled).Err(); err != nil {
		return 0, err
	}

	modConfig := wazero.NewModuleConfig().WithName(cfg.Name).WithStartFunctions()
	mod, err := r.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		if code, ok := exitCode(err); ok {
			return code, nil
		}
		return 0, fmt.Errorf("instantiate failed: %w", err)
	}

	name, fn := entry(mod, cfg.Entry)
	if fn == nil {
		return 0, fmt.Errorf("guest exports no entry function %v", entryNames(cfg.Entry))
	}

	Logger().Debug("calling guest", zap.String("entry", name))
	params := make([]uint64, len(fn.Definition().ParamTypes()))
	results, err := fn.Call(ctx, params...)
	if err != nil {
		if code, ok := exitCode(err); ok {
			return code, nil
		}
		return 0, fmt.Errorf("call %s: %w", name, err)
	}
	if len(results) > 0 {
		return uint32(api.DecodeI32(results[0])), nil
	}
	return 0, nil
}

func entryNames(name string) []string {
	if name != "" {
		return []string{name}
	}
	return defaultEntries
}

func entry(mod api.Module, name string) (string, api.Function) {
	for _, n := range entryNames(name) {
		if fn := mod.ExportedFunction(n); fn != nil {
			return n, fn
		}
	}
	return "", nil
}

func exitCode(err error) (uint32, bool) {
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
