package host

import (
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero"
)

// Imports lists the functions a guest imports from ModuleName.
type Imports struct {
	// Hooks are imports the host serves, in import order.
	Hooks []string
	// Missing are imports the host does not provide.
	Missing []string
}

// Err reports the missing imports, if any.
func (i *Imports) Err() error {
	if len(i.Missing) == 0 {
		return nil
	}
	return fmt.Errorf("guest imports unknown %q functions: %s", ModuleName, strings.Join(i.Missing, ", "))
}

// Inspect compiles wasm and reports which hooks it imports.
func Inspect(ctx context.Context, wasm []byte) (*Imports, error) {
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}
	defer compiled.Close(ctx)
	return imports(compiled), nil
}

func imports(compiled wazero.CompiledModule) *Imports {
	provided := make(map[string]bool)
	for _, name := range New(nil).Exports() {
		provided[name] = true
	}

	imp := &Imports{}
	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		if module != ModuleName {
			continue
		}
		if provided[name] {
			imp.Hooks = append(imp.Hooks, name)
		} else {
			imp.Missing = append(imp.Missing, name)
		}
	}
	return imp
}
