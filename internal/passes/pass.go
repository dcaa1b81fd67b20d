// Package passes runs module transformation passes in order.
package passes

import (
	"fmt"
	"os"

	"github.com/llir/llvm/ir"

	"github.com/nvtools/ptxlower/internal/modutil"
)

// Pass describes a single module transformation pass.
type Pass struct {
	Name string
	Fn   func(m *ir.Module) bool // reports whether the module was changed
}

// Config controls pass execution behavior.
type Config struct {
	DumpBefore string // dump IR before this pass ("*" for all)
	DumpAfter  string // dump IR after this pass ("*" for all)
	Verify     bool   // verify the module before/after each pass
}

// Run executes the given passes on m in order and reports whether any of
// them changed the module.
func Run(m *ir.Module, passes []Pass, cfg Config) (bool, error) {
	changed := false
	for _, p := range passes {
		if shouldDump(cfg.DumpBefore, p.Name) {
			fmt.Fprintf(os.Stderr, "--- before %s ---\n", p.Name)
			fmt.Fprintln(os.Stderr, m.String())
		}

		if cfg.Verify {
			if err := modutil.Verify(m); err != nil {
				return changed, fmt.Errorf("verify before %s: %w", p.Name, err)
			}
		}

		if p.Fn(m) {
			changed = true
		}

		if cfg.Verify {
			if err := modutil.Verify(m); err != nil {
				return changed, fmt.Errorf("verify after %s: %w", p.Name, err)
			}
		}

		if shouldDump(cfg.DumpAfter, p.Name) {
			fmt.Fprintf(os.Stderr, "--- after %s ---\n", p.Name)
			fmt.Fprintln(os.Stderr, m.String())
		}
	}
	return changed, nil
}

func shouldDump(pattern, name string) bool {
	return pattern == "*" || pattern == name
}
