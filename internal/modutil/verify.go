package modutil

import (
	"fmt"

	"github.com/llir/llvm/ir"
)

// Verify performs a lightweight structural check of m: every block of a
// defined function carries a terminator, phi instructions have at least one
// incoming value, and global initializers match their declared content
// types. It is far from a full IR verifier; it exists to catch transform
// bugs early when pass verification is enabled.
func Verify(m *ir.Module) error {
	for _, f := range m.Funcs {
		// Functions without blocks are declarations.
		for _, b := range f.Blocks {
			if b.Term == nil {
				return fmt.Errorf("function %q: block %q has no terminator", f.Name(), b.Name())
			}
			for _, inst := range b.Insts {
				phi, ok := inst.(*ir.InstPhi)
				if !ok {
					continue
				}
				if len(phi.Incs) == 0 {
					return fmt.Errorf("function %q: block %q: phi with no incoming values", f.Name(), b.Name())
				}
			}
		}
	}
	for _, g := range m.Globals {
		if g.Init == nil {
			continue
		}
		if !g.Init.Type().Equal(g.ContentType) {
			return fmt.Errorf("global %q: initializer type %v does not match content type %v",
				g.Name(), g.Init.Type(), g.ContentType)
		}
	}
	return nil
}
