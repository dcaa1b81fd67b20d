// Package lower implements the NVPTX global constructor/destructor lowering.
//
// The nvlink linker cannot create or merge the traditional .init_array and
// .fini_array sections, so the llvm.global_ctors and llvm.global_dtors
// metadata arrays cannot be lowered the way a host target would. Instead the
// pass materializes one retained, deterministically named entry-global per
// registered callback, anchors the run with __init_array_start/__init_array_end
// (resp. __fini_array_*) symbols the device runtime fills in at load time,
// and synthesizes nvptx$device$init and nvptx$device$fini kernels that walk
// the run and invoke each callback. The metadata arrays are erased once a
// kind has been fully lowered so later lowering does not process them again.
package lower

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/nvtools/ptxlower/internal/modutil"
	"github.com/nvtools/ptxlower/internal/nvptx"
	"github.com/nvtools/ptxlower/internal/passes"
)

// PassName identifies the lowering in pass pipelines and dump filters.
const PassName = "nvptx-lower-ctor-dtor"

// Options configures a lowering run.
type Options struct {
	// GlobalID overrides the per-module identifier embedded in every
	// entry-global name. When empty, the low 64 bits of the MD5 digest of
	// the module's source filename are used.
	GlobalID string

	// EmitKernels controls whether the device init/fini entry points are
	// synthesized. When false, entry-globals are still produced and the
	// metadata arrays still erased; invoking the callbacks is left to a
	// loader-side convention.
	EmitKernels bool
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{EmitKernels: true}
}

// Pass wraps the lowering as a pipeline pass.
func Pass(opts Options) passes.Pass {
	return passes.Pass{
		Name: PassName,
		Fn:   func(m *ir.Module) bool { return Run(m, opts) },
	}
}

// Run lowers both metadata arrays of m and reports whether the module was
// changed. Constructors are processed first, then destructors; the two kinds
// are independent, so a missing or malformed array of one kind does not
// block the other. A kind is never partially committed: either its array is
// fully replaced by entry-globals (plus kernel, when enabled), or it is left
// exactly as found.
func Run(m *ir.Module, opts Options) bool {
	id := opts.GlobalID
	if id == "" {
		id = moduleID(m.SourceFilename)
	}
	changed := lowerKind(m, true, id, opts.EmitKernels)
	changed = lowerKind(m, false, id, opts.EmitKernels) || changed
	return changed
}

// lowerKind processes one metadata array. Any malformed-input condition is
// absorbed as "no modification"; the only signal upward is the changed bool.
func lowerKind(m *ir.Module, isCtor bool, id string, emitKernel bool) bool {
	arrayName := nvptx.GlobalDtors
	if isCtor {
		arrayName = nvptx.GlobalCtors
	}
	gv := modutil.Global(m, arrayName)
	if gv == nil || gv.Init == nil {
		return false
	}
	entries := parseEntries(gv.Init)
	if len(entries) == 0 {
		return false
	}

	// Obtain the kernel before mutating anything: an already-present entry
	// point means the module was lowered before, and the kind must be left
	// exactly as found.
	var kernel *ir.Func
	if emitKernel {
		if kernel = newKernelFunc(m, isCtor); kernel == nil {
			return false
		}
	}

	materializeEntries(m, entries, isCtor, id)
	if kernel != nil {
		synthesizeWalk(m, kernel, isCtor)
	}
	modutil.RemoveGlobal(m, gv)
	return true
}

// callbackType is the signature every registered constructor or destructor
// is invoked with. The argc/argv-style constructor convention is not
// implemented; callbacks are always called with no arguments.
func callbackType() *types.FuncType {
	return types.NewFunc(types.Void)
}

// callbackPtrType is the type of one slot of the init/fini array run.
func callbackPtrType() *types.PointerType {
	return types.NewPointer(callbackType())
}
