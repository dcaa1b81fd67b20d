package lower

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"github.com/nvtools/ptxlower/internal/modutil"
	"github.com/nvtools/ptxlower/internal/nvptx"
)

// arrayBounds returns the start/end markers delimiting the slot run of the
// given kind, creating them if absent. A host linker would define these
// symbols around the merged section; nvlink does not, so they are emitted
// zero-initialized here and the device runtime fills them in at load time,
// before any entry point can run. Contiguity of the run between the two
// markers is the runtime's contract, not established by this pass.
func arrayBounds(m *ir.Module, isCtor bool) (start, end *ir.Global) {
	startName, endName := nvptx.FiniArrayStart, nvptx.FiniArrayEnd
	if isCtor {
		startName, endName = nvptx.InitArrayStart, nvptx.InitArrayEnd
	}
	return boundsGlobal(m, startName), boundsGlobal(m, endName)
}

// boundsGlobal returns the named pointer-to-pointer slot, creating a
// null-initialized definition in the global address space if the module does
// not already have one.
func boundsGlobal(m *ir.Module, name string) *ir.Global {
	if g := modutil.Global(m, name); g != nil {
		return g
	}
	contentType := types.NewPointer(callbackPtrType())
	g := m.NewGlobalDef(name, constant.NewNull(contentType))
	g.Linkage = enum.LinkageWeak
	g.Visibility = enum.VisibilityProtected
	modutil.SetAddrSpace(g, nvptx.AddrSpaceGlobal)
	return g
}
