package lower

import (
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"

	"github.com/nvtools/ptxlower/internal/modutil"
	"github.com/nvtools/ptxlower/internal/nvptx"
)

// arrayEntry is one decoded record of a ctor/dtor metadata array:
// {priority, target function, associated data}. The data operand is ignored.
type arrayEntry struct {
	priority int64
	target   constant.Constant
	fnName   string
}

// parseEntries decodes a metadata array initializer into its records. It
// returns nil if the initializer is not an array, is empty, or contains a
// record that is not a (priority, function, data) struct, so a malformed
// array is rejected as a whole and never partially lowered.
func parseEntries(init constant.Constant) []arrayEntry {
	arr, ok := init.(*constant.Array)
	if !ok || len(arr.Elems) == 0 {
		return nil
	}
	entries := make([]arrayEntry, 0, len(arr.Elems))
	for _, elem := range arr.Elems {
		rec, ok := elem.(*constant.Struct)
		if !ok || len(rec.Fields) < 2 {
			return nil
		}
		prio, ok := rec.Fields[0].(*constant.Int)
		if !ok {
			return nil
		}
		entries = append(entries, arrayEntry{
			priority: prio.X.Int64(),
			target:   rec.Fields[1],
			fnName:   constantName(rec.Fields[1]),
		})
	}
	return entries
}

// constantName returns the symbol name behind c, looking through pointer
// casts. Unnamed constants yield "".
func constantName(c constant.Constant) string {
	switch c := c.(type) {
	case *constant.ExprBitCast:
		return constantName(c.From)
	case value.Named:
		return c.Name()
	}
	return ""
}

// materializeEntries emits one entry-global per record, in record order.
// NVPTX has no way to place variables in specific sections, so each global
// carries a mangled name the runtime uses to build the array run manually.
// Every global is added to llvm.used so dead-global elimination cannot drop
// it before the loader has seen it.
func materializeEntries(m *ir.Module, entries []arrayEntry, isCtor bool, id string) {
	section := ".fini_array."
	if isCtor {
		section = ".init_array."
	}
	for _, e := range entries {
		g := m.NewGlobalDef(entryGlobalName(isCtor, e.fnName, id, e.priority), e.target)
		g.Immutable = true
		g.Linkage = enum.LinkageExternal
		g.Visibility = enum.VisibilityProtected
		modutil.SetAddrSpace(g, nvptx.AddrSpaceConst)
		// Not honored by the target; recorded for external tooling.
		g.Section = section + strconv.FormatInt(e.priority, 10)
		modutil.AppendToUsed(m, g)
	}
}
