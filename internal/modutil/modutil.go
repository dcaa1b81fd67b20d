// Package modutil provides small helpers for inspecting and rewriting
// llir/llvm modules.
package modutil

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// Global returns the global named name, or nil if m has no such global.
func Global(m *ir.Module, name string) *ir.Global {
	for _, g := range m.Globals {
		if g.Name() == name {
			return g
		}
	}
	return nil
}

// Func returns the function named name, or nil if m has no such function.
func Func(m *ir.Module, name string) *ir.Func {
	for _, f := range m.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// RemoveGlobal unlinks g from m and reports whether g was present.
func RemoveGlobal(m *ir.Module, g *ir.Global) bool {
	for i, cur := range m.Globals {
		if cur == g {
			m.Globals = append(m.Globals[:i], m.Globals[i+1:]...)
			return true
		}
	}
	return false
}

// SetAddrSpace places g in the given address space. Both the field and g's
// cached pointer type are updated: llir computes and caches the type at
// construction, so assigning the field alone would leave every use of g
// printing without the addrspace qualifier of its definition.
func SetAddrSpace(g *ir.Global, space types.AddrSpace) {
	g.AddrSpace = space
	if g.Typ == nil {
		g.Typ = types.NewPointer(g.ContentType)
	}
	g.Typ.AddrSpace = space
}

// UsedListName is the well-known global the optimizer treats as a GC root
// set: anything listed in it survives dead-global elimination.
const UsedListName = "llvm.used"

// AppendToUsed appends the given constants to the @llvm.used list,
// preserving any entries already present. Entries are stored as i8*
// pointers, so values of other pointer types are wrapped in a bitcast.
func AppendToUsed(m *ir.Module, vals ...constant.Constant) *ir.Global {
	i8ptr := types.NewPointer(types.I8)

	var elems []constant.Constant
	if used := Global(m, UsedListName); used != nil {
		if arr, ok := used.Init.(*constant.Array); ok {
			elems = append(elems, arr.Elems...)
		}
		// The array type changes with its length, so the list is rebuilt.
		RemoveGlobal(m, used)
	}
	for _, v := range vals {
		t := v.Type()
		if t.Equal(i8ptr) {
			elems = append(elems, v)
			continue
		}
		// Bitcast cannot cross address spaces.
		if pt, ok := t.(*types.PointerType); ok && pt.AddrSpace != i8ptr.AddrSpace {
			elems = append(elems, constant.NewAddrSpaceCast(v, i8ptr))
			continue
		}
		elems = append(elems, constant.NewBitCast(v, i8ptr))
	}

	var arr *constant.Array
	if len(elems) == 0 {
		arr = constant.NewArray(types.NewArray(0, i8ptr))
	} else {
		arr = constant.NewArray(nil, elems...)
	}
	used := m.NewGlobalDef(UsedListName, arr)
	used.Linkage = enum.LinkageAppending
	used.Section = "llvm.metadata"
	return used
}
