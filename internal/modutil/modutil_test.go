package modutil

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

func TestGlobalLookup(t *testing.T) {
	m := ir.NewModule()
	g := m.NewGlobalDef("g", constant.NewInt(types.I64, 1))

	if got := Global(m, "g"); got != g {
		t.Errorf("Global(m, %q) = %v, want %v", "g", got, g)
	}
	if got := Global(m, "missing"); got != nil {
		t.Errorf("Global(m, %q) = %v, want nil", "missing", got)
	}
}

func TestFuncLookup(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("f", types.Void)

	if got := Func(m, "f"); got != f {
		t.Errorf("Func(m, %q) = %v, want %v", "f", got, f)
	}
	if got := Func(m, "missing"); got != nil {
		t.Errorf("Func(m, %q) = %v, want nil", "missing", got)
	}
}

func TestRemoveGlobal(t *testing.T) {
	m := ir.NewModule()
	a := m.NewGlobalDef("a", constant.NewInt(types.I64, 1))
	b := m.NewGlobalDef("b", constant.NewInt(types.I64, 2))

	if !RemoveGlobal(m, a) {
		t.Fatal("RemoveGlobal reported a as absent")
	}
	if Global(m, "a") != nil {
		t.Error("a still present after removal")
	}
	if Global(m, "b") != b {
		t.Error("b was removed alongside a")
	}
	if RemoveGlobal(m, a) {
		t.Error("second RemoveGlobal reported a as present")
	}
}

func TestSetAddrSpace(t *testing.T) {
	m := ir.NewModule()
	g := m.NewGlobalDef("g", constant.NewInt(types.I64, 1))

	SetAddrSpace(g, 4)
	if g.AddrSpace != 4 {
		t.Errorf("AddrSpace field = %d, want 4", g.AddrSpace)
	}
	pt, ok := g.Type().(*types.PointerType)
	if !ok {
		t.Fatalf("global type = %T, want pointer", g.Type())
	}
	// The cached type is what every use of g prints with; it must carry
	// the same address space as the definition.
	if pt.AddrSpace != 4 {
		t.Errorf("cached type address space = %d, want 4", pt.AddrSpace)
	}
}

func TestAppendToUsed(t *testing.T) {
	m := ir.NewModule()
	a := m.NewGlobalDef("a", constant.NewInt(types.I64, 1))
	b := m.NewGlobalDef("b", constant.NewInt(types.I64, 2))

	used := AppendToUsed(m, a)
	if used.Linkage != enum.LinkageAppending {
		t.Errorf("llvm.used linkage = %v, want appending", used.Linkage)
	}
	if used.Section != "llvm.metadata" {
		t.Errorf("llvm.used section = %q, want %q", used.Section, "llvm.metadata")
	}
	arr, ok := used.Init.(*constant.Array)
	if !ok || len(arr.Elems) != 1 {
		t.Fatalf("llvm.used initializer = %v, want 1-element array", used.Init)
	}

	// A second append must preserve the existing entry.
	used = AppendToUsed(m, b)
	arr, ok = used.Init.(*constant.Array)
	if !ok || len(arr.Elems) != 2 {
		t.Fatalf("llvm.used after second append = %v, want 2-element array", used.Init)
	}
	if Global(m, UsedListName) != used {
		t.Error("stale llvm.used list left in module")
	}
}

func TestAppendToUsedCrossAddrSpace(t *testing.T) {
	m := ir.NewModule()
	g := m.NewGlobalDef("g", constant.NewInt(types.I64, 1))
	SetAddrSpace(g, 4)

	used := AppendToUsed(m, g)
	arr, ok := used.Init.(*constant.Array)
	if !ok || len(arr.Elems) != 1 {
		t.Fatalf("llvm.used initializer = %v, want 1-element array", used.Init)
	}
	// A plain bitcast between pointers of different address spaces is
	// ill-typed; the entry must be an addrspacecast.
	if _, ok := arr.Elems[0].(*constant.ExprAddrSpaceCast); !ok {
		t.Errorf("llvm.used entry = %T, want addrspacecast", arr.Elems[0])
	}
}

func TestVerify(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("f", types.Void)
	blk := f.NewBlock("entry")

	if err := Verify(m); err == nil {
		t.Error("Verify accepted a block without a terminator")
	}

	blk.NewRet(nil)
	if err := Verify(m); err != nil {
		t.Errorf("Verify rejected a valid module: %v", err)
	}

	g := m.NewGlobalDef("g", constant.NewInt(types.I64, 1))
	g.ContentType = types.I32
	if err := Verify(m); err == nil {
		t.Error("Verify accepted a global with a mismatched initializer type")
	}
}
