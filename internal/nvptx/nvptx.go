// Package nvptx defines the NVPTX target ABI constants shared by the lowering passes.
package nvptx

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// Address spaces (must match the NVPTX target description)
const (
	AddrSpaceGeneric types.AddrSpace = 0
	AddrSpaceGlobal  types.AddrSpace = 1
	AddrSpaceShared  types.AddrSpace = 3
	AddrSpaceConst   types.AddrSpace = 4
	AddrSpaceLocal   types.AddrSpace = 5
)

// Module-level metadata arrays consumed by the ctor/dtor lowering
const (
	GlobalCtors = "llvm.global_ctors"
	GlobalDtors = "llvm.global_dtors"
)

// Boundary symbols the device runtime populates at load time
const (
	InitArrayStart = "__init_array_start"
	InitArrayEnd   = "__init_array_end"
	FiniArrayStart = "__fini_array_start"
	FiniArrayEnd   = "__fini_array_end"
)

// Device-side entry points invoked by the loader
const (
	DeviceInit = "nvptx$device$init"
	DeviceFini = "nvptx$device$fini"
)

// Launch-bound attributes pinning a kernel to a single thread
const (
	AttrMaxClusterRank = "nvvm.maxclusterrank"
	AttrMaxNTID        = "nvvm.maxntid"
)

// KernelAttrs returns the function attributes every synthesized device
// kernel carries: launch bounds restricted to one thread in one cluster,
// so the kernel body runs exactly once however the loader configures the
// launch grid.
func KernelAttrs() []ir.FuncAttribute {
	return []ir.FuncAttribute{
		ir.AttrPair{Key: AttrMaxClusterRank, Value: "1"},
		ir.AttrPair{Key: AttrMaxNTID, Value: "1"},
	}
}

// MarkKernel gives f the calling convention and launch-bound attributes of
// a device entry point.
func MarkKernel(f *ir.Func) {
	f.FuncAttrs = append(f.FuncAttrs, KernelAttrs()...)
	f.CallingConv = enum.CallingConvPTXKernel
}

// IsKernel reports whether f is a device entry point.
func IsKernel(f *ir.Func) bool {
	return f.CallingConv == enum.CallingConvPTXKernel
}
