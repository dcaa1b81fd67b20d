package lower

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/nvtools/ptxlower/internal/modutil"
	"github.com/nvtools/ptxlower/internal/nvptx"
)

// newKernelFunc creates the device init or fini entry point: a void->void
// weak_odr ptx_kernel function with single-thread launch bounds. It returns
// nil if a function of that name already exists, so entry points are created
// at most once per module.
func newKernelFunc(m *ir.Module, isCtor bool) *ir.Func {
	name := nvptx.DeviceFini
	if isCtor {
		name = nvptx.DeviceInit
	}
	if modutil.Func(m, name) != nil {
		return nil
	}
	f := m.NewFunc(name, types.Void)
	f.Linkage = enum.LinkageWeakODR
	nvptx.MarkKernel(f)
	return f
}

// synthesizeWalk fills f with the loop that walks the boundary-delimited
// slot run and invokes each callback. It builds the equivalent of:
//
//	void nvptx$device$init() {
//	    for (auto p = __init_array_start; p != __init_array_end; ++p)
//	        ((void (*)())*p)();
//	}
//
//	void nvptx$device$fini() {
//	    size_t n = __fini_array_end - __fini_array_start;
//	    for (size_t i = n; i > 0; --i)
//	        ((void (*)())__fini_array_start[i - 1])();
//	}
//
// Destructors run in reverse registration order: the highest slot is visited
// first and the slot adjacent to start last.
func synthesizeWalk(m *ir.Module, f *ir.Func, isCtor bool) {
	entry := f.NewBlock("entry")
	loop := f.NewBlock("while.entry")
	exit := f.NewBlock("while.end")

	startGV, endGV := arrayBounds(m, isCtor)
	slotTy := callbackPtrType()       // callback pointer held in each slot
	runTy := types.NewPointer(slotTy) // pointer into the slot run

	begin := entry.NewLoad(runTy, startGV)
	begin.SetName("begin")
	stop := entry.NewLoad(runTy, endGV)
	stop.SetName("stop")

	var beginVal, stopVal value.Value = begin, stop
	if !isCtor {
		// Point begin at the last slot and stop at the original start, so
		// the loop below walks the run backward. Slots are pointer-sized,
		// hence the shift by 3 instead of a divide.
		beginInt := entry.NewPtrToInt(beginVal, types.I64)
		endInt := entry.NewPtrToInt(stopVal, types.I64)
		size := entry.NewSub(endInt, beginInt)
		offset := entry.NewAShr(size, constant.NewInt(types.I64, 3))
		offset.Exact = true
		offset.SetName("offset")
		pastEnd := entry.NewGetElementPtr(slotTy, beginVal, offset)
		last := entry.NewGetElementPtr(slotTy, pastEnd, constant.NewInt(types.I64, -1))
		last.InBounds = true
		last.SetName("start")
		stopVal = beginVal
		beginVal = last
	}

	// Skip the loop entirely for an empty run.
	enterPred := enum.IPredNE
	if !isCtor {
		enterPred = enum.IPredUGT
	}
	entry.NewCondBr(entry.NewICmp(enterPred, beginVal, stopVal), loop, exit)

	ptr := loop.NewPhi(ir.NewIncoming(beginVal, entry))
	ptr.SetName("ptr")
	callback := loop.NewLoad(slotTy, ptr)
	callback.SetName("callback")
	loop.NewCall(callback)

	step := int64(1)
	if !isCtor {
		step = -1
	}
	next := loop.NewGetElementPtr(slotTy, ptr, constant.NewInt(types.I64, step))
	next.SetName("next")
	ptr.Incs = append(ptr.Incs, ir.NewIncoming(next, loop))

	donePred := enum.IPredEQ
	if !isCtor {
		donePred = enum.IPredULT
	}
	done := loop.NewICmp(donePred, next, stopVal)
	done.SetName("end")
	loop.NewCondBr(done, exit, loop)

	exit.NewRet(nil)
}
