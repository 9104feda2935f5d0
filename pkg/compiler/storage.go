package compiler

// Per-function emission state and stack-slot allocation (spec.md §4.7):
// every fixed-size local lives in one alloca in the function's entry
// block; a local whose type carries a variable array extent (a VLA) is
// allocated where its declaration executes, with a save/restore pair
// around the scope that introduced it so the stack is released on every
// path out of that scope, loop iteration included — the fallthrough exit
// and every break/continue/return that jumps past the scope alike (see
// restoreVLAsAbove in irgen_stmt.go's callers).

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// slot is one local or parameter's storage: ptr always points at an object
// of CType typ (for a non-VLA, ptr is exactly a llvmType(typ)*; for a VLA,
// ptr is already "decayed" to its element type since the dynamic alloca
// itself has no static array type to point into).
type slot struct {
	ptr value.Value
	typ CType
}

// loopTargets is the break/continue destination pair for one enclosing
// loop, pushed by pushLoop (from emitWhile, emitDoWhile and emitFor) and
// popped by popLoop on the way out. vlaFloor is
// the depth of fb.vlas at the point the loop was entered, i.e. before the
// loop body's own VLA scope (if any) pushed its mark: a break or continue
// inside the body restores every mark at or above this floor, never one
// belonging to a scope the loop itself is nested in.
type loopTargets struct {
	continueTarget *ir.Block
	breakTarget    *ir.Block
	vlaFloor       int
}

// vlaMark records the llvm.stacksave result taken when a scope owning at
// least one VLA was entered, restored once when that scope exits (spec.md
// §4.7: "one save/restore pair per scope, shared by every VLA it declares")
// — whether it exits by falling off its end or by a break/continue/return
// that jumps out of it early.
type vlaMark struct {
	saved value.Value
}

// funcBuilder is the mutable state threaded through one function's
// emission: the block currently being appended to (cur), the slots table,
// and the loop/VLA stacks emitStmt pushes and pops as it recurses.
type funcBuilder struct {
	e     *emitter
	fn    *ir.Func
	entry *ir.Block
	cur   *ir.Block

	slots    map[*Decl]*slot
	literals map[*CompoundLiteralExpr]value.Value

	labelSeq map[string]int
	ssaSeq   int

	loops []loopTargets
	vlas  []vlaMark
}

// allocLocal reserves storage for a parameter or a non-VLA local in the
// function's entry block, per the "every fixed-size local is allocated in
// the entry block" invariant — not in fb.cur, which by the time a nested
// declaration runs may be several blocks downstream of entry.
func (fb *funcBuilder) allocLocal(d *Decl) {
	inst := fb.entry.NewAlloca(llvmType(d.Type))
	fb.named(inst)
	fb.slots[d] = &slot{ptr: inst, typ: d.Type}
}

// allocVLA reserves storage for a local whose type carries a variable
// array extent: a dynamic alloca of the element type, sized by the
// (already-lowered, already-evaluated) runtime extent expression. Emitted
// at fb.cur, i.e. where control actually reaches the declaration, not in
// the entry block — the whole point of a VLA is that its size isn't known
// there.
func (fb *funcBuilder) allocVLA(d *Decl, cur *ir.Block) (*ir.Block, *CompileError) {
	count, cur, err := fb.vlaElementCount(d.Type, cur)
	if err != nil {
		return cur, err
	}
	elem := vlaElementType(d.Type)
	inst := cur.NewAlloca(llvmType(elem))
	inst.NElems = count
	fb.named(inst)
	fb.slots[d] = &slot{ptr: inst, typ: d.Type}
	return cur, nil
}

// vlaElementType walks past every array dimension (fixed or variable) to
// the ultimate scalar/struct element type: storage.go's one supported VLA
// shape is a single dynamic alloca of that element type sized by the
// product of every dimension (spec.md §9 open-question resolution: at most
// the outermost dimension varies in the worked examples this module
// targets; see DESIGN.md).
func vlaElementType(t CType) CType {
	for t.Kind == KArray {
		t = *t.Elem
	}
	return t
}

// vlaElementCount computes the total element count (product of every
// dimension, each one either a constant or the lowered runtime expression)
// as an i64 value.
func (fb *funcBuilder) vlaElementCount(t CType, cur *ir.Block) (value.Value, *ir.Block, *CompileError) {
	var total value.Value = constant.NewInt(types.I64, 1)
	for t.Kind == KArray {
		var dim value.Value
		if t.Extent.Kind == ExtentFixed {
			dim = constant.NewInt(types.I64, int64(t.Extent.Fixed))
		} else {
			v, c, err := fb.emitValue(t.Extent.VarExpr, cur)
			if err != nil {
				return nil, cur, err
			}
			cur = c
			dim = fb.toI64(cur, v, exprType(t.Extent.VarExpr))
		}
		total = cur.NewMul(total, dim)
		fb.named(total.(*ir.InstMul))
		t = *t.Elem
	}
	return total, cur, nil
}

// pushLoop/popLoop bracket one loop body's lifetime; emitStmt consults the
// top of the stack for break/continue targets and the VLA floor a
// break/continue inside the body must restore down to.
func (fb *funcBuilder) pushLoop(cont, brk *ir.Block) {
	fb.loops = append(fb.loops, loopTargets{cont, brk, len(fb.vlas)})
}
func (fb *funcBuilder) popLoop() { fb.loops = fb.loops[:len(fb.loops)-1] }
func (fb *funcBuilder) currentLoop() (loopTargets, bool) {
	if len(fb.loops) == 0 {
		return loopTargets{}, false
	}
	return fb.loops[len(fb.loops)-1], true
}

// restoreVLAsAbove emits llvm.stackrestore for every VLA scope currently
// open at or above floor, innermost first. A break or continue that jumps
// out of one or more VLA-owning scopes calls this with that loop's
// vlaFloor; a return calls it with floor 0 to unwind every scope the
// function still has open. The scope's own emitCompoundStmt still pops
// fb.vlas as it unwinds afterward, but skips re-issuing the restore once
// cur already has a terminator.
func (fb *funcBuilder) restoreVLAsAbove(cur *ir.Block, floor int) {
	for i := len(fb.vlas) - 1; i >= floor; i-- {
		cur.NewCall(fb.e.stackrestoreFunc(), fb.vlas[i].saved)
	}
}

// stacksaveFunc / stackrestoreFunc lazily declare the two llvm intrinsics a
// VLA's save/restore discipline needs, cached on the emitter like any other
// cross-function declaration.
func (e *emitter) stacksaveFunc() *ir.Func {
	if e.stacksave == nil {
		e.stacksave = e.module.NewFunc("llvm.stacksave", types.NewPointer(types.I8))
	}
	return e.stacksave
}

func (e *emitter) stackrestoreFunc() *ir.Func {
	if e.stackrestore == nil {
		e.stackrestore = e.module.NewFunc("llvm.stackrestore", types.Void, ir.NewParam("", types.NewPointer(types.I8)))
	}
	return e.stackrestore
}

// scopeDeclaresVLA reports whether any block-item directly in items
// declares a VLA, without looking inside nested compound statements (each
// of those owns its own save/restore pair when its own turn to emit comes).
func scopeDeclaresVLA(items []Stmt) bool {
	for _, it := range items {
		if ds, ok := it.(*DeclStmt); ok && isVLAType(ds.Decl.Type) {
			return true
		}
	}
	return false
}

func isVLAType(t CType) bool {
	for t.Kind == KArray {
		if t.Extent.Kind == ExtentVariable {
			return true
		}
		t = *t.Elem
	}
	return false
}
