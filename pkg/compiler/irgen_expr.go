package compiler

// Expression emission (spec.md §4.4): every typed Expr node lowers to a
// github.com/llir/llvm value plus (for control-flow-bearing nodes: &&, ||,
// ?:) the block execution continues in afterward, following the threaded-
// current-block style _examples/other_examples/epos-lang-epos__codegen.go
// uses throughout its genExpr.

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// tokenToLit is literalOpToken (lower_expr.go) inverted, so the emitter can
// recover the symbolic operator a snippet name needs from a BinaryExpr/
// UnaryExpr/IncDecExpr's Op field.
var tokenToLit = func() map[TokenType]string {
	m := make(map[TokenType]string, len(literalOpToken))
	for lit, tok := range literalOpToken {
		m[tok] = lit
	}
	return m
}()

func isBitwiseOp(tt TokenType) bool {
	switch tt {
	case AND, PIPE, CARET, SHL, SHR:
		return true
	}
	return false
}

func isRelationalOp(tt TokenType) bool {
	switch tt {
	case EQUALS, NOT_EQ, LESS, GREATER, LESS_EQ, GREATER_EQ:
		return true
	}
	return false
}

// compoundOpBase maps a compound-assignment token back to its base
// operator and whether that operator belongs to the bitwise snippet family.
func compoundOpBase(tt TokenType) (string, bool) {
	switch tt {
	case PLUS_ASSIGN:
		return "+", false
	case MINUS_ASSIGN:
		return "-", false
	case STAR_ASSIGN:
		return "*", false
	case SLASH_ASSIGN:
		return "/", false
	case PERCENT_ASSIGN:
		return "%", false
	case SHL_ASSIGN:
		return "<<", true
	case SHR_ASSIGN:
		return ">>", true
	case AND_ASSIGN:
		return "&", true
	case CARET_ASSIGN:
		return "^", true
	case PIPE_ASSIGN:
		return "|", true
	}
	panic("compoundOpBase: not a compound-assignment token")
}

func i32c(n int64) *constant.Int { return constant.NewInt(types.I32, n) }

func llvmIntConst(t CType, v uint64) value.Value {
	if t.Kind == KBool {
		return constant.NewBool(v != 0)
	}
	return constant.NewInt(llvmType(t).(*types.IntType), int64(v))
}

func llvmFloatConst(t CType, v float64) value.Value {
	return constant.NewFloat(llvmType(t).(*types.FloatType), v)
}

// maybeConvert converts v (of type src) to dst via the "cnv__dst__src"
// snippet, skipping the call entirely when the two types already coincide.
func (fb *funcBuilder) maybeConvert(cur *ir.Block, dst, src CType, v value.Value) value.Value {
	if dst.Equal(src) {
		return v
	}
	f := fb.e.snippets.conversion(fb.e.module, dst, src)
	call := cur.NewCall(f, v)
	fb.named(call)
	return call
}

// toBool converts v (of type ty) to the i1 every branch condition needs,
// via the "cnv___Bool__ty" snippet — a genuine call, not an inline compare,
// so the control-flow truth test shares the snippet-catalogue discipline
// every other conversion does.
func (fb *funcBuilder) toBool(cur *ir.Block, v value.Value, ty CType) value.Value {
	if ty.Kind == KBool {
		return v
	}
	f := fb.e.snippets.boolTest(fb.e.module, ty)
	call := cur.NewCall(f, v)
	fb.named(call)
	return call
}

// toI64 widens/narrows an already-integer value to the i64 every array
// index and VLA element count is computed in.
func (fb *funcBuilder) toI64(cur *ir.Block, v value.Value, ty CType) value.Value {
	if ty.Kind == KBool {
		ext := cur.NewZExt(v, types.I64)
		fb.named(ext)
		return ext
	}
	switch {
	case typeBytes(ty) > 8:
		trunc := cur.NewTrunc(v, types.I64)
		fb.named(trunc)
		return trunc
	case typeBytes(ty) == 8:
		return v
	case ty.Unsigned:
		ext := cur.NewZExt(v, types.I64)
		fb.named(ext)
		return ext
	default:
		ext := cur.NewSExt(v, types.I64)
		fb.named(ext)
		return ext
	}
}

// emitValue evaluates e to an rvalue, returning the block execution
// continues in (only &&, ||, and ?: ever change it).
func (fb *funcBuilder) emitValue(e Expr, cur *ir.Block) (value.Value, *ir.Block, *CompileError) {
	switch x := e.(type) {
	case *IntLiteral:
		return llvmIntConst(x.Type, x.Value), cur, nil
	case *FloatLiteral:
		return llvmFloatConst(x.Type, x.Value), cur, nil
	case *Ident:
		sd := fb.slots[x.Decl]
		if sd.typ.Kind == KArray {
			// Array-to-pointer decay: the object itself *is* the value a
			// bare array reference decays to (§3 invariant; real pointer
			// arithmetic beyond this is a declared non-goal).
			return sd.ptr, cur, nil
		}
		load := cur.NewLoad(llvmType(sd.typ), sd.ptr)
		fb.named(load)
		return load, cur, nil
	case *IndexExpr, *MemberExpr, *CompoundLiteralExpr:
		addr, ty, cur2, err := fb.emitAddress(e, cur)
		if err != nil {
			return nil, cur2, err
		}
		if ty.Kind == KArray {
			return addr, cur2, nil
		}
		load := cur2.NewLoad(llvmType(ty), addr)
		fb.named(load)
		return load, cur2, nil
	case *IncDecExpr:
		return fb.emitIncDec(x, cur)
	case *UnaryExpr:
		return fb.emitUnary(x, cur)
	case *CastExpr:
		v, cur2, err := fb.emitValue(x.Operand, cur)
		if err != nil {
			return nil, cur2, err
		}
		return fb.maybeConvert(cur2, x.Type, exprType(x.Operand), v), cur2, nil
	case *BinaryExpr:
		return fb.emitBinary(x, cur)
	case *LogicalExpr:
		return fb.emitLogical(x, cur)
	case *CondExpr:
		return fb.emitCond(x, cur)
	case *AssignExpr:
		return fb.emitAssign(x, cur)
	case *CommaExpr:
		_, cur2, err := fb.emitValue(x.Left, cur)
		if err != nil {
			return nil, cur2, err
		}
		return fb.emitValue(x.Right, cur2)
	case *CallExpr:
		return fb.emitCall(x, cur)
	}
	return nil, cur, errf(KindBackendError, 0, "emitValue: unhandled node %T", e)
}

func (fb *funcBuilder) emitUnary(x *UnaryExpr, cur *ir.Block) (value.Value, *ir.Block, *CompileError) {
	v, cur, err := fb.emitValue(x.Operand, cur)
	if err != nil {
		return nil, cur, err
	}
	ot := exprType(x.Operand)
	switch x.Op {
	case PLUS:
		return fb.maybeConvert(cur, x.Type, ot, v), cur, nil
	case MINUS:
		v = fb.maybeConvert(cur, x.Type, ot, v)
		if x.Type.Kind == KFloat {
			zero := llvmFloatConst(x.Type, 0)
			f := fb.e.snippets.binArith(fb.e.module, "-", x.Type)
			call := cur.NewCall(f, zero, v)
			fb.named(call)
			return call, cur, nil
		}
		zero := llvmIntConst(x.Type, 0)
		f := fb.e.snippets.binArith(fb.e.module, "-", x.Type)
		call := cur.NewCall(f, zero, v)
		fb.named(call)
		return call, cur, nil
	case TILDE:
		v = fb.maybeConvert(cur, x.Type, ot, v)
		f := fb.e.snippets.bitwise(fb.e.module, "^", x.Type)
		call := cur.NewCall(f, v, llvmIntConst(x.Type, ^uint64(0)))
		fb.named(call)
		return call, cur, nil
	case NOT:
		b := fb.toBool(cur, v, ot)
		notB := cur.NewXor(b, constant.NewBool(true))
		fb.named(notB)
		z := cur.NewZExt(notB, types.I32)
		fb.named(z)
		return z, cur, nil
	}
	return nil, cur, errf(KindBackendError, 0, "emitUnary: unhandled operator %v", x.Op)
}

func (fb *funcBuilder) emitIncDec(x *IncDecExpr, cur *ir.Block) (value.Value, *ir.Block, *CompileError) {
	addr, ty, cur, err := fb.emitAddress(x.Operand, cur)
	if err != nil {
		return nil, cur, err
	}
	old := cur.NewLoad(llvmType(ty), addr)
	fb.named(old)
	var one value.Value
	if ty.Kind == KFloat {
		one = llvmFloatConst(ty, 1)
	} else {
		one = llvmIntConst(ty, 1)
	}
	op := "+"
	if x.Op == MINUS_MINUS {
		op = "-"
	}
	f := fb.e.snippets.binArith(fb.e.module, op, ty)
	next := cur.NewCall(f, old, one)
	fb.named(next)
	cur.NewStore(next, addr)
	if x.Prefix {
		return next, cur, nil
	}
	return old, cur, nil
}

func (fb *funcBuilder) emitBinary(x *BinaryExpr, cur *ir.Block) (value.Value, *ir.Block, *CompileError) {
	lv, cur, err := fb.emitValue(x.Left, cur)
	if err != nil {
		return nil, cur, err
	}
	rv, cur, err := fb.emitValue(x.Right, cur)
	if err != nil {
		return nil, cur, err
	}
	lv = fb.maybeConvert(cur, x.OperandType, exprType(x.Left), lv)
	rv = fb.maybeConvert(cur, x.OperandType, exprType(x.Right), rv)

	opLit := tokenToLit[x.Op]
	var f *ir.Func
	switch {
	case isBitwiseOp(x.Op):
		f = fb.e.snippets.bitwise(fb.e.module, opLit, x.OperandType)
	case isRelationalOp(x.Op):
		f = fb.e.snippets.relational(fb.e.module, opLit, x.OperandType)
	default:
		f = fb.e.snippets.binArith(fb.e.module, opLit, x.OperandType)
	}
	call := cur.NewCall(f, lv, rv)
	fb.named(call)
	return call, cur, nil
}

// emitLogical lowers && / || to the short-circuit control flow spec.md
// §4.4 requires, storing the truth value into a fresh i1 slot rather than
// building a phi — matching the "storing to a fresh slot" wording directly
// rather than the phi-based alternative
// _examples/other_examples/epos-lang-epos__codegen.go uses for its own
// merges.
func (fb *funcBuilder) emitLogical(x *LogicalExpr, cur *ir.Block) (value.Value, *ir.Block, *CompileError) {
	resultSlot := fb.entry.NewAlloca(types.I1)
	fb.named(resultSlot)

	lv, cur, err := fb.emitValue(x.Left, cur)
	if err != nil {
		return nil, cur, err
	}
	lb := fb.toBool(cur, lv, exprType(x.Left))

	var rhsLabel, endLabel string
	if x.Op == AND_LOGICAL {
		rhsLabel, endLabel = "land.rhs", "land.end"
	} else {
		rhsLabel, endLabel = "lor.rhs", "lor.end"
	}
	rhsBB := fb.fn.NewBlock(fb.label(rhsLabel))
	endBB := fb.fn.NewBlock(fb.label(endLabel))

	if x.Op == AND_LOGICAL {
		cur.NewStore(constant.NewBool(false), resultSlot)
		cur.NewCondBr(lb, rhsBB, endBB)
	} else {
		cur.NewStore(constant.NewBool(true), resultSlot)
		cur.NewCondBr(lb, endBB, rhsBB)
	}

	rv, rhsEnd, err := fb.emitValue(x.Right, rhsBB)
	if err != nil {
		return nil, rhsEnd, err
	}
	rb := fb.toBool(rhsEnd, rv, exprType(x.Right))
	if rhsEnd.Term == nil {
		rhsEnd.NewStore(rb, resultSlot)
		rhsEnd.NewBr(endBB)
	}

	load := endBB.NewLoad(types.I1, resultSlot)
	fb.named(load)
	z := endBB.NewZExt(load, types.I32)
	fb.named(z)
	return z, endBB, nil
}

// emitCond lowers ?: the same way: each arm stores its (converted) value
// into a fresh slot of the expression's result type, and both arms
// rejoin at one merge block.
func (fb *funcBuilder) emitCond(x *CondExpr, cur *ir.Block) (value.Value, *ir.Block, *CompileError) {
	cv, cur, err := fb.emitValue(x.Cond, cur)
	if err != nil {
		return nil, cur, err
	}
	cb := fb.toBool(cur, cv, exprType(x.Cond))

	resultLL := llvmType(x.Type)
	slot := fb.entry.NewAlloca(resultLL)
	fb.named(slot)

	thenBB := fb.fn.NewBlock(fb.label("cond.true"))
	elseBB := fb.fn.NewBlock(fb.label("cond.false"))
	endBB := fb.fn.NewBlock(fb.label("cond.end"))
	cur.NewCondBr(cb, thenBB, elseBB)

	tv, thenEnd, err := fb.emitValue(x.Then, thenBB)
	if err != nil {
		return nil, thenEnd, err
	}
	if thenEnd.Term == nil {
		thenEnd.NewStore(fb.maybeConvert(thenEnd, x.Type, exprType(x.Then), tv), slot)
		thenEnd.NewBr(endBB)
	}

	ev, elseEnd, err := fb.emitValue(x.Else, elseBB)
	if err != nil {
		return nil, elseEnd, err
	}
	if elseEnd.Term == nil {
		elseEnd.NewStore(fb.maybeConvert(elseEnd, x.Type, exprType(x.Else), ev), slot)
		elseEnd.NewBr(endBB)
	}

	load := endBB.NewLoad(resultLL, slot)
	fb.named(load)
	return load, endBB, nil
}

func (fb *funcBuilder) emitAssign(x *AssignExpr, cur *ir.Block) (value.Value, *ir.Block, *CompileError) {
	addr, lt, cur, err := fb.emitAddress(x.Left, cur)
	if err != nil {
		return nil, cur, err
	}
	if x.Op == ASSIGN {
		rv, cur, err := fb.emitValue(x.Right, cur)
		if err != nil {
			return nil, cur, err
		}
		cur.NewStore(rv, addr)
		return rv, cur, nil
	}

	baseOp, bitwise := compoundOpBase(x.Op)
	old := cur.NewLoad(llvmType(lt), addr)
	fb.named(old)
	rv, cur, err := fb.emitValue(x.Right, cur)
	if err != nil {
		return nil, cur, err
	}
	rt := exprType(x.Right)
	common := usualArithmetic(lt, rt)
	oldC := fb.maybeConvert(cur, common, lt, old)
	rvC := fb.maybeConvert(cur, common, rt, rv)

	var f *ir.Func
	if bitwise {
		f = fb.e.snippets.bitwise(fb.e.module, baseOp, common)
	} else {
		f = fb.e.snippets.binArith(fb.e.module, baseOp, common)
	}
	call := cur.NewCall(f, oldC, rvC)
	fb.named(call)
	result := fb.maybeConvert(cur, lt, common, call)
	cur.NewStore(result, addr)
	return result, cur, nil
}

func (fb *funcBuilder) emitCall(x *CallExpr, cur *ir.Block) (value.Value, *ir.Block, *CompileError) {
	args := make([]value.Value, len(x.Args))
	for i, a := range x.Args {
		v, c, err := fb.emitValue(a, cur)
		if err != nil {
			return nil, c, err
		}
		cur = c
		args[i] = v
	}
	f := fb.e.funcs[x.Callee]
	call := cur.NewCall(f, args...)
	if x.Type.Kind != KVoid {
		fb.named(call)
	}
	return call, cur, nil
}

// emitAddress evaluates e's address: its ExprInfo.Category must be LValue
// (Ident, IndexExpr, MemberExpr, CompoundLiteralExpr — the only node kinds
// lowering ever marks LValue).
func (fb *funcBuilder) emitAddress(e Expr, cur *ir.Block) (value.Value, CType, *ir.Block, *CompileError) {
	switch x := e.(type) {
	case *Ident:
		sd := fb.slots[x.Decl]
		return sd.ptr, sd.typ, cur, nil
	case *IndexExpr:
		return fb.emitIndexAddress(x, cur)
	case *MemberExpr:
		return fb.emitMemberAddress(x, cur)
	case *CompoundLiteralExpr:
		ptr, cur, err := fb.emitCompoundLiteral(x, cur)
		return ptr, x.Type, cur, err
	}
	return nil, CType{}, cur, errf(KindBackendError, 0, "emitAddress: %T is not an lvalue", e)
}

func (fb *funcBuilder) emitIndexAddress(x *IndexExpr, cur *ir.Block) (value.Value, CType, *ir.Block, *CompileError) {
	arrTy := exprType(x.Array)
	switch arrTy.Kind {
	case KArray:
		addr, aty, cur, err := fb.emitAddress(x.Array, cur)
		if err != nil {
			return nil, CType{}, cur, err
		}
		idxV, cur, err := fb.emitValue(x.Index, cur)
		if err != nil {
			return nil, CType{}, cur, err
		}
		idx := fb.toI64(cur, idxV, exprType(x.Index))
		elemTy := *aty.Elem
		var gep *ir.InstGetElementPtr
		if aty.Extent.Kind == ExtentVariable {
			gep = cur.NewGetElementPtr(llvmType(elemTy), addr, idx)
		} else {
			gep = cur.NewGetElementPtr(llvmType(aty), addr, i32c(0), idx)
		}
		gep.InBounds = true
		fb.named(gep)
		return gep, elemTy, cur, nil
	case KPointer:
		ptrV, cur, err := fb.emitValue(x.Array, cur)
		if err != nil {
			return nil, CType{}, cur, err
		}
		idxV, cur, err := fb.emitValue(x.Index, cur)
		if err != nil {
			return nil, CType{}, cur, err
		}
		idx := fb.toI64(cur, idxV, exprType(x.Index))
		elemTy := *arrTy.Elem
		gep := cur.NewGetElementPtr(llvmType(elemTy), ptrV, idx)
		gep.InBounds = true
		fb.named(gep)
		return gep, elemTy, cur, nil
	}
	return nil, CType{}, cur, errf(KindBackendError, 0, "emitIndexAddress: base is neither array nor pointer")
}

func (fb *funcBuilder) emitMemberAddress(x *MemberExpr, cur *ir.Block) (value.Value, CType, *ir.Block, *CompileError) {
	var baseAddr value.Value
	var structTy CType
	var err *CompileError
	if x.Arrow {
		baseAddr, cur, err = fb.emitValue(x.Base, cur)
		if err != nil {
			return nil, CType{}, cur, err
		}
		structTy = *exprType(x.Base).Elem
	} else {
		baseAddr, structTy, cur, err = fb.emitAddress(x.Base, cur)
		if err != nil {
			return nil, CType{}, cur, err
		}
	}
	idx := fieldIndex(structTy.Struct, x.Member)
	f, _ := structTy.Struct.field(x.Member)
	gep := cur.NewGetElementPtr(llvmType(structTy), baseAddr, i32c(0), i32c(int64(idx)))
	fb.named(gep)
	return gep, f.Type, cur, nil
}

func fieldIndex(s *StructType, name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// emitCompoundLiteral lowers (T){ ... }: one entry-block alloca per
// syntactic occurrence (its storage has automatic duration scoped to the
// enclosing block just like a named local, spec.md §4.4), populated at the
// point the literal is evaluated.
func (fb *funcBuilder) emitCompoundLiteral(x *CompoundLiteralExpr, cur *ir.Block) (value.Value, *ir.Block, *CompileError) {
	ptr, ok := fb.literals[x]
	if !ok {
		inst := fb.entry.NewAlloca(llvmType(x.Type))
		fb.named(inst)
		ptr = inst
		if fb.literals == nil {
			fb.literals = make(map[*CompoundLiteralExpr]value.Value)
		}
		fb.literals[x] = ptr
	}

	t := x.Type
	for i, el := range x.Elements {
		v, c, err := fb.emitValue(el, cur)
		if err != nil {
			return nil, c, err
		}
		cur = c
		var elemTy CType
		if t.Kind == KStruct {
			elemTy = t.Struct.Fields[i].Type
		} else {
			elemTy = *t.Elem
		}
		gep := cur.NewGetElementPtr(llvmType(t), ptr, i32c(0), i32c(int64(i)))
		fb.named(gep)
		cur.NewStore(fb.maybeConvert(cur, elemTy, exprType(el), v), gep)
	}
	return ptr, cur, nil
}
