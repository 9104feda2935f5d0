package compiler

// Pre-generated IR snippets (spec.md §4.8): every arithmetic, relational,
// bitwise, and conversion operation the emitter needs is a call to a small
// function named "<op>__<result>__<arg1>__<arg2>...". Building each
// snippet's body is grounded on the same github.com/llir/llvm instruction
// constructors the rest of the emitter uses (irgen_expr.go, irgen_stmt.go),
// just applied to two bare parameters instead of operands pulled out of an
// AST. A snippet is built into a target *ir.Module the first time it is
// referenced and cached there under its name, so repeated uses of
// "add__int__int__int" across a translation unit link to the same function
// instead of redefining it.
//
// dso_local is elided: every snippet lives in the single module a JIT
// session compiles, so there is nothing external for it to bind against.

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// snippetName builds the §4.8 naming scheme.
func snippetName(op string, result CType, operands ...CType) string {
	name := op + "__" + result.mangled()
	for _, o := range operands {
		name += "__" + o.mangled()
	}
	return name
}

// snippets caches the *ir.Func already built into m, keyed by name, so a
// repeated reference links to the one definition.
type snippets struct {
	byName map[string]*ir.Func
}

func newSnippets() *snippets { return &snippets{byName: make(map[string]*ir.Func)} }

func (s *snippets) get(m *ir.Module, name string, build func(m *ir.Module, name string) *ir.Func) *ir.Func {
	if f, ok := s.byName[name]; ok {
		return f
	}
	f := build(m, name)
	s.byName[name] = f
	return f
}

// binArith returns the snippet for one of +, -, *, /, % applied to two
// operands already converted to the common type t (buildBinary in
// lower_expr.go never calls a snippet across mismatched operand types).
func (s *snippets) binArith(m *ir.Module, op string, t CType) *ir.Func {
	name := snippetName(arithOpName(op, t), t, t, t)
	return s.get(m, name, func(m *ir.Module, name string) *ir.Func {
		lt := llvmType(t)
		a, b := ir.NewParam("a", lt), ir.NewParam("b", lt)
		f := m.NewFunc(name, lt, a, b)
		bb := f.NewBlock("entry")
		bb.NewRet(arithInst(bb, op, t, a, b))
		return f
	})
}

func arithOpName(op string, t CType) string {
	switch op {
	case "+":
		return "add"
	case "-":
		return "sub"
	case "*":
		return "mul"
	case "/":
		if t.Kind == KFloat {
			return "fdiv"
		}
		if t.Unsigned {
			return "udiv"
		}
		return "sdiv"
	case "%":
		if t.Unsigned {
			return "urem"
		}
		return "srem"
	}
	panic("arithOpName: unknown operator " + op)
}

func arithInst(bb *ir.Block, op string, t CType, a, b value.Value) value.Value {
	isFloat := t.Kind == KFloat
	switch op {
	case "+":
		if isFloat {
			return bb.NewFAdd(a, b)
		}
		return bb.NewAdd(a, b)
	case "-":
		if isFloat {
			return bb.NewFSub(a, b)
		}
		return bb.NewSub(a, b)
	case "*":
		if isFloat {
			return bb.NewFMul(a, b)
		}
		return bb.NewMul(a, b)
	case "/":
		if isFloat {
			return bb.NewFDiv(a, b)
		}
		if t.Unsigned {
			return bb.NewUDiv(a, b)
		}
		return bb.NewSDiv(a, b)
	case "%":
		if t.Unsigned {
			return bb.NewURem(a, b)
		}
		return bb.NewSRem(a, b)
	}
	panic("arithInst: unknown operator " + op)
}

// bitwise returns the snippet for &, |, ^, <<, >> over an integer type t.
func (s *snippets) bitwise(m *ir.Module, op string, t CType) *ir.Func {
	name := snippetName(bitwiseOpName(op, t), t, t, t)
	return s.get(m, name, func(m *ir.Module, name string) *ir.Func {
		lt := llvmType(t)
		a, b := ir.NewParam("a", lt), ir.NewParam("b", lt)
		f := m.NewFunc(name, lt, a, b)
		bb := f.NewBlock("entry")
		var r value.Value
		switch op {
		case "&":
			r = bb.NewAnd(a, b)
		case "|":
			r = bb.NewOr(a, b)
		case "^":
			r = bb.NewXor(a, b)
		case "<<":
			r = bb.NewShl(a, b)
		case ">>":
			if t.Unsigned {
				r = bb.NewLShr(a, b)
			} else {
				r = bb.NewAShr(a, b)
			}
		}
		bb.NewRet(r)
		return f
	})
}

func bitwiseOpName(op string, t CType) string {
	switch op {
	case "&":
		return "and"
	case "|":
		return "or"
	case "^":
		return "xor"
	case "<<":
		return "shl"
	case ">>":
		if t.Unsigned {
			return "lshr"
		}
		return "ashr"
	}
	panic("bitwiseOpName: unknown operator " + op)
}

// relational returns the snippet for ==, !=, <, >, <=, >=, always returning
// int (0 or 1; spec.md §4.4 — relational/equality results are int even
// though the operands compared are the common post-conversion type t).
func (s *snippets) relational(m *ir.Module, op string, t CType) *ir.Func {
	rname := relOpName(op)
	name := snippetName(rname, TyInt, t, t)
	return s.get(m, name, func(m *ir.Module, name string) *ir.Func {
		lt := llvmType(t)
		a, b := ir.NewParam("a", lt), ir.NewParam("b", lt)
		f := m.NewFunc(name, types.I32, a, b)
		bb := f.NewBlock("entry")
		var cmp value.Value
		if t.Kind == KFloat {
			cmp = bb.NewFCmp(floatPred(op), a, b)
		} else {
			cmp = bb.NewICmp(intPred(op, t.Unsigned), a, b)
		}
		bb.NewRet(bb.NewZExt(cmp, types.I32))
		return f
	})
}

func relOpName(op string) string {
	switch op {
	case "==":
		return "eq"
	case "!=":
		return "ne"
	case "<":
		return "lt"
	case ">":
		return "gt"
	case "<=":
		return "le"
	case ">=":
		return "ge"
	}
	panic("relOpName: unknown operator " + op)
}

func intPred(op string, unsigned bool) enum.IPred {
	switch op {
	case "==":
		return enum.IPredEQ
	case "!=":
		return enum.IPredNE
	case "<":
		if unsigned {
			return enum.IPredULT
		}
		return enum.IPredSLT
	case ">":
		if unsigned {
			return enum.IPredUGT
		}
		return enum.IPredSGT
	case "<=":
		if unsigned {
			return enum.IPredULE
		}
		return enum.IPredSLE
	case ">=":
		if unsigned {
			return enum.IPredUGE
		}
		return enum.IPredSGE
	}
	panic("intPred: unknown operator " + op)
}

func floatPred(op string) enum.FPred {
	switch op {
	case "==":
		return enum.FPredOEQ
	case "!=":
		return enum.FPredONE
	case "<":
		return enum.FPredOLT
	case ">":
		return enum.FPredOGT
	case "<=":
		return enum.FPredOLE
	case ">=":
		return enum.FPredOGE
	}
	panic("floatPred: unknown operator " + op)
}

// conversion returns the "cnv__<dst>__<src>" snippet converting a value of
// type src to dst, covering every scalar pair the cast/assignment/argument-
// matching rules in lower_expr.go and lower_decl.go can produce (C99
// 6.3.1.1-6.3.1.8 plus explicit casts).
func (s *snippets) conversion(m *ir.Module, dst, src CType) *ir.Func {
	name := snippetName("cnv", dst, src)
	return s.get(m, name, func(m *ir.Module, name string) *ir.Func {
		srcLL := llvmType(src)
		p := ir.NewParam("x", srcLL)
		dstLL := llvmType(dst)
		f := m.NewFunc(name, dstLL, p)
		bb := f.NewBlock("entry")
		bb.NewRet(convert(bb, dst, src, p))
		return f
	})
}

// convert emits the instructions converting x (of type src) to dst,
// returning the converted value; used by the conversion and boolTest
// snippet bodies.
func convert(bb *ir.Block, dst, src CType, x value.Value) value.Value {
	dstLL := llvmType(dst)

	srcBool := src.Kind == KBool
	dstBool := dst.Kind == KBool
	srcFloat := src.Kind == KFloat
	dstFloat := dst.Kind == KFloat

	switch {
	case dstBool:
		if srcFloat {
			return bb.NewFCmp(enum.FPredONE, x, constant.NewFloat(llvmType(src).(*types.FloatType), 0))
		}
		return bb.NewICmp(enum.IPredNE, x, constant.NewInt(llvmType(src).(*types.IntType), 0))
	case srcBool && !dstFloat:
		return bb.NewZExt(x, dstLL)
	case srcBool && dstFloat:
		return bb.NewUIToFP(x, dstLL)
	case srcFloat && dstFloat:
		if floatRank(dst) > floatRank(src) {
			return bb.NewFPExt(x, dstLL)
		}
		if floatRank(dst) < floatRank(src) {
			return bb.NewFPTrunc(x, dstLL)
		}
		return x
	case srcFloat && !dstFloat:
		if dst.Unsigned {
			return bb.NewFPToUI(x, dstLL)
		}
		return bb.NewFPToSI(x, dstLL)
	case !srcFloat && dstFloat:
		if src.Unsigned {
			return bb.NewUIToFP(x, dstLL)
		}
		return bb.NewSIToFP(x, dstLL)
	default: // int -> int
		sb, db := typeBytes(src)*8, typeBytes(dst)*8
		switch {
		case db > sb:
			if src.Unsigned {
				return bb.NewZExt(x, dstLL)
			}
			return bb.NewSExt(x, dstLL)
		case db < sb:
			return bb.NewTrunc(x, dstLL)
		default:
			return x
		}
	}
}

func floatRank(t CType) int { return int(t.FloatKind) }

// boolTest returns the "cnv___Bool__<T>" snippet spec.md §4.4 names for
// converting any scalar operand to the control-flow truth value every if,
// while, for, and logical operand needs: a genuine call, not an inline
// compare, so the truth test shares the snippet-catalogue discipline
// everything else does.
func (s *snippets) boolTest(m *ir.Module, t CType) *ir.Func {
	name := snippetName("cnv", TyBool, t)
	return s.get(m, name, func(m *ir.Module, name string) *ir.Func {
		lt := llvmType(t)
		p := ir.NewParam("x", lt)
		f := m.NewFunc(name, types.I1, p)
		bb := f.NewBlock("entry")
		bb.NewRet(convert(bb, TyBool, t, p))
		return f
	})
}
