package compiler

// IR emission (spec.md §4.6/§6): walks the typed AST lower*.go produces and
// builds one github.com/llir/llvm *ir.Module, grounded on the
// module/func/block construction and block-termination-checking patterns
// _examples/other_examples/epos-lang-epos__codegen.go uses, and on the
// ir/value-as-emitted-value-currency-type pattern
// _examples/other_examples/ComedicChimera-chai__def.go uses.

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// targetDataLayout matches spec.md §6's LP64 layout: little-endian,
// 64-bit-aligned i64, 80-bit (128-bit-stored) long double, natural integer
// alignments, 128-bit stack alignment.
const targetDataLayout = "e-m:e-i64:64-f80:128-n8:16:32:64-S128"

// Emit lowers a whole translation unit's typed declarations to one IR
// module, one function per *Decl. It never fails on a well-typed input: any
// gap between what lowering accepts and what the emitter can build shows up
// as a KindBackendError rather than a panic, so a future Compile caller
// always gets back the documented (module, []CompileError) shape.
func Emit(decls []*Decl) (*ir.Module, []*CompileError) {
	m := ir.NewModule()
	m.SourceFilename = "cjit"
	m.DataLayout = targetDataLayout

	e := &emitter{module: m, snippets: newSnippets(), funcs: make(map[*Decl]*ir.Func)}

	// Declare every function's signature up front so mutually-recursive
	// and forward-referencing calls resolve to the right *ir.Func
	// regardless of definition order.
	for _, d := range decls {
		e.declareFunc(d)
	}

	var errs []*CompileError
	for _, d := range decls {
		if err := e.emitFunc(d); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return m, nil
}

// emitter is the process-wide (well: module-wide) state IR emission shares
// across functions: the module under construction, the snippet cache, and
// each function's already-declared *ir.Func (so a call site doesn't have to
// re-derive a signature from the Decl it already declared).
type emitter struct {
	module   *ir.Module
	snippets *snippets
	funcs    map[*Decl]*ir.Func

	stacksave    *ir.Func
	stackrestore *ir.Func
}

func (e *emitter) declareFunc(d *Decl) {
	ft := d.Type.Func
	params := make([]*ir.Param, len(d.Params))
	for i, p := range d.Params {
		params[i] = ir.NewParam(p.Name, llvmType(p.Type))
	}
	f := e.module.NewFunc(d.Name, llvmType(ft.Return), params...)
	e.funcs[d] = f
}

// emitFunc builds one function's body. The entry block hosts every alloca
// (spec.md §4.7's "all fixed-size locals are allocated in the function's
// entry block" invariant); parameters are copied into their own slots
// immediately so every later reference, param or local alike, resolves
// through the same slots map by *Decl.
func (e *emitter) emitFunc(d *Decl) *CompileError {
	f := e.funcs[d]
	fb := &funcBuilder{
		e:        e,
		fn:       f,
		slots:    make(map[*Decl]*slot),
		labelSeq: make(map[string]int),
	}
	fb.entry = f.NewBlock(fb.label("entry"))
	fb.cur = fb.entry

	for i, p := range d.Params {
		fb.allocLocal(p)
		fb.cur.NewStore(f.Params[i], fb.slots[p].ptr)
	}

	cur, err := fb.emitCompoundStmt(fb.cur, d.Body)
	if err != nil {
		return err
	}
	if cur.Term == nil {
		if d.Type.Func.Return.Kind == KVoid {
			cur.NewRet(nil)
		} else {
			// spec.md §4.5: falling off the end of a non-void function
			// without a return is undefined in C99 itself; the emitter
			// closes the block with a zero of the declared return type
			// rather than leaving invalid IR behind.
			cur.NewRet(zeroValue(d.Type.Func.Return))
		}
	}
	return nil
}

// label returns prefix the first time it is requested for this function,
// and prefix.N (N = 1, 2, ...) on each later request, matching spec.md
// §4.6's block-naming scheme ("entry", "forcond", "entry.if", ...).
func (fb *funcBuilder) label(prefix string) string {
	n := fb.labelSeq[prefix]
	fb.labelSeq[prefix]++
	if n == 0 {
		return prefix
	}
	return fmt.Sprintf("%s.%d", prefix, n)
}

// name returns the next "%.<n>" local-value name, shared by every stack
// slot and SSA temporary a function emits (spec.md §6).
func (fb *funcBuilder) name() string {
	n := fb.ssaSeq
	fb.ssaSeq++
	return fmt.Sprintf(".%d", n)
}

// localNamer is satisfied by every llir instruction that produces a named
// local value (all of them but the terminators).
type localNamer interface{ SetName(string) }

func (fb *funcBuilder) named(v localNamer) {
	v.SetName(fb.name())
}

// llvmType maps a resolved CType to the github.com/llir/llvm type it is
// represented as. Incomplete/variable array extents never reach here as
// the type of a materialized object: storage.go allocates a VLA's backing
// buffer directly from its element type and a runtime count instead of
// asking for "the LLVM type of the whole array".
func llvmType(t CType) types.Type {
	switch t.Kind {
	case KVoid:
		return types.Void
	case KBool:
		return types.I1
	case KInt:
		return types.NewInt(uint64(typeBytes(t) * 8))
	case KFloat:
		switch t.FloatKind {
		case FKFloat:
			return types.Float
		case FKDouble:
			return types.Double
		default:
			return types.X86_FP80
		}
	case KPointer:
		return types.NewPointer(llvmType(*t.Elem))
	case KArray:
		if t.Extent.Kind == ExtentFixed {
			return types.NewArray(t.Extent.Fixed, llvmType(*t.Elem))
		}
		return llvmType(*t.Elem)
	case KStruct:
		fields := make([]types.Type, len(t.Struct.Fields))
		for i, f := range t.Struct.Fields {
			fields[i] = llvmType(f.Type)
		}
		return types.NewStruct(fields...)
	}
	return types.Void
}

// zeroValue returns the constant zero of t's LLVM type, used to round out a
// function whose body falls off the end without an explicit return.
func zeroValue(t CType) constant.Constant {
	return constant.NewZeroInitializer(llvmType(t))
}
