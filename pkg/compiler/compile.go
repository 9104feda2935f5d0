package compiler

// Compile wires the whole front-end-to-native pipeline together (spec.md
// §2/§7), grounded on the teacher's own pkg/compiler/compile.go: each
// stage runs in sequence, a stage's error short-circuits the rest and is
// reported to os.Stderr before being returned, matching "preprocess
// error:"/"lex error:"/"parse error:"/"codegen error:" in the original.

import (
	"fmt"
	"os"

	"github.com/llir/llvm/asm"

	"cjit/pkg/host"
	"cjit/pkg/jit"
)

// Compile parses, lowers, and emits source, hands the resulting IR to
// backend, and returns a loaded host.Library exposing every non-static
// function the source declares. A failure at any stage is reported on
// os.Stderr and returned as the one- or few-element []CompileError the
// failing stage produced; a backend or host-binding failure that isn't a
// CompileError (spec.md §7's structured kind) is wrapped into one tagged
// KindBackendError so callers only ever see the one error shape.
func Compile(source string, backend jit.Backend) (*host.Library, []CompileError) {
	tree, err := Parse(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		if pe, ok := err.(*ParseError); ok {
			return nil, []CompileError{{Kind: CompileErrorKind(pe.Kind), Line: pe.Line, Message: pe.Message}}
		}
		return nil, []CompileError{{Kind: KindSyntaxError, Message: err.Error()}}
	}

	decls, errs := lowerTranslationUnit(tree)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "lowering error:", errs[0])
		return nil, derefErrs(errs)
	}

	module, errs := Emit(decls)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "codegen error:", errs[0])
		return nil, derefErrs(errs)
	}
	irText := module.String()

	// Round-trip the emitted module through the real LLVM textual grammar
	// before handing it to the back-end: a malformed module surfaces here,
	// as a CompileError, rather than as an opaque clang failure later.
	if _, err := asm.ParseString("cjit", irText); err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		return nil, []CompileError{{Kind: KindBackendError, Message: "generated IR failed to parse: " + err.Error()}}
	}

	mod, err := backend.Compile(irText)
	if err != nil {
		fmt.Fprintln(os.Stderr, "backend error:", err)
		return nil, []CompileError{{Kind: KindBackendError, Message: err.Error()}}
	}

	lib, err := host.Open(mod, exportedFuncs(decls))
	if err != nil {
		fmt.Fprintln(os.Stderr, "host binding error:", err)
		return nil, []CompileError{{Kind: KindBackendError, Message: err.Error()}}
	}
	return lib, nil
}

func derefErrs(errs []*CompileError) []CompileError {
	out := make([]CompileError, len(errs))
	for i, e := range errs {
		out[i] = *e
	}
	return out
}

// exportedFuncs describes every top-level function's signature in the
// shape pkg/host needs to build a reflect.FuncOf call for it.
func exportedFuncs(decls []*Decl) []host.FuncSig {
	sigs := make([]host.FuncSig, 0, len(decls))
	for _, d := range decls {
		if !d.IsFunction || d.Body == nil {
			continue
		}
		params := make([]CType, len(d.Params))
		for i, p := range d.Params {
			params[i] = p.Type
		}
		sigs = append(sigs, host.FuncSig{
			Name:   d.Name,
			Params: toHostTypes(params),
			Return: toHostType(d.Type.Func.Return),
		})
	}
	return sigs
}
