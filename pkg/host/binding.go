// Package host marshals calls between Go values and the native calling
// convention of a pkg/jit.Module (spec.md §6 "host-side foreign-function
// marshalling"), grounded on github.com/ebitengine/purego.RegisterLibFunc
// (built against a reflect.FuncOf-constructed function type, one per call
// signature, as SPEC_FULL.md's DOMAIN STACK section describes).
package host

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/ebitengine/purego"

	"cjit/pkg/jit"
)

// Kind is host's own scalar/aggregate tag, independent of
// pkg/compiler.CType so this package never imports the compiler.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindPointer
	KindArray
)

// Type describes one value's shape at the FFI boundary.
type Type struct {
	Kind     Kind
	Bits     int  // KindInt/KindFloat: width in bits
	Unsigned bool // KindInt only
	Elem     *Type
	Len      int // KindArray only; 0 means "pointer, length carried by the caller"
}

// FuncSig is one exported function's signature, as pkg/compiler derives
// it from a *Decl.
type FuncSig struct {
	Name   string
	Params []Type
	Return Type
}

// Func is one callable native function, its reflect-built trampoline
// already registered against the module's symbol.
type Func struct {
	sig   FuncSig
	value reflect.Value // the registered func value, kind reflect.Func
}

// Library is every exported function resolved out of one compiled module.
type Library struct {
	mod   jit.Module
	funcs map[string]*Func
}

// Open resolves every signature in sigs against mod and builds one
// reflect-typed trampoline per function via purego.RegisterLibFunc on the
// module's handle.
func Open(mod jit.Module, sigs []FuncSig) (*Library, error) {
	lib := &Library{mod: mod, funcs: make(map[string]*Func, len(sigs))}
	for _, sig := range sigs {
		if _, err := mod.FunctionAddress(sig.Name); err != nil {
			return nil, err
		}

		in := make([]reflect.Type, len(sig.Params))
		for i, p := range sig.Params {
			in[i] = goType(p)
		}
		var out []reflect.Type
		if sig.Return.Kind != KindVoid {
			out = []reflect.Type{goType(sig.Return)}
		}
		ft := reflect.FuncOf(in, out, false)

		fnPtr := reflect.New(ft)
		purego.RegisterLibFunc(fnPtr.Interface(), mod.Handle(), sig.Name)

		lib.funcs[sig.Name] = &Func{sig: sig, value: fnPtr.Elem()}
	}
	return lib, nil
}

// Func looks up a bound function by name, nil if the library carries none
// by that name.
func (l *Library) Func(name string) *Func { return l.funcs[name] }

// Call marshals args to the declared parameter types, invokes the native
// function, and marshals its return value back to a Go value (spec.md §6:
// "the array-parameter buffer/sequence conversion" — a []T argument is
// passed as a pointer to its first element, matching a decayed C array
// parameter).
func (f *Func) Call(args ...any) (any, error) {
	if len(args) != len(f.sig.Params) {
		return nil, fmt.Errorf("host: %s expects %d arguments, got %d", f.sig.Name, len(f.sig.Params), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v, err := toArgValue(f.sig.Params[i], a)
		if err != nil {
			return nil, fmt.Errorf("host: %s argument %d: %w", f.sig.Name, i, err)
		}
		in[i] = v
	}
	out := f.value.Call(in)
	if f.sig.Return.Kind == KindVoid {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// goType maps one host.Type to the reflect.Type purego's calling-
// convention marshaller expects for it.
func goType(t Type) reflect.Type {
	switch t.Kind {
	case KindVoid:
		return nil
	case KindBool:
		return reflect.TypeOf(bool(false))
	case KindInt:
		return intType(t.Bits, t.Unsigned)
	case KindFloat:
		if t.Bits == 32 {
			return reflect.TypeOf(float32(0))
		}
		return reflect.TypeOf(float64(0))
	case KindPointer, KindArray:
		return reflect.TypeOf(unsafe.Pointer(nil))
	}
	return reflect.TypeOf(int64(0))
}

func intType(bits int, unsigned bool) reflect.Type {
	switch bits {
	case 8:
		if unsigned {
			return reflect.TypeOf(uint8(0))
		}
		return reflect.TypeOf(int8(0))
	case 16:
		if unsigned {
			return reflect.TypeOf(uint16(0))
		}
		return reflect.TypeOf(int16(0))
	case 32:
		if unsigned {
			return reflect.TypeOf(uint32(0))
		}
		return reflect.TypeOf(int32(0))
	default:
		if unsigned {
			return reflect.TypeOf(uint64(0))
		}
		return reflect.TypeOf(int64(0))
	}
}

// toArgValue converts a Go argument to the reflect.Value shape its
// declared host.Type calls for, pulling a slice's backing pointer out for
// an array/pointer parameter.
func toArgValue(t Type, a any) (reflect.Value, error) {
	if t.Kind == KindArray || t.Kind == KindPointer {
		rv := reflect.ValueOf(a)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Ptr {
			return reflect.Value{}, fmt.Errorf("expected a slice or pointer, got %T", a)
		}
		if rv.Kind() == reflect.Slice {
			if rv.Len() == 0 {
				return reflect.ValueOf(unsafe.Pointer(nil)), nil
			}
			return reflect.ValueOf(unsafe.Pointer(rv.Index(0).Addr().Pointer())), nil
		}
		return reflect.ValueOf(unsafe.Pointer(rv.Pointer())), nil
	}
	want := goType(t)
	rv := reflect.ValueOf(a)
	if rv.Type() == want {
		return rv, nil
	}
	if !rv.Type().ConvertibleTo(want) {
		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", a, want)
	}
	return rv.Convert(want), nil
}
