package compiler

// toHostType/toHostTypes translate a resolved CType to the lightweight
// host.Type shape pkg/host needs to build its reflect.FuncOf trampoline,
// keeping pkg/host free of any dependency back on pkg/compiler.

import "cjit/pkg/host"

func toHostType(t CType) host.Type {
	switch t.Kind {
	case KVoid:
		return host.Type{Kind: host.KindVoid}
	case KBool:
		return host.Type{Kind: host.KindBool}
	case KInt:
		return host.Type{Kind: host.KindInt, Bits: typeBytes(t) * 8, Unsigned: t.Unsigned}
	case KFloat:
		bits := 64
		if t.FloatKind == FKFloat {
			bits = 32
		}
		return host.Type{Kind: host.KindFloat, Bits: bits}
	case KPointer:
		elem := toHostType(*t.Elem)
		return host.Type{Kind: host.KindPointer, Elem: &elem}
	case KArray:
		elem := toHostType(vlaElementType(t))
		length := 0
		if t.Extent.Kind == ExtentFixed {
			length = int(t.Extent.Fixed)
		}
		return host.Type{Kind: host.KindArray, Elem: &elem, Len: length}
	default:
		return host.Type{Kind: host.KindInt, Bits: 32}
	}
}

func toHostTypes(ts []CType) []host.Type {
	out := make([]host.Type, len(ts))
	for i, t := range ts {
		out[i] = toHostType(t)
	}
	return out
}
