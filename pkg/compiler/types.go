package compiler

import (
	"fmt"
	"strings"
)

// Kind tags the CType variant (spec.md §3).
type Kind int

const (
	KVoid Kind = iota
	KBool
	KInt
	KFloat
	KPointer // produced by array-parameter decay; the emitter supports only indexing and -> on it
	KArray
	KStruct
	KFunction
)

// IntRank orders the integer kinds by C99 6.3.1.1 rank, increasing.
type IntRank int

const (
	RankChar IntRank = iota
	RankShort
	RankInt
	RankLong
	RankLongLong
)

// FloatKind orders the floating kinds, increasing.
type FloatKind int

const (
	FKFloat FloatKind = iota
	FKDouble
	FKLongDouble
)

// ArrayExtentKind selects which of the three array-extent variants a type
// carries (spec.md §3: Fixed, Variable, Incomplete).
type ArrayExtentKind int

const (
	ExtentFixed ArrayExtentKind = iota
	ExtentVariable
	ExtentIncomplete
)

// ArrayExtent is the size of an array dimension: a compile-time constant,
// a runtime expression (VLA), or unknown (only legal for the outermost
// dimension of a parameter type, which this module does not exercise).
type ArrayExtent struct {
	Kind    ArrayExtentKind
	Fixed   uint64
	VarExpr Expr // non-nil iff Kind == ExtentVariable
}

// StructField is one named, laid-out member of a StructType.
type StructField struct {
	Name   string
	Type   CType
	Offset int
}

// StructType is a struct's ordered field list plus its computed layout.
type StructType struct {
	Name   string
	Fields []StructField
	Size   int
	Align  int
}

// FuncType is a function's signature: return type, parameter types (already
// array-decayed), and a variadic flag (always false: non-goal).
type FuncType struct {
	Return   CType
	Params   []CType
	Variadic bool
}

// CType is the tagged-variant C type representation spec.md §3 describes.
// Two CTypes are equal iff Equal reports true; equality is structural,
// except that struct types compare by *StructType identity or tag name.
type CType struct {
	Kind      Kind
	IntRank   IntRank
	Unsigned  bool
	FloatKind FloatKind
	Elem      *CType // Pointer/Array element type
	Extent    ArrayExtent
	Struct    *StructType
	Func      *FuncType
}

var (
	TyVoid          = CType{Kind: KVoid}
	TyBool          = CType{Kind: KBool}
	TyChar          = CType{Kind: KInt, IntRank: RankChar, Unsigned: false}
	TyUChar         = CType{Kind: KInt, IntRank: RankChar, Unsigned: true}
	TyShort         = CType{Kind: KInt, IntRank: RankShort, Unsigned: false}
	TyUShort        = CType{Kind: KInt, IntRank: RankShort, Unsigned: true}
	TyInt           = CType{Kind: KInt, IntRank: RankInt, Unsigned: false}
	TyUInt          = CType{Kind: KInt, IntRank: RankInt, Unsigned: true}
	TyLong          = CType{Kind: KInt, IntRank: RankLong, Unsigned: false}
	TyULong         = CType{Kind: KInt, IntRank: RankLong, Unsigned: true}
	TyLongLong      = CType{Kind: KInt, IntRank: RankLongLong, Unsigned: false}
	TyULongLong     = CType{Kind: KInt, IntRank: RankLongLong, Unsigned: true}
	TyFloat         = CType{Kind: KFloat, FloatKind: FKFloat}
	TyDouble        = CType{Kind: KFloat, FloatKind: FKDouble}
	TyLongDouble    = CType{Kind: KFloat, FloatKind: FKLongDouble}
)

func NewPointer(elem CType) CType { return CType{Kind: KPointer, Elem: &elem} }

func NewArray(elem CType, extent ArrayExtent) CType {
	return CType{Kind: KArray, Elem: &elem, Extent: extent}
}

// Equal reports whether a and b are the same C type: same variant and all
// recursive fields equal (spec.md §3 invariant).
func (a CType) Equal(b CType) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KVoid, KBool:
		return true
	case KInt:
		return a.IntRank == b.IntRank && a.Unsigned == b.Unsigned
	case KFloat:
		return a.FloatKind == b.FloatKind
	case KPointer:
		return a.Elem.Equal(*b.Elem)
	case KArray:
		if !a.Elem.Equal(*b.Elem) {
			return false
		}
		if a.Extent.Kind != b.Extent.Kind {
			return false
		}
		return a.Extent.Kind != ExtentFixed || a.Extent.Fixed == b.Extent.Fixed
	case KStruct:
		return a.Struct == b.Struct || (a.Struct != nil && b.Struct != nil && a.Struct.Name == b.Struct.Name)
	case KFunction:
		if !a.Func.Return.Equal(b.Func.Return) || len(a.Func.Params) != len(b.Func.Params) {
			return false
		}
		for i := range a.Func.Params {
			if !a.Func.Params[i].Equal(b.Func.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (t CType) IsArithmetic() bool { return t.Kind == KBool || t.Kind == KInt || t.Kind == KFloat }
func (t CType) IsInteger() bool    { return t.Kind == KBool || t.Kind == KInt }
func (t CType) IsScalar() bool {
	return t.IsArithmetic() || t.Kind == KPointer
}

// String renders the C spelling of t, used both for diagnostics and to build
// snippet names (§4.8: <op>__<result>__<arg1>__<arg2>).
func (t CType) String() string {
	switch t.Kind {
	case KVoid:
		return "void"
	case KBool:
		return "_Bool"
	case KInt:
		names := [...]string{"char", "short", "int", "long", "long long"}
		name := names[t.IntRank]
		if t.Unsigned {
			return "unsigned " + name
		}
		return name
	case KFloat:
		return [...]string{"float", "double", "long double"}[t.FloatKind]
	case KPointer:
		return t.Elem.String() + "*"
	case KArray:
		return t.Elem.String() + "[]"
	case KStruct:
		return "struct " + t.Struct.Name
	case KFunction:
		parts := make([]string, len(t.Func.Params))
		for i, p := range t.Func.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("%s(%s)", t.Func.Return, strings.Join(parts, ","))
	}
	return "<?>"
}

// mangled is the snippet-name-safe spelling of t (spaces and stars are not
// legal in an LLVM identifier run): "unsigned int" -> "unsigned_int".
func (t CType) mangled() string {
	return strings.ReplaceAll(strings.ReplaceAll(t.String(), " ", "_"), "*", "ptr")
}

// promoteInteger widens any integer rank below int to int, or to unsigned
// int if int cannot represent all its values (C99 6.3.1.1). _Bool promotes
// to int. Non-integer types pass through unchanged.
func promoteInteger(t CType) CType {
	if t.Kind == KBool {
		return TyInt
	}
	if t.Kind != KInt {
		return t
	}
	if t.IntRank >= RankInt {
		return t
	}
	return TyInt
}

// usualArithmetic implements C99 6.3.1.8: the common type of a binary
// arithmetic expression, applied to already-integer-promoted operands.
func usualArithmetic(a, b CType) CType {
	a = promoteInteger(a)
	b = promoteInteger(b)

	if a.Kind == KFloat || b.Kind == KFloat {
		fa, fb := FKFloat, FKFloat
		if a.Kind == KFloat {
			fa = a.FloatKind
		}
		if b.Kind == KFloat {
			fb = b.FloatKind
		}
		if fa < fb {
			fa = fb
		}
		return CType{Kind: KFloat, FloatKind: fa}
	}

	if a.Equal(b) {
		return a
	}
	if a.Unsigned == b.Unsigned {
		if a.IntRank >= b.IntRank {
			return a
		}
		return b
	}
	// One signed, one unsigned.
	var unsignedT, signedT CType
	if a.Unsigned {
		unsignedT, signedT = a, b
	} else {
		unsignedT, signedT = b, a
	}
	if unsignedT.IntRank >= signedT.IntRank {
		return unsignedT
	}
	if typeBytes(signedT) > typeBytes(unsignedT) {
		return signedT
	}
	return CType{Kind: KInt, IntRank: signedT.IntRank, Unsigned: true}
}

// arrayToPointer implements array decay: used on non-lvalue uses of an
// array and unconditionally on function-parameter types (spec.md §3
// invariant: Array never appears as a parameter type after decay).
func arrayToPointer(t CType) CType {
	if t.Kind != KArray {
		return t
	}
	return NewPointer(*t.Elem)
}

func isLvalueCompatibleAssign(dst, src CType) bool {
	if dst.Kind == KStruct || src.Kind == KStruct {
		return dst.Equal(src)
	}
	return dst.IsArithmetic() && src.IsArithmetic()
}

// typeBytes returns the storage size of a scalar type under the LP64 model
// this module targets (see SPEC_FULL.md §5 for the rationale: long=8,
// matching the target data layout's i64:64 natural alignment).
func typeBytes(t CType) int {
	switch t.Kind {
	case KBool:
		return 1
	case KInt:
		return [...]int{1, 2, 4, 8, 8}[t.IntRank]
	case KFloat:
		return [...]int{4, 8, 16}[t.FloatKind]
	case KPointer:
		return 8
	case KStruct:
		return t.Struct.Size
	case KArray:
		n := uint64(0)
		if t.Extent.Kind == ExtentFixed {
			n = t.Extent.Fixed
		}
		return int(n) * typeBytes(*t.Elem)
	}
	return 0
}

func typeAlign(t CType) int {
	switch t.Kind {
	case KStruct:
		return t.Struct.Align
	case KArray:
		return typeAlign(*t.Elem)
	default:
		return typeBytes(t)
	}
}

// layout computes struct field offsets using natural alignment: each field
// is placed at the smallest offset >= the current offset that is a multiple
// of the field's own alignment; the struct's final size is padded up to a
// multiple of its own alignment (the max member alignment), per spec.md §4.2.
func layout(name string, fields []StructField) *StructType {
	offset := 0
	maxAlign := 1
	laidOut := make([]StructField, len(fields))
	for i, f := range fields {
		align := typeAlign(f.Type)
		if align < 1 {
			align = 1
		}
		if rem := offset % align; rem != 0 {
			offset += align - rem
		}
		laidOut[i] = StructField{Name: f.Name, Type: f.Type, Offset: offset}
		offset += typeBytes(f.Type)
		if align > maxAlign {
			maxAlign = align
		}
	}
	if rem := offset % maxAlign; rem != 0 {
		offset += maxAlign - rem
	}
	return &StructType{Name: name, Fields: laidOut, Size: offset, Align: maxAlign}
}

func (s *StructType) field(name string) (StructField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return StructField{}, false
}
