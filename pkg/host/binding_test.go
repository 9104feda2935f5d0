package host

import (
	"errors"
	"reflect"
	"testing"

	"cjit/pkg/jit"
)

func TestGoType_ScalarMapping(t *testing.T) {
	cases := []struct {
		t    Type
		want reflect.Type
	}{
		{Type{Kind: KindBool}, reflect.TypeOf(bool(false))},
		{Type{Kind: KindInt, Bits: 8, Unsigned: false}, reflect.TypeOf(int8(0))},
		{Type{Kind: KindInt, Bits: 8, Unsigned: true}, reflect.TypeOf(uint8(0))},
		{Type{Kind: KindInt, Bits: 32, Unsigned: false}, reflect.TypeOf(int32(0))},
		{Type{Kind: KindInt, Bits: 64, Unsigned: true}, reflect.TypeOf(uint64(0))},
		{Type{Kind: KindFloat, Bits: 32}, reflect.TypeOf(float32(0))},
		{Type{Kind: KindFloat, Bits: 64}, reflect.TypeOf(float64(0))},
	}
	for _, c := range cases {
		if got := goType(c.t); got != c.want {
			t.Errorf("goType(%+v): got %v, want %v", c.t, got, c.want)
		}
	}
}

type missingSymbolModule struct{}

func (missingSymbolModule) Handle() uintptr { return 0 }
func (missingSymbolModule) FunctionAddress(name string) (uintptr, error) {
	return 0, errors.New("no such symbol")
}

func TestOpen_PropagatesMissingSymbolError(t *testing.T) {
	_, err := Open(missingSymbolModule{}, []FuncSig{{Name: "nope"}})
	if err == nil {
		t.Fatalf("expected Open to fail when a declared function's symbol is missing")
	}
}

var _ jit.Module = missingSymbolModule{}

func TestFuncCall_RejectsWrongArgumentCount(t *testing.T) {
	f := &Func{sig: FuncSig{Name: "f", Params: []Type{{Kind: KindInt, Bits: 32}}}}
	if _, err := f.Call(); err == nil {
		t.Fatalf("expected an error when the argument count does not match the signature")
	}
}
