package compiler

import (
	"errors"
	"testing"

	"cjit/pkg/jit"
)

// fakeModule/fakeBackend let Compile's wiring be tested without a real
// clang toolchain or dynamic loader: the backend "compiles" successfully
// but the resulting module resolves no symbols, so Compile is expected to
// fail at the host-binding stage rather than silently succeeding.
type fakeModule struct{}

func (fakeModule) Handle() uintptr { return 0 }
func (fakeModule) FunctionAddress(name string) (uintptr, error) {
	return 0, errors.New("fakeModule resolves no symbols")
}

type fakeBackend struct{ irText string }

func (b *fakeBackend) Compile(irText string) (jit.Module, error) {
	b.irText = irText
	return fakeModule{}, nil
}

func TestCompile_PropagatesParseError(t *testing.T) {
	_, errs := Compile("int f(", &fakeBackend{})
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for unterminated source")
	}
}

func TestCompile_PropagatesLoweringError(t *testing.T) {
	_, errs := Compile("int f(int a){ return b; }", &fakeBackend{})
	if len(errs) == 0 {
		t.Fatalf("expected an undeclared-identifier error")
	}
	if errs[0].Kind != KindUndeclaredIdentifier {
		t.Errorf("got error kind %v, want %v", errs[0].Kind, KindUndeclaredIdentifier)
	}
}

func TestCompile_ReachesBackendAndHostStages(t *testing.T) {
	b := &fakeBackend{}
	_, errs := Compile("int f(int a){ return a; }", b)
	if len(errs) == 0 {
		t.Fatalf("expected a host-binding error since fakeModule resolves no symbols")
	}
	if b.irText == "" {
		t.Errorf("expected Compile to have handed generated IR text to the backend")
	}
	assertContains(t, b.irText, "define i32 @f")
}
