package compiler

import (
	"testing"

	"github.com/llir/llvm/ir"
)

func TestSnippetName_MatchesNamingScheme(t *testing.T) {
	got := snippetName("add", TyInt, TyInt, TyInt)
	want := "add__int__int__int"
	if got != want {
		t.Errorf("snippetName: got %q, want %q", got, want)
	}
}

func TestSnippets_CachedByName(t *testing.T) {
	m := ir.NewModule()
	s := newSnippets()
	f1 := s.binArith(m, "+", TyInt)
	f2 := s.binArith(m, "+", TyInt)
	if f1 != f2 {
		t.Errorf("expected the same *ir.Func on a repeated reference to the same snippet")
	}
	if len(m.Funcs) != 1 {
		t.Errorf("expected exactly one function built into the module, got %d", len(m.Funcs))
	}
}

func TestSnippets_DistinctTypesGetDistinctFunctions(t *testing.T) {
	m := ir.NewModule()
	s := newSnippets()
	s.binArith(m, "+", TyInt)
	s.binArith(m, "+", TyDouble)
	if len(m.Funcs) != 2 {
		t.Errorf("expected two distinct snippet functions, got %d", len(m.Funcs))
	}
}

func TestRelational_AlwaysReturnsInt(t *testing.T) {
	m := ir.NewModule()
	s := newSnippets()
	f := s.relational(m, "<", TyDouble)
	if !f.Sig.RetType.Equal(llvmType(TyInt)) {
		t.Errorf("expected a relational snippet to return int, got %v", f.Sig.RetType)
	}
}
