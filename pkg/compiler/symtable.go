package compiler

import "fmt"

// BindingKind distinguishes the two kinds of binding in the ordinary
// namespace: variables and functions. Struct tags are not Bindings; each
// scope keeps them in its own separate tag table (see scope.tags).
type BindingKind int

const (
	BindVar BindingKind = iota
	BindFunc
)

// Binding is what an identifier resolves to in the ordinary namespace.
type Binding struct {
	Kind BindingKind
	Decl *Decl
}

// scope is one level of the ordinary-namespace stack; scopes also carry
// their own tag table since struct Name declarations in C99 are visible
// from the point of declaration to the end of the enclosing block, same
// as ordinary declarations would be.
type scope struct {
	id     int
	vars   map[string]Binding
	tags   map[string]CType
	parent *scope
}

// SymbolTable is the symbol/scope manager of spec.md §4.3: a stack of
// scopes mapping identifiers to declarations, plus an independent tag
// namespace. Re-declaring a function with a compatible signature succeeds
// (forward declaration); any other re-declaration in the same scope fails.
type SymbolTable struct {
	cur         *scope
	nextScopeID int
}

func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{}
	st.PushScope() // translation-unit scope
	return st
}

// PushScope opens a new scope and returns its id, used as CompoundStmt's and
// ForStmt's ScopeID (spec.md §3: every scope is owned by the construct that
// introduced it).
func (st *SymbolTable) PushScope() int {
	st.nextScopeID++
	st.cur = &scope{id: st.nextScopeID, vars: make(map[string]Binding), tags: make(map[string]CType), parent: st.cur}
	return st.cur.id
}

// CurrentScopeID returns the id of the innermost open scope.
func (st *SymbolTable) CurrentScopeID() int { return st.cur.id }

func (st *SymbolTable) PopScope() {
	if st.cur == nil {
		panic("PopScope called with no open scope")
	}
	st.cur = st.cur.parent
}

// ErrRedeclared is returned by Declare/DeclareTag on an incompatible
// re-declaration in the current scope.
type ErrRedeclared struct {
	Name string
}

func (e *ErrRedeclared) Error() string { return fmt.Sprintf("redeclaration of %q", e.Name) }

// Declare binds name to decl in the current scope. A function may be
// redeclared with a structurally-equal signature (a forward declaration);
// anything else already bound in this exact scope is an error. Shadowing a
// binding from an enclosing scope is always permitted.
func (st *SymbolTable) Declare(name string, decl *Decl) error {
	if existing, ok := st.cur.vars[name]; ok {
		if decl.IsFunction && existing.Kind == BindFunc && existing.Decl.Type.Equal(decl.Type) {
			st.cur.vars[name] = Binding{Kind: BindFunc, Decl: decl}
			return nil
		}
		return &ErrRedeclared{Name: name}
	}
	kind := BindVar
	if decl.IsFunction {
		kind = BindFunc
	}
	st.cur.vars[name] = Binding{Kind: kind, Decl: decl}
	return nil
}

// Resolve looks up name starting at the current scope and walking outward,
// returning the innermost visible binding (shadowing, spec.md §8).
func (st *SymbolTable) Resolve(name string) (Binding, bool) {
	for s := st.cur; s != nil; s = s.parent {
		if b, ok := s.vars[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// DeclareTag binds a struct tag in the current scope's independent tag
// namespace.
func (st *SymbolTable) DeclareTag(name string, t CType) error {
	if _, ok := st.cur.tags[name]; ok {
		return &ErrRedeclared{Name: "struct " + name}
	}
	st.cur.tags[name] = t
	return nil
}

// ResolveTag looks up a struct tag, walking outward like Resolve.
func (st *SymbolTable) ResolveTag(name string) (CType, bool) {
	for s := st.cur; s != nil; s = s.parent {
		if t, ok := s.tags[name]; ok {
			return t, true
		}
	}
	return CType{}, false
}
