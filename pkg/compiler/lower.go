package compiler

// lowerTranslationUnit walks the right-recursive translation-unit /
// external-declaration chain, lowering each function-definition in turn
// and registering it in a translation-unit-scoped SymbolTable so later
// functions can call earlier ones (and a forward declaration can be
// completed by a later definition with a matching signature, per
// symtable.go's Declare).
func lowerTranslationUnit(tree *ParseTree) ([]*Decl, []*CompileError) {
	st := NewSymbolTable()
	var decls []*Decl
	var errs []*CompileError

	for _, ext := range flattenList(tree, "external-declaration", "translation-unit") {
		fn := ext.firstChild("function-definition")
		if fn == nil {
			errs = append(errs, errf(KindUnsupportedConstruct, ext.line(), "unsupported top-level declaration"))
			continue
		}
		decl, err := lowerFunctionDefinition(fn, st)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		decls = append(decls, decl)
	}
	return decls, errs
}

// lowerFunctionDefinition lowers "declaration-specifiers declarator
// compound-statement": the return type and name/parameters come from the
// first two children, the body is lowered in a fresh scope seeded with the
// parameter bindings (spec.md §4.2).
func lowerFunctionDefinition(t *ParseTree, st *SymbolTable) (*Decl, *CompileError) {
	ret, err := lowerDeclarationSpecifiers(t.firstChild("declaration-specifiers"), st)
	if err != nil {
		return nil, err
	}
	name, typ, params, isFunc, err := lowerDeclarator(ret, t.firstChild("declarator"), st)
	if err != nil {
		return nil, err
	}
	if !isFunc {
		return nil, errf(KindUnsupportedConstruct, t.line(), "%q is not a function declarator", name)
	}

	decl := &Decl{Name: name, Type: typ, IsFunction: true, Params: params, Line: t.line()}
	if err := st.Declare(name, decl); err != nil {
		return nil, errf(KindRedeclaration, t.line(), "%s", err.Error())
	}

	st.PushScope()
	for _, p := range params {
		if err := st.Declare(p.Name, p); err != nil {
			st.PopScope()
			return nil, errf(KindRedeclaration, t.line(), "%s", err.Error())
		}
	}
	body, err := lowerCompoundStatement(t.firstChild("compound-statement"), st, 0)
	st.PopScope()
	if err != nil {
		return nil, err
	}
	decl.Body = body
	return decl, nil
}
