package compiler

// lowerDeclarationSpecifiers resolves a declaration-specifiers node (a
// right-recursive chain of type-specifier children) to a CType. C99 allows
// the specifiers to appear in any order and lets "signed"/"unsigned"
// combine with a width keyword ("unsigned long"); this module accepts the
// combinations the C99 subset's example programs actually use.
func lowerDeclarationSpecifiers(t *ParseTree, st *SymbolTable) (CType, *CompileError) {
	var kw []string
	var structTy *CType
	cur := t
	for cur != nil {
		spec := cur.firstChild("type-specifier")
		if spec == nil {
			break
		}
		if su := spec.firstChild("struct-or-union-specifier"); su != nil {
			ty, err := lowerStructOrUnionSpecifier(su, st)
			if err != nil {
				return CType{}, err
			}
			structTy = &ty
		} else if leaf := spec.Children[0]; leaf != nil {
			kw = append(kw, leaf.Tok.Lexeme)
		}
		cur = cur.firstChild("declaration-specifiers")
	}
	if structTy != nil {
		return *structTy, nil
	}
	return resolveKeywordType(kw, t.line())
}

func resolveKeywordType(kw []string, line int) (CType, *CompileError) {
	has := func(w string) bool {
		for _, k := range kw {
			if k == w {
				return true
			}
		}
		return false
	}
	unsigned := has("unsigned")
	switch {
	case has("void"):
		return TyVoid, nil
	case has("_Bool"):
		return TyBool, nil
	case has("double"):
		if has("long") {
			return TyLongDouble, nil
		}
		return TyDouble, nil
	case has("float"):
		return TyFloat, nil
	case has("char"):
		if unsigned {
			return TyUChar, nil
		}
		return TyChar, nil
	case has("short"):
		if unsigned {
			return TyUShort, nil
		}
		return TyShort, nil
	case countOf(kw, "long") >= 2:
		if unsigned {
			return TyULongLong, nil
		}
		return TyLongLong, nil
	case has("long"):
		if unsigned {
			return TyULong, nil
		}
		return TyLong, nil
	case has("int"), has("signed"), unsigned:
		if unsigned {
			return TyUInt, nil
		}
		return TyInt, nil
	}
	return CType{}, errf(KindTypeMismatch, line, "no type specifier in declaration")
}

func countOf(ss []string, w string) int {
	n := 0
	for _, s := range ss {
		if s == w {
			n++
		}
	}
	return n
}

// lowerStructOrUnionSpecifier handles both the defining form (struct [tag]
// { members }) and the reference form (struct tag), registering a defined
// struct's tag in the symbol table's independent tag namespace.
func lowerStructOrUnionSpecifier(t *ParseTree, st *SymbolTable) (CType, *CompileError) {
	idents := t.allChildren("identifier")
	declList := t.firstChild("struct-declaration-list")
	if declList == nil {
		// Reference form: struct tag.
		name := idents[0].Tok.Lexeme
		ty, ok := st.ResolveTag(name)
		if !ok {
			return CType{}, errf(KindUndeclaredIdentifier, t.line(), "undeclared struct tag %q", name)
		}
		return ty, nil
	}

	var fields []StructField
	for _, sd := range flattenList(declList, "struct-declaration", "struct-declaration-list") {
		base, err := lowerDeclarationSpecifiers(sd.firstChild("declaration-specifiers"), st)
		if err != nil {
			return CType{}, err
		}
		for _, dcl := range flattenList(sd.firstChild("struct-declarator-list"), "declarator", "struct-declarator-list") {
			name, ty, _, _, err := lowerDeclarator(base, dcl, st)
			if err != nil {
				return CType{}, err
			}
			fields = append(fields, StructField{Name: name, Type: ty})
		}
	}

	name := ""
	if len(idents) > 0 {
		name = idents[0].Tok.Lexeme
	}
	structType := layout(name, fields)
	ty := CType{Kind: KStruct, Struct: structType}
	if name != "" {
		if err := st.DeclareTag(name, ty); err != nil {
			return CType{}, errf(KindRedeclaration, t.line(), "%s", err.Error())
		}
	}
	return ty, nil
}

// flattenList walks a right-recursive "item [item item-list]" chain (the
// shape every comma/adjacency list production in cgrammar.go uses) and
// returns every itemSymbol node in left-to-right order.
func flattenList(t *ParseTree, itemSymbol, listSymbol string) []*ParseTree {
	var out []*ParseTree
	cur := t
	for cur != nil {
		if item := cur.firstChild(itemSymbol); item != nil {
			out = append(out, item)
		}
		cur = cur.firstChild(listSymbol)
	}
	return out
}
