package compiler

// lowerDeclarator applies one declarator to a base type, producing the
// declared name, its full CType (function/array/scalar), the parameter
// Decls if it is a function declarator, and whether it is a function.
func lowerDeclarator(base CType, t *ParseTree, st *SymbolTable) (name string, typ CType, params []*Decl, isFunc bool, cerr *CompileError) {
	ident := t.firstChild("identifier")
	if ident == nil {
		return "", CType{}, nil, false, errf(KindSyntaxError, t.line(), "declarator has no name")
	}
	name = ident.Tok.Lexeme

	if paramList := t.firstChild("parameter-list"); paramList != nil {
		params, cerr = lowerParameterList(paramList, st)
		if cerr != nil {
			return "", CType{}, nil, false, cerr
		}
		return name, funcCType(base, params), params, true, nil
	}
	if t.firstChild("(") != nil {
		// "identifier ( )" — a function declarator with no parameters.
		return name, funcCType(base, nil), nil, true, nil
	}

	if suffixList := t.firstChild("array-suffix-list"); suffixList != nil {
		suffixes := flattenList(suffixList, "array-suffix", "array-suffix-list")
		typ = base
		for i := len(suffixes) - 1; i >= 0; i-- {
			extent, err := lowerArraySuffix(suffixes[i], st)
			if err != nil {
				return "", CType{}, nil, false, err
			}
			typ = NewArray(typ, extent)
		}
		return name, typ, nil, false, nil
	}

	return name, base, nil, false, nil
}

func funcCType(ret CType, params []*Decl) CType {
	paramTypes := make([]CType, len(params))
	for i, p := range params {
		paramTypes[i] = arrayToPointer(p.Type)
	}
	return CType{Kind: KFunction, Func: &FuncType{Return: ret, Params: paramTypes}}
}

func lowerParameterList(t *ParseTree, st *SymbolTable) ([]*Decl, *CompileError) {
	var decls []*Decl
	for _, pd := range flattenList(t, "parameter-declaration", "parameter-list") {
		base, err := lowerDeclarationSpecifiers(pd.firstChild("declaration-specifiers"), st)
		if err != nil {
			return nil, err
		}
		name, typ, _, isFunc, err := lowerDeclarator(base, pd.firstChild("declarator"), st)
		if err != nil {
			return nil, err
		}
		if isFunc {
			return nil, errf(KindUnsupportedConstruct, pd.line(), "function-typed parameter %q is not supported", name)
		}
		decls = append(decls, &Decl{Name: name, Type: arrayToPointer(typ), Storage: SCParam, Line: pd.line()})
	}
	return decls, nil
}

// lowerArraySuffix resolves one "[ N ]" / "[ ]" declarator suffix to an
// ArrayExtent: a bare integer-literal extent is Fixed, any other
// expression (constant arithmetic included; nothing is folded) is treated
// as a VLA bound (Variable), and an empty bracket pair is Incomplete.
func lowerArraySuffix(t *ParseTree, st *SymbolTable) (ArrayExtent, *CompileError) {
	sizeExpr := t.firstChild("assignment-expression")
	if sizeExpr == nil {
		return ArrayExtent{Kind: ExtentIncomplete}, nil
	}
	ex, err := lowerExpr(sizeExpr, st)
	if err != nil {
		return ArrayExtent{}, err
	}
	if lit, ok := ex.(*IntLiteral); ok {
		return ArrayExtent{Kind: ExtentFixed, Fixed: lit.Value}, nil
	}
	return ArrayExtent{Kind: ExtentVariable, VarExpr: ex}, nil
}
