package compiler

// loopCtx tracks the enclosing loop during statement lowering, so break/continue
// can be rejected outside a loop (spec.md §4.5 KindBreakOutsideLoop/KindContinueOutsideLoop).
type loopCtx struct {
	depth int
}

// lowerStmt lowers one statement node. loops counts the number of loop
// constructs currently enclosing t.
func lowerStmt(t *ParseTree, st *SymbolTable, loops int) (Stmt, *CompileError) {
	switch t.Symbol {
	case "statement":
		return lowerStmt(t.Children[0], st, loops)
	case "compound-statement":
		return lowerCompoundStatement(t, st, loops)
	case "expression-statement":
		return lowerExpressionStatement(t, st)
	case "selection-statement":
		return lowerSelectionStatement(t, st, loops)
	case "iteration-statement":
		return lowerIterationStatement(t, st, loops)
	case "jump-statement":
		return lowerJumpStatement(t, st, loops)
	case "labeled-statement":
		return lowerLabeledStatement(t, st, loops)
	}
	return nil, errf(KindSyntaxError, t.line(), "lowerStmt: unexpected node %q", t.Symbol)
}

// lowerCompoundStatement lowers { block-item-list } / {}, pushing a fresh
// scope the block-items are resolved in and popping it on the way out, per
// spec.md §3's "a scope is owned by the compound statement ... that
// introduced it" invariant.
func lowerCompoundStatement(t *ParseTree, st *SymbolTable, loops int) (*CompoundStmt, *CompileError) {
	scopeID := st.PushScope()
	defer st.PopScope()

	var items []Stmt
	if list := t.firstChild("block-item-list"); list != nil {
		for _, item := range flattenList(list, "block-item", "block-item-list") {
			inner := item.Children[0]
			if inner.Symbol == "declaration" {
				decls, err := lowerLocalDeclarations(inner, st)
				if err != nil {
					return nil, err
				}
				for _, d := range decls {
					items = append(items, &DeclStmt{Decl: d})
				}
				continue
			}
			s, err := lowerStmt(inner, st, loops)
			if err != nil {
				return nil, err
			}
			items = append(items, s)
		}
	}
	return &CompoundStmt{Items: items, ScopeID: scopeID}, nil
}

// lowerExpressionStatement lowers "expression ;" or the bare ";" spec.md
// §4.5's for-loop clauses reuse for their own trailing semicolon.
func lowerExpressionStatement(t *ParseTree, st *SymbolTable) (Stmt, *CompileError) {
	expr := t.firstChild("expression")
	if expr == nil {
		return &ExprStmt{}, nil
	}
	x, err := lowerExpr(expr, st)
	if err != nil {
		return nil, err
	}
	return &ExprStmt{X: x}, nil
}

// lowerSelectionStatement lowers if/else. The grammar's dangling second
// "statement" always binds to whichever production the tree builder chose,
// which (per the productions' declared order: the else-arm alternative
// first) prefers binding an else to the nearest unmatched if, matching
// C99 6.8.4.1's resolution of the dangling-else ambiguity.
func lowerSelectionStatement(t *ParseTree, st *SymbolTable, loops int) (Stmt, *CompileError) {
	cond, err := lowerExpr(t.firstChild("expression"), st)
	if err != nil {
		return nil, err
	}
	stmts := t.allChildren("statement")
	thenStmt, err := lowerStmt(stmts[0], st, loops)
	if err != nil {
		return nil, err
	}
	var elseStmt Stmt
	if len(stmts) > 1 {
		elseStmt, err = lowerStmt(stmts[1], st, loops)
		if err != nil {
			return nil, err
		}
	}
	if !exprType(cond).IsScalar() {
		return nil, errf(KindTypeMismatch, t.line(), "if condition must be scalar")
	}
	return &IfStmt{Cond: cond, Then: thenStmt, Else: elseStmt}, nil
}

func lowerIterationStatement(t *ParseTree, st *SymbolTable, loops int) (Stmt, *CompileError) {
	if t.firstChild("while") != nil && t.firstChild("do") == nil {
		cond, err := lowerExpr(t.firstChild("expression"), st)
		if err != nil {
			return nil, err
		}
		body, err := lowerStmt(t.firstChild("statement"), st, loops+1)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Cond: cond, Body: body}, nil
	}
	if t.firstChild("do") != nil {
		body, err := lowerStmt(t.firstChild("statement"), st, loops+1)
		if err != nil {
			return nil, err
		}
		cond, err := lowerExpr(t.firstChild("expression"), st)
		if err != nil {
			return nil, err
		}
		return &DoWhileStmt{Body: body, Cond: cond}, nil
	}
	return lowerForStatement(t, st, loops)
}

// lowerForStatement handles the four for(...) shapes cgrammar.go encodes:
// expression-statement or declaration init, with or without a post
// expression. A declaration init opens a scope enclosing the whole loop
// (spec.md §4.5) so the induction variable isn't visible past the loop.
func lowerForStatement(t *ParseTree, st *SymbolTable, loops int) (Stmt, *CompileError) {
	scopeID := st.PushScope()
	defer st.PopScope()

	var initStmt Stmt
	if decl := t.firstChild("declaration"); decl != nil {
		decls, err := lowerLocalDeclarations(decl, st)
		if err != nil {
			return nil, err
		}
		if len(decls) == 1 {
			initStmt = &DeclStmt{Decl: decls[0]}
		} else {
			// Multiple comma-separated declarators ("for (int i=0, j=1; ...)")
			// group into the loop's own scope rather than opening a nested one.
			items := make([]Stmt, len(decls))
			for i, d := range decls {
				items[i] = &DeclStmt{Decl: d}
			}
			initStmt = &CompoundStmt{Items: items, ScopeID: scopeID}
		}
	} else if exprStmts := t.allChildren("expression-statement"); len(exprStmts) > 0 {
		s, err := lowerExpressionStatement(exprStmts[0], st)
		if err != nil {
			return nil, err
		}
		if s.(*ExprStmt).X != nil {
			initStmt = s
		}
	}

	exprStmts := t.allChildren("expression-statement")
	condIdx := 0
	if t.firstChild("declaration") == nil {
		condIdx = 1
	}
	var cond Expr
	if condIdx < len(exprStmts) {
		condStmt, err := lowerExpressionStatement(exprStmts[condIdx], st)
		if err != nil {
			return nil, err
		}
		cond = condStmt.(*ExprStmt).X
	}

	var post Stmt
	if postExpr := t.firstChild("expression"); postExpr != nil {
		x, err := lowerExpr(postExpr, st)
		if err != nil {
			return nil, err
		}
		post = &ExprStmt{X: x}
	}

	body, err := lowerStmt(t.firstChild("statement"), st, loops+1)
	if err != nil {
		return nil, err
	}
	return &ForStmt{Init: initStmt, Cond: cond, Post: post, Body: body, ScopeID: scopeID}, nil
}

func lowerJumpStatement(t *ParseTree, st *SymbolTable, loops int) (Stmt, *CompileError) {
	switch {
	case t.firstChild("break") != nil:
		if loops == 0 {
			return nil, errf(KindBreakOutsideLoop, t.line(), "break outside of a loop")
		}
		return &BreakStmt{Line: t.line()}, nil
	case t.firstChild("continue") != nil:
		if loops == 0 {
			return nil, errf(KindContinueOutsideLoop, t.line(), "continue outside of a loop")
		}
		return &ContinueStmt{Line: t.line()}, nil
	case t.firstChild("return") != nil:
		var value Expr
		if e := t.firstChild("expression"); e != nil {
			x, err := lowerExpr(e, st)
			if err != nil {
				return nil, err
			}
			value = x
		}
		return &ReturnStmt{Value: value, Line: t.line()}, nil
	}
	return nil, errf(KindUnsupportedConstruct, t.line(), "unsupported jump statement (goto is not supported)")
}

// lowerLabeledStatement lowers "identifier : statement". Labels are tracked
// only so labeled code parses and lowers; nothing ever jumps to one (goto is
// a non-goal).
func lowerLabeledStatement(t *ParseTree, st *SymbolTable, loops int) (Stmt, *CompileError) {
	label := t.firstChild("identifier").Tok.Lexeme
	inner, err := lowerStmt(t.firstChild("statement"), st, loops)
	if err != nil {
		return nil, err
	}
	return &LabeledStmt{Label: label, Stmt: inner}, nil
}

// lowerLocalDeclarations lowers a declaration block-item: "declaration-
// specifiers init-declarator-list ;", one *Decl per comma-separated
// declarator. Each is registered in the current scope as it is declared, so
// a later initializer in the same list may already see it (e.g.
// "int a = 1, b = a + 1;").
func lowerLocalDeclarations(t *ParseTree, st *SymbolTable) ([]*Decl, *CompileError) {
	base, err := lowerDeclarationSpecifiers(t.firstChild("declaration-specifiers"), st)
	if err != nil {
		return nil, err
	}
	initList := t.firstChild("init-declarator-list")
	if initList == nil {
		return nil, errf(KindSyntaxError, t.line(), "declaration has no declarator")
	}

	var decls []*Decl
	for _, initDecl := range flattenList(initList, "init-declarator", "init-declarator-list") {
		declarator := initDecl.firstChild("declarator")
		name, typ, _, isFunc, derr := lowerDeclarator(base, declarator, st)
		if derr != nil {
			return nil, derr
		}
		if isFunc {
			return nil, errf(KindUnsupportedConstruct, t.line(), "nested function declarations are not supported")
		}
		if typ.Kind == KArray {
			for inner := *typ.Elem; inner.Kind == KArray; inner = *inner.Elem {
				if inner.Extent.Kind == ExtentVariable {
					return nil, errf(KindUnsupportedConstruct, t.line(), "only the outermost dimension of a variable-length array may vary")
				}
			}
		}

		decl := &Decl{Name: name, Type: typ, Storage: SCLocal, Line: t.line()}
		if initExpr := initDecl.firstChild("assignment-expression"); initExpr != nil {
			x, ierr := lowerExpr(initExpr, st)
			if ierr != nil {
				return nil, ierr
			}
			if typ.IsArithmetic() && !typ.Equal(exprType(x)) {
				x = &CastExpr{ExprInfo: ExprInfo{Type: typ, Category: RValue, Line: t.line()}, Target: typ, Operand: x}
			}
			decl.Init = x
		}
		if err := st.Declare(name, decl); err != nil {
			return nil, errf(KindRedeclaration, t.line(), "%s", err.Error())
		}
		decls = append(decls, decl)
	}
	return decls, nil
}
