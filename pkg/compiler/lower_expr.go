package compiler

// literalOpToken maps the literal spelling a grammar terminal carries to
// the TokenType the AST's Op fields use.
var literalOpToken = map[string]TokenType{
	"+": PLUS, "-": MINUS, "*": STAR, "/": SLASH, "%": PERCENT,
	"<<": SHL, ">>": SHR, "<": LESS, ">": GREATER, "<=": LESS_EQ, ">=": GREATER_EQ,
	"==": EQUALS, "!=": NOT_EQ, "&": AND, "|": PIPE, "^": CARET,
	"&&": AND_LOGICAL, "||": OR_LOGICAL,
	"=": ASSIGN, "*=": STAR_ASSIGN, "/=": SLASH_ASSIGN, "%=": PERCENT_ASSIGN,
	"+=": PLUS_ASSIGN, "-=": MINUS_ASSIGN, "<<=": SHL_ASSIGN, ">>=": SHR_ASSIGN,
	"&=": AND_ASSIGN, "^=": CARET_ASSIGN, "|=": PIPE_ASSIGN,
	"++": PLUS_PLUS, "--": MINUS_MINUS,
	"~": TILDE, "!": NOT,
}

// binLevelSpec describes one precedence level of the right-recursive
// binary-operator chain cgrammar.go encodes. lowerBinaryLevel walks the
// chain and left-folds it, so the resulting AST associates the way C
// requires even though the parse tree nests to the right.
type binLevelSpec struct {
	self, operand string
	ops           []string
	logical       bool
}

var binLevels = []binLevelSpec{
	{"logical-or-expression", "logical-and-expression", []string{"||"}, true},
	{"logical-and-expression", "inclusive-or-expression", []string{"&&"}, true},
	{"inclusive-or-expression", "exclusive-or-expression", []string{"|"}, false},
	{"exclusive-or-expression", "and-expression", []string{"^"}, false},
	{"and-expression", "equality-expression", []string{"&"}, false},
	{"equality-expression", "relational-expression", []string{"==", "!="}, false},
	{"relational-expression", "shift-expression", []string{"<", ">", "<=", ">="}, false},
	{"shift-expression", "additive-expression", []string{"<<", ">>"}, false},
	{"additive-expression", "multiplicative-expression", []string{"+", "-"}, false},
	{"multiplicative-expression", "cast-expression", []string{"*", "/", "%"}, false},
}

// lowerExpr dispatches on t.Symbol to the handler for that grammar
// production and returns a fully typed Expr.
func lowerExpr(t *ParseTree, st *SymbolTable) (Expr, *CompileError) {
	for _, lv := range binLevels {
		if t.Symbol == lv.self {
			return lowerBinaryLevel(t, lv, st)
		}
	}
	switch t.Symbol {
	case "expression":
		return lowerCommaExpr(t, st)
	case "assignment-expression":
		return lowerAssignmentExpr(t, st)
	case "conditional-expression":
		return lowerConditionalExpr(t, st)
	case "cast-expression":
		return lowerCastExpr(t, st)
	case "unary-expression":
		return lowerUnaryExpr(t, st)
	case "postfix-expression":
		return lowerPostfixExpr(t, st)
	case "primary-expression":
		return lowerPrimaryExpr(t, st)
	}
	return nil, errf(KindSyntaxError, t.line(), "lowerExpr: unexpected node %q", t.Symbol)
}

// collectChain walks the right-recursive self/operand/op chain starting at
// t and returns the operand nodes and the operator between each pair, in
// left-to-right order.
func collectChain(t *ParseTree, selfSymbol, operandSymbol string, ops []string) ([]*ParseTree, []string) {
	var operands []*ParseTree
	var chosen []string
	cur := t
	for {
		operands = append(operands, cur.firstChild(operandSymbol))
		opFound := ""
		for _, op := range ops {
			if cur.firstChild(op) != nil {
				opFound = op
				break
			}
		}
		if opFound == "" {
			break
		}
		chosen = append(chosen, opFound)
		next := cur.firstChild(selfSymbol)
		if next == nil {
			break
		}
		cur = next
	}
	return operands, chosen
}

func lowerBinaryLevel(t *ParseTree, lv binLevelSpec, st *SymbolTable) (Expr, *CompileError) {
	operands, ops := collectChain(t, lv.self, lv.operand, lv.ops)
	left, err := lowerExpr(operands[0], st)
	if err != nil {
		return nil, err
	}
	for i, opLit := range ops {
		right, err := lowerExpr(operands[i+1], st)
		if err != nil {
			return nil, err
		}
		if lv.logical {
			left = &LogicalExpr{
				ExprInfo: ExprInfo{Type: TyInt, Category: RValue, Line: t.line()},
				Op:       literalOpToken[opLit], Left: left, Right: right,
			}
			continue
		}
		left, err = buildBinary(opLit, left, right, t.line())
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func buildBinary(opLit string, left, right Expr, line int) (Expr, *CompileError) {
	lt, rt := exprType(left), exprType(right)
	bitwise := opLit == "&" || opLit == "|" || opLit == "^" || opLit == "<<" || opLit == ">>"
	if bitwise {
		if !lt.IsInteger() || !rt.IsInteger() {
			return nil, errf(KindTypeMismatch, line, "operator %q requires integer operands, got %s and %s", opLit, lt, rt)
		}
	} else if !lt.IsArithmetic() || !rt.IsArithmetic() {
		return nil, errf(KindTypeMismatch, line, "operator %q requires arithmetic operands, got %s and %s", opLit, lt, rt)
	}
	common := usualArithmetic(lt, rt)
	resultType := common
	switch opLit {
	case "==", "!=", "<", ">", "<=", ">=":
		resultType = TyInt
	}
	return &BinaryExpr{
		ExprInfo:    ExprInfo{Type: resultType, Category: RValue, Line: line},
		Op:          literalOpToken[opLit],
		Left:        left, Right: right,
		OperandType: common,
	}, nil
}

func lowerCommaExpr(t *ParseTree, st *SymbolTable) (Expr, *CompileError) {
	left, err := lowerExpr(t.firstChild("assignment-expression"), st)
	if err != nil {
		return nil, err
	}
	rest := t.firstChild("expression")
	if rest == nil {
		return left, nil
	}
	right, err := lowerExpr(rest, st)
	if err != nil {
		return nil, err
	}
	return &CommaExpr{
		ExprInfo: ExprInfo{Type: exprType(right), Category: RValue, Line: t.line()},
		Left:     left, Right: right,
	}, nil
}

func lowerAssignmentExpr(t *ParseTree, st *SymbolTable) (Expr, *CompileError) {
	if cond := t.firstChild("conditional-expression"); cond != nil {
		return lowerExpr(cond, st)
	}
	lhs, err := lowerExpr(t.firstChild("unary-expression"), st)
	if err != nil {
		return nil, err
	}
	if !isLvalue(lhs) {
		return nil, errf(KindNotAnLvalue, t.line(), "left side of assignment is not an lvalue")
	}
	opNode := t.firstChild("assignment-operator")
	opLit := opNode.Children[0].Symbol

	rhs, err := lowerExpr(t.firstChild("assignment-expression"), st)
	if err != nil {
		return nil, err
	}
	lt := exprType(lhs)
	if !isLvalueCompatibleAssign(lt, exprType(rhs)) {
		return nil, errf(KindTypeMismatch, t.line(), "cannot assign %s to %s", exprType(rhs), lt)
	}
	if opLit == "=" && lt.IsArithmetic() && !lt.Equal(exprType(rhs)) {
		rhs = &CastExpr{ExprInfo: ExprInfo{Type: lt, Category: RValue, Line: t.line()}, Target: lt, Operand: rhs}
	}
	return &AssignExpr{
		ExprInfo: ExprInfo{Type: lt, Category: RValue, Line: t.line()},
		Op:       literalOpToken[opLit],
		Left:     lhs, Right: rhs,
	}, nil
}

func lowerConditionalExpr(t *ParseTree, st *SymbolTable) (Expr, *CompileError) {
	cond, err := lowerExpr(t.firstChild("logical-or-expression"), st)
	if err != nil {
		return nil, err
	}
	thenNode := t.firstChild("expression")
	if thenNode == nil {
		return cond, nil
	}
	thenExpr, err := lowerExpr(thenNode, st)
	if err != nil {
		return nil, err
	}
	elseExpr, err := lowerExpr(t.firstChild("conditional-expression"), st)
	if err != nil {
		return nil, err
	}
	tt, et := exprType(thenExpr), exprType(elseExpr)
	var result CType
	switch {
	case tt.IsArithmetic() && et.IsArithmetic():
		result = usualArithmetic(tt, et)
	case tt.Equal(et):
		result = tt
	default:
		return nil, errf(KindTypeMismatch, t.line(), "incompatible types in conditional expression: %s and %s", tt, et)
	}
	return &CondExpr{
		ExprInfo: ExprInfo{Type: result, Category: RValue, Line: t.line()},
		Cond:     cond, Then: thenExpr, Else: elseExpr,
	}, nil
}

func lowerCastExpr(t *ParseTree, st *SymbolTable) (Expr, *CompileError) {
	if u := t.firstChild("unary-expression"); u != nil {
		return lowerExpr(u, st)
	}
	target, cerr := lowerTypeName(t.firstChild("type-name"), st)
	if cerr != nil {
		return nil, cerr
	}
	operand, err := lowerExpr(t.firstChild("cast-expression"), st)
	if err != nil {
		return nil, err
	}
	return &CastExpr{ExprInfo: ExprInfo{Type: target, Category: RValue, Line: t.line()}, Target: target, Operand: operand}, nil
}

// lowerTypeName resolves a type-name node (spec.md §4.4 cast target), a
// right-recursive chain of type-specifier children just like
// declaration-specifiers but never carrying storage/declarator syntax.
func lowerTypeName(t *ParseTree, st *SymbolTable) (CType, *CompileError) {
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
		} else {
			kw = append(kw, spec.Children[0].Tok.Lexeme)
		}
		cur = cur.firstChild("type-name")
	}
	if structTy != nil {
		return *structTy, nil
	}
	return resolveKeywordType(kw, t.line())
}

func lowerUnaryExpr(t *ParseTree, st *SymbolTable) (Expr, *CompileError) {
	if p := t.firstChild("postfix-expression"); p != nil {
		return lowerExpr(p, st)
	}
	if t.firstChild("++") != nil {
		operand, err := lowerExpr(t.firstChild("unary-expression"), st)
		if err != nil {
			return nil, err
		}
		return buildIncDec(operand, PLUS_PLUS, true, t.line())
	}
	if t.firstChild("--") != nil {
		operand, err := lowerExpr(t.firstChild("unary-expression"), st)
		if err != nil {
			return nil, err
		}
		return buildIncDec(operand, MINUS_MINUS, true, t.line())
	}
	opNode := t.firstChild("unary-operator")
	opLit := opNode.Children[0].Symbol
	operand, err := lowerExpr(t.firstChild("cast-expression"), st)
	if err != nil {
		return nil, err
	}
	return buildUnary(opLit, operand, t.line())
}

func buildUnary(opLit string, operand Expr, line int) (Expr, *CompileError) {
	opType := exprType(operand)
	switch opLit {
	case "+", "-":
		if !opType.IsArithmetic() {
			return nil, errf(KindTypeMismatch, line, "unary %q requires an arithmetic operand", opLit)
		}
		t := opType
		if opType.Kind != KFloat {
			t = promoteInteger(opType)
		}
		return &UnaryExpr{ExprInfo: ExprInfo{Type: t, Category: RValue, Line: line}, Op: literalOpToken[opLit], Operand: operand}, nil
	case "~":
		if !opType.IsInteger() {
			return nil, errf(KindTypeMismatch, line, "~ requires an integer operand")
		}
		t := promoteInteger(opType)
		return &UnaryExpr{ExprInfo: ExprInfo{Type: t, Category: RValue, Line: line}, Op: TILDE, Operand: operand}, nil
	case "!":
		if !opType.IsScalar() {
			return nil, errf(KindTypeMismatch, line, "! requires a scalar operand")
		}
		return &UnaryExpr{ExprInfo: ExprInfo{Type: TyInt, Category: RValue, Line: line}, Op: NOT, Operand: operand}, nil
	}
	return nil, errf(KindSyntaxError, line, "unknown unary operator %q", opLit)
}

func buildIncDec(operand Expr, op TokenType, prefix bool, line int) (Expr, *CompileError) {
	if !isLvalue(operand) {
		return nil, errf(KindNotAnLvalue, line, "operand of ++/-- is not an lvalue")
	}
	return &IncDecExpr{ExprInfo: ExprInfo{Type: exprType(operand), Category: RValue, Line: line}, Op: op, Operand: operand, Prefix: prefix}, nil
}

func lowerPostfixExpr(t *ParseTree, st *SymbolTable) (Expr, *CompileError) {
	base, err := lowerExpr(t.firstChild("primary-expression"), st)
	if err != nil {
		return nil, err
	}
	opList := t.firstChild("postfix-op-list")
	if opList == nil {
		return base, nil
	}
	for _, op := range flattenList(opList, "postfix-op", "postfix-op-list") {
		base, err = applyPostfixOp(base, op, st)
		if err != nil {
			return nil, err
		}
	}
	return base, nil
}

func applyPostfixOp(base Expr, op *ParseTree, st *SymbolTable) (Expr, *CompileError) {
	switch {
	case op.firstChild("[") != nil:
		idx, err := lowerExpr(op.firstChild("expression"), st)
		if err != nil {
			return nil, err
		}
		return buildIndexExpr(base, idx, op.line())
	case op.firstChild("(") != nil:
		var args []Expr
		if argList := op.firstChild("argument-expression-list"); argList != nil {
			for _, a := range flattenList(argList, "assignment-expression", "argument-expression-list") {
				ex, err := lowerExpr(a, st)
				if err != nil {
					return nil, err
				}
				args = append(args, ex)
			}
		}
		return buildCallExpr(base, args, op.line())
	case op.firstChild(".") != nil:
		return buildMemberExpr(base, op.firstChild("identifier").Tok.Lexeme, false, op.line())
	case op.firstChild("->") != nil:
		return buildMemberExpr(base, op.firstChild("identifier").Tok.Lexeme, true, op.line())
	case op.firstChild("++") != nil:
		return buildIncDec(base, PLUS_PLUS, false, op.line())
	case op.firstChild("--") != nil:
		return buildIncDec(base, MINUS_MINUS, false, op.line())
	}
	return nil, errf(KindSyntaxError, op.line(), "unrecognized postfix operator")
}

func buildIndexExpr(base Expr, idx Expr, line int) (Expr, *CompileError) {
	bt := exprType(base)
	var elem CType
	switch bt.Kind {
	case KArray, KPointer:
		elem = *bt.Elem
	default:
		return nil, errf(KindTypeMismatch, line, "cannot index non-array/non-pointer type %s", bt)
	}
	if !exprType(idx).IsInteger() {
		return nil, errf(KindTypeMismatch, line, "array index must be an integer")
	}
	return &IndexExpr{ExprInfo: ExprInfo{Type: elem, Category: LValue, Line: line}, Array: base, Index: idx}, nil
}

func buildMemberExpr(base Expr, member string, arrow bool, line int) (Expr, *CompileError) {
	bt := exprType(base)
	if arrow {
		if bt.Kind != KPointer {
			return nil, errf(KindTypeMismatch, line, "-> requires a pointer operand")
		}
		bt = *bt.Elem
	}
	if bt.Kind != KStruct {
		return nil, errf(KindTypeMismatch, line, "member access on non-struct type %s", bt)
	}
	f, ok := bt.Struct.field(member)
	if !ok {
		return nil, errf(KindTypeMismatch, line, "struct %s has no member %q", bt.Struct.Name, member)
	}
	return &MemberExpr{ExprInfo: ExprInfo{Type: f.Type, Category: LValue, Line: line}, Base: base, Member: member, Arrow: arrow}, nil
}

func buildCallExpr(callee Expr, args []Expr, line int) (Expr, *CompileError) {
	ident, ok := callee.(*Ident)
	if !ok || ident.Decl == nil || !ident.Decl.IsFunction {
		return nil, errf(KindUnsupportedConstruct, line, "computed function calls are not supported")
	}
	decl := ident.Decl
	params := decl.Type.Func.Params
	if len(args) != len(params) {
		return nil, errf(KindTypeMismatch, line, "function %s expects %d arguments, got %d", decl.Name, len(params), len(args))
	}
	converted := make([]Expr, len(args))
	for i, a := range args {
		if !exprType(a).Equal(params[i]) {
			converted[i] = &CastExpr{ExprInfo: ExprInfo{Type: params[i], Category: RValue, Line: line}, Target: params[i], Operand: a}
		} else {
			converted[i] = a
		}
	}
	return &CallExpr{
		ExprInfo: ExprInfo{Type: decl.Type.Func.Return, Category: RValue, Line: line},
		Callee:   decl, Args: converted,
	}, nil
}

func lowerPrimaryExpr(t *ParseTree, st *SymbolTable) (Expr, *CompileError) {
	switch {
	case t.firstChild("identifier") != nil:
		name := t.firstChild("identifier").Tok.Lexeme
		b, ok := st.Resolve(name)
		if !ok {
			return nil, errf(KindUndeclaredIdentifier, t.line(), "undeclared identifier %q", name)
		}
		cat := RValue
		if b.Kind == BindVar {
			cat = LValue
		}
		return &Ident{ExprInfo: ExprInfo{Type: b.Decl.Type, Category: cat, Line: t.line()}, Name: name, Decl: b.Decl}, nil

	case t.firstChild("integer-constant") != nil:
		lit := t.firstChild("integer-constant")
		val, ty, err := parseIntLiteral(lit.Tok.Lexeme)
		if err != nil {
			return nil, errf(KindLexError, t.line(), "malformed integer constant %q: %v", lit.Tok.Lexeme, err)
		}
		return &IntLiteral{ExprInfo: ExprInfo{Type: ty, Category: RValue, Line: t.line()}, Value: val}, nil

	case t.firstChild("floating-constant") != nil:
		lit := t.firstChild("floating-constant")
		val, ty, err := parseFloatLiteral(lit.Tok.Lexeme)
		if err != nil {
			return nil, errf(KindLexError, t.line(), "malformed floating constant %q: %v", lit.Tok.Lexeme, err)
		}
		return &FloatLiteral{ExprInfo: ExprInfo{Type: ty, Category: RValue, Line: t.line()}, Value: val}, nil

	case t.firstChild("character-constant") != nil:
		lit := t.firstChild("character-constant")
		val, err := parseCharLiteral(lit.Tok.Lexeme)
		if err != nil {
			return nil, errf(KindLexError, t.line(), "malformed character constant %q: %v", lit.Tok.Lexeme, err)
		}
		return &IntLiteral{ExprInfo: ExprInfo{Type: TyInt, Category: RValue, Line: t.line()}, Value: val}, nil

	case t.firstChild("expression") != nil:
		return lowerExpr(t.firstChild("expression"), st)

	case t.firstChild("compound-literal") != nil:
		return lowerCompoundLiteral(t.firstChild("compound-literal"), st)
	}
	return nil, errf(KindSyntaxError, t.line(), "unrecognized primary expression")
}

func lowerCompoundLiteral(t *ParseTree, st *SymbolTable) (Expr, *CompileError) {
	target, cerr := lowerTypeName(t.firstChild("type-name"), st)
	if cerr != nil {
		return nil, cerr
	}
	var elements []Expr
	if initList := t.firstChild("initializer-list"); initList != nil {
		for _, item := range flattenList(initList, "assignment-expression", "initializer-list") {
			ex, err := lowerExpr(item, st)
			if err != nil {
				return nil, err
			}
			elements = append(elements, ex)
		}
	}
	if target.Kind == KArray && target.Extent.Kind == ExtentIncomplete {
		target.Extent = ArrayExtent{Kind: ExtentFixed, Fixed: uint64(len(elements))}
	}
	return &CompoundLiteralExpr{ExprInfo: ExprInfo{Type: target, Category: LValue, Line: t.line()}, Elements: elements}, nil
}
