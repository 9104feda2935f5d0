package compiler

// cGrammarText is the phrase-level C99 rule table this module ships,
// reduced to the productions the supported subset needs (spec.md §1
// Non-goals: no switch, no unary &/*/sizeof, no unions, no bitfields, no
// varargs, no global variables, no typedefs). It is written in the textual
// format spec.md §6 mandates and MUST be loadable verbatim by LoadGrammar.
//
// Every list production below is right-recursive ("a b-list" rather than
// "b-list a") rather than the left-recursive form the ISO C99 Annex A
// appendix uses, so that the packrat tree builder in parser.go — which
// does not support left recursion — can walk it directly; lowering folds
// the resulting right-nested chain back into a left-associative AST.
//
// Within every such right-recursive rule the recursive alternative is
// listed BEFORE the base case. parser.go's treeBuilder tries a
// non-terminal's alternatives in the order they appear here and commits to
// the first one whose body fully matches, so the base case (a bare prefix
// of the recursive body) must never be tried first: tried first, it would
// match and memoize the short derivation before the recursive alternative
// — which actually consumes the rest of the list — ever gets a chance.
const cGrammarText = `
(6.9) translation-unit:
	external-declaration translation-unit
	external-declaration

external-declaration:
	function-definition

(6.9.1) function-definition:
	declaration-specifiers declarator compound-statement

(6.7) declaration-specifiers:
	type-specifier declaration-specifiers
	type-specifier

(6.7.2) type-specifier:
	void
	_Bool
	char
	short
	int
	long
	float
	double
	signed
	unsigned
	struct-or-union-specifier

(6.7.2.1) struct-or-union-specifier:
	struct identifier { struct-declaration-list }
	struct { struct-declaration-list }
	struct identifier

struct-declaration-list:
	struct-declaration struct-declaration-list
	struct-declaration

(6.7.2.1) struct-declaration:
	declaration-specifiers struct-declarator-list ;

struct-declarator-list:
	declarator , struct-declarator-list
	declarator

(6.7.5) declarator:
	identifier ( parameter-list )
	identifier ( )
	identifier array-suffix-list
	identifier

array-suffix-list:
	array-suffix array-suffix-list
	array-suffix

array-suffix:
	[ assignment-expression ]
	[ ]

(6.7.5) parameter-list:
	parameter-declaration , parameter-list
	parameter-declaration

(6.7.5) parameter-declaration:
	declaration-specifiers declarator

(6.8.2) compound-statement:
	{ block-item-list }
	{ }

block-item-list:
	block-item block-item-list
	block-item

block-item:
	declaration
	statement

(6.7) declaration:
	declaration-specifiers init-declarator-list ;

init-declarator-list:
	init-declarator , init-declarator-list
	init-declarator

(6.7) init-declarator:
	declarator = assignment-expression
	declarator

(6.8) statement:
	labeled-statement
	compound-statement
	expression-statement
	selection-statement
	iteration-statement
	jump-statement

(6.8.1) labeled-statement:
	identifier : statement

(6.8.3) expression-statement:
	expression ;
	;

(6.8.4) selection-statement:
	if ( expression ) statement else statement
	if ( expression ) statement

(6.8.5) iteration-statement:
	while ( expression ) statement
	do statement while ( expression ) ;
	for ( expression-statement expression-statement expression ) statement
	for ( expression-statement expression-statement ) statement
	for ( declaration expression-statement expression ) statement
	for ( declaration expression-statement ) statement

(6.8.6) jump-statement:
	continue ;
	break ;
	return expression ;
	return ;

(6.5.17) expression:
	assignment-expression , expression
	assignment-expression

(6.5.16) assignment-expression:
	unary-expression assignment-operator assignment-expression
	conditional-expression

(6.5.16) assignment-operator: one of
	= *= /= %= += -= <<= >>= &= ^= |=

(6.5.15) conditional-expression:
	logical-or-expression ? expression : conditional-expression
	logical-or-expression

(6.5.14) logical-or-expression:
	logical-and-expression || logical-or-expression
	logical-and-expression

(6.5.13) logical-and-expression:
	inclusive-or-expression && logical-and-expression
	inclusive-or-expression

(6.5.12) inclusive-or-expression:
	exclusive-or-expression | inclusive-or-expression
	exclusive-or-expression

(6.5.11) exclusive-or-expression:
	and-expression ^ exclusive-or-expression
	and-expression

(6.5.10) and-expression:
	equality-expression & and-expression
	equality-expression

(6.5.9) equality-expression:
	relational-expression == equality-expression
	relational-expression != equality-expression
	relational-expression

(6.5.8) relational-expression:
	shift-expression < relational-expression
	shift-expression > relational-expression
	shift-expression <= relational-expression
	shift-expression >= relational-expression
	shift-expression

(6.5.7) shift-expression:
	additive-expression << shift-expression
	additive-expression >> shift-expression
	additive-expression

(6.5.6) additive-expression:
	multiplicative-expression + additive-expression
	multiplicative-expression - additive-expression
	multiplicative-expression

(6.5.5) multiplicative-expression:
	cast-expression * multiplicative-expression
	cast-expression / multiplicative-expression
	cast-expression % multiplicative-expression
	cast-expression

(6.5.4) cast-expression:
	unary-expression
	( type-name ) cast-expression

(6.7.6) type-name:
	type-specifier type-name
	type-specifier

(6.5.3) unary-expression:
	postfix-expression
	++ unary-expression
	-- unary-expression
	unary-operator cast-expression

(6.5.3) unary-operator: one of
	+ - ~ !

(6.5.2) postfix-expression:
	primary-expression postfix-op-list
	primary-expression

postfix-op-list:
	postfix-op postfix-op-list
	postfix-op

postfix-op:
	[ expression ]
	( argument-expression-list )
	( )
	. identifier
	-> identifier
	++
	--

(6.5.2) argument-expression-list:
	assignment-expression , argument-expression-list
	assignment-expression

(6.5.1) primary-expression:
	identifier
	integer-constant
	floating-constant
	character-constant
	( expression )
	compound-literal

(6.5.2) compound-literal:
	( type-name ) { initializer-list }

initializer-list:
	assignment-expression , initializer-list
	assignment-expression

(6.6) constant-expression:
	conditional-expression
`

var cGrammar = mustLoadCGrammar()

func mustLoadCGrammar() *Grammar {
	g, err := LoadGrammar(cGrammarText)
	if err != nil {
		panic("cgrammar: " + err.Error())
	}
	return g
}
