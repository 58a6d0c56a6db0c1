/*
File    : go-ifj21/parser/grammar.go
*/
package parser

import "github.com/ifjlab/go-ifj21/lexer"

// NTerm enumerates the grammar's non-terminals.
type NTerm int

const (
	NTForLoop NTerm = iota
	NTFuncCall
	NTUnop
	NTFuncTypeList
	NTIdentifierListWithTypes
	NTGlobalStatement
	NTTypeList2
	NTCondOptElseif
	NTOptReturnStatement
	NTIdentifierListWithTypes2
	NTStatement
	NTFuncDecl
	NTFuncDef
	NTFunExpressionList2
	NTIdentifierList2
	NTTerm
	NTOptionalForStep
	NTParenExpListOrIDList2
	NTIdentifierWithType
	NTWhileLoop
	NTOptionalFunParens
	NTReturnStatement
	NTExpression
	NTTypeList
	NTDeclOptionalAssignment
	NTOptionalFunExpressionList
	NTRetExpressionList
	NTRepeatUntil
	NTBinop
	NTExpressionList
	NTStatementList
	NTFuncTypeList2
	NTAssignment
	NTExpressionList2
	NTRetExpressionList2
	NTProgram
	NTCondStatement
	NTStatementList2
	NTOptBinop
	NTDeclaration
	NTIdentifierList
	NTGlobalStatementList
)

func (n NTerm) String() string {
	switch n {
	case NTForLoop:
		return "for-loop"
	case NTFuncCall:
		return "function call"
	case NTFuncTypeList:
		return "function type list"
	case NTIdentifierListWithTypes:
		return "typed identifier list"
	case NTGlobalStatement:
		return "global statement"
	case NTTypeList2:
		return "type list"
	case NTCondOptElseif:
		return "elseif/else"
	case NTOptReturnStatement:
		return "optional return"
	case NTIdentifierListWithTypes2:
		return "typed identifier list"
	case NTStatement:
		return "statement"
	case NTFuncDecl:
		return "function declaration"
	case NTFuncDef:
		return "function definition"
	case NTFunExpressionList2:
		return "argument list"
	case NTIdentifierList2:
		return "identifier list"
	case NTOptionalForStep:
		return "for step"
	case NTParenExpListOrIDList2:
		return "call or assignment"
	case NTIdentifierWithType:
		return "typed identifier"
	case NTWhileLoop:
		return "while loop"
	case NTReturnStatement:
		return "return statement"
	case NTExpression:
		return "expression"
	case NTTypeList:
		return "type list"
	case NTDeclOptionalAssignment:
		return "initialiser"
	case NTOptionalFunExpressionList:
		return "argument list"
	case NTRetExpressionList:
		return "return value list"
	case NTRepeatUntil:
		return "repeat-until"
	case NTExpressionList:
		return "expression list"
	case NTStatementList:
		return "statement list"
	case NTFuncTypeList2:
		return "function type list"
	case NTAssignment:
		return "assignment"
	case NTExpressionList2:
		return "expression list"
	case NTRetExpressionList2:
		return "return value list"
	case NTProgram:
		return "program"
	case NTCondStatement:
		return "if statement"
	case NTStatementList2:
		return "statement list"
	case NTDeclaration:
		return "declaration"
	case NTIdentifierList:
		return "identifier list"
	case NTGlobalStatementList:
		return "global statement list"
	}
	return "expression part"
}

// gramSym is one grammar symbol of an expansion: either a non-terminal or a
// terminal token kind.
type gramSym struct {
	isNTerm bool
	nterm   NTerm
	term    lexer.Kind
}

func nt(n NTerm) gramSym      { return gramSym{isNTerm: true, nterm: n} }
func tt(k lexer.Kind) gramSym { return gramSym{term: k} }

// expansion is the ordered right-hand side of a grammar rule.
type expansion []gramSym

// firstExpression is the set of terminals an expression can start with.
var firstExpression = []lexer.Kind{
	lexer.Identifier, lexer.Integer, lexer.Number, lexer.String, lexer.Bool,
	lexer.Nil, lexer.LParen, lexer.Minus, lexer.Hash, lexer.Not,
}

// firstStatement is the set of terminals a plain statement can start with
// (return is handled through NTOptReturnStatement).
var firstStatement = []lexer.Kind{
	lexer.Local, lexer.Identifier, lexer.If, lexer.While, lexer.For,
	lexer.Repeat, lexer.Break,
}

// followStatement is the set of terminals that can follow a statement inside
// a body (plus return, which must come last).
var followStatement = []lexer.Kind{
	lexer.Return, lexer.End, lexer.Else, lexer.Elseif, lexer.Until,
}

// table is the precomputed expansion table keyed on (non-terminal,
// lookahead). Missing entries are syntax errors.
var table = buildTable()

func add(t map[NTerm]map[lexer.Kind]expansion, n NTerm, exp expansion, lookaheads ...lexer.Kind) {
	row, ok := t[n]
	if !ok {
		row = make(map[lexer.Kind]expansion)
		t[n] = row
	}
	for _, la := range lookaheads {
		row[la] = exp
	}
}

func buildTable() map[NTerm]map[lexer.Kind]expansion {
	t := make(map[NTerm]map[lexer.Kind]expansion)

	add(t, NTProgram,
		expansion{tt(lexer.Require), tt(lexer.String), nt(NTGlobalStatementList), tt(lexer.EOF)},
		lexer.Require)

	add(t, NTGlobalStatementList,
		expansion{nt(NTGlobalStatement), nt(NTGlobalStatementList)},
		lexer.Global, lexer.Function, lexer.Identifier)
	add(t, NTGlobalStatementList, expansion{}, lexer.EOF)

	add(t, NTGlobalStatement, expansion{nt(NTFuncDecl)}, lexer.Global)
	add(t, NTGlobalStatement, expansion{nt(NTFuncDef)}, lexer.Function)
	add(t, NTGlobalStatement, expansion{nt(NTFuncCall)}, lexer.Identifier)

	// global f : function(integer, string) : number
	add(t, NTFuncDecl,
		expansion{tt(lexer.Global), tt(lexer.Identifier), tt(lexer.Colon), tt(lexer.Function),
			tt(lexer.LParen), nt(NTTypeList), tt(lexer.RParen), nt(NTFuncTypeList)},
		lexer.Global)

	add(t, NTTypeList, expansion{tt(lexer.TypeKw), nt(NTTypeList2)}, lexer.TypeKw, lexer.Nil)
	add(t, NTTypeList, expansion{}, lexer.RParen)
	add(t, NTTypeList2, expansion{tt(lexer.Comma), tt(lexer.TypeKw), nt(NTTypeList2)}, lexer.Comma)
	add(t, NTTypeList2, expansion{}, lexer.RParen)

	// optional return-type list ": t1, t2" shared by declaration and definition
	add(t, NTFuncTypeList,
		expansion{tt(lexer.Colon), tt(lexer.TypeKw), nt(NTFuncTypeList2)},
		lexer.Colon)
	funcTypeListFollow := append([]lexer.Kind{lexer.Global, lexer.Function, lexer.Identifier, lexer.EOF},
		append(append([]lexer.Kind{}, firstStatement...), followStatement...)...)
	add(t, NTFuncTypeList, expansion{}, funcTypeListFollow...)
	add(t, NTFuncTypeList2,
		expansion{tt(lexer.Comma), tt(lexer.TypeKw), nt(NTFuncTypeList2)},
		lexer.Comma)
	add(t, NTFuncTypeList2, expansion{}, funcTypeListFollow...)

	// function f(a : integer, b : string) : number ... end
	add(t, NTFuncDef,
		expansion{tt(lexer.Function), tt(lexer.Identifier), tt(lexer.LParen),
			nt(NTIdentifierListWithTypes), tt(lexer.RParen), nt(NTFuncTypeList),
			nt(NTStatementList), tt(lexer.End)},
		lexer.Function)

	add(t, NTIdentifierListWithTypes,
		expansion{nt(NTIdentifierWithType), nt(NTIdentifierListWithTypes2)},
		lexer.Identifier)
	add(t, NTIdentifierListWithTypes, expansion{}, lexer.RParen)
	add(t, NTIdentifierListWithTypes2,
		expansion{tt(lexer.Comma), nt(NTIdentifierWithType), nt(NTIdentifierListWithTypes2)},
		lexer.Comma)
	add(t, NTIdentifierListWithTypes2, expansion{}, lexer.RParen)
	add(t, NTIdentifierWithType,
		expansion{tt(lexer.Identifier), tt(lexer.Colon), tt(lexer.TypeKw)},
		lexer.Identifier)

	// f(expr, expr)
	add(t, NTFuncCall,
		expansion{tt(lexer.Identifier), tt(lexer.LParen), nt(NTOptionalFunExpressionList), tt(lexer.RParen)},
		lexer.Identifier)
	add(t, NTOptionalFunExpressionList,
		expansion{nt(NTExpression), nt(NTFunExpressionList2)},
		firstExpression...)
	add(t, NTOptionalFunExpressionList, expansion{}, lexer.RParen)
	add(t, NTFunExpressionList2,
		expansion{tt(lexer.Comma), nt(NTExpression), nt(NTFunExpressionList2)},
		lexer.Comma)
	add(t, NTFunExpressionList2, expansion{}, lexer.RParen)

	// statement lists: a body is statements followed by an optional return
	stmtListLookahead := append(append([]lexer.Kind{}, firstStatement...), followStatement...)
	add(t, NTStatementList, expansion{nt(NTStatementList2)}, stmtListLookahead...)
	add(t, NTStatementList2,
		expansion{nt(NTStatement), nt(NTStatementList2)},
		firstStatement...)
	add(t, NTStatementList2, expansion{nt(NTOptReturnStatement)}, followStatement...)
	add(t, NTOptReturnStatement, expansion{nt(NTReturnStatement)}, lexer.Return)
	add(t, NTOptReturnStatement, expansion{}, lexer.End, lexer.Else, lexer.Elseif, lexer.Until)

	add(t, NTStatement, expansion{nt(NTDeclaration)}, lexer.Local)
	add(t, NTStatement, expansion{tt(lexer.Identifier), nt(NTParenExpListOrIDList2)}, lexer.Identifier)
	add(t, NTStatement, expansion{nt(NTCondStatement)}, lexer.If)
	add(t, NTStatement, expansion{nt(NTWhileLoop)}, lexer.While)
	add(t, NTStatement, expansion{nt(NTForLoop)}, lexer.For)
	add(t, NTStatement, expansion{nt(NTRepeatUntil)}, lexer.Repeat)
	add(t, NTStatement, expansion{tt(lexer.Break)}, lexer.Break)

	// local x : integer = expr
	add(t, NTDeclaration,
		expansion{tt(lexer.Local), tt(lexer.Identifier), tt(lexer.Colon), tt(lexer.TypeKw),
			nt(NTDeclOptionalAssignment)},
		lexer.Local)
	declFollow := append(append([]lexer.Kind{}, firstStatement...), followStatement...)
	add(t, NTDeclOptionalAssignment, expansion{tt(lexer.Equals), nt(NTExpression)}, lexer.Equals)
	add(t, NTDeclOptionalAssignment, expansion{}, declFollow...)

	// a, b = expr, expr
	add(t, NTAssignment,
		expansion{nt(NTIdentifierList), tt(lexer.Equals), nt(NTExpressionList)},
		lexer.Identifier)
	add(t, NTIdentifierList, expansion{tt(lexer.Identifier), nt(NTIdentifierList2)}, lexer.Identifier)
	add(t, NTIdentifierList2,
		expansion{tt(lexer.Comma), tt(lexer.Identifier), nt(NTIdentifierList2)},
		lexer.Comma)
	add(t, NTIdentifierList2, expansion{}, lexer.Equals)
	add(t, NTExpressionList,
		expansion{nt(NTExpression), nt(NTExpressionList2)},
		firstExpression...)
	add(t, NTExpressionList2,
		expansion{tt(lexer.Comma), nt(NTExpression), nt(NTExpressionList2)},
		lexer.Comma)
	add(t, NTExpressionList2, expansion{}, declFollow...)

	// if expr then ... elseif expr then ... else ... end
	add(t, NTCondStatement,
		expansion{tt(lexer.If), nt(NTExpression), tt(lexer.Then), nt(NTStatementList), nt(NTCondOptElseif)},
		lexer.If)
	add(t, NTCondOptElseif,
		expansion{tt(lexer.Elseif), nt(NTExpression), tt(lexer.Then), nt(NTStatementList), nt(NTCondOptElseif)},
		lexer.Elseif)
	add(t, NTCondOptElseif,
		expansion{tt(lexer.Else), nt(NTStatementList), tt(lexer.End)},
		lexer.Else)
	add(t, NTCondOptElseif, expansion{tt(lexer.End)}, lexer.End)

	add(t, NTWhileLoop,
		expansion{tt(lexer.While), nt(NTExpression), tt(lexer.Do), nt(NTStatementList), tt(lexer.End)},
		lexer.While)

	add(t, NTRepeatUntil,
		expansion{tt(lexer.Repeat), nt(NTStatementList), tt(lexer.Until), nt(NTExpression)},
		lexer.Repeat)

	// for i = setup, stop [, step] do ... end
	add(t, NTForLoop,
		expansion{tt(lexer.For), tt(lexer.Identifier), tt(lexer.Equals), nt(NTExpression),
			tt(lexer.Comma), nt(NTExpression), nt(NTOptionalForStep), tt(lexer.Do),
			nt(NTStatementList), tt(lexer.End)},
		lexer.For)
	add(t, NTOptionalForStep, expansion{tt(lexer.Comma), nt(NTExpression)}, lexer.Comma)
	add(t, NTOptionalForStep, expansion{}, lexer.Do)

	add(t, NTReturnStatement,
		expansion{tt(lexer.Return), nt(NTRetExpressionList)},
		lexer.Return)
	add(t, NTRetExpressionList,
		expansion{nt(NTExpression), nt(NTRetExpressionList2)},
		firstExpression...)
	add(t, NTRetExpressionList, expansion{}, lexer.End, lexer.Else, lexer.Elseif, lexer.Until)
	add(t, NTRetExpressionList2,
		expansion{tt(lexer.Comma), nt(NTExpression), nt(NTRetExpressionList2)},
		lexer.Comma)
	add(t, NTRetExpressionList2, expansion{}, lexer.End, lexer.Else, lexer.Elseif, lexer.Until)

	return t
}

// lookup returns the expansion for (nterm, lookahead).
func lookup(n NTerm, la lexer.Kind) (expansion, bool) {
	row, ok := table[n]
	if !ok {
		return nil, false
	}
	exp, ok := row[la]
	return exp, ok
}
