/*
File    : go-ifj21/parser/parser.go
*/

// Package parser turns the token stream into a semantically checked AST.
//
// The top-down driver is table-driven: each (non-terminal, lookahead) pair
// selects a precomputed expansion which the driver walks left to right,
// matching terminals, recursing into non-terminals and routing side effects
// into the AST node under construction. Expressions are handed to the
// bottom-up operator-precedence sub-parser; the two re-enter each other.
// After every grammar symbol the semantic analyser is invoked, so the first
// semantic error aborts the parse exactly where it was detected.
package parser

import (
	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/errs"
	"github.com/ifjlab/go-ifj21/lexer"
)

// Parser holds the shared context of the top-down driver and the precedence
// sub-parser.
type Parser struct {
	lex *lexer.Lexer
	sem *Analyzer

	// parse-time scratch: how many non-terminal children of a node have
	// been descended into, used to pick the child slot. Kept out of the
	// AST on purpose; it has no meaning after parsing.
	visited map[*ast.Node]int

	// slot of the most recent typed-parameter symbol, so the following
	// type keyword knows where to land
	lastTyped **ast.Node
}

// New creates a parser over the given lexer.
func New(lex *lexer.Lexer) *Parser {
	return &Parser{lex: lex, sem: NewAnalyzer(), visited: make(map[*ast.Node]int)}
}

// Analyzer exposes the semantic analyser, which also tracks builtin usage
// for the code generator.
func (p *Parser) Analyzer() *Analyzer { return p.sem }

// Parse consumes the whole token stream and returns the program node.
func (p *Parser) Parse() (*ast.Node, error) {
	var root *ast.Node
	if err := p.parse(NTProgram, &root); err != nil {
		return nil, err
	}
	return root, nil
}

// ntermToKind maps non-terminals that materialise an AST node to its kind.
func ntermToKind(n NTerm) ast.Kind {
	switch n {
	case NTProgram:
		return ast.KindProgram
	case NTDeclaration:
		return ast.KindDeclaration
	case NTAssignment:
		return ast.KindAssignment
	case NTFuncDecl:
		return ast.KindFuncDecl
	case NTFuncDef:
		return ast.KindFuncDef
	case NTFuncCall:
		return ast.KindFuncCall
	case NTCondStatement:
		return ast.KindIf
	case NTWhileLoop:
		return ast.KindWhile
	case NTForLoop:
		return ast.KindFor
	case NTRepeatUntil:
		return ast.KindRepeat
	case NTStatementList:
		return ast.KindBody
	case NTReturnStatement:
		return ast.KindReturn
	}
	return ast.KindInvalid
}

// parse expands one non-terminal into *root.
func (p *Parser) parse(nterm NTerm, root **ast.Node) error {
	// expressions belong to the precedence sub-parser
	if nterm == NTExpression {
		return p.parseExpression(root)
	}

	token, err := p.lex.Next()
	if err != nil {
		return err
	}

	// resolve the "identifier ( ..." vs "identifier , ... =" ambiguity with
	// a second token of lookahead, then rewind and dispatch
	if nterm == NTParenExpListOrIDList2 {
		if err := p.lex.Unget(); err != nil {
			return err
		}
		if err := p.lex.Unget(); err != nil {
			return err
		}
		switch token.Kind {
		case lexer.LParen:
			return p.parse(NTFuncCall, root)
		case lexer.Comma, lexer.Equals:
			return p.parse(NTAssignment, root)
		}
		return errs.New(errs.KindSyntax, token.Row, token.Column,
			"unexpected %s after identifier", token.Kind)
	}

	exp, ok := lookup(nterm, token.Kind)
	if !ok {
		return errs.New(errs.KindSyntax, token.Row, token.Column,
			"unexpected %s (expanding %s)", token.Kind, nterm)
	}
	if err := p.lex.Unget(); err != nil {
		return err
	}

	if kind := ntermToKind(nterm); kind != ast.KindInvalid {
		*root = &ast.Node{Kind: kind}
	}

	for _, sym := range exp {
		if sym.isNTerm {
			ref := p.nodeRef(root, nterm)
			if ref == nil {
				return errs.Internal("parser: no child slot for %s", nterm)
			}
			if err := p.parse(sym.nterm, ref); err != nil {
				return err
			}
		} else {
			token, err = p.lex.Next()
			if err != nil {
				return err
			}
			p.sem.row, p.sem.column = token.Row, token.Column

			// this parser expects nil only as a type
			if token.Kind == lexer.Nil {
				token.Kind = lexer.TypeKw
				token.Type = lexer.TypeNil
			}

			if token.Kind != sym.term {
				return errs.New(errs.KindSyntax, token.Row, token.Column,
					"expected %s but got %s", sym.term, token.Kind)
			}
			if err := p.putTerm(root, token, nterm); err != nil {
				return err
			}
		}

		if err := p.sem.Check(*root, sym); err != nil {
			return err
		}
	}
	return nil
}

// nodeRef picks the child slot of the current node for the next
// non-terminal descent. List-shaped non-terminals append at the tail;
// wrapper non-terminals stay on the same slot.
func (p *Parser) nodeRef(root **ast.Node, nterm NTerm) **ast.Node {
	node := *root
	switch nterm {
	case NTProgram:
		return &node.Statements

	case NTDeclaration:
		if p.bump(node) == 0 {
			return &node.Assign
		}

	case NTAssignment:
		switch p.bump(node) {
		case 0:
			return &node.Identifiers
		case 1:
			return &node.Expressions
		}

	case NTFuncDecl:
		switch p.bump(node) {
		case 0:
			return &node.ArgTypes
		case 1:
			return &node.ReturnTypes
		}

	case NTFuncDef:
		switch p.bump(node) {
		case 0:
			return &node.Arguments
		case 1:
			return &node.ReturnTypes
		case 2:
			return &node.Body
		}

	case NTFuncCall:
		return &node.Arguments

	case NTCondStatement, NTCondOptElseif:
		switch p.bump(node) % 3 {
		case 0:
			return ast.Tail(&node.Conditions)
		case 1:
			return ast.Tail(&node.Bodies)
		case 2:
			return root
		}

	case NTWhileLoop:
		switch p.bump(node) {
		case 0:
			return &node.Condition
		case 1:
			return &node.Body
		}

	case NTRepeatUntil:
		switch p.bump(node) {
		case 0:
			return &node.Body
		case 1:
			return &node.Condition
		}

	case NTForLoop:
		switch p.bump(node) {
		case 0:
			return &node.Setup
		case 1:
			return &node.Condition
		case 2:
			return &node.Step
		case 3:
			return &node.Body
		}

	case NTStatementList:
		return &node.Statements

	case NTReturnStatement:
		return &node.Values

	case NTTypeList, NTTypeList2,
		NTFuncTypeList, NTFuncTypeList2,
		NTIdentifierListWithTypes, NTIdentifierListWithTypes2,
		NTOptReturnStatement, NTGlobalStatementList,
		NTOptionalFunExpressionList, NTStatementList2, NTFunExpressionList2,
		NTIdentifierList, NTIdentifierList2,
		NTExpressionList, NTExpressionList2,
		NTRetExpressionList, NTRetExpressionList2:
		return ast.Tail(root)

	case NTIdentifierWithType, // stay at the symbol node
		NTDeclOptionalAssignment, // stay at the declaration's initialiser slot
		NTOptionalForStep,        // stay at the for node's step slot
		NTStatement,              // resolved once the leading keyword is known
		NTGlobalStatement:
		return root
	}
	return nil
}

// bump advances the visited-children counter of a node.
func (p *Parser) bump(node *ast.Node) int {
	n := p.visited[node]
	p.visited[node] = n + 1
	return n
}

// putTerm routes a matched terminal's payload into the AST node being built.
func (p *Parser) putTerm(root **ast.Node, token lexer.Token, parent NTerm) error {
	badRule := func() error {
		return errs.New(errs.KindSyntax, token.Row, token.Column,
			"no rule for %s under %s", token.Kind, parent)
	}

	switch token.Kind {
	case lexer.String:
		if parent != NTProgram {
			return badRule()
		}
		(*root).Require = token.Str

	case lexer.Identifier:
		switch parent {
		case NTFuncCall, NTFuncDecl, NTFuncDef:
			(*root).Name = token.Str
		case NTForLoop:
			(*root).Iterator = ast.NewSymbolNode(token.Str)
		case NTIdentifierWithType:
			p.lastTyped = ast.Append(root, ast.NewSymbolNode(token.Str))
		case NTDeclaration:
			(*root).Sym = &ast.Symbol{Name: token.Str}
		case NTIdentifierList, NTIdentifierList2:
			ast.Append(root, ast.NewSymbolNode(token.Str))
		case NTStatement:
			// resolved later by the call-or-assignment dispatch
		default:
			return badRule()
		}

	case lexer.TypeKw:
		switch parent {
		case NTTypeList, NTTypeList2, NTFuncTypeList, NTFuncTypeList2:
			ast.Append(root, ast.NewTypeNode(token.Type))
		case NTIdentifierWithType:
			(*p.lastTyped).Sym.Type = token.Type
		case NTDeclaration:
			(*root).Sym.Type = token.Type
		default:
			return badRule()
		}

	case lexer.Else:
		// shift the slot counter so the else body lands in the bodies list
		// without a matching condition
		p.bump(*root)

	case lexer.Break:
		ast.Append(root, &ast.Node{Kind: ast.KindBreak})
	}
	return nil
}
