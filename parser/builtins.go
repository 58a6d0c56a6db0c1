/*
File    : go-ifj21/parser/builtins.go
*/
package parser

import (
	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/lexer"
)

// builtinFunctions returns synthetic definitions describing the builtin
// library. They live in the global frame like user functions, so calls
// resolve, arity-check and mark them used through the ordinary path; the
// code generator emits the matching IM subroutines for the used ones.
//
// write is variadic and bypasses the argument check entirely.
func builtinFunctions() map[string]*ast.Node {
	param := func(t lexer.Type) *ast.Node {
		return &ast.Node{Kind: ast.KindSymbol, Sym: &ast.Symbol{Type: t}}
	}
	params := func(nodes ...*ast.Node) *ast.Node {
		for i := len(nodes) - 2; i >= 0; i-- {
			nodes[i].Next = nodes[i+1]
		}
		return nodes[0]
	}
	returns := func(t lexer.Type) *ast.Node { return ast.NewTypeNode(t) }

	return map[string]*ast.Node{
		"write": {Kind: ast.KindFuncDef, Name: "write"},
		"reads": {Kind: ast.KindFuncDef, Name: "reads",
			ReturnTypes: returns(lexer.TypeString)},
		"readi": {Kind: ast.KindFuncDef, Name: "readi",
			ReturnTypes: returns(lexer.TypeInteger)},
		"readn": {Kind: ast.KindFuncDef, Name: "readn",
			ReturnTypes: returns(lexer.TypeNumber)},
		"tointeger": {Kind: ast.KindFuncDef, Name: "tointeger",
			Arguments:   param(lexer.TypeNumber),
			ReturnTypes: returns(lexer.TypeInteger)},
		"substr": {Kind: ast.KindFuncDef, Name: "substr",
			Arguments:   params(param(lexer.TypeString), param(lexer.TypeNumber), param(lexer.TypeNumber)),
			ReturnTypes: returns(lexer.TypeString)},
		"ord": {Kind: ast.KindFuncDef, Name: "ord",
			Arguments:   params(param(lexer.TypeString), param(lexer.TypeInteger)),
			ReturnTypes: returns(lexer.TypeInteger)},
		"chr": {Kind: ast.KindFuncDef, Name: "chr",
			Arguments:   param(lexer.TypeInteger),
			ReturnTypes: returns(lexer.TypeString)},
	}
}
