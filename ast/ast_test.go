/*
File    : go-ifj21/ast/ast_test.go
*/
package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ifjlab/go-ifj21/lexer"
)

func TestAppendAndCount(t *testing.T) {
	var list *Node
	assert.Equal(t, 0, Count(list))

	Append(&list, &Node{Kind: KindInteger, Int: 1})
	Append(&list, &Node{Kind: KindInteger, Int: 2})
	Append(&list, &Node{Kind: KindInteger, Int: 3})

	assert.Equal(t, 3, Count(list))
	assert.Equal(t, int64(1), list.Int)
	assert.Equal(t, int64(2), list.Next.Int)
	assert.Equal(t, int64(3), list.Next.Next.Int)

	tail := Tail(&list)
	assert.Nil(t, *tail)
}

func TestSymbolTwoStates(t *testing.T) {
	declaration := &Symbol{Name: "x%1", Type: lexer.TypeInteger}
	assert.True(t, declaration.IsDeclaration())
	assert.Same(t, declaration, declaration.Declaration())

	reference := &Symbol{Ref: declaration}
	assert.False(t, reference.IsDeclaration())
	assert.Same(t, declaration, reference.Declaration())
	assert.Equal(t, lexer.TypeInteger, reference.Declaration().Type)
}

func TestInvalidatePreservesSiblings(t *testing.T) {
	var list *Node
	Append(&list, &Node{Kind: KindInteger, Int: 1})
	second := &Node{Kind: KindInteger, Int: 2}
	Append(&list, second)
	Append(&list, &Node{Kind: KindInteger, Int: 3})

	second.Invalidate()
	assert.Equal(t, KindInvalid, second.Kind)
	assert.Equal(t, 3, Count(list))
	assert.Equal(t, int64(3), second.Next.Int)
}

func TestCallType(t *testing.T) {
	def := &Node{Kind: KindFuncDef, Name: "f", ReturnTypes: NewTypeNode(lexer.TypeString)}
	call := &Node{Kind: KindFuncCall, Name: "f", Def: def}
	assert.Equal(t, lexer.TypeString, call.CallType())

	bare := &Node{Kind: KindFuncCall, Name: "g", Def: &Node{Kind: KindFuncDef, Name: "g"}}
	assert.Equal(t, lexer.TypeNil, bare.CallType(), "no return types reads as nil")
}

func TestFprint(t *testing.T) {
	program := &Node{Kind: KindProgram, Require: "ifj21"}
	body := &Node{Kind: KindBody}
	def := &Node{Kind: KindFuncDef, Name: "main", Body: body}
	Append(&program.Statements, def)

	var out strings.Builder
	Fprint(&out, program)
	assert.Contains(t, out.String(), "program (require \"ifj21\")")
	assert.Contains(t, out.String(), "func-def main")
}
