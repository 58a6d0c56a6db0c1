/*
File    : go-ifj21/symtable/symtable_test.go
*/
package symtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifjlab/go-ifj21/ast"
)

func decl(name string) *ast.Node {
	return ast.NewSymbolNode(name)
}

func TestTable_GlobalFrame(t *testing.T) {
	table := New()
	assert.Equal(t, 0, table.Level())

	f := decl("f")
	table.PutGlobal("f", f)
	assert.Same(t, f, table.Find("f"))
	assert.Same(t, f, table.FindGlobal("f"))
	assert.Same(t, f, table.FindCurrent("f"))
	assert.Nil(t, table.Find("g"))
}

func TestTable_ShadowingAndScopes(t *testing.T) {
	table := New()
	outer := decl("x")
	table.Put("x", outer)

	table.PushScope()
	assert.Equal(t, 1, table.Level())
	assert.Same(t, outer, table.Find("x"), "outer declaration visible from inner scope")
	assert.Nil(t, table.FindCurrent("x"), "inner scope itself is empty")

	inner := decl("x")
	table.Put("x", inner)
	assert.Same(t, inner, table.Find("x"), "inner declaration shadows outer")

	require.NoError(t, table.PopScope())
	assert.Same(t, outer, table.Find("x"), "outer declaration visible again")
}

func TestTable_PopGlobalRefused(t *testing.T) {
	table := New()
	assert.Error(t, table.PopScope())

	table.PushScope()
	require.NoError(t, table.PopScope())
	assert.Error(t, table.PopScope())
}

func TestTable_Mangle(t *testing.T) {
	table := New()
	assert.Equal(t, "x%0", table.Mangle("x"))

	table.PushScope()
	assert.Equal(t, "x%1", table.Mangle("x"))
	table.PushScope()
	assert.Equal(t, "y%2", table.Mangle("y"))
}

func TestTable_FindGlobalSkipsInner(t *testing.T) {
	table := New()
	table.PushScope()
	table.Put("v", decl("v"))
	assert.Nil(t, table.FindGlobal("v"))
	assert.NotNil(t, table.FindCurrent("v"))
}
