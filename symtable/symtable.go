/*
File    : go-ifj21/symtable/symtable.go
*/

// Package symtable implements the scoped symbol table: a stack of frames,
// bottom frame global. Each frame maps identifier text to the AST node that
// declared it (a declaration statement, a parameter symbol, or a function
// declaration/definition in the global frame).
//
// Frames are ordered maps so that iteration order is deterministic, and the
// frame stack is a deque pushed at the front, mirroring lookup order.
package symtable

import (
	"fmt"

	"github.com/gammazero/deque"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ifjlab/go-ifj21/ast"
)

type frame struct {
	scope *orderedmap.OrderedMap[string, *ast.Node]
}

// Table is the symbol table. The zero value is not usable; call New.
type Table struct {
	scopes deque.Deque[*frame]
	global *frame
}

// New creates a table with the global frame already pushed.
func New() *Table {
	t := &Table{}
	t.PushScope()
	t.global = t.scopes.Front()
	return t
}

// PushScope enters a new lexical scope.
func (t *Table) PushScope() {
	t.scopes.PushFront(&frame{scope: orderedmap.New[string, *ast.Node]()})
}

// PopScope leaves the current scope. Popping the global frame is refused.
func (t *Table) PopScope() error {
	if t.scopes.Len() == 0 || t.scopes.Front() == t.global {
		return fmt.Errorf("symtable: no scope to pop")
	}
	t.scopes.PopFront()
	return nil
}

// Put inserts a symbol into the current scope.
func (t *Table) Put(identifier string, node *ast.Node) {
	t.scopes.Front().scope.Set(identifier, node)
}

// PutGlobal inserts a symbol into the global frame.
func (t *Table) PutGlobal(identifier string, node *ast.Node) {
	t.global.scope.Set(identifier, node)
}

// Find searches all scopes, innermost first.
func (t *Table) Find(identifier string) *ast.Node {
	for i := 0; i < t.scopes.Len(); i++ {
		if node, ok := t.scopes.At(i).scope.Get(identifier); ok {
			return node
		}
	}
	return nil
}

// FindGlobal searches only the global frame.
func (t *Table) FindGlobal(identifier string) *ast.Node {
	node, _ := t.global.scope.Get(identifier)
	return node
}

// FindCurrent searches only the current scope.
func (t *Table) FindCurrent(identifier string) *ast.Node {
	node, _ := t.scopes.Front().scope.Get(identifier)
	return node
}

// Level returns the current scope depth; the global frame is level 0.
func (t *Table) Level() int {
	return t.scopes.Len() - 1
}

// Mangle appends the scope-level suffix that makes a shadowed identifier
// unique in the emitted code.
func (t *Table) Mangle(name string) string {
	return fmt.Sprintf("%s%%%d", name, t.Level())
}
