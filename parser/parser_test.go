/*
File    : go-ifj21/parser/parser_test.go
*/
package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/errs"
	"github.com/ifjlab/go-ifj21/lexer"
)

// parseSource runs the parser over a full program.
func parseSource(t *testing.T, src string) (*ast.Node, *Parser, error) {
	t.Helper()
	p := New(lexer.NewString(src))
	program, err := p.Parse()
	return program, p, err
}

// mustParse fails the test on any compilation error.
func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	program, _, err := parseSource(t, src)
	require.NoError(t, err)
	return program
}

// findFunc returns the named function definition of a parsed program.
func findFunc(t *testing.T, program *ast.Node, name string) *ast.Node {
	t.Helper()
	for it := program.Statements; it != nil; it = it.Next {
		if it.Kind == ast.KindFuncDef && it.Name == name {
			return it
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

// statements returns the statement list of a function body.
func statements(def *ast.Node) *ast.Node {
	return def.Body.Statements
}

func TestParse_HelloWorld(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		function main()
			write("Hello world!\n")
		end
		main()
	`)

	assert.Equal(t, ast.KindProgram, program.Kind)
	assert.Equal(t, "ifj21", program.Require)

	main := findFunc(t, program, "main")
	call := statements(main)
	require.NotNil(t, call)
	assert.Equal(t, ast.KindFuncCall, call.Kind)
	assert.Equal(t, "write", call.Name)
	require.NotNil(t, call.Arguments)
	assert.Equal(t, ast.KindString, call.Arguments.Kind)
	assert.Equal(t, "Hello world!\n", call.Arguments.Str)

	// the global call is the second statement
	topCall := main.Next
	require.NotNil(t, topCall)
	assert.Equal(t, ast.KindFuncCall, topCall.Kind)
	assert.Equal(t, "main", topCall.Name)
	require.NotNil(t, topCall.Def)
	assert.True(t, topCall.Def.Used)
}

func TestParse_WrongPreamble(t *testing.T) {
	_, _, err := parseSource(t, `require "ifj20"`)
	require.Error(t, err)
	assert.Equal(t, errs.KindSemantic, errs.KindOf(err))
	assert.Equal(t, 7, errs.KindOf(err).ExitCode())
}

func TestParse_SyntaxErrors(t *testing.T) {
	sources := []string{
		`function main() end`,                        // missing require
		`require "ifj21" function main( end`,         // bad parameter list
		`require "ifj21" function main() local end`,  // bad declaration
		`require "ifj21" function main() if x end`,   // missing then
		`require "ifj21" function f() end function`,  // trailing keyword
		`require "ifj21" break`,                      // break outside a body
	}
	for _, src := range sources {
		_, _, err := parseSource(t, src)
		require.Error(t, err, "source: %s", src)
		assert.Equal(t, errs.KindSyntax, errs.KindOf(err), "source: %s", src)
	}
}

func TestParse_DeclarationAndMangling(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		function main()
			local x : integer = 4
			write(x)
		end
		main()
	`)
	decl := statements(findFunc(t, program, "main"))
	require.Equal(t, ast.KindDeclaration, decl.Kind)
	assert.Equal(t, "x%1", decl.Sym.Name, "locals are mangled with the scope level")
	assert.Equal(t, lexer.TypeInteger, decl.Sym.Type)
	require.NotNil(t, decl.Assign)
	assert.Equal(t, ast.KindInteger, decl.Assign.Kind)
	assert.True(t, decl.Sym.Used, "write(x) reads the local")
}

func TestParse_FunctionDeclarationCrossLink(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		global f : function(integer) : integer
		function f(n : integer) : integer
			return n
		end
		function main()
			local r : integer = f(1)
			write(r)
		end
		main()
	`)

	def := findFunc(t, program, "f")
	require.NotNil(t, def.Decl)
	assert.Equal(t, ast.KindFuncDecl, def.Decl.Kind)
	assert.Same(t, def, def.Decl.Def)
}

func TestParse_DeclarationDefinitionMismatch(t *testing.T) {
	_, _, err := parseSource(t, `
		require "ifj21"
		global f : function(integer) : integer
		function f(n : string) : integer
			return 1
		end
	`)
	require.Error(t, err)
	assert.Equal(t, errs.KindSemantic, errs.KindOf(err))
}

func TestParse_IfShape(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		function main()
			local x : integer = 1
			if x < 1 then
				write("a")
			elseif x < 2 then
				write("b")
			else
				write("c")
			end
		end
		main()
	`)
	ifNode := statements(findFunc(t, program, "main")).Next
	require.Equal(t, ast.KindIf, ifNode.Kind)
	assert.Equal(t, 2, ast.Count(ifNode.Conditions))
	assert.Equal(t, 3, ast.Count(ifNode.Bodies), "else contributes one extra body")
}

func TestParse_IfWithoutElse(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		function main()
			local x : integer = 1
			if x < 1 then
				write("a")
			end
		end
		main()
	`)
	ifNode := statements(findFunc(t, program, "main")).Next
	require.Equal(t, ast.KindIf, ifNode.Kind)
	assert.Equal(t, 1, ast.Count(ifNode.Conditions))
	assert.Equal(t, 1, ast.Count(ifNode.Bodies))
}

func TestParse_ForDesugar(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		function main()
			for i = 1, 10, 2 do
				write(i)
			end
		end
		main()
	`)
	forNode := statements(findFunc(t, program, "main"))
	require.Equal(t, ast.KindFor, forNode.Kind)

	for _, part := range []*ast.Node{forNode.Iterator, forNode.Setup, forNode.Condition, forNode.Step} {
		require.NotNil(t, part)
		assert.Equal(t, ast.KindDeclaration, part.Kind)
		assert.Equal(t, lexer.TypeInteger, part.Sym.Type)
	}

	names := map[string]bool{
		forNode.Iterator.Sym.Name:  true,
		forNode.Setup.Sym.Name:     true,
		forNode.Condition.Sym.Name: true,
		forNode.Step.Sym.Name:      true,
	}
	assert.Len(t, names, 4, "synthesised names are pairwise distinct")
	assert.Equal(t, "i%2&", forNode.Iterator.Sym.Name)
	assert.Equal(t, "i%2", forNode.Setup.Sym.Name)
	assert.Equal(t, "i%2&cond", forNode.Condition.Sym.Name)
	assert.Equal(t, "i%2&step", forNode.Step.Sym.Name)
}

func TestParse_ForDefaultStepAndType(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		function main()
			for i = 1, 2.5 do
				write(i)
			end
		end
		main()
	`)
	forNode := statements(findFunc(t, program, "main"))
	require.Equal(t, ast.KindFor, forNode.Kind)

	// a number bound widens the whole loop to number, so the default step
	// is 1.0
	assert.Equal(t, lexer.TypeNumber, forNode.Iterator.Sym.Type)
	require.NotNil(t, forNode.Step.Assign)
	assert.Equal(t, ast.KindNumber, forNode.Step.Assign.Kind)
	assert.Equal(t, 1.0, forNode.Step.Assign.Num)
}

func TestParse_MultiAssignment(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		function main()
			local a : integer = 1
			local b : integer = 2
			a, b = b, a
			write(a, b)
		end
		main()
	`)
	assignment := statements(findFunc(t, program, "main")).Next.Next
	require.Equal(t, ast.KindAssignment, assignment.Kind)
	assert.Equal(t, 2, ast.Count(assignment.Identifiers))
	assert.Equal(t, 2, ast.Count(assignment.Expressions))
}

func TestParse_RepeatUntil(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		function main()
			local i : integer = 0
			repeat
				i = i + 1
			until i > 3
			write(i)
		end
		main()
	`)
	repeatNode := statements(findFunc(t, program, "main")).Next
	require.Equal(t, ast.KindRepeat, repeatNode.Kind)
	require.NotNil(t, repeatNode.Body)
	require.NotNil(t, repeatNode.Condition)
	assert.Equal(t, ast.KindBinop, repeatNode.Condition.Kind)
}

// resolvedReferences walks the tree asserting every surviving symbol
// reference points at a declaration.
func resolvedReferences(t *testing.T, node *ast.Node) {
	if node == nil {
		return
	}
	if node.Kind == ast.KindSymbol && !node.Sym.IsDeclaration() {
		require.NotNil(t, node.Sym.Ref)
		assert.True(t, node.Sym.Ref.IsDeclaration())
	}
	for _, child := range []*ast.Node{
		node.Left, node.Right, node.Operand, node.Statements, node.Arguments,
		node.ArgTypes, node.ReturnTypes, node.Body, node.Conditions,
		node.Bodies, node.Condition, node.Iterator, node.Setup, node.Step,
		node.Assign, node.Identifiers, node.Expressions, node.Values,
	} {
		resolvedReferences(t, child)
	}
	resolvedReferences(t, node.Next)
}

func TestParse_AllReferencesResolved(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		function add(a : integer, b : integer) : integer
			return a + b
		end
		function main()
			local s : integer = add(1, 2)
			while s < 10 do
				s = s + s
			end
			write(s)
		end
		main()
	`)
	resolvedReferences(t, program)
}
