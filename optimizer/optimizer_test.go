/*
File    : go-ifj21/optimizer/optimizer_test.go
*/
package optimizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/errs"
	"github.com/ifjlab/go-ifj21/lexer"
	"github.com/ifjlab/go-ifj21/parser"
)

// compileAndOptimize parses a program and runs the optimizer over it.
func compileAndOptimize(t *testing.T, src string) (*ast.Node, *Optimizer, error) {
	t.Helper()
	p := parser.New(lexer.NewString(src))
	program, err := p.Parse()
	require.NoError(t, err)

	opt := New(true, p.Analyzer().IsBuiltinUsed)
	err = opt.Run(program)
	return program, opt, err
}

// funcBody returns the first statement of the named function.
func funcBody(t *testing.T, program *ast.Node, name string) *ast.Node {
	t.Helper()
	for it := program.Statements; it != nil; it = it.Next {
		if it.Kind == ast.KindFuncDef && it.Name == name {
			return it.Body.Statements
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

func TestOptimizer_ConstantFolding(t *testing.T) {
	program, _, err := compileAndOptimize(t, `
		require "ifj21"
		function f() : integer
			local x : integer = 2 + 3 * 4
			return x
		end
		function main()
			write(f())
		end
		main()
	`)
	require.NoError(t, err)

	decl := funcBody(t, program, "f")
	require.Equal(t, ast.KindDeclaration, decl.Kind)
	require.NotNil(t, decl.Assign)
	assert.Equal(t, ast.KindInteger, decl.Assign.Kind)
	assert.Equal(t, int64(14), decl.Assign.Int)
	assert.True(t, decl.Sym.Constant)
}

type foldCase struct {
	Type     string
	Expr     string
	Expected func(t *testing.T, n *ast.Node)
}

func TestOptimizer_FoldShapes(t *testing.T) {
	intResult := func(want int64) func(*testing.T, *ast.Node) {
		return func(t *testing.T, n *ast.Node) {
			require.Equal(t, ast.KindInteger, n.Kind)
			assert.Equal(t, want, n.Int)
		}
	}
	numResult := func(want float64) func(*testing.T, *ast.Node) {
		return func(t *testing.T, n *ast.Node) {
			require.Equal(t, ast.KindNumber, n.Kind)
			assert.InDelta(t, want, n.Num, 1e-12)
		}
	}
	boolResult := func(want bool) func(*testing.T, *ast.Node) {
		return func(t *testing.T, n *ast.Node) {
			require.Equal(t, ast.KindBoolean, n.Kind)
			assert.Equal(t, want, n.Bool)
		}
	}
	strResult := func(want string) func(*testing.T, *ast.Node) {
		return func(t *testing.T, n *ast.Node) {
			require.Equal(t, ast.KindString, n.Kind)
			assert.Equal(t, want, n.Str)
		}
	}

	tests := []foldCase{
		{"integer", `10 - 2 - 3`, intResult(5)},
		{"integer", `7 // 2`, intResult(3)},
		{"integer", `7 % 3`, intResult(1)},
		{"integer", `2 ^ 10`, intResult(1024)},
		{"integer", `-(2 + 3)`, intResult(-5)},
		{"number", `1 / 2`, numResult(0.5)},
		{"number", `1.5 + 2`, numResult(3.5)},
		{"number", `2.0 ^ 2`, numResult(4.0)},
		{"string", `"foo" .. "bar"`, strResult("foobar")},
		{"integer", `#"hello"`, intResult(5)},
		{"boolean", `1 < 2`, boolResult(true)},
		{"boolean", `"a" < "b"`, boolResult(true)},
		{"boolean", `"a" == "a"`, boolResult(true)},
		{"boolean", `"a" ~= "a"`, boolResult(false)},
		{"boolean", `true and false`, boolResult(false)},
		{"boolean", `true or false`, boolResult(true)},
		{"boolean", `not true`, boolResult(false)},
		{"boolean", `nil == nil`, boolResult(true)},
		{"boolean", `1 == 2`, boolResult(false)},
	}

	for _, tc := range tests {
		src := `require "ifj21"
			function f()
				local v : ` + tc.Type + ` = ` + tc.Expr + `
				write(v)
			end
			f()`
		program, _, err := compileAndOptimize(t, src)
		require.NoError(t, err, "expr: %s", tc.Expr)
		decl := funcBody(t, program, "f")
		require.Equal(t, ast.KindDeclaration, decl.Kind, "expr: %s", tc.Expr)
		require.NotNil(t, decl.Assign, "expr: %s", tc.Expr)
		tc.Expected(t, decl.Assign)
	}
}

func TestOptimizer_CopyPropagation(t *testing.T) {
	program, _, err := compileAndOptimize(t, `
		require "ifj21"
		function f()
			local a : integer = 40
			local b : integer = a + 2
			write(b)
		end
		f()
	`)
	require.NoError(t, err)

	second := funcBody(t, program, "f").Next
	require.Equal(t, ast.KindDeclaration, second.Kind)
	require.NotNil(t, second.Assign)
	assert.Equal(t, ast.KindInteger, second.Assign.Kind)
	assert.Equal(t, int64(42), second.Assign.Int, "a propagates into a + 2 and folds")
}

func TestOptimizer_NoPropagationOfDirtyVariable(t *testing.T) {
	program, _, err := compileAndOptimize(t, `
		require "ifj21"
		function f()
			local a : integer = 1
			a = 2
			local b : integer = a + 1
			write(a, b)
		end
		f()
	`)
	require.NoError(t, err)

	third := funcBody(t, program, "f").Next.Next
	require.Equal(t, ast.KindDeclaration, third.Kind)
	assert.Equal(t, ast.KindBinop, third.Assign.Kind, "a was reassigned, no folding possible")
}

func TestOptimizer_DeadDeclarationRemoved(t *testing.T) {
	program, _, err := compileAndOptimize(t, `
		require "ifj21"
		function f()
			local unused : integer = 1
			write("x")
		end
		f()
	`)
	require.NoError(t, err)

	first := funcBody(t, program, "f")
	assert.Equal(t, ast.KindInvalid, first.Kind, "never-read declaration disappears")
}

func TestOptimizer_DeadStoreInitialiserDropped(t *testing.T) {
	program, _, err := compileAndOptimize(t, `
		require "ifj21"
		function f()
			local x : integer = 5
			x = 7
			write(x)
		end
		f()
	`)
	require.NoError(t, err)

	decl := funcBody(t, program, "f")
	require.Equal(t, ast.KindDeclaration, decl.Kind)
	assert.Nil(t, decl.Assign, "the overwritten initial value is dropped")

	assign := decl.Next
	require.Equal(t, ast.KindAssignment, assign.Kind)
	assert.Equal(t, int64(7), assign.Expressions.Int)
}

func TestOptimizer_UnusedFunctionRemoved(t *testing.T) {
	program, _, err := compileAndOptimize(t, `
		require "ifj21"
		function never()
			write("never")
		end
		function main()
			write("x")
		end
		main()
	`)
	require.NoError(t, err)

	for it := program.Statements; it != nil; it = it.Next {
		assert.NotEqual(t, "never", it.Name, "uncalled function is invalidated")
	}
}

func TestOptimizer_FalseBranchRemoved(t *testing.T) {
	program, _, err := compileAndOptimize(t, `
		require "ifj21"
		function f()
			if 1 > 2 then
				write("a")
			else
				write("b")
			end
		end
		f()
	`)
	require.NoError(t, err)

	node := funcBody(t, program, "f")
	assert.Equal(t, ast.KindBody, node.Kind, "only the else body survives, as a plain body")
}

func TestOptimizer_TrueBranchBecomesUnconditional(t *testing.T) {
	program, _, err := compileAndOptimize(t, `
		require "ifj21"
		function f()
			if 1 < 2 then
				write("a")
			else
				write("b")
			end
		end
		f()
	`)
	require.NoError(t, err)

	node := funcBody(t, program, "f")
	require.Equal(t, ast.KindBody, node.Kind, "the always-true branch decays into a plain body")
	assert.Nil(t, node.Conditions, "true condition removed")
	assert.Equal(t, 1, ast.Count(node.Statements), "later branches discarded")
}

func TestOptimizer_WhileFalseRemoved(t *testing.T) {
	program, _, err := compileAndOptimize(t, `
		require "ifj21"
		function f()
			while 1 > 2 do
				write("a")
			end
			write("b")
		end
		f()
	`)
	require.NoError(t, err)
	assert.Equal(t, ast.KindInvalid, funcBody(t, program, "f").Kind)
}

func TestOptimizer_CompileTimeZeroDivision(t *testing.T) {
	_, _, err := compileAndOptimize(t, `
		require "ifj21"
		function f()
			local a : integer = 4
			local b : integer = a - 4
			local c : integer = 1 // b
			write(c)
		end
		f()
	`)
	require.Error(t, err)
	assert.Equal(t, errs.KindZeroDiv, errs.KindOf(err))
}

func TestOptimizer_NoPropagationInsideLoops(t *testing.T) {
	program, _, err := compileAndOptimize(t, `
		require "ifj21"
		function f()
			local a : integer = 1
			while a < 10 do
				a = a + 1
			end
			write(a)
		end
		f()
	`)
	require.NoError(t, err)

	while := funcBody(t, program, "f").Next
	require.Equal(t, ast.KindWhile, while.Kind)
	assign := while.Body.Statements
	require.Equal(t, ast.KindAssignment, assign.Kind, "loop-body assignment survives")
	assert.Equal(t, ast.KindBinop, assign.Expressions.Kind)
}

func TestOptimizer_Fixpoint(t *testing.T) {
	src := `
		require "ifj21"
		function f() : integer
			local x : integer = 2 + 3 * 4
			local dead : integer = 0
			if x > 10 then
				return x
			end
			return 0
		end
		function main()
			write(f())
		end
		main()
	`
	program, opt, err := compileAndOptimize(t, src)
	require.NoError(t, err)

	var before strings.Builder
	ast.Fprint(&before, program)

	require.NoError(t, opt.Run(program))
	var after strings.Builder
	ast.Fprint(&after, program)

	assert.Equal(t, before.String(), after.String(), "second pass is a fixpoint")
}

func TestOptimizer_ReturnValuesFoldAndMarkUsage(t *testing.T) {
	program, opt, err := compileAndOptimize(t, `
		require "ifj21"
		function f(a : integer) : integer
			return a + 1
		end
		function g() : integer
			return 2 + 3
		end
		function main()
			write(f(1), g())
		end
		main()
	`)
	require.NoError(t, err)

	ret := funcBody(t, program, "g")
	require.Equal(t, ast.KindReturn, ret.Kind)
	require.NotNil(t, ret.Values)
	assert.Equal(t, ast.KindInteger, ret.Values.Kind)
	assert.Equal(t, int64(5), ret.Values.Int)

	// f's a + 1 cannot fold, so the addition's helper registers are live
	assert.True(t, opt.Usage().Used(RegOp1))
	assert.True(t, opt.Usage().Used(RegOp2))
}

func TestUsage_DisabledReadsAllSet(t *testing.T) {
	u := &Usage{}
	for _, reg := range Registers() {
		assert.True(t, u.Used(reg), "with optimization off every bit reads set")
	}

	u = &Usage{optimize: true}
	for _, reg := range Registers() {
		assert.False(t, u.Used(reg))
	}
	u.markBinop(ast.BinopConcat)
	assert.True(t, u.Used(RegString0))
	assert.True(t, u.Used(RegString1))
	assert.False(t, u.Used(RegExponent))
}

func TestUsage_BinopMapping(t *testing.T) {
	u := &Usage{optimize: true}
	u.markBinop(ast.BinopPower)
	for _, reg := range []Register{RegExponent, RegBase, RegType1, RegType2, RegStackResult, RegLoopIterator, RegOp1, RegOp2} {
		assert.True(t, u.Used(reg), "exponentiation touches %s", reg.Name())
	}

	u = &Usage{optimize: true}
	u.markBinop(ast.BinopDiv)
	assert.True(t, u.Used(RegOp1))
	assert.True(t, u.Used(RegOp2))
	assert.True(t, u.Used(RegType1))
	assert.True(t, u.Used(RegType2))
	assert.False(t, u.Used(RegString0))
}
