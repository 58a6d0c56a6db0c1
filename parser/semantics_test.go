/*
File    : go-ifj21/parser/semantics_test.go
*/
package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifjlab/go-ifj21/errs"
)

type semanticCase struct {
	Name   string
	Source string
	Kind   errs.Kind
	Exit   int
}

func TestSemantics_Errors(t *testing.T) {
	tests := []semanticCase{
		{
			Name: "undefined variable",
			Source: `require "ifj21"
				function main()
					write(x)
				end`,
			Kind: errs.KindUndef, Exit: 3,
		},
		{
			Name: "undefined function",
			Source: `require "ifj21"
				function main()
					foo()
				end`,
			Kind: errs.KindUndef, Exit: 3,
		},
		{
			Name: "variable redeclaration in same scope",
			Source: `require "ifj21"
				function main()
					local x : integer = 1
					local x : integer = 2
				end`,
			Kind: errs.KindRedef, Exit: 3,
		},
		{
			Name: "variable shadowing a function",
			Source: `require "ifj21"
				function f()
				end
				function main()
					local f : integer = 1
				end`,
			Kind: errs.KindRedef, Exit: 3,
		},
		{
			Name: "duplicate function definition",
			Source: `require "ifj21"
				function f()
				end
				function f()
				end`,
			Kind: errs.KindRedef, Exit: 3,
		},
		{
			Name: "duplicate parameter name",
			Source: `require "ifj21"
				function f(a : integer, a : integer)
				end`,
			Kind: errs.KindRedef, Exit: 3,
		},
		{
			Name: "assignment type mismatch",
			Source: `require "ifj21"
				function main()
					local x : integer = "text"
				end`,
			Kind: errs.KindAssign, Exit: 4,
		},
		{
			Name: "number into integer narrows",
			Source: `require "ifj21"
				function main()
					local x : integer = 1.5
				end`,
			Kind: errs.KindAssign, Exit: 4,
		},
		{
			Name: "not enough values in assignment",
			Source: `require "ifj21"
				function main()
					local a : integer = 1
					local b : integer = 2
					a, b = 3
				end`,
			Kind: errs.KindAssign, Exit: 4,
		},
		{
			Name: "call arity mismatch",
			Source: `require "ifj21"
				function f(a : integer)
				end
				function main()
					f(1, 2)
				end`,
			Kind: errs.KindCallType, Exit: 5,
		},
		{
			Name: "call argument type mismatch",
			Source: `require "ifj21"
				function f(a : integer)
				end
				function main()
					f("x")
				end`,
			Kind: errs.KindCallType, Exit: 5,
		},
		{
			Name: "builtin arity enforced",
			Source: `require "ifj21"
				function main()
					local c : integer = ord("a")
				end`,
			Kind: errs.KindCallType, Exit: 5,
		},
		{
			Name: "main body call with return values",
			Source: `require "ifj21"
				function f() : integer
					return 1
				end
				f()`,
			Kind: errs.KindCallType, Exit: 5,
		},
		{
			Name: "returning more values than declared",
			Source: `require "ifj21"
				function f() : integer
					return 1, 2
				end`,
			Kind: errs.KindCallType, Exit: 5,
		},
		{
			Name: "operator type mismatch",
			Source: `require "ifj21"
				function main()
					local x : integer = 1 + "a"
				end`,
			Kind: errs.KindExprType, Exit: 6,
		},
		{
			Name: "concat on integers",
			Source: `require "ifj21"
				function main()
					local s : string = 1 .. 2
				end`,
			Kind: errs.KindExprType, Exit: 6,
		},
		{
			Name: "intdiv on numbers",
			Source: `require "ifj21"
				function main()
					local x : integer = 1.5 // 2.0
				end`,
			Kind: errs.KindExprType, Exit: 6,
		},
		{
			Name: "for bound not numeric",
			Source: `require "ifj21"
				function main()
					for i = 1, "x" do
					end
				end`,
			Kind: errs.KindExprType, Exit: 6,
		},
		{
			Name: "nil in arithmetic",
			Source: `require "ifj21"
				function main()
					local x : integer = nil + 1
				end`,
			Kind: errs.KindNil, Exit: 8,
		},
		{
			Name: "nil in comparison",
			Source: `require "ifj21"
				function main()
					local b : boolean = nil < 1
				end`,
			Kind: errs.KindNil, Exit: 8,
		},
		{
			Name: "constant division by zero",
			Source: `require "ifj21"
				function main()
					local x : integer = 1 // 0
				end`,
			Kind: errs.KindZeroDiv, Exit: 9,
		},
		{
			Name: "constant float division by zero",
			Source: `require "ifj21"
				function main()
					local x : number = 1.0 / 0.0
				end`,
			Kind: errs.KindZeroDiv, Exit: 9,
		},
	}

	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			_, _, err := parseSource(t, tc.Source)
			require.Error(t, err)
			assert.Equal(t, tc.Kind, errs.KindOf(err))
			assert.Equal(t, tc.Exit, errs.KindOf(err).ExitCode())
		})
	}
}

func TestSemantics_Accepted(t *testing.T) {
	sources := []string{
		// integer widens to number in argument passing
		`require "ifj21"
		function g(x : number) : number
			return x
		end
		function main()
			write(g(3))
		end
		main()`,

		// integer widens in assignment and return
		`require "ifj21"
		function f() : number
			return 3
		end
		function main()
			local n : number = 4
			write(n)
		end
		main()`,

		// nil is assignable to any type and comparable against any type
		`require "ifj21"
		function main()
			local s : string = nil
			if s == nil then
				write("empty")
			end
		end
		main()`,

		// shadowing in a nested scope is legal
		`require "ifj21"
		function main()
			local x : integer = 1
			if x == 1 then
				local x : string = "inner"
				write(x)
			end
			write(x)
		end
		main()`,

		// extra right-hand values are evaluated and discarded
		`require "ifj21"
		function two() : integer, integer
			return 1, 2
		end
		function main()
			local a : integer = 0
			a = two()
			write(a)
		end
		main()`,

		// a trailing call fills remaining targets
		`require "ifj21"
		function two() : integer, integer
			return 1, 2
		end
		function main()
			local a : integer = 0
			local b : integer = 0
			a, b = two()
			write(a, b)
		end
		main()`,

		// targets a trailing call leaves unfilled default to nil
		`require "ifj21"
		function one() : integer
			return 1
		end
		function main()
			local a : integer = 0
			local b : integer = 0
			a, b = one()
			write(a, b)
		end
		main()`,
	}
	for _, src := range sources {
		_, _, err := parseSource(t, src)
		assert.NoError(t, err, "source: %s", src)
	}
}

func TestSemantics_BuiltinUsageTracking(t *testing.T) {
	_, p, err := parseSource(t, `
		require "ifj21"
		function main()
			local s : string = reads()
			write(s)
		end
		main()
	`)
	require.NoError(t, err)

	assert.True(t, p.Analyzer().IsBuiltinUsed("write"))
	assert.True(t, p.Analyzer().IsBuiltinUsed("reads"))
	assert.False(t, p.Analyzer().IsBuiltinUsed("chr"))
	assert.False(t, p.Analyzer().IsBuiltinUsed("substr"))
}

func TestSemantics_ShadowedNamesStayDistinct(t *testing.T) {
	program := mustParse(t, `
		require "ifj21"
		function main()
			local x : integer = 1
			if x == 1 then
				local x : string = "inner"
				write(x)
			end
			write(x)
		end
		main()
	`)
	outer := statements(findFunc(t, program, "main"))
	require.NotNil(t, outer.Sym)
	assert.Equal(t, "x%1", outer.Sym.Name)

	ifNode := outer.Next
	inner := ifNode.Bodies.Statements
	require.NotNil(t, inner.Sym)
	assert.Equal(t, "x%2", inner.Sym.Name)
}
