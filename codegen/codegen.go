/*
File    : go-ifj21/codegen/codegen.go
*/

// Package codegen lowers the optimized AST to IFJcode21 text assembly for
// the stack-based intermediate machine. The emitted program starts with the
// global-variable DEFVARs the usage map proved necessary, jumps over the
// helper subroutine library to $$main, and runs the top-level calls there.
package codegen

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/optimizer"
)

// Options configures a Generator.
type Options struct {
	Usage       *optimizer.Usage
	Optimize    bool
	Comments    bool
	BuiltinUsed func(name string) bool
}

// Generator emits one program.
type Generator struct {
	w           *bufio.Writer
	usage       *optimizer.Usage
	optimize    bool
	comments    bool
	builtinUsed func(string) bool

	labels int

	// per-function seen-set of hoisted DEFVARs, keyed on mangled name
	declared *orderedmap.OrderedMap[string, struct{}]
}

// New creates a generator writing to w.
func New(w io.Writer, opts Options) *Generator {
	builtinUsed := opts.BuiltinUsed
	if builtinUsed == nil {
		builtinUsed = func(string) bool { return true }
	}
	return &Generator{
		w:           bufio.NewWriter(w),
		usage:       opts.Usage,
		optimize:    opts.Optimize,
		comments:    opts.Comments,
		builtinUsed: builtinUsed,
	}
}

// Generate emits the whole program and flushes the writer.
func (g *Generator) Generate(program *ast.Node) error {
	g.emitHeader()
	g.emitProgram(program)
	return g.w.Flush()
}

func (g *Generator) line(s string) {
	g.w.WriteString(s)
	g.w.WriteByte('\n')
}

func (g *Generator) linef(format string, args ...any) {
	fmt.Fprintf(g.w, format+"\n", args...)
}

func (g *Generator) blank() {
	g.w.WriteByte('\n')
}

func (g *Generator) comment(s string) {
	if g.comments {
		g.linef("# %s", s)
	}
}

// newLabel allocates a fresh numeric label.
func (g *Generator) newLabel() int {
	g.labels++
	return g.labels
}

func label(n int) string {
	return fmt.Sprintf("%%%d", n)
}

// symbolName resolves a symbol to its declaration's mangled name.
func symbolName(sym *ast.Symbol) string {
	return sym.Declaration().Name
}

// formatFloat renders a float in the C99 hexadecimal notation the IM
// expects, e.g. 3.0 as 0x1.8p+1.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'x', -1, 64)
	// strconv pads the exponent to two digits; C's %a does not
	if i := strings.LastIndexAny(s, "+-"); i >= 0 && i > strings.IndexByte(s, 'p') {
		exp := strings.TrimLeft(s[i+1:], "0")
		if exp == "" {
			exp = "0"
		}
		s = s[:i+1] + exp
	}
	return s
}

// escapeString escapes control bytes, '#' and '\' as three-digit decimal
// sequences; everything else is emitted verbatim.
func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= 32 || c == '#' || c == '\\' {
			fmt.Fprintf(&b, "\\%03d", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// literal renders a literal node as an IM operand.
func literal(n *ast.Node) string {
	switch n.Kind {
	case ast.KindInteger:
		return fmt.Sprintf("int@%d", n.Int)
	case ast.KindNumber:
		return "float@" + formatFloat(n.Num)
	case ast.KindBoolean:
		if n.Bool {
			return "bool@true"
		}
		return "bool@false"
	case ast.KindString:
		return "string@" + escapeString(n.Str)
	case ast.KindSymbol:
		return "LF@" + symbolName(n.Sym)
	}
	return "nil@nil"
}

// emitHeader writes the program prologue: the always-present result and
// trash globals, the optional helper registers the usage map proved live,
// and the jump over the subroutine library.
func (g *Generator) emitHeader() {
	g.line(".IFJcode21")
	g.blank()
	g.comment("Global variables:")
	g.line("DEFVAR GF@result")
	g.line("DEFVAR GF@trash")
	for _, reg := range optimizer.Registers() {
		if g.usage.Used(reg) {
			g.linef("DEFVAR GF@%s", reg.Name())
		}
	}
	g.line("JUMP $$main")
	g.blank()
	g.comment("Built-in functions:")
}

// emitProgram writes the helper library, the used function definitions, and
// the main body built from the top-level calls.
func (g *Generator) emitProgram(program *ast.Node) {
	g.emitBuiltins()
	for it := program.Statements; it != nil; it = it.Next {
		if it.Kind == ast.KindFuncDef {
			g.emitNode(it, 0)
		}
	}
	g.line("LABEL $$main")
	for it := program.Statements; it != nil; it = it.Next {
		if it.Kind == ast.KindFuncCall {
			g.emitNode(it, 0)
		}
	}
}

// emitNode dispatches one statement (or pushes one expression operand).
// breakLabel is the innermost loop's end label.
func (g *Generator) emitNode(node *ast.Node, breakLabel int) {
	switch node.Kind {
	case ast.KindInvalid, ast.KindFuncDecl:
		// declarations carry no code; invalid nodes were optimized away
	case ast.KindSymbol:
		g.linef("PUSHS LF@%s", symbolName(node.Sym))
	case ast.KindInteger, ast.KindNumber, ast.KindString, ast.KindBoolean, ast.KindNil:
		g.linef("PUSHS %s", literal(node))
	case ast.KindFuncDef:
		g.emitFuncDef(node)
	case ast.KindFuncCall:
		g.emitFuncCall(node)
	case ast.KindDeclaration:
		g.emitDeclaration(node, false)
	case ast.KindAssignment:
		g.emitAssignment(node)
	case ast.KindIf:
		g.emitIf(node, breakLabel)
	case ast.KindWhile:
		g.emitWhile(node)
	case ast.KindRepeat:
		g.emitRepeat(node)
	case ast.KindFor:
		g.emitFor(node)
	case ast.KindReturn:
		g.emitReturn(node)
	case ast.KindBinop, ast.KindUnop:
		g.pushExpression(node)
	case ast.KindBody:
		for it := node.Statements; it != nil; it = it.Next {
			g.emitNode(it, breakLabel)
		}
	case ast.KindBreak:
		g.linef("JUMP %s", label(breakLabel))
	}
}

// emitFuncDef lowers one function: frame setup, parameter and retval
// DEFVARs, hoisted local DEFVARs, body, frame teardown.
func (g *Generator) emitFuncDef(node *ast.Node) {
	g.linef("LABEL $%s", node.Name)
	g.line("PUSHFRAME")

	i := 0
	for arg := node.Arguments; arg != nil; arg = arg.Next {
		name := symbolName(arg.Sym)
		g.linef("DEFVAR LF@%s", name)
		g.linef("MOVE LF@%s LF@%%%d", name, i)
		i++
	}

	i = 0
	for ret := node.ReturnTypes; ret != nil; ret = ret.Next {
		g.linef("DEFVAR LF@retval%d", i)
		g.linef("MOVE LF@retval%d nil@nil", i)
		i++
	}

	g.declared = orderedmap.New[string, struct{}]()
	g.hoistDeclarations(node.Body)
	g.declared = nil

	g.emitNode(node.Body, 0)
	g.line("POPFRAME")
	g.line("RETURN")
	g.blank()
}

// hoistDeclarations walks a function body and emits every local's DEFVAR
// exactly once, so that re-entered loop bodies do not redefine variables.
func (g *Generator) hoistDeclarations(root *ast.Node) {
	if root == nil {
		return
	}
	switch root.Kind {
	case ast.KindDeclaration:
		g.emitDeclaration(root, true)
	case ast.KindBody:
		for it := root.Statements; it != nil; it = it.Next {
			g.hoistDeclarations(it)
		}
	case ast.KindIf:
		for it := root.Bodies; it != nil; it = it.Next {
			g.hoistDeclarations(it)
		}
	case ast.KindWhile:
		g.hoistDeclarations(root.Body)
	case ast.KindRepeat:
		g.hoistDeclarations(root.Body)
	case ast.KindFor:
		g.hoistDeclarations(root.Iterator)
		g.hoistDeclarations(root.Condition)
		g.hoistDeclarations(root.Step)
		g.hoistDeclarations(root.Setup)
		g.hoistDeclarations(root.Body)
	}
}

// emitDeclaration in hoist mode emits the DEFVAR; in statement mode it
// moves the initialiser (or nil) into the variable.
func (g *Generator) emitDeclaration(node *ast.Node, hoist bool) {
	if hoist {
		name := symbolName(node.Sym)
		if _, seen := g.declared.Get(name); !seen {
			g.declared.Set(name, struct{}{})
			g.linef("DEFVAR LF@%s", name)
		}
		return
	}

	target := symbolName(node.Sym)
	rvalue := node.Assign
	if rvalue == nil {
		g.linef("MOVE LF@%s nil@nil", target)
		return
	}
	switch rvalue.Kind {
	case ast.KindSymbol, ast.KindInteger, ast.KindNumber, ast.KindBoolean, ast.KindString, ast.KindNil:
		g.linef("MOVE LF@%s %s", target, literal(rvalue))
	case ast.KindFuncCall:
		g.emitFuncCall(rvalue)
		g.line("MOVE GF@result TF@retval0")
		g.linef("MOVE LF@%s GF@result", target)
	case ast.KindBinop, ast.KindUnop:
		g.pushExpression(rvalue)
		g.line("POPS GF@result")
		g.linef("MOVE LF@%s GF@result", target)
	}
}

// emitAssignment evaluates the right-hand side, moving values directly when
// safe and routing the rest through the operand stack; a trailing call
// supplies any unfilled targets.
func (g *Generator) emitAssignment(node *ast.Node) {
	lsideCount := ast.Count(node.Identifiers)
	rsideCount := ast.Count(node.Expressions)

	// nodes whose values wait on the operand stack, identifiers and
	// expressions interleaved in evaluation order
	var stack []*ast.Node
	push := func(n *ast.Node) { stack = append(stack, n) }
	pop := func() *ast.Node {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n
	}

	expression, identifier := node.Expressions, node.Identifiers
	for expression != nil && identifier != nil {
		switch expression.Kind {
		case ast.KindSymbol:
			// reading a variable that is also a target of this assignment
			// must go through the stack, or a later move clobbers it
			sourceIsTarget := false
			for it := node.Identifiers; it != nil; it = it.Next {
				if symbolName(it.Sym) == symbolName(expression.Sym) {
					sourceIsTarget = true
					break
				}
			}
			if sourceIsTarget {
				g.linef("PUSHS LF@%s", symbolName(expression.Sym))
				push(identifier)
			} else {
				g.linef("MOVE LF@%s LF@%s", symbolName(identifier.Sym), symbolName(expression.Sym))
			}
		case ast.KindInteger, ast.KindNumber, ast.KindBoolean, ast.KindString, ast.KindNil:
			g.linef("MOVE LF@%s %s", symbolName(identifier.Sym), literal(expression))
		case ast.KindFuncCall:
			push(identifier)
			if expression.Next == nil {
				for it := identifier.Next; it != nil; it = it.Next {
					push(it)
				}
			}
			push(expression)
			g.emitCallResults(expression, lsideCount-(rsideCount-1), true)
		case ast.KindBinop:
			g.pushExpression(expression)
			push(identifier)
			push(expression)
		case ast.KindUnop:
			g.pushExpression(expression)
			push(identifier)
			push(expression)
		}

		expression, identifier = expression.Next, identifier.Next
	}

	// right-hand values past the last target are evaluated and discarded
	for ; expression != nil; expression = expression.Next {
		switch expression.Kind {
		case ast.KindFuncCall:
			g.emitFuncCall(expression)
		case ast.KindBinop, ast.KindUnop:
			g.pushExpression(expression)
			g.line("POPS GF@trash")
		}
	}

	for len(stack) > 0 {
		expression := pop()
		if expression.Kind == ast.KindSymbol {
			// the pending entry is the identifier itself
			g.linef("POPS LF@%s", symbolName(expression.Sym))
			continue
		}
		identifier := pop()
		switch expression.Kind {
		case ast.KindFuncCall:
			g.linef("POPS LF@%s", symbolName(identifier.Sym))
			if expression.Next == nil {
				for len(stack) > 0 {
					identifier := pop()
					g.linef("POPS LF@%s", symbolName(identifier.Sym))
				}
			}
		case ast.KindBinop, ast.KindUnop:
			g.linef("POPS LF@%s", symbolName(identifier.Sym))
		}
	}
}

// emitCallResults performs a call and pushes its results. A call that is not
// the last element of its list pushes only its first return value. The last
// element pushes its declared return values (capped at targetCount when
// pushAll is set, all of them otherwise) and pads with nil up to
// targetCount. It returns the number of values it pushed.
func (g *Generator) emitCallResults(rvalue *ast.Node, targetCount int, pushAll bool) int {
	g.emitFuncCall(rvalue)

	if rvalue.Next != nil {
		g.line("PUSHS TF@retval0")
		return 1
	}

	retCount := ast.Count(rvalue.CallReturns())
	pushed := retCount
	if pushAll {
		// supply exactly the slots the left side still needs
		n := retCount
		if n > targetCount {
			n = targetCount
		}
		for i := 0; i < n; i++ {
			g.linef("PUSHS TF@retval%d", i)
		}
		pushed = n
	} else {
		for i := 0; i < retCount; i++ {
			g.linef("PUSHS TF@retval%d", i)
		}
	}
	for k := 0; k < targetCount-retCount; k++ {
		g.line("PUSHS nil@nil")
		pushed++
	}
	return pushed
}

// emitFuncCall evaluates arguments, assembles the temporary frame and calls
// the target; write expands to one nil_write call per argument.
func (g *Generator) emitFuncCall(node *ast.Node) {
	isWrite := node.Name == "write"

	var paramCount int
	if isWrite {
		paramCount = ast.Count(node.Arguments)
	} else if node.Def != nil {
		paramCount = ast.Count(node.Def.Arguments)
	} else {
		paramCount = ast.Count(node.Decl.ArgTypes)
	}

	pushed := 0
	fromLastCall := 1
	arg := node.Arguments
	for i := 0; i < paramCount && arg != nil; i++ {
		fromLastCall = 1
		switch arg.Kind {
		case ast.KindSymbol, ast.KindInteger, ast.KindNumber, ast.KindBoolean, ast.KindString, ast.KindNil:
			g.linef("PUSHS %s", literal(arg))
		case ast.KindFuncCall:
			fromLastCall = ast.Count(arg.CallReturns())
			g.emitCallResults(arg, paramCount-pushed, false)
		case ast.KindBinop, ast.KindUnop:
			g.pushExpression(arg)
			g.line("POPS GF@result")
			g.line("PUSHS GF@result")
		}
		pushed++
		arg = arg.Next
	}

	for j := 0; j < pushed-paramCount; j++ {
		g.line("POPS GF@trash")
	}
	g.line("CREATEFRAME")

	if isWrite {
		paramCount = paramCount - 1 + fromLastCall
	}

	for l := 0; l < paramCount; l++ {
		g.line("POPS GF@result")
		g.linef("DEFVAR TF@%%%d", paramCount-1-l)
		g.linef("MOVE TF@%%%d GF@result", paramCount-1-l)
	}

	if isWrite {
		for i := 0; i < paramCount; i++ {
			g.linef("PUSHS TF@%%%d", i)
			g.line("CALL nil_write")
			g.linef("POPS TF@%%%d", i)
		}
	} else {
		g.linef("CALL $%s", node.Name)
	}
	g.blank()
}

// emitReturn pushes the return values, discards extras, and pops exactly
// the declared number into the retval slots in reverse.
func (g *Generator) emitReturn(node *ast.Node) {
	declared := ast.Count(node.FuncDef.ReturnTypes)
	pushed := 0
	value := node.Values
	for i := 0; i < declared; i++ {
		if value != nil {
			switch value.Kind {
			case ast.KindSymbol, ast.KindInteger, ast.KindNumber, ast.KindBoolean, ast.KindString, ast.KindNil:
				g.linef("PUSHS %s", literal(value))
			case ast.KindFuncCall:
				used := g.emitCallResults(value, declared-pushed, false)
				pushed += used - 1
				i += used - 1
			case ast.KindBinop, ast.KindUnop:
				g.pushExpression(value)
				g.line("POPS GF@result")
				g.line("PUSHS GF@result")
			}
			pushed++
			value = value.Next
		} else {
			g.line("PUSHS nil@nil")
		}
	}

	for j := 0; j < pushed-declared; j++ {
		g.line("POPS GF@trash")
	}
	for l := 0; l < declared; l++ {
		g.line("POPS GF@result")
		g.linef("MOVE LF@retval%d GF@result", declared-1-l)
	}
	g.line("POPFRAME")
	g.line("RETURN")
}

// emitIf chains one conditional block per condition with a shared end
// label; a trailing body without a condition is the else.
func (g *Generator) emitIf(node *ast.Node, breakLabel int) {
	end := g.newLabel()
	condition, body := node.Conditions, node.Bodies
	for condition != nil {
		next := g.newLabel()
		g.pushExpression(condition)
		g.line("CALL EVAL_CONDITION")
		g.line("POPS GF@result")
		g.linef("JUMPIFEQ %s GF@result bool@false", label(next))
		g.emitNode(body, breakLabel)
		g.linef("JUMP %s", label(end))
		g.linef("LABEL %s", label(next))
		condition, body = condition.Next, body.Next
	}
	if body != nil {
		g.emitNode(body, breakLabel)
	}
	g.linef("LABEL %s", label(end))
}

func (g *Generator) emitWhile(node *ast.Node) {
	head := g.newLabel()
	end := g.newLabel()

	g.linef("LABEL %s", label(head))
	g.pushExpression(node.Condition)
	g.line("CALL EVAL_CONDITION")
	g.line("POPS GF@result")
	g.linef("JUMPIFEQ %s GF@result bool@false", label(end))
	g.emitNode(node.Body, end)
	g.linef("JUMP %s", label(head))
	g.linef("LABEL %s", label(end))
}

func (g *Generator) emitRepeat(node *ast.Node) {
	head := g.newLabel()
	end := g.newLabel()

	g.linef("LABEL %s", label(head))
	g.emitNode(node.Body, end)
	g.pushExpression(node.Condition)
	g.line("CALL EVAL_CONDITION")
	g.line("POPS GF@result")
	g.linef("JUMPIFEQ %s GF@result bool@false", label(head))
	g.linef("LABEL %s", label(end))
}

// emitFor initialises the four synthesised declarations, normalises them to
// float, rejects a zero step, and loops with SHOULD_I_JUMP deciding exit.
func (g *Generator) emitFor(node *ast.Node) {
	head := g.newLabel()
	end := g.newLabel()

	iterator := node.Iterator
	step := node.Step
	condition := node.Condition
	copyDecl := node.Setup

	g.emitNode(iterator, 0)
	g.emitNode(step, 0)
	g.emitNode(condition, 0)
	g.emitNode(copyDecl, 0)

	iteratorName := symbolName(iterator.Sym)
	stepName := symbolName(step.Sym)
	conditionName := symbolName(condition.Sym)
	copyName := symbolName(copyDecl.Sym)

	g.linef("PUSHS LF@%s", iteratorName)
	g.line("CALL FOR_CONVERT")
	g.linef("POPS LF@%s", iteratorName)

	g.linef("PUSHS LF@%s", stepName)
	g.line("CALL ZERO_STEP")
	g.linef("POPS LF@%s", stepName)

	g.linef("PUSHS LF@%s", conditionName)
	g.line("CALL FOR_CONVERT")
	g.linef("POPS LF@%s", conditionName)

	g.linef("LABEL %s", label(head))
	g.linef("MOVE LF@%s LF@%s", copyName, iteratorName)
	g.linef("MOVE GF@for_condition LF@%s", conditionName)
	g.linef("MOVE GF@for_step LF@%s", stepName)
	g.linef("MOVE GF@for_iter LF@%s", iteratorName)
	g.line("CALL SHOULD_I_JUMP")
	g.line("POPS GF@result")
	g.linef("JUMPIFEQ %s GF@result bool@true", label(end))

	g.emitNode(node.Body, end)

	g.linef("ADD LF@%s LF@%s LF@%s", iteratorName, iteratorName, stepName)
	g.linef("JUMP %s", label(head))
	g.linef("LABEL %s", label(end))
}
