/*
File    : go-ifj21/optimizer/optimizer.go
*/

// Package optimizer runs one walk over the finished AST interleaving two
// concerns: constant folding with copy propagation and dead-code
// elimination, and building the helper-usage map the code generator elides
// dead DEFVARs with.
//
// A scope stack is maintained in parallel with the walk; propagation and
// assignment dropping are suppressed inside loop bodies because statically
// computed read counts do not see back-edges.
package optimizer

import (
	"errors"
	"math"

	"github.com/gammazero/deque"

	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/errs"
	"github.com/ifjlab/go-ifj21/lexer"
)

// errFoldSkip aborts one fold attempt without failing the compilation.
var errFoldSkip = errors.New("cannot fold")

type scope struct {
	isCycle bool
}

// Optimizer holds the walk state. With Optimize false Run is a no-op and
// the usage map reads all-set.
type Optimizer struct {
	optimize    bool
	usage       *Usage
	scopes      deque.Deque[*scope]
	builtinUsed func(name string) bool
}

// New creates an optimizer. builtinUsed reports whether a builtin function
// was called anywhere in the program.
func New(optimize bool, builtinUsed func(string) bool) *Optimizer {
	return &Optimizer{
		optimize:    optimize,
		usage:       &Usage{optimize: optimize},
		builtinUsed: builtinUsed,
	}
}

// Usage returns the helper-usage map for the code generator.
func (o *Optimizer) Usage() *Usage { return o.usage }

// Run optimizes the program in place.
func (o *Optimizer) Run(root *ast.Node) error {
	if !o.optimize {
		return nil
	}
	o.scopes = deque.Deque[*scope]{}
	o.scopes.PushFront(&scope{})

	if err := o.firstPass(root); err != nil {
		return err
	}
	if o.builtinUsed != nil && o.builtinUsed("write") {
		o.usage.markNilWrite()
	}
	return nil
}

func (o *Optimizer) pushScope(isCycle bool) {
	o.scopes.PushFront(&scope{isCycle: isCycle})
}

func (o *Optimizer) popScope() {
	if o.scopes.Len() > 1 {
		o.scopes.PopFront()
	}
}

// inCycle reports whether any enclosing scope is a loop body.
func (o *Optimizer) inCycle() bool {
	for i := 0; i < o.scopes.Len(); i++ {
		if o.scopes.At(i).isCycle {
			return true
		}
	}
	return false
}

// IsFunctionUsed reports whether a definition or its declaration was marked
// used by any call.
func IsFunctionUsed(def *ast.Node) bool {
	used := def.Used
	if def.Decl != nil {
		used = used || def.Decl.Used
	}
	return used
}

// IsNotNil reports whether an expression provably evaluates to a non-nil
// value, letting the generator skip the runtime nil check.
func IsNotNil(node *ast.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind {
	case ast.KindSymbol:
		if node.Sym.IsDeclaration() {
			return false
		}
		decl := node.Sym.Declaration()
		if decl.Constant && !decl.Dirty {
			return IsNotNil(decl.Expr)
		}
		return false
	case ast.KindInteger, ast.KindNumber, ast.KindString, ast.KindBoolean:
		return true
	}
	return false
}

// isConstant reports whether the node is a literal or a clean constant
// symbol reference.
func isConstant(node *ast.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind {
	case ast.KindSymbol:
		if node.Sym.IsDeclaration() {
			return false
		}
		decl := node.Sym.Declaration()
		return decl.Constant && !decl.Dirty
	case ast.KindInteger, ast.KindNumber, ast.KindNil, ast.KindString, ast.KindBoolean:
		return true
	}
	return false
}

func literalInt(node *ast.Node) (int64, error) {
	switch node.Kind {
	case ast.KindInteger:
		return node.Int, nil
	case ast.KindNumber:
		return int64(node.Num), nil
	}
	return 0, errFoldSkip
}

func literalNumber(node *ast.Node) (float64, error) {
	switch node.Kind {
	case ast.KindInteger:
		return float64(node.Int), nil
	case ast.KindNumber:
		return node.Num, nil
	}
	return 0, errFoldSkip
}

func literalString(node *ast.Node) (string, error) {
	if node.Kind == ast.KindString {
		return node.Str, nil
	}
	return "", errFoldSkip
}

// first pass entry points for expressions in statement or condition position

func (o *Optimizer) foldCondition(node *ast.Node) error {
	if node == nil {
		return nil
	}
	// every condition runs through the EVAL_CONDITION helper
	o.usage.markEvalCondition()
	_, err := o.optExpression(node, true)
	return err
}

func (o *Optimizer) foldExpression(node *ast.Node) error {
	if node == nil {
		return nil
	}
	_, err := o.optExpression(node, false)
	return err
}

// optExpression walks an expression, folding what it can and recording
// helper usage for what it cannot.
func (o *Optimizer) optExpression(node *ast.Node, isCond bool) (lexer.Type, error) {
	switch node.Kind {
	case ast.KindBinop:
		return o.optBinop(node, isCond)
	case ast.KindUnop:
		return o.optUnop(node, isCond)
	case ast.KindSymbol:
		return o.optSymbol(node)
	case ast.KindFuncCall:
		for it := node.Arguments; it != nil; it = it.Next {
			if _, err := o.optExpression(it, isCond); err != nil {
				return lexer.TypeNil, err
			}
		}
		return node.CallType(), nil
	case ast.KindInteger:
		return lexer.TypeInteger, nil
	case ast.KindNumber:
		return lexer.TypeNumber, nil
	case ast.KindNil:
		return lexer.TypeNil, nil
	case ast.KindString:
		return lexer.TypeString, nil
	case ast.KindBoolean:
		return lexer.TypeBool, nil
	}
	return lexer.TypeNil, nil
}

// optSymbol performs copy propagation: a reference to a constant, never
// dirtied declaration is replaced by a copy of its literal. Propagation is
// suppressed inside loops, where static read counts lie.
func (o *Optimizer) optSymbol(node *ast.Node) (lexer.Type, error) {
	decl := node.Sym.Declaration()
	symType := decl.Type

	if !decl.Dirty && isConstant(node) && !o.inCycle() {
		if expr := decl.Expr; expr != nil {
			next := node.Next
			switch expr.Kind {
			case ast.KindString:
				*node = ast.Node{Kind: ast.KindString, Str: expr.Str}
			case ast.KindInteger:
				*node = ast.Node{Kind: ast.KindInteger, Int: expr.Int}
			case ast.KindNumber:
				*node = ast.Node{Kind: ast.KindNumber, Num: expr.Num}
			case ast.KindBoolean:
				*node = ast.Node{Kind: ast.KindBoolean, Bool: expr.Bool}
			case ast.KindNil:
				*node = ast.Node{Kind: ast.KindNil}
			default:
				return symType, nil
			}
			node.Next = next
		}
	}
	return symType, nil
}

func (o *Optimizer) optUnop(node *ast.Node, isCond bool) (lexer.Type, error) {
	operandType, err := o.optExpression(node.Operand, isCond)
	if err != nil {
		return lexer.TypeNil, err
	}

	if isConstant(node.Operand) {
		result := node.Result
		if err := tryUnopFold(node, operandType); err != nil {
			if !errors.Is(err, errFoldSkip) {
				return lexer.TypeNil, err
			}
			o.usage.markUnop(node.Unop)
			return result, nil
		}
		return result, nil
	}

	o.usage.markUnop(node.Unop)
	return node.Result, nil
}

func (o *Optimizer) optBinop(node *ast.Node, isCond bool) (lexer.Type, error) {
	left, err := o.optExpression(node.Left, isCond)
	if err != nil {
		return lexer.TypeNil, err
	}
	right, err := o.optExpression(node.Right, isCond)
	if err != nil {
		return lexer.TypeNil, err
	}

	if isConstant(node.Left) && isConstant(node.Right) {
		result := node.Result
		if err := tryBinopFold(node, left, right); err != nil {
			if !errors.Is(err, errFoldSkip) {
				return lexer.TypeNil, err
			}
			o.usage.markBinop(node.Binop)
		}
		return result, nil
	}

	o.usage.markBinop(node.Binop)
	return node.Result, nil
}

// tryBinopFold evaluates a constant binary operator in place using the same
// semantics the generated helpers have at runtime. The switch is keyed on
// the operator's annotated result type.
func tryBinopFold(node *ast.Node, left, right lexer.Type) error {
	op := node.Binop
	lnode, rnode := node.Left, node.Right
	next := node.Next

	switch node.Result {
	case lexer.TypeInteger:
		lhs, err := literalInt(lnode)
		if err != nil {
			return err
		}
		rhs, err := literalInt(rnode)
		if err != nil {
			return err
		}
		var v int64
		switch op {
		case ast.BinopAdd:
			v = lhs + rhs
		case ast.BinopSub:
			v = lhs - rhs
		case ast.BinopMul:
			v = lhs * rhs
		case ast.BinopIntDiv:
			if rhs == 0 {
				return errs.New(errs.KindZeroDiv, 0, 0, "division by 0")
			}
			v = lhs / rhs
		case ast.BinopMod:
			if rhs == 0 {
				return errs.New(errs.KindZeroDiv, 0, 0, "division by 0")
			}
			v = lhs % rhs
		case ast.BinopPower:
			v = int64(math.Pow(float64(lhs), float64(rhs)))
		default:
			return errFoldSkip
		}
		*node = ast.Node{Kind: ast.KindInteger, Int: v, Next: next}

	case lexer.TypeNumber:
		lhs, err := literalNumber(lnode)
		if err != nil {
			return err
		}
		rhs, err := literalNumber(rnode)
		if err != nil {
			return err
		}
		var v float64
		switch op {
		case ast.BinopAdd:
			v = lhs + rhs
		case ast.BinopSub:
			v = lhs - rhs
		case ast.BinopMul:
			v = lhs * rhs
		case ast.BinopDiv:
			if rhs == 0 {
				return errs.New(errs.KindZeroDiv, 0, 0, "division by 0")
			}
			v = lhs / rhs
		case ast.BinopMod:
			if rhs == 0 {
				return errs.New(errs.KindZeroDiv, 0, 0, "division by 0")
			}
			v = math.Mod(lhs, rhs)
		case ast.BinopPower:
			v = math.Pow(lhs, rhs)
		default:
			return errFoldSkip
		}
		*node = ast.Node{Kind: ast.KindNumber, Num: v, Next: next}

	case lexer.TypeString:
		lhs, err := literalString(lnode)
		if err != nil {
			return err
		}
		rhs, err := literalString(rnode)
		if err != nil {
			return err
		}
		if op != ast.BinopConcat {
			return errFoldSkip
		}
		*node = ast.Node{Kind: ast.KindString, Str: lhs + rhs, Next: next}

	case lexer.TypeBool:
		v, err := foldBoolBinop(op, lnode, rnode, left, right)
		if err != nil {
			return err
		}
		*node = ast.Node{Kind: ast.KindBoolean, Bool: v, Next: next}

	default:
		return errFoldSkip
	}
	return nil
}

// foldBoolBinop folds boolean-valued operators: logic on booleans,
// comparisons on numerics and strings, and ==/~= involving nil.
func foldBoolBinop(op ast.BinopType, lnode, rnode *ast.Node, left, right lexer.Type) (bool, error) {
	switch {
	case left == lexer.TypeBool && right == lexer.TypeBool:
		lhs, rhs := lnode.Bool, rnode.Bool
		if lnode.Kind != ast.KindBoolean || rnode.Kind != ast.KindBoolean {
			return false, errFoldSkip
		}
		switch op {
		case ast.BinopAnd:
			return lhs && rhs, nil
		case ast.BinopOr:
			return lhs || rhs, nil
		case ast.BinopEq:
			return lhs == rhs, nil
		case ast.BinopNe:
			return lhs != rhs, nil
		}
		return false, errFoldSkip

	case left == lexer.TypeNil && right == lexer.TypeNil:
		switch op {
		case ast.BinopEq:
			return true, nil
		case ast.BinopNe:
			return false, nil
		}
		return false, errFoldSkip

	case left == lexer.TypeNil || right == lexer.TypeNil:
		// one side nil, the other typed: never equal
		switch op {
		case ast.BinopEq:
			return false, nil
		case ast.BinopNe:
			return true, nil
		}
		return false, errFoldSkip

	case isNumberOrInteger(left) && isNumberOrInteger(right):
		lhs, err := literalNumber(lnode)
		if err != nil {
			return false, err
		}
		rhs, err := literalNumber(rnode)
		if err != nil {
			return false, err
		}
		// the runtime compares doubles exactly after promotion
		eq := lhs == rhs
		switch op {
		case ast.BinopEq:
			return eq, nil
		case ast.BinopNe:
			return !eq, nil
		case ast.BinopLt:
			return lhs < rhs, nil
		case ast.BinopLte:
			return lhs <= rhs, nil
		case ast.BinopGt:
			return lhs > rhs, nil
		case ast.BinopGte:
			return lhs >= rhs, nil
		}
		return false, errFoldSkip

	case left == lexer.TypeString && right == lexer.TypeString:
		lhs, err := literalString(lnode)
		if err != nil {
			return false, err
		}
		rhs, err := literalString(rnode)
		if err != nil {
			return false, err
		}
		switch op {
		case ast.BinopEq:
			return lhs == rhs, nil
		case ast.BinopNe:
			return lhs != rhs, nil
		case ast.BinopLt:
			return lhs < rhs, nil
		case ast.BinopLte:
			return lhs <= rhs, nil
		case ast.BinopGt:
			return lhs > rhs, nil
		case ast.BinopGte:
			return lhs >= rhs, nil
		}
		return false, errFoldSkip
	}
	return false, errFoldSkip
}

func isNumberOrInteger(t lexer.Type) bool {
	return t == lexer.TypeNumber || t == lexer.TypeInteger
}

// tryUnopFold evaluates a constant unary operator in place.
func tryUnopFold(node *ast.Node, operandType lexer.Type) error {
	operand := node.Operand
	next := node.Next

	switch node.Unop {
	case ast.UnopLen:
		s, err := literalString(operand)
		if err != nil {
			return err
		}
		*node = ast.Node{Kind: ast.KindInteger, Int: int64(len(s)), Next: next}
	case ast.UnopNeg:
		switch operandType {
		case lexer.TypeInteger:
			v, err := literalInt(operand)
			if err != nil {
				return err
			}
			*node = ast.Node{Kind: ast.KindInteger, Int: -v, Next: next}
		case lexer.TypeNumber:
			v, err := literalNumber(operand)
			if err != nil {
				return err
			}
			*node = ast.Node{Kind: ast.KindNumber, Num: -v, Next: next}
		default:
			return errFoldSkip
		}
	case ast.UnopNot:
		if operand.Kind != ast.KindBoolean {
			return errFoldSkip
		}
		*node = ast.Node{Kind: ast.KindBoolean, Bool: !operand.Bool, Next: next}
	}
	return nil
}

// statement-level walk

func (o *Optimizer) firstPass(node *ast.Node) error {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case ast.KindProgram:
		return o.iterate(node.Statements)
	case ast.KindFuncDef:
		return o.optFuncDef(node)
	case ast.KindBody:
		return o.iterate(node.Statements)
	case ast.KindAssignment:
		return o.optAssignment(node)
	case ast.KindDeclaration:
		return o.optDeclaration(node)
	case ast.KindIf:
		return o.optIf(node)
	case ast.KindWhile:
		return o.optWhile(node)
	case ast.KindFor:
		return o.optFor(node)
	case ast.KindFuncCall:
		return o.foldExpression(node)
	case ast.KindRepeat:
		return o.optRepeat(node)
	case ast.KindReturn:
		return o.optReturn(node)
	}
	return nil
}

// optReturn folds the returned expressions so that helpers they need are
// recorded in the usage map.
func (o *Optimizer) optReturn(node *ast.Node) error {
	for it := node.Values; it != nil; it = it.Next {
		if err := o.foldExpression(it); err != nil {
			return err
		}
	}
	return nil
}

func (o *Optimizer) iterate(list *ast.Node) error {
	for ; list != nil; list = list.Next {
		if err := o.firstPass(list); err != nil {
			return err
		}
	}
	return nil
}

// optFuncDef invalidates a function nothing calls, otherwise walks its body.
func (o *Optimizer) optFuncDef(node *ast.Node) error {
	if !IsFunctionUsed(node) {
		node.Invalidate()
		return nil
	}
	o.pushScope(false)
	err := o.firstPass(node.Body)
	o.popScope()
	return err
}

// optDeclaration drops unused declarations and unread initialisers, and
// records constant initialisers for propagation.
func (o *Optimizer) optDeclaration(node *ast.Node) error {
	if !node.Sym.Used {
		node.Invalidate()
		return nil
	}

	if node.Sym.CurrentRead == 0 && node.Assign != nil {
		// the initial value is overwritten before anyone reads it
		node.Assign = nil
	}

	if err := o.foldExpression(node.Assign); err != nil {
		return err
	}
	if isConstant(node.Assign) {
		node.Sym.Constant = true
		node.Sym.Expr = node.Assign
	}
	return nil
}

// optIf folds constant branches: false branches disappear, a true branch
// becomes unconditional and discards everything after it. When no
// conditions survive, the node decays into a plain body holding the
// remaining unconditional body (the else, or the always-true branch), or
// into nothing.
func (o *Optimizer) optIf(node *ast.Node) error {
	cond, body := node.Conditions, node.Bodies
	var prevCond, prevBody *ast.Node

	for cond != nil && body != nil {
		if err := o.foldCondition(cond); err != nil {
			return err
		}

		switch {
		case cond.Kind == ast.KindBoolean && !cond.Bool:
			// branch can never run
			if prevCond == nil {
				node.Conditions = cond.Next
			} else {
				prevCond.Next = cond.Next
			}
			if prevBody == nil {
				node.Bodies = body.Next
			} else {
				prevBody.Next = body.Next
			}
			cond, body = cond.Next, body.Next

		case cond.Kind == ast.KindBoolean && cond.Bool:
			// branch always runs: drop its condition and all later branches
			if prevCond == nil {
				node.Conditions = nil
			} else {
				prevCond.Next = nil
			}
			body.Next = nil
			o.pushScope(false)
			err := o.firstPass(body)
			o.popScope()
			if err != nil {
				return err
			}
			cond, body = nil, nil

		default:
			o.pushScope(false)
			if err := o.firstPass(body); err != nil {
				o.popScope()
				return err
			}
			o.popScope()
			prevCond, prevBody = cond, body
			cond, body = cond.Next, body.Next
		}
	}

	if node.Conditions == nil {
		if node.Bodies != nil {
			// only an unconditional body remains: decay into a plain body
			// so the downstream walk sees a statement list
			bodies := node.Bodies
			*node = ast.Node{Kind: ast.KindBody, Statements: bodies, Next: node.Next}
		} else {
			node.Invalidate()
		}
	}
	return nil
}

func (o *Optimizer) optWhile(node *ast.Node) error {
	if err := o.foldCondition(node.Condition); err != nil {
		return err
	}

	if node.Condition.Kind == ast.KindBoolean && !node.Condition.Bool {
		node.Invalidate()
		return nil
	}
	// a constant true condition is left alone: an intentional infinite loop

	o.pushScope(true)
	err := o.firstPass(node.Body)
	o.popScope()
	return err
}

func (o *Optimizer) optFor(node *ast.Node) error {
	if err := o.foldCondition(node.Condition.Assign); err != nil {
		return err
	}
	if err := o.foldExpression(node.Iterator.Assign); err != nil {
		return err
	}
	if err := o.foldExpression(node.Setup.Assign); err != nil {
		return err
	}
	if err := o.foldExpression(node.Step.Assign); err != nil {
		return err
	}
	o.usage.markFor()

	o.pushScope(true)
	err := o.firstPass(node.Body)
	o.popScope()
	return err
}

func (o *Optimizer) optRepeat(node *ast.Node) error {
	if err := o.foldCondition(node.Condition); err != nil {
		return err
	}
	o.pushScope(true)
	err := o.firstPass(node.Body)
	o.popScope()
	return err
}

// optAssignment drops whole dead assignments and prunes dead targets in
// tandem with their expressions. Both are suppressed inside loops and when
// the last right-hand element is a call (its side effects must run and its
// multi-value shape must survive).
func (o *Optimizer) optAssignment(node *ast.Node) error {
	dec := !o.inCycle()

	lastExp := node.Expressions
	for lastExp != nil && lastExp.Next != nil {
		lastExp = lastExp.Next
	}
	if lastExp != nil && lastExp.Kind == ast.KindFuncCall {
		dec = false
	}

	allUnused := true
	for ids := node.Identifiers; ids != nil; ids = ids.Next {
		if ids.Sym.CurrentRead != 0 {
			allUnused = false
			break
		}
	}
	if dec && allUnused {
		node.Invalidate()
		return nil
	}

	if dec {
		ids, exp := node.Identifiers, node.Expressions
		var prevIds, prevExp *ast.Node
		for ids != nil && exp != nil {
			if ids.Sym.CurrentRead == 0 {
				if prevIds == nil {
					node.Identifiers = ids.Next
				} else {
					prevIds.Next = ids.Next
				}
				if prevExp == nil {
					node.Expressions = exp.Next
				} else {
					prevExp.Next = exp.Next
				}
			} else {
				prevIds, prevExp = ids, exp
			}
			ids, exp = ids.Next, exp.Next
		}
	}

	for exp := node.Expressions; exp != nil; exp = exp.Next {
		if err := o.foldExpression(exp); err != nil {
			return err
		}
	}
	return nil
}
