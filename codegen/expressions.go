/*
File    : go-ifj21/codegen/expressions.go
*/
package codegen

import (
	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/lexer"
	"github.com/ifjlab/go-ifj21/optimizer"
)

// canBeNil decides whether the runtime nil check around an operator is
// needed; with optimization off it always is.
func (g *Generator) canBeNil(node *ast.Node) bool {
	if !g.optimize {
		return true
	}
	switch node.Kind {
	case ast.KindBinop:
		return !optimizer.IsNotNil(node.Left) || !optimizer.IsNotNil(node.Right)
	case ast.KindUnop:
		return !optimizer.IsNotNil(node.Operand)
	}
	return !optimizer.IsNotNil(node)
}

// needsConversion decides whether the int→float coercion helper is needed.
// It is skipped only for a number-typed operator whose operands are known
// not to be integers; every other operator keeps it.
func needsConversion(node *ast.Node) bool {
	switch node.Kind {
	case ast.KindBinop:
		opType, ok := node.TypeOf()
		if !ok {
			return true
		}
		if opType == lexer.TypeNumber {
			left, ok := node.Left.TypeOf()
			if !ok || left == lexer.TypeInteger {
				return true
			}
			right, ok := node.Right.TypeOf()
			if !ok || right == lexer.TypeInteger {
				return true
			}
			return false
		}
	case ast.KindUnop:
		opType, ok := node.TypeOf()
		if !ok {
			return true
		}
		if opType == lexer.TypeNumber {
			operand, ok := node.Operand.TypeOf()
			if !ok || operand == lexer.TypeInteger {
				return true
			}
			return false
		}
	}
	return true
}

func (g *Generator) nilCheck(node *ast.Node) {
	if g.canBeNil(node) {
		g.line("CALL NIL_CHECK")
	}
}

func (g *Generator) convCheck(node *ast.Node) {
	if needsConversion(node) {
		g.line("CALL CONV_CHECK")
	}
}

// pushUnop lowers a unary operator, leaving its value on the operand stack.
func (g *Generator) pushUnop(node *ast.Node) {
	switch node.Unop {
	case ast.UnopLen:
		g.pushExpression(node.Operand)
		g.line("POPS GF@result")
		if g.canBeNil(node) {
			g.line("JUMPIFEQ NIL_FOUND GF@result nil@nil")
		}
		g.line("STRLEN GF@result GF@result")
		g.line("PUSHS GF@result")
	case ast.UnopNot:
		g.pushExpression(node.Operand)
		g.line("PUSHS int@2")
		g.nilCheck(node)
		g.line("POPS GF@trash")
		g.line("NOTS")
	case ast.UnopNeg:
		g.pushExpression(node.Operand)
		g.line("PUSHS int@-1")
		g.nilCheck(node)
		g.convCheck(node)
		g.line("MULS")
	}
}

// pushExpression lowers an expression post-order, leaving exactly one value
// on the operand stack. and/or are short-circuited structurally: the right
// operand's code is jumped over when the left side already decides.
func (g *Generator) pushExpression(node *ast.Node) {
	if node.Kind != ast.KindBinop {
		switch node.Kind {
		case ast.KindUnop:
			g.pushUnop(node)
		case ast.KindInteger, ast.KindNumber, ast.KindBoolean, ast.KindString, ast.KindNil, ast.KindSymbol:
			g.linef("PUSHS %s", literal(node))
		case ast.KindFuncCall:
			g.emitFuncCall(node)
			g.line("PUSHS TF@retval0")
		}
		return
	}

	short := g.newLabel()
	join := g.newLabel()

	g.pushExpression(node.Left)

	switch node.Binop {
	case ast.BinopOr:
		g.line("POPS GF@result")
		g.line("PUSHS GF@result")
		g.linef("JUMPIFEQ %s GF@result bool@true", label(short))
	case ast.BinopAnd:
		g.line("POPS GF@result")
		g.line("PUSHS GF@result")
		g.linef("JUMPIFEQ %s GF@result bool@false", label(short))
	}

	g.pushExpression(node.Right)
	g.linef("JUMP %s", label(join))
	g.linef("LABEL %s", label(short))

	switch node.Binop {
	case ast.BinopOr:
		g.line("PUSHS bool@true")
	case ast.BinopAnd:
		g.line("PUSHS bool@false")
	}
	g.linef("LABEL %s", label(join))

	switch node.Binop {
	case ast.BinopAdd:
		g.nilCheck(node)
		g.convCheck(node)
		g.line("ADDS")
	case ast.BinopSub:
		g.nilCheck(node)
		g.convCheck(node)
		g.line("SUBS")
	case ast.BinopMul:
		g.nilCheck(node)
		g.convCheck(node)
		g.line("MULS")
	case ast.BinopDiv:
		g.nilCheck(node)
		g.line("CALL CONV_TO_FLOAT")
		g.line("CALL float_zerodivcheck")
		g.line("DIVS")
	case ast.BinopIntDiv:
		g.nilCheck(node)
		g.line("CALL CHECK_IF_INT")
		g.line("CALL int_zerodivcheck")
		g.line("IDIVS")
	case ast.BinopMod:
		// a % b lowers to a - (a // b) * b
		g.nilCheck(node)
		g.line("CALL CONV_TO_INT")
		g.line("CALL int_zerodivcheck")
		g.line("POPS GF@op2")
		g.line("POPS GF@op1")
		g.line("PUSHS GF@op1")
		g.line("PUSHS GF@op2")
		g.line("IDIVS")
		g.line("PUSHS GF@op2")
		g.line("MULS")
		g.line("POPS GF@op2")
		g.line("PUSHS GF@op1")
		g.line("PUSHS GF@op2")
		g.line("SUBS")
	case ast.BinopPower:
		g.line("CALL EXPONENTIATION")
	case ast.BinopLt:
		g.nilCheck(node)
		g.convCheck(node)
		g.line("LTS")
	case ast.BinopGt:
		g.nilCheck(node)
		g.convCheck(node)
		g.line("GTS")
	case ast.BinopLte:
		g.nilCheck(node)
		g.convCheck(node)
		g.line("GTS")
		g.line("NOTS")
	case ast.BinopGte:
		g.nilCheck(node)
		g.convCheck(node)
		g.line("LTS")
		g.line("NOTS")
	case ast.BinopEq:
		g.convCheck(node)
		g.line("EQS")
	case ast.BinopNe:
		g.convCheck(node)
		g.line("EQS")
		g.line("NOTS")
	case ast.BinopAnd:
		g.line("CALL EVAL_CONDITION")
		g.line("POPS GF@op1")
		g.line("CALL EVAL_CONDITION")
		g.line("PUSHS GF@op1")
		g.line("ANDS")
	case ast.BinopOr:
		g.line("CALL EVAL_CONDITION")
		g.line("POPS GF@op1")
		g.line("CALL EVAL_CONDITION")
		g.line("PUSHS GF@op1")
		g.line("ORS")
	case ast.BinopConcat:
		g.line("POPS GF@string1")
		g.line("POPS GF@string0")
		g.line("CONCAT GF@result GF@string0 GF@string1")
		g.line("PUSHS GF@result")
	}
}
