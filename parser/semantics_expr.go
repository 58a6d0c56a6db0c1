/*
File    : go-ifj21/parser/semantics_expr.go
*/
package parser

import (
	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/errs"
	"github.com/ifjlab/go-ifj21/lexer"
)

func isNumberOrInteger(t lexer.Type) bool {
	return t == lexer.TypeNumber || t == lexer.TypeInteger
}

// passCompatible implements the implicit conversion rule for argument
// passing, assignment and return: exact match, nil into anything, and the
// integer→number widening.
func passCompatible(source, dest lexer.Type) bool {
	if source == lexer.TypeNil {
		return true
	}
	if source == lexer.TypeInteger && dest == lexer.TypeNumber {
		return true
	}
	return source == dest
}

// binopOperandType combines two operand types: nil is rejected, mixed
// numerics widen to number, anything else must match exactly.
func binopOperandType(left, right lexer.Type) (lexer.Type, error) {
	switch {
	case left == lexer.TypeNil || right == lexer.TypeNil:
		return left, &errs.Error{Kind: errs.KindNil}
	case left == lexer.TypeInteger && right == lexer.TypeInteger:
		return lexer.TypeInteger, nil
	case isNumberOrInteger(left) && isNumberOrInteger(right):
		return lexer.TypeNumber, nil
	case left != right:
		return left, &errs.Error{Kind: errs.KindExprType}
	}
	return left, nil
}

// checkBinopOperation validates the combined operand type against the
// operator and derives the result type.
func checkBinopOperation(op ast.BinopType, source lexer.Type) (lexer.Type, bool) {
	switch op {
	case ast.BinopAdd, ast.BinopSub, ast.BinopMul, ast.BinopDiv, ast.BinopMod, ast.BinopPower:
		return source, isNumberOrInteger(source)
	case ast.BinopIntDiv:
		return source, source == lexer.TypeInteger
	case ast.BinopAnd, ast.BinopOr:
		return source, source == lexer.TypeBool
	case ast.BinopLt, ast.BinopLte, ast.BinopGt, ast.BinopGte, ast.BinopEq, ast.BinopNe:
		ok := source == lexer.TypeNumber || source == lexer.TypeInteger ||
			source == lexer.TypeString || source == lexer.TypeBool
		return lexer.TypeBool, ok
	case ast.BinopConcat:
		return source, source == lexer.TypeString
	}
	return source, false
}

func checkUnopOperation(op ast.UnopType, operand lexer.Type) bool {
	switch op {
	case ast.UnopLen:
		return operand == lexer.TypeString
	case ast.UnopNeg:
		return isNumberOrInteger(operand)
	case ast.UnopNot:
		return operand == lexer.TypeBool
	}
	return false
}

// checkExpression type-checks an expression bottom-up, resolving symbol
// references and attaching result types to operator nodes.
func (a *Analyzer) checkExpression(node *ast.Node) (lexer.Type, error) {
	if node == nil {
		return lexer.TypeNil, errs.Internal("checkExpression: nil node")
	}

	switch node.Kind {
	case ast.KindBinop:
		return a.checkBinopNode(node)
	case ast.KindUnop:
		return a.checkUnopNode(node)
	case ast.KindSymbol:
		if err := a.checkVariable(node, true, false); err != nil {
			return lexer.TypeNil, err
		}
		return node.Sym.Declaration().Type, nil
	case ast.KindFuncCall:
		if err := a.checkFuncCall(node, false); err != nil {
			return lexer.TypeNil, err
		}
		return node.CallType(), nil
	case ast.KindInteger:
		return lexer.TypeInteger, nil
	case ast.KindNumber:
		return lexer.TypeNumber, nil
	case ast.KindString:
		return lexer.TypeString, nil
	case ast.KindBoolean:
		return lexer.TypeBool, nil
	case ast.KindNil:
		return lexer.TypeNil, nil
	}
	return lexer.TypeNil, errs.Internal("checkExpression: unexpected %s node", node.Kind)
}

func (a *Analyzer) checkUnopNode(node *ast.Node) (lexer.Type, error) {
	operandType, err := a.checkExpression(node.Operand)
	if err != nil {
		return lexer.TypeNil, err
	}

	if !checkUnopOperation(node.Unop, operandType) {
		kind := errs.KindExprType
		if operandType == lexer.TypeNil {
			kind = errs.KindNil
		}
		return lexer.TypeNil, a.errorf(kind,
			"cannot use operator '%s' for type %s", node.Unop, operandType)
	}

	switch node.Unop {
	case ast.UnopLen:
		node.Result = lexer.TypeInteger
	case ast.UnopNeg:
		node.Result = operandType
	case ast.UnopNot:
		node.Result = lexer.TypeBool
	}
	return node.Result, nil
}

func (a *Analyzer) checkBinopNode(node *ast.Node) (lexer.Type, error) {
	left, err := a.checkExpression(node.Left)
	if err != nil {
		return lexer.TypeNil, err
	}
	right, err := a.checkExpression(node.Right)
	if err != nil {
		return lexer.TypeNil, err
	}

	// == and ~= compare nil against anything; and/or are boolean-typed
	// before the operand check so that their short-circuit lowering is
	// never reached with a non-boolean
	skipTypeCheck := false
	if node.Binop == ast.BinopEq || node.Binop == ast.BinopNe {
		if left == lexer.TypeNil || right == lexer.TypeNil {
			skipTypeCheck = true
			node.Result = lexer.TypeBool
		}
	} else if node.Binop == ast.BinopAnd || node.Binop == ast.BinopOr {
		if left != lexer.TypeBool || right != lexer.TypeBool {
			if left == lexer.TypeNil || right == lexer.TypeNil {
				return lexer.TypeNil, a.errorf(errs.KindNil,
					"cannot use operator '%s' for types %s and %s", node.Binop, left, right)
			}
			return lexer.TypeNil, a.errorf(errs.KindExprType,
				"cannot use operator '%s' for types %s and %s", node.Binop, left, right)
		}
		node.Result = lexer.TypeBool
		return node.Result, nil
	}

	// constant zero divisors are a compile-time error
	if node.Binop == ast.BinopDiv || node.Binop == ast.BinopIntDiv {
		if node.Right.Kind == ast.KindInteger && node.Right.Int == 0 {
			return lexer.TypeNil, a.errorf(errs.KindZeroDiv, "division by 0")
		}
		if node.Right.Kind == ast.KindNumber && node.Right.Num == 0 {
			return lexer.TypeNil, a.errorf(errs.KindZeroDiv, "division by 0")
		}
	}

	if !skipTypeCheck {
		combined, err := binopOperandType(left, right)
		if err != nil {
			return lexer.TypeNil, a.errorf(errs.KindOf(err),
				"cannot use operator '%s' for types %s and %s", node.Binop, left, right)
		}
		result, ok := checkBinopOperation(node.Binop, combined)
		if !ok {
			return lexer.TypeNil, a.errorf(errs.KindExprType,
				"cannot use operator '%s' for types %s and %s", node.Binop, left, right)
		}
		if node.Binop == ast.BinopDiv {
			// / always produces a number
			result = lexer.TypeNumber
		}
		node.Result = result
	}
	return node.Result, nil
}
